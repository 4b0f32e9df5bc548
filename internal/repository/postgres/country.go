package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"momo-proxy-backend/internal/domain"
	"momo-proxy-backend/internal/repository"
)

type countryRepository struct {
	db *sql.DB
}

func NewCountryRepository(db *sql.DB) repository.CountryRepository {
	return &countryRepository{db: db}
}

const countryColumns = `id, name, iso_code, phone_code, currency, is_active`

func (r *countryRepository) GetByID(ctx context.Context, id int32) (*domain.Country, error) {
	query := `SELECT ` + countryColumns + ` FROM countries WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *countryRepository) GetByISO(ctx context.Context, isoCode string) (*domain.Country, error) {
	query := `SELECT ` + countryColumns + ` FROM countries WHERE iso_code = $1`
	return r.getOne(ctx, query, strings.ToUpper(isoCode))
}

func (r *countryRepository) getOne(ctx context.Context, query string, arg any) (*domain.Country, error) {
	c := &domain.Country{}
	err := conn(ctx, r.db).QueryRowContext(ctx, query, arg).Scan(&c.ID, &c.Name, &c.ISOCode, &c.PhoneCode, &c.Currency, &c.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *countryRepository) ListActive(ctx context.Context) ([]domain.Country, error) {
	query := `SELECT ` + countryColumns + ` FROM countries WHERE is_active = true ORDER BY id`
	rows, err := conn(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var countries []domain.Country
	for rows.Next() {
		var c domain.Country
		if err := rows.Scan(&c.ID, &c.Name, &c.ISOCode, &c.PhoneCode, &c.Currency, &c.IsActive); err != nil {
			return nil, err
		}
		countries = append(countries, c)
	}
	return countries, rows.Err()
}
