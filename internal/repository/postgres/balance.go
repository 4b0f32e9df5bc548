package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"momo-proxy-backend/internal/domain"
	"momo-proxy-backend/internal/logger"
	"momo-proxy-backend/internal/repository"
)

type balanceRepository struct {
	db *sql.DB
}

func NewBalanceRepository(db *sql.DB) repository.BalanceRepository {
	return &balanceRepository{db: db}
}

const balanceColumns = `id, company_id, country_id, partner_code, available, held, created_at, updated_at`

func scanBalance(row interface{ Scan(...any) error }) (*domain.Balance, error) {
	b := &domain.Balance{}
	err := row.Scan(&b.ID, &b.CompanyID, &b.CountryID, &b.PartnerCode, &b.Available, &b.Held, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *balanceRepository) GetForUpdate(ctx context.Context, companyID, countryID int32) (*domain.Balance, error) {
	query := `SELECT ` + balanceColumns + ` FROM company_country_balances
	          WHERE company_id = $1 AND country_id = $2 FOR UPDATE`
	logger.DatabaseCall("balance.get_for_update", query, "company_id", companyID, "country_id", countryID)
	b, err := scanBalance(conn(ctx, r.db).QueryRowContext(ctx, query, companyID, countryID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNoBalanceConfigured
	}
	return b, err
}

func (r *balanceRepository) GetByIDForUpdate(ctx context.Context, id int32) (*domain.Balance, error) {
	query := `SELECT ` + balanceColumns + ` FROM company_country_balances WHERE id = $1 FOR UPDATE`
	logger.DatabaseCall("balance.get_by_id_for_update", query, "balance_id", id)
	b, err := scanBalance(conn(ctx, r.db).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNoBalanceConfigured
	}
	return b, err
}

func (r *balanceRepository) UpdateAmounts(ctx context.Context, b *domain.Balance) error {
	query := `UPDATE company_country_balances SET available = $1, held = $2, updated_at = $3 WHERE id = $4`
	b.UpdatedAt = time.Now()
	res, err := conn(ctx, r.db).ExecContext(ctx, query, b.Available, b.Held, b.UpdatedAt, b.ID)
	if err != nil {
		logger.DatabaseResult("balance.update_amounts", 0, err, "balance_id", b.ID)
		return err
	}
	changed, err := rowsChanged(res)
	if err != nil {
		return err
	}
	if !changed {
		return fmt.Errorf("balance %d: %w", b.ID, domain.ErrNotFound)
	}
	logger.DatabaseResult("balance.update_amounts", 1, nil, "balance_id", b.ID)
	return nil
}

// Ensure creates a zero balance for the pair when none exists and returns the row.
func (r *balanceRepository) Ensure(ctx context.Context, companyID, countryID int32, partnerCode string) (*domain.Balance, error) {
	insert := `INSERT INTO company_country_balances (company_id, country_id, partner_code, available, held, created_at, updated_at)
	           VALUES ($1, $2, $3, 0, 0, $4, $4) ON CONFLICT (company_id, country_id) DO NOTHING`
	q := conn(ctx, r.db)
	if _, err := q.ExecContext(ctx, insert, companyID, countryID, partnerCode, time.Now()); err != nil {
		return nil, err
	}
	query := `SELECT ` + balanceColumns + ` FROM company_country_balances WHERE company_id = $1 AND country_id = $2`
	return scanBalance(q.QueryRowContext(ctx, query, companyID, countryID))
}

func (r *balanceRepository) ListSummaries(ctx context.Context, companyID int32) ([]domain.BalanceSummary, error) {
	query := `SELECT c.iso_code, c.name, c.currency, b.partner_code, b.available, b.held
	          FROM company_country_balances b JOIN countries c ON c.id = b.country_id
	          WHERE b.company_id = $1 ORDER BY c.iso_code`
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []domain.BalanceSummary
	for rows.Next() {
		var s domain.BalanceSummary
		if err := rows.Scan(&s.CountryISO, &s.CountryName, &s.Currency, &s.PartnerCode, &s.Available, &s.Held); err != nil {
			return nil, err
		}
		s.Effective = s.Available.Sub(s.Held)
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
