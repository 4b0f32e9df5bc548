package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"momo-proxy-backend/internal/domain"
	"momo-proxy-backend/internal/repository"
)

type feeRuleRepository struct {
	db *sql.DB
}

func NewFeeRuleRepository(db *sql.DB) repository.FeeRuleRepository {
	return &feeRuleRepository{db: db}
}

const feeRuleColumns = `id, country_id, kind, fee_model, flat_fee, percent_fee, min_fee, max_fee,
	version, previous_rule_id, is_active, approved_at, COALESCE(approved_by, ''), created_at`

func scanFeeRule(row interface{ Scan(...any) error }) (*domain.FeeRule, error) {
	fr := &domain.FeeRule{}
	var minFee, maxFee decimal.NullDecimal
	var prevID sql.NullInt32
	var approvedAt sql.NullTime
	err := row.Scan(&fr.ID, &fr.CountryID, &fr.Kind, &fr.Model, &fr.FlatFee, &fr.PercentFee, &minFee, &maxFee,
		&fr.Version, &prevID, &fr.IsActive, &approvedAt, &fr.ApprovedBy, &fr.CreatedAt)
	if err != nil {
		return nil, err
	}
	if minFee.Valid {
		fr.MinFee = &minFee.Decimal
	}
	if maxFee.Valid {
		fr.MaxFee = &maxFee.Decimal
	}
	if prevID.Valid {
		fr.PreviousRuleID = &prevID.Int32
	}
	if approvedAt.Valid {
		fr.ApprovedAt = &approvedAt.Time
	}
	return fr, nil
}

func (r *feeRuleRepository) getOne(ctx context.Context, query string, args ...any) (*domain.FeeRule, error) {
	fr, err := scanFeeRule(conn(ctx, r.db).QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return fr, err
}

func (r *feeRuleRepository) GetActive(ctx context.Context, countryID int32, kind domain.TransactionKind) (*domain.FeeRule, error) {
	query := `SELECT ` + feeRuleColumns + ` FROM fee_rules WHERE country_id = $1 AND kind = $2 AND is_active = true`
	return r.getOne(ctx, query, countryID, kind)
}

func (r *feeRuleRepository) GetByID(ctx context.Context, id int32) (*domain.FeeRule, error) {
	return r.getOne(ctx, `SELECT `+feeRuleColumns+` FROM fee_rules WHERE id = $1`, id)
}

func (r *feeRuleRepository) Create(ctx context.Context, fr *domain.FeeRule) error {
	query := `INSERT INTO fee_rules (country_id, kind, fee_model, flat_fee, percent_fee, min_fee, max_fee,
	              version, previous_rule_id, is_active, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, false, $10) RETURNING id`
	fr.CreatedAt = time.Now()
	fr.IsActive = false
	return conn(ctx, r.db).QueryRowContext(ctx, query, fr.CountryID, fr.Kind, fr.Model, fr.FlatFee, fr.PercentFee,
		nullDecimal(fr.MinFee), nullDecimal(fr.MaxFee), fr.Version, fr.PreviousRuleID, fr.CreatedAt).Scan(&fr.ID)
}

// Approve stamps an unapproved rule. Approved rules are never touched again.
func (r *feeRuleRepository) Approve(ctx context.Context, id int32, approvedBy string, at time.Time) error {
	query := `UPDATE fee_rules SET approved_at = $1, approved_by = $2 WHERE id = $3 AND approved_at IS NULL`
	res, err := conn(ctx, r.db).ExecContext(ctx, query, at, approvedBy, id)
	if err != nil {
		return err
	}
	changed, err := rowsChanged(res)
	if err != nil {
		return err
	}
	if !changed {
		return fmt.Errorf("fee rule %d: %w", id, domain.ErrRuleImmutable)
	}
	return nil
}

func (r *feeRuleRepository) DeactivateKey(ctx context.Context, countryID int32, kind domain.TransactionKind) error {
	query := `UPDATE fee_rules SET is_active = false WHERE country_id = $1 AND kind = $2 AND is_active = true`
	_, err := conn(ctx, r.db).ExecContext(ctx, query, countryID, kind)
	return err
}

func (r *feeRuleRepository) Activate(ctx context.Context, id int32) error {
	query := `UPDATE fee_rules SET is_active = true WHERE id = $1 AND approved_at IS NOT NULL`
	res, err := conn(ctx, r.db).ExecContext(ctx, query, id)
	if isUniqueViolation(err) {
		return fmt.Errorf("fee rule %d: another rule is active for the key: %w", id, domain.ErrValidation)
	}
	if err != nil {
		return err
	}
	changed, err := rowsChanged(res)
	if err != nil {
		return err
	}
	if !changed {
		return fmt.Errorf("fee rule %d: %w", id, domain.ErrRuleNotApproved)
	}
	return nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
