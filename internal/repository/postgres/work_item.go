package postgres

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"momo-proxy-backend/internal/domain"
	"momo-proxy-backend/internal/logger"
	"momo-proxy-backend/internal/repository"
)

type workItemRepository struct {
	db *sql.DB
}

func NewWorkItemRepository(db *sql.DB) repository.WorkItemRepository {
	return &workItemRepository{db: db}
}

const workItemColumns = `id, reference, transaction_type, counterparty, amount, partner_code, company_id,
	country_hint, status, COALESCE(error_message, ''), created_at, processed_at`

func scanWorkItem(row interface{ Scan(...any) error }) (*domain.WorkItem, error) {
	w := &domain.WorkItem{}
	var hint sql.NullString
	var processedAt sql.NullTime
	err := row.Scan(&w.ID, &w.Reference, &w.Kind, &w.Counterparty, &w.Amount, &w.PartnerCode, &w.CompanyID,
		&hint, &w.Status, &w.ErrorMessage, &w.CreatedAt, &processedAt)
	if err != nil {
		return nil, err
	}
	if hint.Valid {
		w.CountryHint = &hint.String
	}
	if processedAt.Valid {
		w.ProcessedAt = &processedAt.Time
	}
	return w, nil
}

func (r *workItemRepository) Create(ctx context.Context, w *domain.WorkItem) error {
	query := `INSERT INTO pending_transactions (reference, transaction_type, counterparty, amount, partner_code, company_id, country_hint, status, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now()
	}
	if w.Status == "" {
		w.Status = domain.WorkItemStatusPending
	}
	logger.DatabaseCall("work_item.create", query, "reference", w.Reference)
	return conn(ctx, r.db).QueryRowContext(ctx, query, w.Reference, w.Kind, w.Counterparty, w.Amount, w.PartnerCode,
		w.CompanyID, w.CountryHint, w.Status, w.CreatedAt).Scan(&w.ID)
}

func (r *workItemRepository) GetByReference(ctx context.Context, reference string) (*domain.WorkItem, error) {
	query := `SELECT ` + workItemColumns + ` FROM pending_transactions WHERE reference = $1`
	w, err := scanWorkItem(conn(ctx, r.db).QueryRowContext(ctx, query, reference))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return w, err
}

// ClaimPending skips rows another processor has already locked, so concurrent
// cycles never claim the same item.
func (r *workItemRepository) ClaimPending(ctx context.Context, limit int) ([]domain.WorkItem, error) {
	query := `UPDATE pending_transactions SET status = 'processing'
	          WHERE id IN (
	              SELECT id FROM pending_transactions
	              WHERE status = 'pending'
	              ORDER BY created_at, id
	              LIMIT $1
	              FOR UPDATE SKIP LOCKED
	          )
	          RETURNING ` + workItemColumns
	logger.DatabaseCall("work_item.claim_pending", query, "limit", limit)
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, limit)
	if err != nil {
		logger.DatabaseResult("work_item.claim_pending", 0, err)
		return nil, err
	}
	defer rows.Close()

	var items []domain.WorkItem
	for rows.Next() {
		w, err := scanWorkItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// RETURNING does not preserve the subquery order.
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	logger.DatabaseResult("work_item.claim_pending", int64(len(items)), nil)
	return items, nil
}

func (r *workItemRepository) MarkProcessed(ctx context.Context, id int32) error {
	query := `UPDATE pending_transactions SET status = 'processed', processed_at = $1 WHERE id = $2`
	_, err := conn(ctx, r.db).ExecContext(ctx, query, time.Now(), id)
	return err
}

func (r *workItemRepository) MarkFailed(ctx context.Context, id int32, reason string) error {
	query := `UPDATE pending_transactions SET status = 'failed', error_message = $1, processed_at = $2 WHERE id = $3`
	_, err := conn(ctx, r.db).ExecContext(ctx, query, reason, time.Now(), id)
	return err
}
