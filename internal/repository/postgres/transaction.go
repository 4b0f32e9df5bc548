package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"momo-proxy-backend/internal/domain"
	"momo-proxy-backend/internal/logger"
	"momo-proxy-backend/internal/repository"
)

type transactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) repository.TransactionRepository {
	return &transactionRepository{db: db}
}

const transactionColumns = `id, kind, direction, counterparty, amount, fee_amount, net_amount,
	company_id, country_id, balance_id, pending_transaction_id, partner_code,
	before_available, before_held, after_available, after_held,
	gateway_transaction_id, COALESCE(gateway_response, ''), COALESCE(sim_used, ''),
	COALESCE(confirmation_payload, ''), COALESCE(error_message, ''),
	status, created_at, validated_at, updated_at`

func scanTransaction(row interface{ Scan(...any) error }) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	var gatewayID sql.NullString
	var validatedAt sql.NullTime
	err := row.Scan(&t.ID, &t.Kind, &t.Direction, &t.Counterparty, &t.Amount, &t.FeeAmount, &t.NetAmount,
		&t.CompanyID, &t.CountryID, &t.BalanceID, &t.PendingTransactionID, &t.PartnerCode,
		&t.Before.Available, &t.Before.Held, &t.After.Available, &t.After.Held,
		&gatewayID, &t.GatewayResponse, &t.SIMUsed,
		&t.ConfirmationPayload, &t.ErrorMessage,
		&t.Status, &t.CreatedAt, &validatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if gatewayID.Valid {
		t.GatewayTransactionID = &gatewayID.String
	}
	if validatedAt.Valid {
		t.ValidatedAt = &validatedAt.Time
	}
	return t, nil
}

func (r *transactionRepository) getOne(ctx context.Context, query string, args ...any) (*domain.Transaction, error) {
	t, err := scanTransaction(conn(ctx, r.db).QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return t, err
}

func (r *transactionRepository) Create(ctx context.Context, t *domain.Transaction) error {
	query := `INSERT INTO transactions (kind, direction, counterparty, amount, fee_amount, net_amount,
	              company_id, country_id, balance_id, pending_transaction_id, partner_code,
	              before_available, before_held, after_available, after_held, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $17) RETURNING id`
	now := time.Now()
	t.CreatedAt, t.UpdatedAt = now, now
	t.Direction = t.Kind.Direction()
	logger.DatabaseCall("transaction.create", query, "kind", t.Kind, "pending_transaction_id", t.PendingTransactionID)
	return conn(ctx, r.db).QueryRowContext(ctx, query, t.Kind, t.Direction, t.Counterparty, t.Amount, t.FeeAmount, t.NetAmount,
		t.CompanyID, t.CountryID, t.BalanceID, t.PendingTransactionID, t.PartnerCode,
		t.Before.Available, t.Before.Held, t.After.Available, t.After.Held, t.Status, now).Scan(&t.ID)
}

func (r *transactionRepository) GetByID(ctx context.Context, id int32) (*domain.Transaction, error) {
	return r.getOne(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
}

func (r *transactionRepository) GetByIDForUpdate(ctx context.Context, id int32) (*domain.Transaction, error) {
	return r.getOne(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1 FOR UPDATE`, id)
}

func (r *transactionRepository) List(ctx context.Context, f domain.TransactionFilter) ([]domain.Transaction, int32, error) {
	sql := `SELECT ` + transactionColumns + ` FROM transactions WHERE company_id = $1`
	args := []interface{}{f.CompanyID}
	argIdx := 2
	if f.Kind != "" {
		sql += fmt.Sprintf(" AND kind = $%d", argIdx)
		args = append(args, f.Kind)
		argIdx++
	}
	if f.Counterparty != "" {
		sql += fmt.Sprintf(" AND counterparty = $%d", argIdx)
		args = append(args, f.Counterparty)
		argIdx++
	}
	if f.PartnerCode != "" {
		sql += fmt.Sprintf(" AND partner_code = $%d", argIdx)
		args = append(args, f.PartnerCode)
		argIdx++
	}
	if f.Status != "" {
		sql += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, f.Status)
		argIdx++
	}

	var count int32
	countSql := "SELECT count(*) FROM (" + sql + ") as sub"
	if err := conn(ctx, r.db).QueryRowContext(ctx, countSql, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	sql += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, f.Offset)

	rows, err := conn(ctx, r.db).QueryContext(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		txs = append(txs, *t)
	}
	return txs, count, rows.Err()
}

func (r *transactionRepository) LatestNonTerminal(ctx context.Context, kind domain.TransactionKind, counterparty string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
	          WHERE kind = $1 AND counterparty = $2 AND status = ANY($3)
	          ORDER BY created_at DESC, id DESC LIMIT 1`
	return r.getOne(ctx, query, kind, counterparty, pq.Array(domain.NonTerminalStatusStrings()))
}

func (r *transactionRepository) FindOldestMatch(ctx context.Context, kind domain.TransactionKind, counterparty string, amount decimal.Decimal, since *time.Time) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
	          WHERE kind = $1 AND counterparty = $2 AND amount = $3 AND status = ANY($4)`
	args := []interface{}{kind, counterparty, amount, pq.Array(domain.NonTerminalStatusStrings())}
	if since != nil {
		query += " AND created_at >= $5"
		args = append(args, *since)
	}
	query += " ORDER BY created_at ASC, id ASC LIMIT 1"
	logger.DatabaseCall("transaction.find_oldest_match", query, "kind", kind, "counterparty", counterparty, "amount", amount.String())
	return r.getOne(ctx, query, args...)
}

func (r *transactionRepository) ListStale(ctx context.Context, createdBefore time.Time) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
	          WHERE status = ANY($1) AND created_at < $2 ORDER BY created_at, id`
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, pq.Array(domain.NonTerminalStatusStrings()), createdBefore)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, *t)
	}
	return txs, rows.Err()
}

func (r *transactionRepository) RecordGatewayResponse(ctx context.Context, id int32, resp *domain.ChannelResponse) error {
	query := `UPDATE transactions SET gateway_response = $1, gateway_transaction_id = COALESCE($2, gateway_transaction_id),
	              sim_used = $3, updated_at = $4
	          WHERE id = $5`
	_, err := conn(ctx, r.db).ExecContext(ctx, query, resp.Text, resp.CorrelationID, resp.SIMUsed, time.Now(), id)
	return err
}

func (r *transactionRepository) MarkSucceeded(ctx context.Context, t *domain.Transaction) (bool, error) {
	query := `UPDATE transactions SET status = 'success', validated_at = $1, updated_at = $1,
	              gateway_transaction_id = COALESCE($2, gateway_transaction_id), confirmation_payload = $3,
	              before_available = $4, before_held = $5, after_available = $6, after_held = $7
	          WHERE id = $8 AND status = ANY($9)`
	now := time.Now()
	res, err := conn(ctx, r.db).ExecContext(ctx, query, now, t.GatewayTransactionID, t.ConfirmationPayload,
		t.Before.Available, t.Before.Held, t.After.Available, t.After.Held,
		t.ID, pq.Array(domain.NonTerminalStatusStrings()))
	if err != nil {
		logger.DatabaseResult("transaction.mark_succeeded", 0, err, "transaction_id", t.ID)
		return false, err
	}
	changed, err := rowsChanged(res)
	if changed {
		t.Status = domain.TransactionStatusSuccess
		t.ValidatedAt = &now
		t.UpdatedAt = now
	}
	return changed, err
}

func (r *transactionRepository) MarkFailed(ctx context.Context, id int32, reason string, after domain.LedgerSnapshot) (bool, error) {
	query := `UPDATE transactions SET status = 'failed', error_message = $1, after_available = $2, after_held = $3, updated_at = $4
	          WHERE id = $5 AND status = ANY($6)`
	res, err := conn(ctx, r.db).ExecContext(ctx, query, reason, after.Available, after.Held, time.Now(),
		id, pq.Array(domain.NonTerminalStatusStrings()))
	if err != nil {
		logger.DatabaseResult("transaction.mark_failed", 0, err, "transaction_id", id)
		return false, err
	}
	return rowsChanged(res)
}
