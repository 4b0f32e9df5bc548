package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"momo-proxy-backend/internal/domain"
)

// TxManager runs fn inside one database transaction. Repositories called with
// the ctx handed to fn join that transaction.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type CountryRepository interface {
	GetByID(ctx context.Context, id int32) (*domain.Country, error)
	GetByISO(ctx context.Context, isoCode string) (*domain.Country, error)
	ListActive(ctx context.Context) ([]domain.Country, error)
}

type BalanceRepository interface {
	// GetForUpdate locks the (company, country) row until the surrounding
	// transaction ends. Returns domain.ErrNoBalanceConfigured when absent.
	GetForUpdate(ctx context.Context, companyID, countryID int32) (*domain.Balance, error)
	GetByIDForUpdate(ctx context.Context, id int32) (*domain.Balance, error)
	UpdateAmounts(ctx context.Context, balance *domain.Balance) error
	Ensure(ctx context.Context, companyID, countryID int32, partnerCode string) (*domain.Balance, error)
	ListSummaries(ctx context.Context, companyID int32) ([]domain.BalanceSummary, error)
}

type WorkItemRepository interface {
	Create(ctx context.Context, item *domain.WorkItem) error
	GetByReference(ctx context.Context, reference string) (*domain.WorkItem, error)
	// ClaimPending atomically moves up to limit oldest pending items to
	// processing and returns them in creation order.
	ClaimPending(ctx context.Context, limit int) ([]domain.WorkItem, error)
	MarkProcessed(ctx context.Context, id int32) error
	MarkFailed(ctx context.Context, id int32, reason string) error
}

type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) error
	GetByID(ctx context.Context, id int32) (*domain.Transaction, error)
	GetByIDForUpdate(ctx context.Context, id int32) (*domain.Transaction, error)
	List(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, int32, error)

	// LatestNonTerminal returns the newest in-flight transaction of kind for
	// counterparty, or domain.ErrNotFound.
	LatestNonTerminal(ctx context.Context, kind domain.TransactionKind, counterparty string) (*domain.Transaction, error)
	// FindOldestMatch returns the oldest in-flight transaction with the exact
	// kind, counterparty and amount. A non-nil since bounds created_at.
	FindOldestMatch(ctx context.Context, kind domain.TransactionKind, counterparty string, amount decimal.Decimal, since *time.Time) (*domain.Transaction, error)
	ListStale(ctx context.Context, createdBefore time.Time) ([]domain.Transaction, error)

	RecordGatewayResponse(ctx context.Context, id int32, resp *domain.ChannelResponse) error
	// MarkSucceeded and MarkFailed only transition non-terminal rows and
	// report whether the row changed.
	MarkSucceeded(ctx context.Context, tx *domain.Transaction) (bool, error)
	MarkFailed(ctx context.Context, id int32, reason string, after domain.LedgerSnapshot) (bool, error)
}

type FeeRuleRepository interface {
	GetActive(ctx context.Context, countryID int32, kind domain.TransactionKind) (*domain.FeeRule, error)
	GetByID(ctx context.Context, id int32) (*domain.FeeRule, error)
	Create(ctx context.Context, rule *domain.FeeRule) error
	Approve(ctx context.Context, id int32, approvedBy string, at time.Time) error
	DeactivateKey(ctx context.Context, countryID int32, kind domain.TransactionKind) error
	Activate(ctx context.Context, id int32) error
}
