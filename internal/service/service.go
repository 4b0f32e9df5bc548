package service

import (
	"context"

	"github.com/shopspring/decimal"

	"momo-proxy-backend/internal/domain"
)

// ExecutionChannel drives a directive over the mobile network. A nil error
// only means the channel accepted the request; the outcome arrives later as
// a confirmation notice.
type ExecutionChannel interface {
	Execute(ctx context.Context, directive domain.Directive) (*domain.ChannelResponse, error)
}

type IntakeService interface {
	Submit(ctx context.Context, req SubmitRequest) (*domain.WorkItem, error)
	GetWorkItem(ctx context.Context, companyID int32, reference string) (*domain.WorkItem, error)
}

type DestinationResolver interface {
	Resolve(ctx context.Context, countryHint *string, counterparty string) (*domain.Country, error)
}

type FeeService interface {
	Quote(ctx context.Context, countryID int32, kind domain.TransactionKind, amount decimal.Decimal) (domain.FeeBreakdown, error)
	ProposeRule(ctx context.Context, rule *domain.FeeRule) error
	ApproveRule(ctx context.Context, id int32, approvedBy string) error
	ActivateRule(ctx context.Context, id int32) error
}

type LedgerService interface {
	// Lock must run inside a transaction; the row stays locked until it ends.
	Lock(ctx context.Context, companyID, countryID int32) (*domain.Balance, error)
	Hold(ctx context.Context, balance *domain.Balance, amount decimal.Decimal) (domain.LedgerSnapshot, error)
	Release(ctx context.Context, balanceID int32, amount decimal.Decimal) (before, after domain.LedgerSnapshot, err error)
	Settle(ctx context.Context, balanceID int32, kind domain.TransactionKind, amount decimal.Decimal) (before, after domain.LedgerSnapshot, err error)
	TopUp(ctx context.Context, companyID int32, isoCode, partnerCode string, amount decimal.Decimal) (*domain.Balance, error)
	Summary(ctx context.Context, companyID int32) ([]domain.BalanceSummary, error)
}

type ProcessorService interface {
	ProcessBatch(ctx context.Context) (*BatchResult, error)
}

type ReconcileService interface {
	HandleNotice(ctx context.Context, raw string) (*NoticeResult, error)
	Match(ctx context.Context, fact domain.ConfirmationFact) (*domain.Transaction, error)
	Finalize(ctx context.Context, transactionID int32, fact domain.ConfirmationFact) (bool, error)
}

type SweeperService interface {
	SweepStale(ctx context.Context) (int, error)
}

type TransactionService interface {
	List(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, int32, error)
	Get(ctx context.Context, companyID, id int32) (*domain.Transaction, error)
}

type AlertService interface {
	NotifyUnmatched(ctx context.Context, fact domain.ConfirmationFact) error
	NotifyStale(ctx context.Context, swept []domain.Transaction) error
}
