package service

import (
	"context"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"momo-proxy-backend/internal/domain"
)

// passthroughTx runs fn inline, standing in for a database transaction.
// Like BeginTx it refuses a done context.
type passthroughTx struct {
	calls int
}

func (p *passthroughTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	p.calls++
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}

// MockCountryRepo
type MockCountryRepo struct {
	mock.Mock
}

func (m *MockCountryRepo) GetByID(ctx context.Context, id int32) (*domain.Country, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Country), args.Error(1)
}
func (m *MockCountryRepo) GetByISO(ctx context.Context, isoCode string) (*domain.Country, error) {
	args := m.Called(ctx, isoCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Country), args.Error(1)
}
func (m *MockCountryRepo) ListActive(ctx context.Context) ([]domain.Country, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Country), args.Error(1)
}

// MockBalanceRepo
type MockBalanceRepo struct {
	mock.Mock
}

func (m *MockBalanceRepo) GetForUpdate(ctx context.Context, companyID, countryID int32) (*domain.Balance, error) {
	args := m.Called(ctx, companyID, countryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Balance), args.Error(1)
}
func (m *MockBalanceRepo) GetByIDForUpdate(ctx context.Context, id int32) (*domain.Balance, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Balance), args.Error(1)
}
func (m *MockBalanceRepo) UpdateAmounts(ctx context.Context, balance *domain.Balance) error {
	args := m.Called(ctx, balance)
	return args.Error(0)
}
func (m *MockBalanceRepo) Ensure(ctx context.Context, companyID, countryID int32, partnerCode string) (*domain.Balance, error) {
	args := m.Called(ctx, companyID, countryID, partnerCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Balance), args.Error(1)
}
func (m *MockBalanceRepo) ListSummaries(ctx context.Context, companyID int32) ([]domain.BalanceSummary, error) {
	args := m.Called(ctx, companyID)
	return args.Get(0).([]domain.BalanceSummary), args.Error(1)
}

// MockWorkItemRepo
type MockWorkItemRepo struct {
	mock.Mock
}

func (m *MockWorkItemRepo) Create(ctx context.Context, item *domain.WorkItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}
func (m *MockWorkItemRepo) GetByReference(ctx context.Context, reference string) (*domain.WorkItem, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WorkItem), args.Error(1)
}
func (m *MockWorkItemRepo) ClaimPending(ctx context.Context, limit int) ([]domain.WorkItem, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.WorkItem), args.Error(1)
}
func (m *MockWorkItemRepo) MarkProcessed(ctx context.Context, id int32) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockWorkItemRepo) MarkFailed(ctx context.Context, id int32, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

// MockTransactionRepo
type MockTransactionRepo struct {
	mock.Mock
}

func (m *MockTransactionRepo) Create(ctx context.Context, tx *domain.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}
func (m *MockTransactionRepo) GetByID(ctx context.Context, id int32) (*domain.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}
func (m *MockTransactionRepo) GetByIDForUpdate(ctx context.Context, id int32) (*domain.Transaction, error) {
	args := m.Called(ctx, id)
	if fn, ok := args.Get(0).(func(context.Context, int32) *domain.Transaction); ok {
		return fn(ctx, id), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}
func (m *MockTransactionRepo) List(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, int32, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Transaction), args.Get(1).(int32), args.Error(2)
}
func (m *MockTransactionRepo) LatestNonTerminal(ctx context.Context, kind domain.TransactionKind, counterparty string) (*domain.Transaction, error) {
	args := m.Called(ctx, kind, counterparty)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}
func (m *MockTransactionRepo) FindOldestMatch(ctx context.Context, kind domain.TransactionKind, counterparty string, amount decimal.Decimal, since *time.Time) (*domain.Transaction, error) {
	args := m.Called(ctx, kind, counterparty, amount, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}
func (m *MockTransactionRepo) ListStale(ctx context.Context, createdBefore time.Time) ([]domain.Transaction, error) {
	args := m.Called(ctx, createdBefore)
	return args.Get(0).([]domain.Transaction), args.Error(1)
}
func (m *MockTransactionRepo) RecordGatewayResponse(ctx context.Context, id int32, resp *domain.ChannelResponse) error {
	args := m.Called(ctx, id, resp)
	return args.Error(0)
}
func (m *MockTransactionRepo) MarkSucceeded(ctx context.Context, tx *domain.Transaction) (bool, error) {
	args := m.Called(ctx, tx)
	return args.Bool(0), args.Error(1)
}
func (m *MockTransactionRepo) MarkFailed(ctx context.Context, id int32, reason string, after domain.LedgerSnapshot) (bool, error) {
	args := m.Called(ctx, id, reason, after)
	return args.Bool(0), args.Error(1)
}

// MockFeeRuleRepo
type MockFeeRuleRepo struct {
	mock.Mock
}

func (m *MockFeeRuleRepo) GetActive(ctx context.Context, countryID int32, kind domain.TransactionKind) (*domain.FeeRule, error) {
	args := m.Called(ctx, countryID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FeeRule), args.Error(1)
}
func (m *MockFeeRuleRepo) GetByID(ctx context.Context, id int32) (*domain.FeeRule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FeeRule), args.Error(1)
}
func (m *MockFeeRuleRepo) Create(ctx context.Context, rule *domain.FeeRule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}
func (m *MockFeeRuleRepo) Approve(ctx context.Context, id int32, approvedBy string, at time.Time) error {
	args := m.Called(ctx, id, approvedBy, at)
	return args.Error(0)
}
func (m *MockFeeRuleRepo) DeactivateKey(ctx context.Context, countryID int32, kind domain.TransactionKind) error {
	args := m.Called(ctx, countryID, kind)
	return args.Error(0)
}
func (m *MockFeeRuleRepo) Activate(ctx context.Context, id int32) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockChannel
type MockChannel struct {
	mock.Mock
}

func (m *MockChannel) Execute(ctx context.Context, directive domain.Directive) (*domain.ChannelResponse, error) {
	args := m.Called(ctx, directive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChannelResponse), args.Error(1)
}

// MockAlertService
type MockAlertService struct {
	mock.Mock
}

func (m *MockAlertService) NotifyUnmatched(ctx context.Context, fact domain.ConfirmationFact) error {
	args := m.Called(ctx, fact)
	return args.Error(0)
}
func (m *MockAlertService) NotifyStale(ctx context.Context, swept []domain.Transaction) error {
	args := m.Called(ctx, swept)
	return args.Error(0)
}

// MockMailSender
type MockMailSender struct {
	mock.Mock
}

func (m *MockMailSender) Send(email *mail.SGMailV3) (*rest.Response, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rest.Response), args.Error(1)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
