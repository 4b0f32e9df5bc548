package http

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"momo-proxy-backend/internal/domain"
	"momo-proxy-backend/internal/service"
)

// MockIntakeService
type MockIntakeService struct {
	mock.Mock
}

func (m *MockIntakeService) Submit(ctx context.Context, req service.SubmitRequest) (*domain.WorkItem, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WorkItem), args.Error(1)
}
func (m *MockIntakeService) GetWorkItem(ctx context.Context, companyID int32, reference string) (*domain.WorkItem, error) {
	args := m.Called(ctx, companyID, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WorkItem), args.Error(1)
}

// MockTransactionService
type MockTransactionService struct {
	mock.Mock
}

func (m *MockTransactionService) List(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, int32, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Transaction), args.Get(1).(int32), args.Error(2)
}
func (m *MockTransactionService) Get(ctx context.Context, companyID, id int32) (*domain.Transaction, error) {
	args := m.Called(ctx, companyID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

// MockLedgerService
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) Lock(ctx context.Context, companyID, countryID int32) (*domain.Balance, error) {
	args := m.Called(ctx, companyID, countryID)
	return args.Get(0).(*domain.Balance), args.Error(1)
}
func (m *MockLedgerService) Hold(ctx context.Context, balance *domain.Balance, amount decimal.Decimal) (domain.LedgerSnapshot, error) {
	args := m.Called(ctx, balance, amount)
	return args.Get(0).(domain.LedgerSnapshot), args.Error(1)
}
func (m *MockLedgerService) Release(ctx context.Context, balanceID int32, amount decimal.Decimal) (domain.LedgerSnapshot, domain.LedgerSnapshot, error) {
	args := m.Called(ctx, balanceID, amount)
	return args.Get(0).(domain.LedgerSnapshot), args.Get(1).(domain.LedgerSnapshot), args.Error(2)
}
func (m *MockLedgerService) Settle(ctx context.Context, balanceID int32, kind domain.TransactionKind, amount decimal.Decimal) (domain.LedgerSnapshot, domain.LedgerSnapshot, error) {
	args := m.Called(ctx, balanceID, kind, amount)
	return args.Get(0).(domain.LedgerSnapshot), args.Get(1).(domain.LedgerSnapshot), args.Error(2)
}
func (m *MockLedgerService) TopUp(ctx context.Context, companyID int32, isoCode, partnerCode string, amount decimal.Decimal) (*domain.Balance, error) {
	args := m.Called(ctx, companyID, isoCode, partnerCode, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Balance), args.Error(1)
}
func (m *MockLedgerService) Summary(ctx context.Context, companyID int32) ([]domain.BalanceSummary, error) {
	args := m.Called(ctx, companyID)
	return args.Get(0).([]domain.BalanceSummary), args.Error(1)
}

// MockFeeService
type MockFeeService struct {
	mock.Mock
}

func (m *MockFeeService) Quote(ctx context.Context, countryID int32, kind domain.TransactionKind, amount decimal.Decimal) (domain.FeeBreakdown, error) {
	args := m.Called(ctx, countryID, kind, amount)
	return args.Get(0).(domain.FeeBreakdown), args.Error(1)
}
func (m *MockFeeService) ProposeRule(ctx context.Context, rule *domain.FeeRule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}
func (m *MockFeeService) ApproveRule(ctx context.Context, id int32, approvedBy string) error {
	args := m.Called(ctx, id, approvedBy)
	return args.Error(0)
}
func (m *MockFeeService) ActivateRule(ctx context.Context, id int32) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockResolver
type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, countryHint *string, counterparty string) (*domain.Country, error) {
	args := m.Called(ctx, countryHint, counterparty)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Country), args.Error(1)
}

// MockReconcileService
type MockReconcileService struct {
	mock.Mock
}

func (m *MockReconcileService) HandleNotice(ctx context.Context, raw string) (*service.NoticeResult, error) {
	args := m.Called(ctx, raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.NoticeResult), args.Error(1)
}
func (m *MockReconcileService) Match(ctx context.Context, fact domain.ConfirmationFact) (*domain.Transaction, error) {
	args := m.Called(ctx, fact)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}
func (m *MockReconcileService) Finalize(ctx context.Context, transactionID int32, fact domain.ConfirmationFact) (bool, error) {
	args := m.Called(ctx, transactionID, fact)
	return args.Bool(0), args.Error(1)
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error {
	return p.err
}
