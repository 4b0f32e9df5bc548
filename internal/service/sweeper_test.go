package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"momo-proxy-backend/internal/domain"
)

func TestSweeperService_SweepStale(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	newSweeper := func(txs *MockTransactionRepo, balances *MockBalanceRepo, alerts *MockAlertService) *sweeperService {
		tm := &passthroughTx{}
		svc := NewSweeperService(txs, tm, NewLedgerService(balances, new(MockCountryRepo), tm), alerts, 24*time.Hour).(*sweeperService)
		svc.now = fixedClock(now)
		return svc
	}

	t.Run("Fails stale rows and releases their holds", func(t *testing.T) {
		balance := &domain.Balance{ID: 11, Available: dec("8000"), Held: dec("2000")}
		stale := domain.Transaction{ID: 42, Kind: domain.KindPushFunds, BalanceID: 11, Amount: dec("2000"),
			Status: domain.TransactionStatusInitiated, CreatedAt: now.Add(-25 * time.Hour)}
		locked := stale

		txs := new(MockTransactionRepo)
		balances := new(MockBalanceRepo)
		alerts := new(MockAlertService)
		txs.On("ListStale", ctx, now.Add(-24*time.Hour)).Return([]domain.Transaction{stale}, nil)
		txs.On("GetByIDForUpdate", ctx, int32(42)).Return(&locked, nil)
		balances.On("GetByIDForUpdate", ctx, int32(11)).Return(balance, nil)
		balances.On("UpdateAmounts", ctx, balance).Return(nil)
		txs.On("MarkFailed", ctx, int32(42), "No confirmation received within 24 hours", mock.MatchedBy(func(s domain.LedgerSnapshot) bool {
			return s.Available.Equal(dec("10000")) && s.Held.IsZero()
		})).Return(true, nil).Once()
		alerts.On("NotifyStale", ctx, mock.MatchedBy(func(swept []domain.Transaction) bool {
			return len(swept) == 1 && swept[0].ID == 42
		})).Return(nil).Once()

		n, err := newSweeper(txs, balances, alerts).SweepStale(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.Equal(t, "10000.00", balance.Available.StringFixed(2))
		assert.True(t, balance.Held.IsZero())
		txs.AssertExpectations(t)
		alerts.AssertExpectations(t)
	})

	t.Run("Row finalized in the meantime is skipped", func(t *testing.T) {
		stale := domain.Transaction{ID: 42, BalanceID: 11, Amount: dec("2000"), Status: domain.TransactionStatusInitiated}
		txs := new(MockTransactionRepo)
		balances := new(MockBalanceRepo)
		alerts := new(MockAlertService)
		txs.On("ListStale", ctx, mock.Anything).Return([]domain.Transaction{stale}, nil)
		txs.On("GetByIDForUpdate", ctx, int32(42)).Return(&domain.Transaction{ID: 42, Status: domain.TransactionStatusSuccess}, nil)

		n, err := newSweeper(txs, balances, alerts).SweepStale(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
		balances.AssertNotCalled(t, "GetByIDForUpdate", mock.Anything, mock.Anything)
		alerts.AssertNotCalled(t, "NotifyStale", mock.Anything, mock.Anything)
	})

	t.Run("One bad row does not stop the sweep", func(t *testing.T) {
		balance := &domain.Balance{ID: 11, Available: dec("6000"), Held: dec("4000")}
		first := domain.Transaction{ID: 1, BalanceID: 11, Amount: dec("2000"), Status: domain.TransactionStatusInitiated}
		second := domain.Transaction{ID: 2, BalanceID: 11, Amount: dec("2000"), Status: domain.TransactionStatusPending}
		lockedSecond := second

		txs := new(MockTransactionRepo)
		balances := new(MockBalanceRepo)
		alerts := new(MockAlertService)
		txs.On("ListStale", ctx, mock.Anything).Return([]domain.Transaction{first, second}, nil)
		txs.On("GetByIDForUpdate", ctx, int32(1)).Return(nil, errors.New("lock timeout"))
		txs.On("GetByIDForUpdate", ctx, int32(2)).Return(&lockedSecond, nil)
		balances.On("GetByIDForUpdate", ctx, int32(11)).Return(balance, nil)
		balances.On("UpdateAmounts", ctx, balance).Return(nil)
		txs.On("MarkFailed", ctx, int32(2), mock.Anything, mock.Anything).Return(true, nil)
		alerts.On("NotifyStale", ctx, mock.Anything).Return(nil)

		n, err := newSweeper(txs, balances, alerts).SweepStale(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.Equal(t, "8000.00", balance.Available.StringFixed(2))
	})

	t.Run("Nothing stale", func(t *testing.T) {
		txs := new(MockTransactionRepo)
		txs.On("ListStale", ctx, mock.Anything).Return([]domain.Transaction{}, nil)
		n, err := newSweeper(txs, new(MockBalanceRepo), new(MockAlertService)).SweepStale(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}
