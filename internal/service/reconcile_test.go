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

const pushNotice = "Depot vers 224600000001 reussi. Montant 2000 GNF. ID Transaction: CI240101.1200.A12345. Nouveau solde: 8000 GNF"

func newTestReconcile(txs *MockTransactionRepo, balances *MockBalanceRepo, alerts *MockAlertService, now time.Time) *reconcileService {
	tm := &passthroughTx{}
	ledger := NewLedgerService(balances, new(MockCountryRepo), tm)
	svc := NewReconcileService(txs, tm, ledger, alerts, 2*time.Hour).(*reconcileService)
	svc.now = fixedClock(now)
	return svc
}

func TestReconcileService_Match(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fact := domain.ConfirmationFact{
		Kind: domain.KindPushFunds, Counterparty: "224600000001", Amount: dec("2000"), Outcome: domain.OutcomeSuccess,
	}

	t.Run("Strict pass returns the oldest candidate", func(t *testing.T) {
		txs := new(MockTransactionRepo)
		oldest := &domain.Transaction{ID: 5, CreatedAt: now.Add(-30 * time.Minute)}
		txs.On("FindOldestMatch", ctx, domain.KindPushFunds, "224600000001", fact.Amount, (*time.Time)(nil)).Return(oldest, nil).Once()

		svc := newTestReconcile(txs, new(MockBalanceRepo), new(MockAlertService), now)
		got, err := svc.Match(ctx, fact)
		require.NoError(t, err)
		assert.Equal(t, int32(5), got.ID)
		txs.AssertNumberOfCalls(t, "FindOldestMatch", 1)
	})

	t.Run("Second pass is bounded to the window", func(t *testing.T) {
		txs := new(MockTransactionRepo)
		txs.On("FindOldestMatch", ctx, domain.KindPushFunds, "224600000001", fact.Amount, (*time.Time)(nil)).Return(nil, domain.ErrNotFound).Once()
		txs.On("FindOldestMatch", ctx, domain.KindPushFunds, "224600000001", fact.Amount, mock.MatchedBy(func(since *time.Time) bool {
			return since != nil && since.Equal(now.Add(-2*time.Hour))
		})).Return(&domain.Transaction{ID: 6}, nil).Once()

		svc := newTestReconcile(txs, new(MockBalanceRepo), new(MockAlertService), now)
		got, err := svc.Match(ctx, fact)
		require.NoError(t, err)
		assert.Equal(t, int32(6), got.ID)
		txs.AssertExpectations(t)
	})

	t.Run("No candidate is not an error", func(t *testing.T) {
		txs := new(MockTransactionRepo)
		txs.On("FindOldestMatch", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound).Twice()

		svc := newTestReconcile(txs, new(MockBalanceRepo), new(MockAlertService), now)
		got, err := svc.Match(ctx, fact)
		assert.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("Failure facts never match", func(t *testing.T) {
		txs := new(MockTransactionRepo)
		svc := newTestReconcile(txs, new(MockBalanceRepo), new(MockAlertService), now)
		failed := fact
		failed.Outcome = domain.OutcomeFailure
		got, err := svc.Match(ctx, failed)
		assert.NoError(t, err)
		assert.Nil(t, got)
		txs.AssertNotCalled(t, "FindOldestMatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestReconcileService_Finalize(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		kind          domain.TransactionKind
		wantAvailable string
	}{
		{"push funds consumes the hold", domain.KindPushFunds, "8000"},
		{"airtime consumes the hold", domain.KindAirtime, "8000"},
		{"pull funds credits available", domain.KindPullFunds, "10000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			balance := &domain.Balance{ID: 11, Available: dec("8000"), Held: dec("2000")}
			tx := &domain.Transaction{ID: 42, Kind: tt.kind, BalanceID: 11, Amount: dec("2000"), Status: domain.TransactionStatusInitiated}

			txs := new(MockTransactionRepo)
			balances := new(MockBalanceRepo)
			txs.On("GetByIDForUpdate", ctx, int32(42)).Return(tx, nil)
			balances.On("GetByIDForUpdate", ctx, int32(11)).Return(balance, nil)
			balances.On("UpdateAmounts", ctx, balance).Return(nil)
			txs.On("MarkSucceeded", ctx, tx).Return(true, nil).Once()

			svc := newTestReconcile(txs, balances, new(MockAlertService), now)
			correlation := "CI1"
			ok, err := svc.Finalize(ctx, 42, domain.ConfirmationFact{Raw: "notice", CorrelationID: &correlation})
			require.NoError(t, err)
			assert.True(t, ok)

			assert.Equal(t, dec(tt.wantAvailable).StringFixed(2), balance.Available.StringFixed(2))
			assert.True(t, balance.Held.IsZero())
			assert.Equal(t, domain.TransactionStatusSuccess, tx.Status)
			assert.Equal(t, "notice", tx.ConfirmationPayload)
			assert.Equal(t, "CI1", *tx.GatewayTransactionID)
			require.NotNil(t, tx.ValidatedAt)
			assert.Equal(t, "2000.00", tx.Before.Held.StringFixed(2))
			assert.True(t, tx.After.Held.IsZero())
		})
	}

	t.Run("Terminal transaction is a no-op", func(t *testing.T) {
		txs := new(MockTransactionRepo)
		balances := new(MockBalanceRepo)
		txs.On("GetByIDForUpdate", ctx, int32(42)).Return(&domain.Transaction{ID: 42, Status: domain.TransactionStatusSuccess}, nil)

		svc := newTestReconcile(txs, balances, new(MockAlertService), now)
		ok, err := svc.Finalize(ctx, 42, domain.ConfirmationFact{})
		assert.NoError(t, err)
		assert.False(t, ok)
		balances.AssertNotCalled(t, "GetByIDForUpdate", mock.Anything, mock.Anything)
		txs.AssertNotCalled(t, "MarkSucceeded", mock.Anything, mock.Anything)
	})

	t.Run("Lost conditional update reports no change", func(t *testing.T) {
		balance := &domain.Balance{ID: 11, Available: dec("8000"), Held: dec("2000")}
		tx := &domain.Transaction{ID: 42, Kind: domain.KindPushFunds, BalanceID: 11, Amount: dec("2000"), Status: domain.TransactionStatusInitiated}
		txs := new(MockTransactionRepo)
		balances := new(MockBalanceRepo)
		txs.On("GetByIDForUpdate", ctx, int32(42)).Return(tx, nil)
		balances.On("GetByIDForUpdate", ctx, int32(11)).Return(balance, nil)
		balances.On("UpdateAmounts", ctx, balance).Return(nil)
		txs.On("MarkSucceeded", ctx, tx).Return(false, nil)

		svc := newTestReconcile(txs, balances, new(MockAlertService), now)
		ok, err := svc.Finalize(ctx, 42, domain.ConfirmationFact{})
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Ledger inconsistency aborts", func(t *testing.T) {
		balance := &domain.Balance{ID: 11, Available: dec("8000"), Held: dec("0")}
		tx := &domain.Transaction{ID: 42, Kind: domain.KindPushFunds, BalanceID: 11, Amount: dec("2000"), Status: domain.TransactionStatusInitiated}
		txs := new(MockTransactionRepo)
		balances := new(MockBalanceRepo)
		txs.On("GetByIDForUpdate", ctx, int32(42)).Return(tx, nil)
		balances.On("GetByIDForUpdate", ctx, int32(11)).Return(balance, nil)

		svc := newTestReconcile(txs, balances, new(MockAlertService), now)
		_, err := svc.Finalize(ctx, 42, domain.ConfirmationFact{})
		assert.ErrorIs(t, err, domain.ErrLedgerInconsistent)
		txs.AssertNotCalled(t, "MarkSucceeded", mock.Anything, mock.Anything)
	})
}

func TestReconcileService_HandleNotice(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("Failure notice is dropped", func(t *testing.T) {
		txs := new(MockTransactionRepo)
		svc := newTestReconcile(txs, new(MockBalanceRepo), new(MockAlertService), now)
		result, err := svc.HandleNotice(ctx, "Echec de la transaction")
		require.NoError(t, err)
		assert.True(t, result.Dropped)
		txs.AssertNotCalled(t, "FindOldestMatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Unmatched notice alerts operators", func(t *testing.T) {
		txs := new(MockTransactionRepo)
		alerts := new(MockAlertService)
		txs.On("FindOldestMatch", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)
		alerts.On("NotifyUnmatched", ctx, mock.MatchedBy(func(f domain.ConfirmationFact) bool {
			return f.Counterparty == "224600000001" && f.Kind == domain.KindPushFunds
		})).Return(errors.New("smtp down")).Once()

		svc := newTestReconcile(txs, new(MockBalanceRepo), alerts, now)
		result, err := svc.HandleNotice(ctx, pushNotice)
		require.NoError(t, err)
		assert.Nil(t, result.TransactionID)
		assert.False(t, result.Finalized)
		alerts.AssertExpectations(t)
	})

	t.Run("Lookup failure surfaces", func(t *testing.T) {
		txs := new(MockTransactionRepo)
		txs.On("FindOldestMatch", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

		svc := newTestReconcile(txs, new(MockBalanceRepo), new(MockAlertService), now)
		_, err := svc.HandleNotice(ctx, pushNotice)
		assert.Error(t, err)
	})
}
