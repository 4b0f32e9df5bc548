package service

import (
	"context"
	"errors"
	"time"

	"momo-proxy-backend/internal/domain"
	"momo-proxy-backend/internal/logger"
	"momo-proxy-backend/internal/metrics"
	"momo-proxy-backend/internal/repository"
	"momo-proxy-backend/internal/utils"
)

type NoticeResult struct {
	Fact          domain.ConfirmationFact `json:"fact"`
	TransactionID *int32                  `json:"transaction_id,omitempty"`
	Finalized     bool                    `json:"finalized"`
	Dropped       bool                    `json:"dropped"`
}

type reconcileService struct {
	txRepo    repository.TransactionRepository
	txManager repository.TxManager
	ledger    LedgerService
	alerts    AlertService
	window    time.Duration
	now       func() time.Time
}

func NewReconcileService(
	txRepo repository.TransactionRepository,
	txManager repository.TxManager,
	ledger LedgerService,
	alerts AlertService,
	window time.Duration,
) ReconcileService {
	if window <= 0 {
		window = 2 * time.Hour
	}
	return &reconcileService{
		txRepo:    txRepo,
		txManager: txManager,
		ledger:    ledger,
		alerts:    alerts,
		window:    window,
		now:       time.Now,
	}
}

// HandleNotice parses one inbound notice and finalizes the transaction it
// confirms. Notices that are not actionable or match nothing are logged and
// reported with a nil error.
func (s *reconcileService) HandleNotice(ctx context.Context, raw string) (*NoticeResult, error) {
	fact := utils.ParseNotice(raw)
	result := &NoticeResult{Fact: fact}

	if !fact.Actionable() {
		metrics.ConfirmationsTotal.WithLabelValues("dropped").Inc()
		logger.Warn("Dropping non-actionable confirmation", "kind", fact.Kind, "outcome", fact.Outcome)
		result.Dropped = true
		return result, nil
	}

	tx, err := s.Match(ctx, fact)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		metrics.ConfirmationsTotal.WithLabelValues("unmatched").Inc()
		logger.Warn("Confirmation matched no transaction",
			"error", domain.ErrUnmatchedConfirmation, "kind", fact.Kind,
			"counterparty", fact.Counterparty, "amount", fact.Amount.StringFixed(2))
		if err := s.alerts.NotifyUnmatched(ctx, fact); err != nil {
			logger.Error("Failed to alert operators about unmatched confirmation", "error", err)
		}
		return result, nil
	}

	id := tx.ID
	result.TransactionID = &id
	finalized, err := s.Finalize(ctx, tx.ID, fact)
	if err != nil {
		return nil, err
	}
	result.Finalized = finalized
	if finalized {
		metrics.ConfirmationsTotal.WithLabelValues("matched").Inc()
	} else {
		metrics.ConfirmationsTotal.WithLabelValues("duplicate").Inc()
	}
	return result, nil
}

// Match returns the oldest in-flight transaction the fact could confirm, or
// nil. A strict pass runs first, then the same query bounded to the recent
// window.
func (s *reconcileService) Match(ctx context.Context, fact domain.ConfirmationFact) (*domain.Transaction, error) {
	if !fact.Actionable() {
		return nil, nil
	}

	tx, err := s.txRepo.FindOldestMatch(ctx, fact.Kind, fact.Counterparty, fact.Amount, nil)
	if err == nil {
		return tx, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	since := s.now().Add(-s.window)
	tx, err = s.txRepo.FindOldestMatch(ctx, fact.Kind, fact.Counterparty, fact.Amount, &since)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// Finalize applies a success confirmation to the transaction and its
// balance. A transaction that is already terminal is left untouched and
// Finalize reports false.
func (s *reconcileService) Finalize(ctx context.Context, transactionID int32, fact domain.ConfirmationFact) (bool, error) {
	var finalized *domain.Transaction
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		tx, err := s.txRepo.GetByIDForUpdate(ctx, transactionID)
		if err != nil {
			return err
		}
		if tx.Status.Terminal() {
			return errNoTransition
		}

		before, after, err := s.ledger.Settle(ctx, tx.BalanceID, tx.Kind, tx.Amount)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		tx.Status = domain.TransactionStatusSuccess
		tx.ValidatedAt = &now
		tx.ConfirmationPayload = fact.Raw
		tx.Before = before
		tx.After = after
		if fact.CorrelationID != nil {
			tx.GatewayTransactionID = fact.CorrelationID
		}

		changed, err := s.txRepo.MarkSucceeded(ctx, tx)
		if err != nil {
			return err
		}
		if !changed {
			return errNoTransition
		}
		finalized = tx
		return nil
	})
	if errors.Is(err, errNoTransition) {
		logger.Info("Confirmation for terminal transaction ignored", "transaction_id", transactionID)
		return false, nil
	}
	if err != nil {
		return false, err
	}

	logger.Info("Transaction finalized",
		"transaction_id", finalized.ID, "kind", finalized.Kind,
		"available", finalized.After.Available.StringFixed(2), "held", finalized.After.Held.StringFixed(2))
	return true, nil
}
