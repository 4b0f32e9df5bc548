package service

import (
	"context"
	"fmt"
	"time"

	"momo-proxy-backend/internal/domain"
	"momo-proxy-backend/internal/logger"
	"momo-proxy-backend/internal/metrics"
	"momo-proxy-backend/internal/repository"
)

type sweeperService struct {
	txRepo    repository.TransactionRepository
	txManager repository.TxManager
	ledger    LedgerService
	alerts    AlertService
	deadline  time.Duration
	now       func() time.Time
}

func NewSweeperService(
	txRepo repository.TransactionRepository,
	txManager repository.TxManager,
	ledger LedgerService,
	alerts AlertService,
	deadline time.Duration,
) SweeperService {
	if deadline <= 0 {
		deadline = 24 * time.Hour
	}
	return &sweeperService{
		txRepo:    txRepo,
		txManager: txManager,
		ledger:    ledger,
		alerts:    alerts,
		deadline:  deadline,
		now:       time.Now,
	}
}

// SweepStale fails every in-flight transaction older than the deadline and
// returns its hold to available. It returns how many rows it failed.
func (s *sweeperService) SweepStale(ctx context.Context) (int, error) {
	stale, err := s.txRepo.ListStale(ctx, s.now().Add(-s.deadline))
	if err != nil {
		return 0, fmt.Errorf("list stale transactions: %w", err)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	reason := staleReason(s.deadline)
	swept := make([]domain.Transaction, 0, len(stale))
	for _, tx := range stale {
		changed, err := releaseAndFail(ctx, s.txManager, s.txRepo, s.ledger, tx.ID, reason)
		if err != nil {
			logger.Error("Failed to sweep stale transaction", "transaction_id", tx.ID, "error", err)
			continue
		}
		if !changed {
			continue
		}
		metrics.SweptTotal.Inc()
		logger.Warn("Stale transaction failed", "transaction_id", tx.ID, "kind", tx.Kind,
			"counterparty", tx.Counterparty, "created_at", tx.CreatedAt, "error", domain.ErrStaleTimeout)
		swept = append(swept, tx)
	}

	if len(swept) > 0 {
		if err := s.alerts.NotifyStale(ctx, swept); err != nil {
			logger.Error("Failed to alert operators about stale transactions", "error", err)
		}
	}
	return len(swept), nil
}

func staleReason(deadline time.Duration) string {
	return fmt.Sprintf("No confirmation received within %d hours", int(deadline.Hours()))
}
