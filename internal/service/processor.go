package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"momo-proxy-backend/internal/domain"
	"momo-proxy-backend/internal/logger"
	"momo-proxy-backend/internal/metrics"
	"momo-proxy-backend/internal/repository"
	"momo-proxy-backend/internal/utils"
)

type ProcessorConfig struct {
	BatchSize      int
	ChannelTimeout time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
	// IsRetryable reports lock and serialization failures worth another try.
	IsRetryable func(error) bool
}

type BatchResult struct {
	Claimed   int `json:"claimed"`
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

type processorService struct {
	workItemRepo repository.WorkItemRepository
	txRepo       repository.TransactionRepository
	txManager    repository.TxManager
	ledger       LedgerService
	resolver     DestinationResolver
	fees         FeeService
	channel      ExecutionChannel
	cfg          ProcessorConfig
}

func NewProcessorService(
	workItemRepo repository.WorkItemRepository,
	txRepo repository.TransactionRepository,
	txManager repository.TxManager,
	ledger LedgerService,
	resolver DestinationResolver,
	fees FeeService,
	channel ExecutionChannel,
	cfg ProcessorConfig,
) ProcessorService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 6
	}
	if cfg.ChannelTimeout <= 0 {
		cfg.ChannelTimeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.IsRetryable == nil {
		cfg.IsRetryable = func(error) bool { return false }
	}
	return &processorService{
		workItemRepo: workItemRepo,
		txRepo:       txRepo,
		txManager:    txManager,
		ledger:       ledger,
		resolver:     resolver,
		fees:         fees,
		channel:      channel,
		cfg:          cfg,
	}
}

// ProcessBatch claims the oldest pending work items and runs them one by one
// in creation order.
func (s *processorService) ProcessBatch(ctx context.Context) (*BatchResult, error) {
	items, err := s.workItemRepo.ClaimPending(ctx, s.cfg.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("claim work items: %w", err)
	}

	result := &BatchResult{Claimed: len(items)}
	for i := range items {
		if ctx.Err() != nil {
			// Already claimed items must not stay in processing.
			s.failItem(ctx, &items[i], ctx.Err())
			result.Failed++
			continue
		}
		if err := s.processItem(ctx, &items[i]); err != nil {
			result.Failed++
			continue
		}
		result.Processed++
	}

	if result.Claimed > 0 {
		logger.Info("Work item batch finished",
			"claimed", result.Claimed, "processed", result.Processed, "failed", result.Failed)
	}
	return result, nil
}

func (s *processorService) processItem(ctx context.Context, item *domain.WorkItem) (err error) {
	log := logger.WithReference(item.Reference)
	var held *domain.Transaction

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while processing work item: %v", r)
			log.Error("Recovered from panic in work item", "panic", r)
			if held != nil {
				s.failAfterHold(ctx, item, held, err)
			} else {
				s.failItem(ctx, item, err)
			}
		}
	}()

	country, err := s.resolver.Resolve(ctx, item.CountryHint, item.Counterparty)
	if err != nil {
		s.failItem(ctx, item, err)
		return err
	}

	held, err = s.holdWithRetry(ctx, item, country)
	if err != nil {
		s.failItem(ctx, item, err)
		return err
	}
	log.Info("Funds held", "transaction_id", held.ID, "amount", held.Amount.StringFixed(2), "fee", held.FeeAmount.StringFixed(2))

	resp, err := s.execute(ctx, held)
	if err != nil {
		s.failAfterHold(ctx, item, held, err)
		return err
	}

	// The channel accepted the directive, so money may move: a failed write
	// here must not release the hold. The writes outlive the cycle deadline.
	writeCtx := context.WithoutCancel(ctx)
	if err := s.txRepo.RecordGatewayResponse(writeCtx, held.ID, resp); err != nil {
		log.Error("Failed to record gateway response", "transaction_id", held.ID, "error", err)
	}
	if err := s.workItemRepo.MarkProcessed(writeCtx, item.ID); err != nil {
		log.Error("Failed to mark work item processed", "error", err)
	}

	metrics.WorkItemsTotal.WithLabelValues(string(item.Kind), "processed").Inc()
	log.Info("Directive sent", "transaction_id", held.ID, "sim", resp.SIMUsed)
	return nil
}

func (s *processorService) holdWithRetry(ctx context.Context, item *domain.WorkItem, country *domain.Country) (*domain.Transaction, error) {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxRetries; attempt++ {
		tx, err := s.hold(ctx, item, country)
		if err == nil {
			return tx, nil
		}
		lastErr = err
		if !s.cfg.IsRetryable(err) || attempt == s.cfg.MaxRetries {
			break
		}

		logger.Warn("Retrying hold after lock conflict", "reference", item.Reference, "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.cfg.RetryBackoff * time.Duration(attempt)):
		}
	}
	return nil, lastErr
}

// hold locks the balance, moves the full amount to held and records the
// transaction, all in one database transaction.
func (s *processorService) hold(ctx context.Context, item *domain.WorkItem, country *domain.Country) (*domain.Transaction, error) {
	var created *domain.Transaction
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		balance, err := s.ledger.Lock(ctx, item.CompanyID, country.ID)
		if err != nil {
			return err
		}

		quote, err := s.fees.Quote(ctx, country.ID, item.Kind, item.Amount)
		if err != nil {
			return err
		}

		before := balance.Snapshot()
		after, err := s.ledger.Hold(ctx, balance, item.Amount)
		if err != nil {
			return err
		}

		tx := &domain.Transaction{
			Kind:                 item.Kind,
			Direction:            item.Kind.Direction(),
			Counterparty:         item.Counterparty,
			Amount:               item.Amount,
			FeeAmount:            quote.Fee,
			NetAmount:            quote.Net,
			CompanyID:            item.CompanyID,
			CountryID:            country.ID,
			BalanceID:            balance.ID,
			PendingTransactionID: item.ID,
			PartnerCode:          item.PartnerCode,
			Before:               before,
			After:                after,
			Status:               domain.TransactionStatusInitiated,
		}
		if err := s.txRepo.Create(ctx, tx); err != nil {
			return err
		}
		created = tx
		return nil
	})
	return created, err
}

func (s *processorService) execute(ctx context.Context, tx *domain.Transaction) (*domain.ChannelResponse, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.ChannelTimeout)
	defer cancel()

	timer := prometheus.NewTimer(metrics.ChannelDuration.WithLabelValues(string(tx.Kind)))
	resp, err := s.channel.Execute(callCtx, domain.Directive{
		Kind:         tx.Kind,
		Counterparty: tx.Counterparty,
		Amount:       tx.Amount,
	})
	timer.ObserveDuration()

	if err != nil {
		if errors.Is(err, domain.ErrChannel) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrChannel, err)
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: empty response", domain.ErrChannel)
	}
	if utils.IsUSSDFailure(resp.Text) {
		return nil, fmt.Errorf("%w: %s", domain.ErrChannel, resp.Text)
	}
	return resp, nil
}

// failItem and failAfterHold detach from ctx: an item whose cycle deadline
// passed must still end failed with its hold reversed.
func (s *processorService) failItem(ctx context.Context, item *domain.WorkItem, cause error) {
	ctx = context.WithoutCancel(ctx)
	metrics.WorkItemsTotal.WithLabelValues(string(item.Kind), "failed").Inc()
	logger.Warn("Work item failed", "reference", item.Reference, "error", cause)
	if err := s.workItemRepo.MarkFailed(ctx, item.ID, cause.Error()); err != nil {
		logger.Error("Failed to mark work item failed", "reference", item.Reference, "error", err)
	}
}

func (s *processorService) failAfterHold(ctx context.Context, item *domain.WorkItem, tx *domain.Transaction, cause error) {
	ctx = context.WithoutCancel(ctx)
	if _, err := releaseAndFail(ctx, s.txManager, s.txRepo, s.ledger, tx.ID, cause.Error()); err != nil {
		logger.Error("Failed to release hold, sweeper will retry",
			"reference", item.Reference, "transaction_id", tx.ID, "error", err)
	}
	s.failItem(ctx, item, cause)
}
