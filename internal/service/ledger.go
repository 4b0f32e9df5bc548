package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"momo-proxy-backend/internal/domain"
	"momo-proxy-backend/internal/logger"
	"momo-proxy-backend/internal/repository"
)

type ledgerService struct {
	balanceRepo repository.BalanceRepository
	countryRepo repository.CountryRepository
	txManager   repository.TxManager
}

func NewLedgerService(
	balanceRepo repository.BalanceRepository,
	countryRepo repository.CountryRepository,
	txManager repository.TxManager,
) LedgerService {
	return &ledgerService{
		balanceRepo: balanceRepo,
		countryRepo: countryRepo,
		txManager:   txManager,
	}
}

func (s *ledgerService) Lock(ctx context.Context, companyID, countryID int32) (*domain.Balance, error) {
	return s.balanceRepo.GetForUpdate(ctx, companyID, countryID)
}

// Hold debits available and credits held on an already locked balance.
func (s *ledgerService) Hold(ctx context.Context, balance *domain.Balance, amount decimal.Decimal) (domain.LedgerSnapshot, error) {
	if err := balance.Hold(amount); err != nil {
		return domain.LedgerSnapshot{}, err
	}
	if err := s.balanceRepo.UpdateAmounts(ctx, balance); err != nil {
		return domain.LedgerSnapshot{}, fmt.Errorf("persist hold: %w", err)
	}
	after := balance.Snapshot()
	logger.LedgerMutation("hold", balance.ID, amount.StringFixed(2),
		"available", after.Available.StringFixed(2), "held", after.Held.StringFixed(2))
	return after, nil
}

func (s *ledgerService) Release(ctx context.Context, balanceID int32, amount decimal.Decimal) (domain.LedgerSnapshot, domain.LedgerSnapshot, error) {
	return s.mutate(ctx, "release", balanceID, amount, func(b *domain.Balance) error {
		return b.Release(amount)
	})
}

func (s *ledgerService) Settle(ctx context.Context, balanceID int32, kind domain.TransactionKind, amount decimal.Decimal) (domain.LedgerSnapshot, domain.LedgerSnapshot, error) {
	return s.mutate(ctx, "settle_"+string(kind), balanceID, amount, func(b *domain.Balance) error {
		return b.Settle(kind, amount)
	})
}

// mutate locks the balance by id, applies fn and persists the result. It
// joins the caller's transaction when there is one.
func (s *ledgerService) mutate(ctx context.Context, op string, balanceID int32, amount decimal.Decimal, fn func(*domain.Balance) error) (before, after domain.LedgerSnapshot, err error) {
	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		balance, err := s.balanceRepo.GetByIDForUpdate(ctx, balanceID)
		if err != nil {
			return err
		}
		before = balance.Snapshot()
		if err := fn(balance); err != nil {
			return fmt.Errorf("%s balance %d: %w", op, balanceID, err)
		}
		if err := s.balanceRepo.UpdateAmounts(ctx, balance); err != nil {
			return err
		}
		after = balance.Snapshot()
		return nil
	})
	if err != nil {
		return domain.LedgerSnapshot{}, domain.LedgerSnapshot{}, err
	}
	logger.LedgerMutation(op, balanceID, amount.StringFixed(2),
		"available", after.Available.StringFixed(2), "held", after.Held.StringFixed(2))
	return before, after, nil
}

// TopUp credits available funds, creating the balance row on first use.
func (s *ledgerService) TopUp(ctx context.Context, companyID int32, isoCode, partnerCode string, amount decimal.Decimal) (*domain.Balance, error) {
	if !amount.IsPositive() {
		return nil, domain.Validationf("top-up amount must be positive")
	}
	if companyID <= 0 || strings.TrimSpace(partnerCode) == "" {
		return nil, domain.Validationf("company_id and partner_code are required")
	}
	country, err := s.countryRepo.GetByISO(ctx, strings.ToUpper(isoCode))
	if err != nil {
		return nil, err
	}

	var balance *domain.Balance
	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		ensured, err := s.balanceRepo.Ensure(ctx, companyID, country.ID, partnerCode)
		if err != nil {
			return err
		}
		balance, err = s.balanceRepo.GetByIDForUpdate(ctx, ensured.ID)
		if err != nil {
			return err
		}
		balance.Available = balance.Available.Add(amount)
		return s.balanceRepo.UpdateAmounts(ctx, balance)
	})
	if err != nil {
		return nil, err
	}
	logger.LedgerMutation("top_up", balance.ID, amount.StringFixed(2),
		"company_id", companyID, "country", country.ISOCode, "available", balance.Available.StringFixed(2))
	return balance, nil
}

func (s *ledgerService) Summary(ctx context.Context, companyID int32) ([]domain.BalanceSummary, error) {
	return s.balanceRepo.ListSummaries(ctx, companyID)
}
