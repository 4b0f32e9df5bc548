package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"momo-proxy-backend/internal/domain"
	"momo-proxy-backend/internal/logger"
	"momo-proxy-backend/internal/repository"
	"momo-proxy-backend/internal/utils"
)

type feeService struct {
	feeRepo   repository.FeeRuleRepository
	txManager repository.TxManager
	now       func() time.Time
}

func NewFeeService(feeRepo repository.FeeRuleRepository, txManager repository.TxManager) FeeService {
	return &feeService{feeRepo: feeRepo, txManager: txManager, now: time.Now}
}

func (s *feeService) Quote(ctx context.Context, countryID int32, kind domain.TransactionKind, amount decimal.Decimal) (domain.FeeBreakdown, error) {
	rule, err := s.feeRepo.GetActive(ctx, countryID, kind)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return domain.FeeBreakdown{}, fmt.Errorf("load fee rule: %w", err)
	}
	return utils.CalculateFee(rule, amount), nil
}

// ProposeRule stores rule as a new, unapproved version. When an active rule
// exists for the same key the new version links back to it.
func (s *feeService) ProposeRule(ctx context.Context, rule *domain.FeeRule) error {
	if err := validateFeeRule(rule); err != nil {
		return err
	}

	current, err := s.feeRepo.GetActive(ctx, rule.CountryID, rule.Kind)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	rule.ID = 0
	rule.IsActive = false
	rule.ApprovedAt = nil
	rule.ApprovedBy = ""
	rule.Version = 1
	rule.PreviousRuleID = nil
	if current != nil {
		rule.Version = current.Version + 1
		prev := current.ID
		rule.PreviousRuleID = &prev
	}

	if err := s.feeRepo.Create(ctx, rule); err != nil {
		return err
	}
	logger.Info("Fee rule proposed", "rule_id", rule.ID, "country_id", rule.CountryID, "kind", rule.Kind, "version", rule.Version)
	return nil
}

func (s *feeService) ApproveRule(ctx context.Context, id int32, approvedBy string) error {
	if approvedBy == "" {
		return domain.Validationf("approver is required")
	}
	if err := s.feeRepo.Approve(ctx, id, approvedBy, s.now().UTC()); err != nil {
		return err
	}
	logger.Info("Fee rule approved", "rule_id", id, "approved_by", approvedBy)
	return nil
}

func (s *feeService) ActivateRule(ctx context.Context, id int32) error {
	return s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		rule, err := s.feeRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !rule.Approved() {
			return domain.ErrRuleNotApproved
		}
		if rule.IsActive {
			return nil
		}
		if err := s.feeRepo.DeactivateKey(ctx, rule.CountryID, rule.Kind); err != nil {
			return err
		}
		if err := s.feeRepo.Activate(ctx, id); err != nil {
			return err
		}
		logger.Info("Fee rule activated", "rule_id", id, "country_id", rule.CountryID, "kind", rule.Kind)
		return nil
	})
}

func validateFeeRule(rule *domain.FeeRule) error {
	if rule.CountryID <= 0 {
		return domain.Validationf("country is required")
	}
	if !rule.Kind.Valid() {
		return domain.Validationf("unknown transaction type %q", rule.Kind)
	}
	switch rule.Model {
	case domain.FeeModelFlat, domain.FeeModelPercent, domain.FeeModelMixed:
	default:
		return domain.Validationf("unknown fee model %q", rule.Model)
	}
	if rule.FlatFee.IsNegative() || rule.PercentFee.IsNegative() {
		return domain.Validationf("fees cannot be negative")
	}
	if rule.PercentFee.GreaterThan(decimal.NewFromInt(100)) {
		return domain.Validationf("percent_fee cannot exceed 100")
	}
	if rule.MinFee != nil && rule.MaxFee != nil && rule.MinFee.GreaterThan(*rule.MaxFee) {
		return domain.Validationf("min_fee cannot exceed max_fee")
	}
	return nil
}
