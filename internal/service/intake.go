package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"momo-proxy-backend/internal/domain"
	"momo-proxy-backend/internal/logger"
	"momo-proxy-backend/internal/metrics"
	"momo-proxy-backend/internal/repository"
	"momo-proxy-backend/internal/utils"
)

var (
	minFundsAmount   = decimal.NewFromInt(2000)
	maxFundsAmount   = decimal.NewFromInt(15000000)
	minAirtimeAmount = decimal.NewFromInt(1000)
	maxAirtimeAmount = decimal.NewFromInt(250000)
)

type SubmitRequest struct {
	Kind         domain.TransactionKind
	Counterparty string
	Amount       decimal.Decimal
	PartnerCode  string
	CompanyID    int32
	CountryHint  *string
}

// BlackoutWindows is the per-kind cooldown between two in-flight
// transactions to the same counterparty.
type BlackoutWindows struct {
	PushPull time.Duration
	Airtime  time.Duration
}

func (w BlackoutWindows) For(kind domain.TransactionKind) time.Duration {
	if kind == domain.KindAirtime {
		return w.Airtime
	}
	return w.PushPull
}

type intakeService struct {
	workItemRepo repository.WorkItemRepository
	txRepo       repository.TransactionRepository
	windows      BlackoutWindows
	now          func() time.Time
}

func NewIntakeService(
	workItemRepo repository.WorkItemRepository,
	txRepo repository.TransactionRepository,
	windows BlackoutWindows,
) IntakeService {
	return &intakeService{
		workItemRepo: workItemRepo,
		txRepo:       txRepo,
		windows:      windows,
		now:          time.Now,
	}
}

func (s *intakeService) Submit(ctx context.Context, req SubmitRequest) (*domain.WorkItem, error) {
	logger.EnterMethod("intakeService.Submit", "kind", req.Kind, "company_id", req.CompanyID)

	counterparty, err := validateSubmit(&req)
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues(string(req.Kind), "invalid").Inc()
		logger.ExitMethodWithError("intakeService.Submit", err)
		return nil, err
	}

	latest, err := s.txRepo.LatestNonTerminal(ctx, req.Kind, counterparty)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		logger.ExitMethodWithError("intakeService.Submit", err)
		return nil, fmt.Errorf("blackout lookup: %w", err)
	}
	if latest != nil {
		window := s.windows.For(req.Kind)
		if age := s.now().Sub(latest.CreatedAt); age < window {
			metrics.SubmissionsTotal.WithLabelValues(string(req.Kind), "blackout").Inc()
			logger.Warn("Submission rejected by blackout window",
				"kind", req.Kind, "counterparty", counterparty, "blocking_transaction", latest.ID)
			return nil, &domain.BlackoutError{
				Kind:         req.Kind,
				Counterparty: counterparty,
				RetryAfter:   window - age,
			}
		}
	}

	item := &domain.WorkItem{
		Reference:    uuid.New().String(),
		Kind:         req.Kind,
		Counterparty: counterparty,
		Amount:       req.Amount,
		PartnerCode:  req.PartnerCode,
		CompanyID:    req.CompanyID,
		CountryHint:  req.CountryHint,
		Status:       domain.WorkItemStatusPending,
	}
	if err := s.workItemRepo.Create(ctx, item); err != nil {
		logger.ExitMethodWithError("intakeService.Submit", err)
		return nil, fmt.Errorf("queue work item: %w", err)
	}

	metrics.SubmissionsTotal.WithLabelValues(string(req.Kind), "queued").Inc()
	logger.Info("Work item queued", "reference", item.Reference, "kind", item.Kind, "company_id", item.CompanyID)
	logger.ExitMethod("intakeService.Submit", "reference", item.Reference)
	return item, nil
}

func (s *intakeService) GetWorkItem(ctx context.Context, companyID int32, reference string) (*domain.WorkItem, error) {
	item, err := s.workItemRepo.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	// Another company's reference is reported as missing.
	if item.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

// validateSubmit checks the request and returns the canonical counterparty.
func validateSubmit(req *SubmitRequest) (string, error) {
	if !req.Kind.Valid() {
		return "", domain.Validationf("unknown transaction type %q", req.Kind)
	}
	if req.CompanyID <= 0 {
		return "", domain.Validationf("company is required")
	}
	if strings.TrimSpace(req.PartnerCode) == "" {
		return "", domain.Validationf("partner_code is required")
	}

	counterparty, err := utils.CanonicalMSISDN(req.Counterparty)
	if err != nil {
		return "", domain.Validationf("%v", err)
	}

	lo, hi := minFundsAmount, maxFundsAmount
	if req.Kind == domain.KindAirtime {
		lo, hi = minAirtimeAmount, maxAirtimeAmount
	}
	if req.Amount.LessThan(lo) || req.Amount.GreaterThan(hi) {
		return "", domain.Validationf("amount for %s must be between %s and %s", req.Kind, lo, hi)
	}

	if req.CountryHint != nil {
		hint := strings.ToUpper(strings.TrimSpace(*req.CountryHint))
		if len(hint) < 2 || len(hint) > 3 || strings.IndexFunc(hint, func(r rune) bool { return r < 'A' || r > 'Z' }) >= 0 {
			return "", domain.Validationf("country_code must be 2 or 3 letters")
		}
		req.CountryHint = &hint
	}
	return counterparty, nil
}
