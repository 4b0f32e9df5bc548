package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type FeeModel string

const (
	FeeModelFlat    FeeModel = "flat"
	FeeModelPercent FeeModel = "percent"
	FeeModelMixed   FeeModel = "mixed"
)

// FeeRule is one version of the fee schedule for a (country, kind) pair.
type FeeRule struct {
	ID             int32            `json:"id"`
	CountryID      int32            `json:"country_id"`
	Kind           TransactionKind  `json:"kind"`
	Model          FeeModel         `json:"model"`
	FlatFee        decimal.Decimal  `json:"flat_fee"`
	PercentFee     decimal.Decimal  `json:"percent_fee"`
	MinFee         *decimal.Decimal `json:"min_fee,omitempty"`
	MaxFee         *decimal.Decimal `json:"max_fee,omitempty"`
	Version        int32            `json:"version"`
	PreviousRuleID *int32           `json:"previous_rule_id,omitempty"`
	IsActive       bool             `json:"is_active"`
	ApprovedAt     *time.Time       `json:"approved_at,omitempty"`
	ApprovedBy     string           `json:"approved_by,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

func (r *FeeRule) Approved() bool {
	return r.ApprovedAt != nil
}

type FeeBreakdown struct {
	Amount decimal.Decimal `json:"amount"`
	Fee    decimal.Decimal `json:"fee"`
	Net    decimal.Decimal `json:"net"`
	RuleID *int32          `json:"rule_id,omitempty"`
}
