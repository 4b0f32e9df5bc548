package utils

import (
	"github.com/shopspring/decimal"

	"momo-proxy-backend/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// CalculateFee applies rule to amount. A nil rule means no fee.
//
// flat:    fee = flat_fee
// percent: fee = amount * percent_fee / 100
// mixed:   flat + percent
//
// The result is clamped to [min_fee, max_fee] where set and rounded to cents.
func CalculateFee(rule *domain.FeeRule, amount decimal.Decimal) domain.FeeBreakdown {
	if rule == nil {
		return domain.FeeBreakdown{Amount: amount, Fee: decimal.Zero, Net: amount}
	}

	percentPart := amount.Mul(rule.PercentFee).Div(hundred)

	var fee decimal.Decimal
	switch rule.Model {
	case domain.FeeModelFlat:
		fee = rule.FlatFee
	case domain.FeeModelPercent:
		fee = percentPart
	case domain.FeeModelMixed:
		fee = rule.FlatFee.Add(percentPart)
	default:
		fee = decimal.Zero
	}

	if rule.MinFee != nil && fee.LessThan(*rule.MinFee) {
		fee = *rule.MinFee
	}
	if rule.MaxFee != nil && fee.GreaterThan(*rule.MaxFee) {
		fee = *rule.MaxFee
	}
	fee = fee.Round(2)

	ruleID := rule.ID
	return domain.FeeBreakdown{
		Amount: amount,
		Fee:    fee,
		Net:    amount.Sub(fee),
		RuleID: &ruleID,
	}
}
