package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"momo-proxy-backend/internal/domain"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func TestCalculateFee(t *testing.T) {
	tests := []struct {
		name    string
		rule    *domain.FeeRule
		amount  string
		wantFee string
		wantNet string
	}{
		{"no rule", nil, "2000", "0", "2000"},
		{"flat", &domain.FeeRule{Model: domain.FeeModelFlat, FlatFee: d("150")}, "2000", "150", "1850"},
		{"percent", &domain.FeeRule{Model: domain.FeeModelPercent, PercentFee: d("1.5")}, "2000", "30", "1970"},
		{"mixed", &domain.FeeRule{Model: domain.FeeModelMixed, FlatFee: d("100"), PercentFee: d("1")}, "5000", "150", "4850"},
		{"min clamp", &domain.FeeRule{Model: domain.FeeModelPercent, PercentFee: d("1"), MinFee: dp("50")}, "2000", "50", "1950"},
		{"max clamp", &domain.FeeRule{Model: domain.FeeModelPercent, PercentFee: d("2"), MaxFee: dp("1000")}, "100000", "1000", "99000"},
		{"unbounded max", &domain.FeeRule{Model: domain.FeeModelPercent, PercentFee: d("2"), MinFee: dp("10")}, "100000", "2000", "98000"},
		{"rounded to cents", &domain.FeeRule{Model: domain.FeeModelPercent, PercentFee: d("0.3333")}, "1000", "3.33", "996.67"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateFee(tt.rule, d(tt.amount))
			assert.True(t, got.Fee.Equal(d(tt.wantFee)), "fee: got %s want %s", got.Fee, tt.wantFee)
			assert.True(t, got.Net.Equal(d(tt.wantNet)), "net: got %s want %s", got.Net, tt.wantNet)
			assert.True(t, got.Amount.Equal(d(tt.amount)))
		})
	}

	t.Run("rule id is reported", func(t *testing.T) {
		got := CalculateFee(&domain.FeeRule{ID: 7, Model: domain.FeeModelFlat, FlatFee: d("1")}, d("10"))
		require.NotNil(t, got.RuleID)
		assert.Equal(t, int32(7), *got.RuleID)
	})
}
