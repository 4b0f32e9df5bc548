package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"momo-proxy-backend/internal/domain"
)

// SeedFile is the reference data a fresh database starts from.
type SeedFile struct {
	Countries []SeedCountry `yaml:"countries"`
	Balances  []SeedBalance `yaml:"balances"`
	FeeRules  []SeedFeeRule `yaml:"fee_rules"`
}

type SeedCountry struct {
	Name      string `yaml:"name"`
	ISOCode   string `yaml:"iso_code"`
	PhoneCode string `yaml:"phone_code"`
	Currency  string `yaml:"currency"`
}

type SeedBalance struct {
	CompanyID   int32           `yaml:"company_id"`
	Country     string          `yaml:"country"`
	PartnerCode string          `yaml:"partner_code"`
	Available   decimal.Decimal `yaml:"available"`
}

type SeedFeeRule struct {
	Country    string           `yaml:"country"`
	Kind       string           `yaml:"kind"`
	Model      string           `yaml:"model"`
	FlatFee    decimal.Decimal  `yaml:"flat_fee"`
	PercentFee decimal.Decimal  `yaml:"percent_fee"`
	MinFee     *decimal.Decimal `yaml:"min_fee"`
	MaxFee     *decimal.Decimal `yaml:"max_fee"`
}

func loadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return parseSeed(data)
}

func parseSeed(data []byte) (*SeedFile, error) {
	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	known := make(map[string]bool, len(seed.Countries))
	for i := range seed.Countries {
		c := &seed.Countries[i]
		c.ISOCode = strings.ToUpper(c.ISOCode)
		c.PhoneCode = strings.TrimPrefix(c.PhoneCode, "+")
		if c.ISOCode == "" || c.PhoneCode == "" {
			return nil, fmt.Errorf("country %q needs an iso_code and a phone_code", c.Name)
		}
		known[c.ISOCode] = true
	}
	for i := range seed.Balances {
		b := &seed.Balances[i]
		b.Country = strings.ToUpper(b.Country)
		if !known[b.Country] {
			return nil, fmt.Errorf("balance for company %d references unknown country %q", b.CompanyID, b.Country)
		}
		if b.Available.IsNegative() {
			return nil, fmt.Errorf("balance for company %d is negative", b.CompanyID)
		}
	}
	for i := range seed.FeeRules {
		r := &seed.FeeRules[i]
		r.Country = strings.ToUpper(r.Country)
		if !known[r.Country] {
			return nil, fmt.Errorf("fee rule references unknown country %q", r.Country)
		}
		if !domain.TransactionKind(r.Kind).Valid() {
			return nil, fmt.Errorf("fee rule has unknown kind %q", r.Kind)
		}
		switch domain.FeeModel(r.Model) {
		case domain.FeeModelFlat, domain.FeeModelPercent, domain.FeeModelMixed:
		default:
			return nil, fmt.Errorf("fee rule has unknown model %q", r.Model)
		}
	}
	return &seed, nil
}

func numeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

func optionalNumeric(d *decimal.Decimal) pgtype.Numeric {
	if d == nil {
		return pgtype.Numeric{}
	}
	return numeric(*d)
}

func countryRows(seed *SeedFile) [][]any {
	rows := make([][]any, 0, len(seed.Countries))
	for _, c := range seed.Countries {
		rows = append(rows, []any{c.Name, c.ISOCode, c.PhoneCode, c.Currency, true})
	}
	return rows
}

func balanceRows(seed *SeedFile, countryIDs map[string]int32, now time.Time) [][]any {
	rows := make([][]any, 0, len(seed.Balances))
	for _, b := range seed.Balances {
		rows = append(rows, []any{
			b.CompanyID, countryIDs[b.Country], b.PartnerCode,
			numeric(b.Available), numeric(decimal.Zero), now, now,
		})
	}
	return rows
}

// feeRuleRows seeds every rule as an approved, active version 1.
func feeRuleRows(seed *SeedFile, countryIDs map[string]int32, now time.Time) [][]any {
	rows := make([][]any, 0, len(seed.FeeRules))
	for _, r := range seed.FeeRules {
		rows = append(rows, []any{
			countryIDs[r.Country], r.Kind, r.Model,
			numeric(r.FlatFee), numeric(r.PercentFee),
			optionalNumeric(r.MinFee), optionalNumeric(r.MaxFee),
			int32(1), true, now, "seeder", now,
		})
	}
	return rows
}
