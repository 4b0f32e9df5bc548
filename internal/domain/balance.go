package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance is the dual-balance ledger row for one (company, country) pair.
type Balance struct {
	ID          int32           `json:"id"`
	CompanyID   int32           `json:"company_id"`
	CountryID   int32           `json:"country_id"`
	PartnerCode string          `json:"partner_code"`
	Available   decimal.Decimal `json:"available"`
	Held        decimal.Decimal `json:"held"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// LedgerSnapshot captures both sides of a balance at one point in time.
type LedgerSnapshot struct {
	Available decimal.Decimal `json:"available"`
	Held      decimal.Decimal `json:"held"`
}

func (s LedgerSnapshot) Total() decimal.Decimal {
	return s.Available.Add(s.Held)
}

func (b *Balance) Snapshot() LedgerSnapshot {
	return LedgerSnapshot{Available: b.Available, Held: b.Held}
}

// Effective is what the company can still commit: available minus held.
func (b *Balance) Effective() decimal.Decimal {
	return b.Available.Sub(b.Held)
}

// Hold moves amount from available to held.
func (b *Balance) Hold(amount decimal.Decimal) error {
	if b.Available.LessThan(amount) {
		return ErrInsufficientFunds
	}
	b.Available = b.Available.Sub(amount)
	b.Held = b.Held.Add(amount)
	return nil
}

// Release reverses a hold.
func (b *Balance) Release(amount decimal.Decimal) error {
	if b.Held.LessThan(amount) {
		return ErrLedgerInconsistent
	}
	b.Held = b.Held.Sub(amount)
	b.Available = b.Available.Add(amount)
	return nil
}

// Settle applies a confirmed transaction. Inbound money is credited to
// available; outbound money was already taken from available at hold time
// and is now consumed.
func (b *Balance) Settle(kind TransactionKind, amount decimal.Decimal) error {
	if b.Held.LessThan(amount) {
		return ErrLedgerInconsistent
	}
	b.Held = b.Held.Sub(amount)
	if kind.Direction() == DirectionInbound {
		b.Available = b.Available.Add(amount)
	}
	return nil
}

// BalanceSummary is the read model returned to partners.
type BalanceSummary struct {
	CountryISO  string          `json:"country_iso"`
	CountryName string          `json:"country_name"`
	Currency    string          `json:"currency"`
	PartnerCode string          `json:"partner_code"`
	Available   decimal.Decimal `json:"available"`
	Held        decimal.Decimal `json:"held"`
	Effective   decimal.Decimal `json:"effective"`
}
