package domain

import "github.com/shopspring/decimal"

type ConfirmationOutcome string

const (
	OutcomeSuccess ConfirmationOutcome = "success"
	OutcomeFailure ConfirmationOutcome = "failure"
)

// ConfirmationFact is what the parser could extract from one inbound notice.
// Kind is empty when the notice did not match any known template.
type ConfirmationFact struct {
	Kind          TransactionKind     `json:"kind,omitempty"`
	Counterparty  string              `json:"counterparty,omitempty"`
	Amount        decimal.Decimal     `json:"amount"`
	CorrelationID *string             `json:"correlation_id,omitempty"`
	Outcome       ConfirmationOutcome `json:"outcome"`
	Raw           string              `json:"-"`
}

// Actionable reports whether the fact may drive a state transition.
func (f ConfirmationFact) Actionable() bool {
	return f.Outcome == OutcomeSuccess && f.Kind.Valid() && f.Counterparty != "" && f.Amount.IsPositive()
}

// Directive is an instruction for the execution channel.
type Directive struct {
	Kind         TransactionKind
	Counterparty string
	Amount       decimal.Decimal
}

// ChannelResponse is the immediate, non-authoritative reply of the channel.
type ChannelResponse struct {
	Text          string
	CorrelationID *string
	SIMUsed       string
}
