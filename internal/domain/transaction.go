package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionKind string

const (
	KindPushFunds TransactionKind = "push_funds"
	KindPullFunds TransactionKind = "pull_funds"
	KindAirtime   TransactionKind = "airtime"
)

func (k TransactionKind) Valid() bool {
	switch k {
	case KindPushFunds, KindPullFunds, KindAirtime:
		return true
	}
	return false
}

// Direction tells which way money moves relative to the company's balance.
func (k TransactionKind) Direction() Direction {
	if k == KindPullFunds {
		return DirectionInbound
	}
	return DirectionOutbound
}

type Direction string

const (
	DirectionOutbound Direction = "outbound"
	DirectionInbound  Direction = "inbound"
)

type TransactionStatus string

const (
	TransactionStatusCreated    TransactionStatus = "created"
	TransactionStatusInitiated  TransactionStatus = "initiated"
	TransactionStatusPending    TransactionStatus = "pending"
	TransactionStatusProcessing TransactionStatus = "processing"
	TransactionStatusSuccess    TransactionStatus = "success"
	TransactionStatusFailed     TransactionStatus = "failed"
	TransactionStatusCancelled  TransactionStatus = "cancelled"
)

// NonTerminalStatuses are the statuses a transaction may still leave.
var NonTerminalStatuses = []TransactionStatus{
	TransactionStatusCreated,
	TransactionStatusInitiated,
	TransactionStatusPending,
	TransactionStatusProcessing,
}

func (s TransactionStatus) Terminal() bool {
	for _, st := range NonTerminalStatuses {
		if s == st {
			return false
		}
	}
	return true
}

// NonTerminalStatusStrings is NonTerminalStatuses as plain strings, for SQL array binding.
func NonTerminalStatusStrings() []string {
	out := make([]string, len(NonTerminalStatuses))
	for i, s := range NonTerminalStatuses {
		out[i] = string(s)
	}
	return out
}

type Transaction struct {
	ID                   int32             `json:"id"`
	Kind                 TransactionKind   `json:"kind"`
	Direction            Direction         `json:"direction"`
	Counterparty         string            `json:"counterparty"`
	Amount               decimal.Decimal   `json:"amount"`
	FeeAmount            decimal.Decimal   `json:"fee_amount"`
	NetAmount            decimal.Decimal   `json:"net_amount"`
	CompanyID            int32             `json:"company_id"`
	CountryID            int32             `json:"country_id"`
	BalanceID            int32             `json:"balance_id"`
	PendingTransactionID int32             `json:"pending_transaction_id"`
	PartnerCode          string            `json:"partner_code"`
	Before               LedgerSnapshot    `json:"before"`
	After                LedgerSnapshot    `json:"after"`
	GatewayTransactionID *string           `json:"gateway_transaction_id,omitempty"`
	GatewayResponse      string            `json:"gateway_response,omitempty"`
	SIMUsed              string            `json:"sim_used,omitempty"`
	ConfirmationPayload  string            `json:"confirmation_payload,omitempty"`
	ErrorMessage         string            `json:"error_message,omitempty"`
	Status               TransactionStatus `json:"status"`
	CreatedAt            time.Time         `json:"created_at"`
	ValidatedAt          *time.Time        `json:"validated_at,omitempty"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

// TransactionFilter narrows history reads. Zero values are ignored.
type TransactionFilter struct {
	CompanyID    int32
	Kind         TransactionKind
	Counterparty string
	PartnerCode  string
	Status       TransactionStatus
	Limit        int32
	Offset       int32
}
