package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type WorkItemStatus string

const (
	WorkItemStatusPending    WorkItemStatus = "pending"
	WorkItemStatusProcessing WorkItemStatus = "processing"
	WorkItemStatusProcessed  WorkItemStatus = "processed"
	WorkItemStatusFailed     WorkItemStatus = "failed"
)

// WorkItem is a queued request that has not been executed yet.
type WorkItem struct {
	ID           int32           `json:"id"`
	Reference    string          `json:"reference"`
	Kind         TransactionKind `json:"kind"`
	Counterparty string          `json:"counterparty"`
	Amount       decimal.Decimal `json:"amount"`
	PartnerCode  string          `json:"partner_code"`
	CompanyID    int32           `json:"company_id"`
	CountryHint  *string         `json:"country_hint,omitempty"`
	Status       WorkItemStatus  `json:"status"`
	ErrorMessage string          `json:"error_message,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	ProcessedAt  *time.Time      `json:"processed_at,omitempty"`
}
