package utils

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"momo-proxy-backend/internal/domain"
)

var (
	pullFundsPattern = regexp.MustCompile(`retrait de (\d+) effectue\. montant ([\d\.]+)`)
	pushFundsPattern = regexp.MustCompile(`depot vers (\d+) reussi\. montant ([\d\.]+)`)
	airtimePattern   = regexp.MustCompile(`rechargement reussi\. montant de la transaction [: ]*([\d\.]+).*other msisdn (\d+)`)
	correlationIDPat = regexp.MustCompile(`(?i)\bid\s*(?:transaction)?\s*[: ]\s*([A-Z0-9\.]+)`)
	whitespace       = regexp.MustCompile(`\s+`)

	noticeFailurePhrases = []string{
		"echec", "échoué", "failed", "not completed",
		"unsuccessful", "cancelled", "rejet", "refuse",
	}
)

// ParseNotice reduces a raw confirmation notice to a ConfirmationFact.
// Anything that is not a recognised success template comes back with
// OutcomeFailure, never as a success.
func ParseNotice(raw string) domain.ConfirmationFact {
	body := whitespace.ReplaceAllString(strings.TrimSpace(raw), " ")
	lower := strings.ToLower(body)

	fact := domain.ConfirmationFact{Outcome: domain.OutcomeFailure, Raw: raw}
	if m := correlationIDPat.FindStringSubmatch(body); m != nil {
		id := strings.TrimRight(m[1], ".")
		if id != "" {
			fact.CorrelationID = &id
		}
	}

	for _, phrase := range noticeFailurePhrases {
		if strings.Contains(lower, phrase) {
			return fact
		}
	}

	var kind domain.TransactionKind
	var msisdn, amount string
	if m := pullFundsPattern.FindStringSubmatch(lower); m != nil {
		kind, msisdn, amount = domain.KindPullFunds, m[1], m[2]
	} else if m := pushFundsPattern.FindStringSubmatch(lower); m != nil {
		kind, msisdn, amount = domain.KindPushFunds, m[1], m[2]
	} else if m := airtimePattern.FindStringSubmatch(lower); m != nil {
		kind, amount, msisdn = domain.KindAirtime, m[1], m[2]
	} else {
		return fact
	}

	value, err := decimal.NewFromString(strings.TrimRight(amount, "."))
	if err != nil {
		return fact
	}
	counterparty, err := CanonicalMSISDN(msisdn)
	if err != nil {
		return fact
	}

	fact.Kind = kind
	fact.Counterparty = counterparty
	fact.Amount = value
	fact.Outcome = domain.OutcomeSuccess
	return fact
}

type noticeEnvelope struct {
	Body string `json:"body"`
}

// DecodeNotice unwraps a {"body": ...} envelope and falls back to the raw
// payload as text.
func DecodeNotice(payload []byte) string {
	var env noticeEnvelope
	if err := json.Unmarshal(payload, &env); err == nil && env.Body != "" {
		return env.Body
	}
	return string(payload)
}
