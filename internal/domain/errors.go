package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrValidation            = errors.New("validation failed")
	ErrBlackout              = errors.New("counterparty is in blackout window")
	ErrNoBalanceConfigured   = errors.New("no balance configured for company and country")
	ErrInsufficientFunds     = errors.New("insufficient available balance")
	ErrChannel               = errors.New("execution channel error")
	ErrUnmatchedConfirmation = errors.New("confirmation did not match any transaction")
	ErrStaleTimeout          = errors.New("no confirmation received within deadline")
	ErrNoCountry             = errors.New("destination country could not be resolved")
	ErrLedgerInconsistent    = errors.New("held balance lower than amount to release")
	ErrRuleImmutable         = errors.New("approved fee rule cannot be modified")
	ErrRuleNotApproved       = errors.New("fee rule is not approved")
)

// BlackoutError is returned by intake when the same counterparty already has a
// non-terminal transaction of the same kind inside the cooldown window.
type BlackoutError struct {
	Kind         TransactionKind
	Counterparty string
	RetryAfter   time.Duration
}

func (e *BlackoutError) Error() string {
	return fmt.Sprintf("%s to %s blocked, retry in %s", e.Kind, e.Counterparty, e.RetryAfter.Round(time.Second))
}

func (e *BlackoutError) Unwrap() error {
	return ErrBlackout
}

// Validationf wraps ErrValidation with a formatted detail.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
