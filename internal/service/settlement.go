package service

import (
	"context"
	"errors"

	"momo-proxy-backend/internal/repository"
)

// errNoTransition rolls back a terminal write that lost to a concurrent one.
var errNoTransition = errors.New("transaction already terminal")

// releaseAndFail returns a transaction's hold to available and marks it
// failed, both under the transaction row lock. It reports false when the row
// was already terminal and nothing changed.
func releaseAndFail(
	ctx context.Context,
	txManager repository.TxManager,
	txRepo repository.TransactionRepository,
	ledger LedgerService,
	transactionID int32,
	reason string,
) (bool, error) {
	err := txManager.WithTransaction(ctx, func(ctx context.Context) error {
		locked, err := txRepo.GetByIDForUpdate(ctx, transactionID)
		if err != nil {
			return err
		}
		if locked.Status.Terminal() {
			return errNoTransition
		}

		_, after, err := ledger.Release(ctx, locked.BalanceID, locked.Amount)
		if err != nil {
			return err
		}
		changed, err := txRepo.MarkFailed(ctx, locked.ID, reason, after)
		if err != nil {
			return err
		}
		if !changed {
			return errNoTransition
		}
		return nil
	})
	if errors.Is(err, errNoTransition) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
