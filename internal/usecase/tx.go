package usecase

import "context"

// runInTx runs fn as one unit of work: begin, fn, commit. The transaction is
// rolled back on any error. When a retrier is configured the whole unit is
// re-run on transient store conflicts.
func runInTx(ctx context.Context, txManager TransactionManager, retrier Retrier, fn func(ctx context.Context, tx Transaction) error) error {
	attempt := func() error {
		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := txManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		if err := fn(txCtx, tx); err != nil {
			return err
		}

		return tx.Commit(txCtx)
	}

	if retrier == nil {
		return attempt()
	}
	return retrier.Retry(ctx, attempt)
}
