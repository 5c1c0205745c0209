package usecase

import "time"

const (
	// DefaultTransactionTimeout bounds one unit of work, retries excluded.
	// Row locks held past it are released by the rollback.
	DefaultTransactionTimeout = 10 * time.Second

	// reconcilePageSize is how many accounts reconciliation reads per page.
	reconcilePageSize = 100
)
