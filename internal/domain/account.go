package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InitialCredit is the balance every account is seeded with when it is opened.
// It is not a ledger entry; integrity checks add it as the baseline.
var InitialCredit = decimal.NewFromInt(5)

// Account is a member's hour account. The directory owns identity and the
// active flag; only the ledger writes Balance.
type Account struct {
	ID          string
	DisplayName string
	Balance     decimal.Decimal
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BalanceAfter returns the balance once an entry with the given debit and
// credit is posted. Balance itself is left untouched.
func (a *Account) BalanceAfter(debit, credit decimal.Decimal) decimal.Decimal {
	return a.Balance.Sub(debit).Add(credit)
}

// Name returns the display name, falling back to the ID.
func (a *Account) Name() string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	return a.ID
}

// EnsureActive returns ErrAccountSuspended for suspended accounts.
func (a *Account) EnsureActive() error {
	if !a.Active {
		return ErrAccountSuspended
	}
	return nil
}
