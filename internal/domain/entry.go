package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the business reason for a ledger entry.
type TransactionType string

const (
	TxInitial    TransactionType = "INITIAL"
	TxExchange   TransactionType = "EXCHANGE"
	TxAdjustment TransactionType = "ADJUSTMENT"
	TxPenalty    TransactionType = "PENALTY"
)

// IsValid reports whether t is a known transaction type.
func (t TransactionType) IsValid() bool {
	switch t {
	case TxInitial, TxExchange, TxAdjustment, TxPenalty:
		return true
	}
	return false
}

// LedgerEntry is one append-only line of an account's ledger.
type LedgerEntry struct {
	CreatedAt       time.Time
	ParticipationID *string
	AccountID       string
	Description     string
	Type            TransactionType
	Debit           decimal.Decimal
	Credit          decimal.Decimal
	RunningBalance  decimal.Decimal
	ID              int64
}

// Net returns credit minus debit.
func (e *LedgerEntry) Net() decimal.Decimal {
	return e.Credit.Sub(e.Debit)
}

// ValidateEntryAmounts checks that exactly one side of the pair is positive
// and the other is exactly zero.
func ValidateEntryAmounts(debit, credit decimal.Decimal) error {
	if debit.IsNegative() || credit.IsNegative() {
		return fmt.Errorf("%w: debit and credit must not be negative", ErrInvalidEntry)
	}
	if debit.IsPositive() == credit.IsPositive() {
		return fmt.Errorf("%w: exactly one of debit or credit must be positive", ErrInvalidEntry)
	}
	return nil
}

// Validate validates the entry before it is written.
func (e *LedgerEntry) Validate() error {
	if e.AccountID == "" {
		return fmt.Errorf("%w: account id is required", ErrInvalidEntry)
	}
	if !e.Type.IsValid() {
		return fmt.Errorf("%w: unknown transaction type %q", ErrInvalidEntry, e.Type)
	}
	return ValidateEntryAmounts(e.Debit, e.Credit)
}
