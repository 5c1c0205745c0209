package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// DefaultReciprocityLimit is the largest overdraft an account may carry.
	DefaultReciprocityLimit = decimal.NewFromInt(10)
	// DefaultWarnRatio is the share of the limit past which spending warns.
	DefaultWarnRatio = decimal.NewFromFloat(0.8)
)

// SpendDecision is the outcome of a reciprocity check.
type SpendDecision struct {
	Balance decimal.Decimal
	Amount  decimal.Decimal
	Debt    decimal.Decimal
	Limit   decimal.Decimal
	Message string
	Allowed bool
	Warning bool
}

// ReciprocityGuard blocks spending that would push an account past the
// allowed overdraft. It never mutates anything.
type ReciprocityGuard struct {
	Limit     decimal.Decimal
	WarnRatio decimal.Decimal
}

// NewReciprocityGuard returns a guard with the given limit and the default
// warning ratio. A non-positive limit falls back to the default.
func NewReciprocityGuard(limit decimal.Decimal) ReciprocityGuard {
	if !limit.IsPositive() {
		limit = DefaultReciprocityLimit
	}
	return ReciprocityGuard{Limit: limit, WarnRatio: DefaultWarnRatio}
}

// Check evaluates spending amount from an account holding balance.
func (g ReciprocityGuard) Check(balance, amount decimal.Decimal) SpendDecision {
	projected := balance.Sub(amount)
	debt := decimal.Max(decimal.Zero, projected.Neg())

	d := SpendDecision{
		Balance: balance,
		Amount:  amount,
		Debt:    debt,
		Limit:   g.Limit,
		Allowed: true,
	}

	switch {
	case debt.GreaterThan(g.Limit):
		d.Allowed = false
		d.Message = fmt.Sprintf(
			"reciprocity limit exceeded: balance %sh, spending %sh would leave a debt of %sh, over the %sh limit; earn hours by helping others before requesting more",
			balance.StringFixed(2), amount.StringFixed(2), debt.StringFixed(2), g.Limit.StringFixed(2))
	case debt.GreaterThan(g.Limit.Mul(g.WarnRatio)):
		d.Warning = true
		d.Message = fmt.Sprintf(
			"approaching reciprocity limit: debt after this exchange is %sh of the %sh allowed",
			debt.StringFixed(2), g.Limit.StringFixed(2))
	}

	return d
}
