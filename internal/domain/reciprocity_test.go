package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestReciprocityGuard_Check(t *testing.T) {
	guard := NewReciprocityGuard(decimal.Zero)

	tests := []struct {
		name        string
		balance     string
		amount      string
		wantAllowed bool
		wantWarning bool
		wantDebt    string
	}{
		{name: "stays positive", balance: "5", amount: "3", wantAllowed: true, wantDebt: "0"},
		{name: "small debt", balance: "0", amount: "4", wantAllowed: true, wantDebt: "4"},
		{name: "debt at warn threshold", balance: "0", amount: "8", wantAllowed: true, wantDebt: "8"},
		{name: "debt past warn threshold", balance: "-5", amount: "4", wantAllowed: true, wantWarning: true, wantDebt: "9"},
		{name: "debt exactly at limit", balance: "-8", amount: "2", wantAllowed: true, wantWarning: true, wantDebt: "10"},
		{name: "debt just over limit", balance: "-8", amount: "2.01", wantAllowed: false, wantDebt: "10.01"},
		{name: "debt far over limit", balance: "-9", amount: "2", wantAllowed: false, wantDebt: "11"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := guard.Check(decimal.RequireFromString(tt.balance), decimal.RequireFromString(tt.amount))

			if d.Allowed != tt.wantAllowed {
				t.Errorf("allowed: expected %v, got %v", tt.wantAllowed, d.Allowed)
			}
			if d.Warning != tt.wantWarning {
				t.Errorf("warning: expected %v, got %v", tt.wantWarning, d.Warning)
			}
			if !d.Debt.Equal(decimal.RequireFromString(tt.wantDebt)) {
				t.Errorf("debt: expected %s, got %s", tt.wantDebt, d.Debt)
			}
			if !d.Allowed && !strings.Contains(d.Message, "10.00") {
				t.Errorf("refusal message should name the limit: %q", d.Message)
			}
		})
	}
}

func TestReciprocityGuard_CustomLimit(t *testing.T) {
	guard := NewReciprocityGuard(decimal.NewFromInt(2))

	if d := guard.Check(decimal.Zero, decimal.NewFromInt(2)); !d.Allowed {
		t.Fatal("debt equal to custom limit should be allowed")
	}
	if d := guard.Check(decimal.Zero, decimal.NewFromInt(3)); d.Allowed {
		t.Fatal("debt above custom limit should be refused")
	}
}

func TestReciprocityError(t *testing.T) {
	d := NewReciprocityGuard(decimal.Zero).Check(decimal.NewFromInt(-9), decimal.NewFromInt(2))
	err := error(&ReciprocityError{AccountID: "acc-1", Decision: d})

	if !errors.Is(err, ErrReciprocityLimitExceeded) {
		t.Fatalf("expected ErrReciprocityLimitExceeded, got %v", err)
	}
	if err.Error() != d.Message {
		t.Fatalf("expected decision message, got %q", err.Error())
	}

	var re *ReciprocityError
	if !errors.As(err, &re) || re.AccountID != "acc-1" {
		t.Fatalf("errors.As failed: %v", err)
	}
}
