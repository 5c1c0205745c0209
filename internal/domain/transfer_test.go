package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestTransfer_Validate(t *testing.T) {
	tests := []struct {
		name        string
		senderID    string
		receiverID  string
		amount      decimal.Decimal
		expectError error
	}{
		{
			name:        "valid transfer",
			senderID:    "requester",
			receiverID:  "provider",
			amount:      decimal.NewFromInt(3),
			expectError: nil,
		},
		{
			name:        "same account",
			senderID:    "requester",
			receiverID:  "requester",
			amount:      decimal.NewFromInt(3),
			expectError: ErrSameAccount,
		},
		{
			name:        "zero amount",
			senderID:    "requester",
			receiverID:  "provider",
			amount:      decimal.Zero,
			expectError: ErrInvalidHours,
		},
		{
			name:        "negative amount",
			senderID:    "requester",
			receiverID:  "provider",
			amount:      decimal.NewFromInt(-1),
			expectError: ErrInvalidHours,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transfer := &Transfer{
				SenderID:   tt.senderID,
				ReceiverID: tt.receiverID,
				Amount:     tt.amount,
			}

			err := transfer.Validate()

			if tt.expectError == nil && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.expectError != nil && !errors.Is(err, tt.expectError) {
				t.Errorf("expected error %v, got %v", tt.expectError, err)
			}
		})
	}
}

func TestValidateEntryAmounts(t *testing.T) {
	tests := []struct {
		name    string
		debit   decimal.Decimal
		credit  decimal.Decimal
		wantErr bool
	}{
		{name: "credit only", debit: decimal.Zero, credit: decimal.NewFromInt(3)},
		{name: "debit only", debit: decimal.NewFromInt(3), credit: decimal.Zero},
		{name: "both zero", debit: decimal.Zero, credit: decimal.Zero, wantErr: true},
		{name: "both positive", debit: decimal.NewFromInt(1), credit: decimal.NewFromInt(1), wantErr: true},
		{name: "negative credit", debit: decimal.Zero, credit: decimal.NewFromInt(-1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEntryAmounts(tt.debit, tt.credit)
			if tt.wantErr && !errors.Is(err, ErrInvalidEntry) {
				t.Fatalf("expected ErrInvalidEntry, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestLedgerEntry_Validate(t *testing.T) {
	entry := &LedgerEntry{AccountID: "acc-1", Type: TxExchange, Credit: decimal.NewFromInt(2)}
	if err := entry.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !entry.Net().Equal(decimal.NewFromInt(2)) {
		t.Fatalf("expected net 2, got %s", entry.Net())
	}

	entry.Type = "BONUS"
	if err := entry.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for unknown type, got %v", err)
	}
}
