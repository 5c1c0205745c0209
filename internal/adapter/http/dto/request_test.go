package dto

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/timebank/internal/domain"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     any
		wantErr bool
	}{
		{"open account ok", &OpenAccountRequest{DisplayName: "Ana"}, false},
		{"open account missing name", &OpenAccountRequest{}, true},
		{"open account long name", &OpenAccountRequest{DisplayName: strings.Repeat("a", 256)}, true},
		{"listing ok", &RegisterListingRequest{Title: "Fix bike", Capacity: 1}, false},
		{"listing offer", &RegisterListingRequest{Kind: "OFFER", Title: "Tutoring", Capacity: 3}, false},
		{"listing unknown kind", &RegisterListingRequest{Kind: "SWAP", Title: "x", Capacity: 1}, true},
		{"listing zero capacity", &RegisterListingRequest{Title: "x"}, true},
		{"listing huge capacity", &RegisterListingRequest{Title: "x", Capacity: 1001}, true},
		{"propose empty message", &ProposeRequest{}, false},
		{"propose long message", &ProposeRequest{Message: strings.Repeat("m", 2001)}, true},
		{"accept ok", &AcceptRequest{Hours: "1.5"}, false},
		{"accept zero", &AcceptRequest{Hours: "0"}, true},
		{"accept negative", &AcceptRequest{Hours: "-2"}, true},
		{"accept missing", &AcceptRequest{}, true},
		{"adjust credit", &AdjustmentRequest{Amount: "2"}, false},
		{"adjust penalty", &AdjustmentRequest{Amount: "-1", Type: "PENALTY"}, false},
		{"adjust zero", &AdjustmentRequest{Amount: "0"}, true},
		{"adjust exchange type", &AdjustmentRequest{Amount: "1", Type: "EXCHANGE"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.req)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRequest) {
					t.Fatalf("expected ErrInvalidRequest, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestAcceptRequest_DecodesNumberOrString(t *testing.T) {
	for _, body := range []string{`{"hours":2.25}`, `{"hours":"2.25"}`} {
		var req AcceptRequest
		if err := json.Unmarshal([]byte(body), &req); err != nil {
			t.Fatalf("decode %s: %v", body, err)
		}

		input, err := req.ToUseCaseInput("part-1", "acc-1")
		if err != nil {
			t.Fatalf("ToUseCaseInput: %v", err)
		}
		if !input.Hours.Equal(decimal.RequireFromString("2.25")) {
			t.Fatalf("expected 2.25 hours, got %s", input.Hours)
		}
		if input.ParticipationID != "part-1" || input.ActingAccountID != "acc-1" {
			t.Fatalf("unexpected ids in %+v", input)
		}
	}
}

func TestAdjustmentRequest_ToUseCaseInput(t *testing.T) {
	req := &AdjustmentRequest{Amount: "-3", Type: "PENALTY", Description: "no-show"}

	input, err := req.ToUseCaseInput("acc-1")
	if err != nil {
		t.Fatalf("ToUseCaseInput: %v", err)
	}
	if input.Type != domain.TxPenalty || !input.Amount.Equal(decimal.NewFromInt(-3)) {
		t.Fatalf("unexpected input %+v", input)
	}
}

func TestRegisterListingRequest_ToUseCaseInput(t *testing.T) {
	req := &RegisterListingRequest{Kind: "OFFER", Title: "Cooking", Capacity: 4}

	input := req.ToUseCaseInput("acc-9")
	if input.CreatorID != "acc-9" || input.Kind != domain.ListingKindOffer || input.Capacity != 4 {
		t.Fatalf("unexpected input %+v", input)
	}
}
