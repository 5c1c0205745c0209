package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/timebank/internal/adapter/http/dto"
	"github.com/iho/timebank/internal/domain"
	"github.com/iho/timebank/internal/usecase"
)

type ledgerServiceStub struct {
	report   *usecase.IntegrityReport
	adjusted usecase.AdjustInput
	adjustFn func(input usecase.AdjustInput) (*domain.LedgerEntry, error)
}

func (s *ledgerServiceStub) VerifyIntegrity(ctx context.Context, accountID string) (*usecase.IntegrityReport, error) {
	return s.report, nil
}

func (s *ledgerServiceStub) CheckSpend(ctx context.Context, accountID string, hours decimal.Decimal) (domain.SpendDecision, error) {
	return domain.NewReciprocityGuard(domain.DefaultReciprocityLimit).Check(decimal.NewFromInt(5), hours), nil
}

func (s *ledgerServiceStub) Adjust(ctx context.Context, input usecase.AdjustInput) (*domain.LedgerEntry, error) {
	s.adjusted = input
	return s.adjustFn(input)
}

type reconcilerStub struct{}

func (reconcilerStub) Reconcile(ctx context.Context) (*usecase.ReconciliationReport, error) {
	return &usecase.ReconciliationReport{TotalAccounts: 3, ReconciledAccounts: 3, LedgerConsistent: true}, nil
}

func TestLedgerHandler_VerifyIntegrity(t *testing.T) {
	tests := []struct {
		name       string
		ok         bool
		wantStatus int
	}{
		{"clean", true, http.StatusOK},
		{"fault", false, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewLedgerHandler(&ledgerServiceStub{report: &usecase.IntegrityReport{
				AccountID:       "acc-1",
				CachedBalance:   decimal.NewFromInt(7),
				ComputedBalance: decimal.NewFromInt(7),
				OK:              tt.ok,
			}}, reconcilerStub{})

			req := setChiURLParam(httptest.NewRequest(http.MethodGet, "/accounts/acc-1/integrity", nil), "id", "acc-1")
			rec := httptest.NewRecorder()

			h.VerifyIntegrity(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}

			var resp dto.IntegrityResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.OK != tt.ok {
				t.Fatalf("expected ok=%v in body", tt.ok)
			}
		})
	}
}

func TestLedgerHandler_CheckSpend(t *testing.T) {
	h := NewLedgerHandler(&ledgerServiceStub{}, reconcilerStub{})

	req := setChiURLParam(httptest.NewRequest(http.MethodGet, "/accounts/acc-1/spend-check?hours=15", nil), "id", "acc-1")
	rec := httptest.NewRecorder()
	h.CheckSpend(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp dto.SpendDecisionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Allowed || !resp.Warning || resp.Debt != "10.00" {
		t.Fatalf("expected a warning at exactly the limit, got %+v", resp)
	}

	req = setChiURLParam(httptest.NewRequest(http.MethodGet, "/accounts/acc-1/spend-check?hours=abc", nil), "id", "acc-1")
	rec = httptest.NewRecorder()
	h.CheckSpend(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad hours, got %d", rec.Code)
	}
}

func TestLedgerHandler_Adjust(t *testing.T) {
	stub := &ledgerServiceStub{
		adjustFn: func(input usecase.AdjustInput) (*domain.LedgerEntry, error) {
			return &domain.LedgerEntry{ID: 7, AccountID: input.AccountID, Type: domain.TxPenalty, Debit: input.Amount.Neg()}, nil
		},
	}
	h := NewLedgerHandler(stub, reconcilerStub{})

	req := httptest.NewRequest(http.MethodPost, "/accounts/acc-1/adjustments", bytes.NewBufferString(`{"amount":"-2","type":"PENALTY"}`))
	req = setChiURLParam(req, "id", "acc-1")
	rec := httptest.NewRecorder()

	h.Adjust(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if stub.adjusted.AccountID != "acc-1" || !stub.adjusted.Amount.Equal(decimal.NewFromInt(-2)) {
		t.Fatalf("unexpected input %+v", stub.adjusted)
	}
}

func TestLedgerHandler_Reconcile(t *testing.T) {
	h := NewLedgerHandler(&ledgerServiceStub{}, reconcilerStub{})

	rec := httptest.NewRecorder()
	h.Reconcile(rec, httptest.NewRequest(http.MethodGet, "/ledger/reconciliation", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp dto.ReconciliationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.OK || resp.TotalAccounts != 3 {
		t.Fatalf("unexpected response %+v", resp)
	}
}
