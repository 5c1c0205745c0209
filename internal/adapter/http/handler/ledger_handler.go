package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/timebank/internal/adapter/http/dto"
	"github.com/iho/timebank/internal/domain"
	"github.com/iho/timebank/internal/usecase"
)

// LedgerService defines the ledger operations exposed over HTTP.
type LedgerService interface {
	VerifyIntegrity(ctx context.Context, accountID string) (*usecase.IntegrityReport, error)
	CheckSpend(ctx context.Context, accountID string, hours decimal.Decimal) (domain.SpendDecision, error)
	Adjust(ctx context.Context, input usecase.AdjustInput) (*domain.LedgerEntry, error)
}

// Reconciler checks the whole ledger.
type Reconciler interface {
	Reconcile(ctx context.Context) (*usecase.ReconciliationReport, error)
}

// LedgerHandler handles ledger-wide operations.
type LedgerHandler struct {
	ledger     LedgerService
	reconciler Reconciler
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledger LedgerService, reconciler Reconciler) *LedgerHandler {
	return &LedgerHandler{ledger: ledger, reconciler: reconciler}
}

// VerifyIntegrity compares an account's cached balance with its ledger. A
// mismatch is answered with 500 and the full report.
func (h *LedgerHandler) VerifyIntegrity(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")

	report, err := h.ledger.VerifyIntegrity(r.Context(), accountID)
	if err != nil {
		writeDomainError(w, "failed to verify integrity", err)
		return
	}

	status := http.StatusOK
	if !report.OK {
		status = mapDomainError(report.Err())
	}

	writeJSON(w, status, dto.IntegrityFromUseCase(report))
}

// CheckSpend previews the reciprocity decision for ?hours=.
func (h *LedgerHandler) CheckSpend(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")

	hours, err := decimal.NewFromString(r.URL.Query().Get("hours"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid hours", err.Error())
		return
	}

	decision, err := h.ledger.CheckSpend(r.Context(), accountID, hours)
	if err != nil {
		writeDomainError(w, "failed to check spend", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SpendDecisionFromDomain(decision))
}

// Adjust posts a manual ADJUSTMENT or PENALTY entry.
func (h *LedgerHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")

	var req dto.AdjustmentRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput(accountID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount", err.Error())
		return
	}

	entry, err := h.ledger.Adjust(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to post adjustment", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.EntryFromDomain(entry))
}

// Reconcile verifies every account and the exchange totals.
func (h *LedgerHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconciler.Reconcile(r.Context())
	if err != nil {
		writeDomainError(w, "failed to reconcile ledger", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationFromUseCase(report))
}
