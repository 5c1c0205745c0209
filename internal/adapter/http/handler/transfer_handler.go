package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/timebank/internal/adapter/http/dto"
	"github.com/iho/timebank/internal/domain"
	"github.com/iho/timebank/internal/usecase"
)

// TransferService lists an account's transfers.
type TransferService interface {
	ListTransfers(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transfer, error)
}

// SettlementReader returns what a participation settled.
type SettlementReader interface {
	GetSettlement(ctx context.Context, participationID string) (*usecase.SettlementDetail, error)
}

// TransferHandler handles transfer-related HTTP requests.
type TransferHandler struct {
	transfers   TransferService
	settlements SettlementReader
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transfers TransferService, settlements SettlementReader) *TransferHandler {
	return &TransferHandler{transfers: transfers, settlements: settlements}
}

// ListByAccount lists transfers for an account.
func (h *TransferHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	transfers, err := h.transfers.ListTransfers(r.Context(), accountID, limit, offset)
	if err != nil {
		writeDomainError(w, "failed to list transfers", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransfersFromDomain(transfers))
}

// GetSettlement returns the transfer and entries a participation produced.
func (h *TransferHandler) GetSettlement(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing participation ID", "")
		return
	}

	detail, err := h.settlements.GetSettlement(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to get settlement", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SettlementDetailFromUseCase(detail))
}
