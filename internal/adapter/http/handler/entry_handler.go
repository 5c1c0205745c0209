package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/timebank/internal/adapter/http/dto"
	"github.com/iho/timebank/internal/usecase"
)

// HistoryService defines the behavior needed by EntryHandler.
type HistoryService interface {
	History(ctx context.Context, accountID string, limit, offset int) (*usecase.HistoryPage, error)
}

// EntryHandler serves an account's ledger history.
type EntryHandler struct {
	ledger HistoryService
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(ledger HistoryService) *EntryHandler {
	return &EntryHandler{ledger: ledger}
}

// ListByAccount lists entries for an account, newest first.
func (h *EntryHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	page, err := h.ledger.History(r.Context(), accountID, limit, offset)
	if err != nil {
		writeDomainError(w, "failed to list entries", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.HistoryFromUseCase(page))
}
