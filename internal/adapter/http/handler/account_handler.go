package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/timebank/internal/adapter/http/dto"
	"github.com/iho/timebank/internal/domain"
	"github.com/iho/timebank/internal/usecase"
)

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	OpenAccount(ctx context.Context, input usecase.OpenAccountInput) (*domain.Account, error)
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	ListAccounts(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error)
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	accountUC AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC AccountService) *AccountHandler {
	return &AccountHandler{accountUC: accountUC}
}

// Create opens a new account seeded with the initial credit.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.OpenAccountRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	account, err := h.accountUC.OpenAccount(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, "failed to open account", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Get retrieves an account by ID.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	account, err := h.accountUC.GetAccount(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to get account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// List pages through accounts in creation order.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := domain.ValidatePagination(parseIntQuery(r, "limit", 20), parseIntQuery(r, "offset", 0))

	accounts, err := h.accountUC.ListAccounts(r.Context(), usecase.ListAccountsInput{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeDomainError(w, "failed to list accounts", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListAccountsResponse{
		Accounts: dto.AccountsFromDomain(accounts),
		Count:    len(accounts),
		Limit:    limit,
		Offset:   offset,
	})
}
