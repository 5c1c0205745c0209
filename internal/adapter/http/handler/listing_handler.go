package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/timebank/internal/adapter/http/dto"
	"github.com/iho/timebank/internal/domain"
	"github.com/iho/timebank/internal/usecase"
)

// ListingService defines the behavior needed by ListingHandler.
type ListingService interface {
	RegisterListing(ctx context.Context, input usecase.RegisterListingInput) (*domain.Listing, error)
	GetListing(ctx context.Context, id string) (*domain.Listing, error)
}

// ListingHandler handles listing-related HTTP requests.
type ListingHandler struct {
	listings ListingService
}

// NewListingHandler creates a new ListingHandler.
func NewListingHandler(listings ListingService) *ListingHandler {
	return &ListingHandler{listings: listings}
}

// Create registers a listing owned by the acting account.
func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req dto.RegisterListingRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	listing, err := h.listings.RegisterListing(r.Context(), req.ToUseCaseInput(actor))
	if err != nil {
		writeDomainError(w, "failed to register listing", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ListingFromDomain(listing))
}

// Get retrieves a listing by ID.
func (h *ListingHandler) Get(w http.ResponseWriter, r *http.Request) {
	listing, err := h.listings.GetListing(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get listing", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListingFromDomain(listing))
}
