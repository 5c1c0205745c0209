package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/timebank/internal/adapter/http/dto"
	"github.com/iho/timebank/internal/domain"
	"github.com/iho/timebank/internal/usecase"
)

// ParticipationService defines the exchange lifecycle operations.
type ParticipationService interface {
	Propose(ctx context.Context, input usecase.ProposeInput) (*domain.Participation, error)
	Accept(ctx context.Context, input usecase.AcceptInput) (*domain.Participation, error)
	DeclineOrWithdraw(ctx context.Context, input usecase.DeclineInput) (*domain.Participation, error)
	GetParticipation(ctx context.Context, id string) (*domain.Participation, error)
	ListByListing(ctx context.Context, listingID string, limit, offset int) ([]*domain.Participation, error)
}

// SettlementService records completion votes.
type SettlementService interface {
	ConfirmCompletion(ctx context.Context, input usecase.ConfirmInput) (*usecase.SettlementOutcome, error)
}

// ParticipationHandler handles participation-related HTTP requests.
type ParticipationHandler struct {
	participations ParticipationService
	settlement     SettlementService
}

// NewParticipationHandler creates a new ParticipationHandler.
func NewParticipationHandler(participations ParticipationService, settlement SettlementService) *ParticipationHandler {
	return &ParticipationHandler{participations: participations, settlement: settlement}
}

// Propose offers the acting account as helper on a listing.
func (h *ParticipationHandler) Propose(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req dto.ProposeRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	p, err := h.participations.Propose(r.Context(), req.ToUseCaseInput(chi.URLParam(r, "id"), actor))
	if err != nil {
		writeDomainError(w, "failed to propose", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ParticipationFromDomain(p))
}

// ListByListing lists a listing's participations.
func (h *ParticipationHandler) ListByListing(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	ps, err := h.participations.ListByListing(r.Context(), chi.URLParam(r, "id"), limit, offset)
	if err != nil {
		writeDomainError(w, "failed to list participations", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ParticipationsFromDomain(ps))
}

// Get retrieves a participation by ID.
func (h *ParticipationHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.participations.GetParticipation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get participation", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ParticipationFromDomain(p))
}

// Accept lets the listing creator accept a proposal for the agreed hours.
func (h *ParticipationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req dto.AcceptRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput(chi.URLParam(r, "id"), actor)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid hours", err.Error())
		return
	}

	p, err := h.participations.Accept(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to accept", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ParticipationFromDomain(p))
}

// Decline closes a live participation. The helper withdraws, the creator
// declines.
func (h *ParticipationHandler) Decline(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	p, err := h.participations.DeclineOrWithdraw(r.Context(), usecase.DeclineInput{
		ParticipationID: chi.URLParam(r, "id"),
		ActingAccountID: actor,
	})
	if err != nil {
		writeDomainError(w, "failed to decline", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ParticipationFromDomain(p))
}

// Confirm records the acting party's completion vote and settles on the
// second one.
func (h *ParticipationHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	outcome, err := h.settlement.ConfirmCompletion(r.Context(), usecase.ConfirmInput{
		ParticipationID: chi.URLParam(r, "id"),
		ActingAccountID: actor,
	})
	if err != nil {
		writeDomainError(w, "failed to confirm", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ConfirmFromUseCase(outcome))
}
