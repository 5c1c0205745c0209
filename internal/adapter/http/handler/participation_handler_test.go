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

type participationServiceStub struct {
	proposeFn func(ctx context.Context, input usecase.ProposeInput) (*domain.Participation, error)
	acceptFn  func(ctx context.Context, input usecase.AcceptInput) (*domain.Participation, error)
	declineFn func(ctx context.Context, input usecase.DeclineInput) (*domain.Participation, error)
}

func (s *participationServiceStub) Propose(ctx context.Context, input usecase.ProposeInput) (*domain.Participation, error) {
	return s.proposeFn(ctx, input)
}

func (s *participationServiceStub) Accept(ctx context.Context, input usecase.AcceptInput) (*domain.Participation, error) {
	return s.acceptFn(ctx, input)
}

func (s *participationServiceStub) DeclineOrWithdraw(ctx context.Context, input usecase.DeclineInput) (*domain.Participation, error) {
	return s.declineFn(ctx, input)
}

func (s *participationServiceStub) GetParticipation(ctx context.Context, id string) (*domain.Participation, error) {
	return &domain.Participation{ID: id}, nil
}

func (s *participationServiceStub) ListByListing(ctx context.Context, listingID string, limit, offset int) ([]*domain.Participation, error) {
	return nil, nil
}

type settlementServiceStub struct {
	confirmFn func(ctx context.Context, input usecase.ConfirmInput) (*usecase.SettlementOutcome, error)
}

func (s *settlementServiceStub) ConfirmCompletion(ctx context.Context, input usecase.ConfirmInput) (*usecase.SettlementOutcome, error) {
	return s.confirmFn(ctx, input)
}

func TestParticipationHandler_Propose(t *testing.T) {
	var captured usecase.ProposeInput
	h := NewParticipationHandler(&participationServiceStub{
		proposeFn: func(ctx context.Context, input usecase.ProposeInput) (*domain.Participation, error) {
			captured = input
			return &domain.Participation{ID: "part-1", Status: domain.ParticipationPending}, nil
		},
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/listings/lst-1/participations", bytes.NewBufferString(`{"message":"happy to help"}`))
	req = withActor(setChiURLParam(req, "id", "lst-1"), "helper-1")
	rec := httptest.NewRecorder()

	h.Propose(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.ListingID != "lst-1" || captured.HelperID != "helper-1" || captured.Message != "happy to help" {
		t.Fatalf("unexpected input %+v", captured)
	}
}

func TestParticipationHandler_RequiresActor(t *testing.T) {
	h := NewParticipationHandler(&participationServiceStub{}, &settlementServiceStub{})

	handlers := map[string]http.HandlerFunc{
		"propose": h.Propose,
		"accept":  h.Accept,
		"decline": h.Decline,
		"confirm": h.Confirm,
	}

	for name, fn := range handlers {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/participations/p/"+name, bytes.NewBufferString(`{}`))
			rec := httptest.NewRecorder()

			fn(rec, setChiURLParam(req, "id", "p"))

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400 without actor, got %d", rec.Code)
			}
		})
	}
}

func TestParticipationHandler_Accept(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
	}{
		{"accepted", `{"hours":"2.5"}`, nil, http.StatusOK},
		{"missing hours", `{}`, nil, http.StatusBadRequest},
		{"negative hours", `{"hours":-1}`, nil, http.StatusBadRequest},
		{"listing full", `{"hours":1}`, domain.ErrCapacityReached, http.StatusConflict},
		{"not creator", `{"hours":1}`, domain.ErrNotListingCreator, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewParticipationHandler(&participationServiceStub{
				acceptFn: func(ctx context.Context, input usecase.AcceptInput) (*domain.Participation, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					if !input.Hours.Equal(decimal.RequireFromString("2.5")) || input.ActingAccountID != "creator" {
						t.Fatalf("unexpected input %+v", input)
					}
					return &domain.Participation{ID: input.ParticipationID, Status: domain.ParticipationAccepted, Hours: input.Hours}, nil
				},
			}, nil)

			req := httptest.NewRequest(http.MethodPost, "/participations/p1/accept", bytes.NewBufferString(tt.body))
			req = withActor(setChiURLParam(req, "id", "p1"), "creator")
			rec := httptest.NewRecorder()

			h.Accept(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestParticipationHandler_DeclineTerminal(t *testing.T) {
	h := NewParticipationHandler(&participationServiceStub{
		declineFn: func(ctx context.Context, input usecase.DeclineInput) (*domain.Participation, error) {
			return nil, &domain.TransitionError{From: domain.ParticipationCompleted, To: domain.ParticipationDeclined}
		},
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/participations/p1/decline", nil)
	req = withActor(setChiURLParam(req, "id", "p1"), "creator")
	rec := httptest.NewRecorder()

	h.Decline(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestParticipationHandler_Confirm(t *testing.T) {
	h := NewParticipationHandler(nil, &settlementServiceStub{
		confirmFn: func(ctx context.Context, input usecase.ConfirmInput) (*usecase.SettlementOutcome, error) {
			return &usecase.SettlementOutcome{
				Participation: &domain.Participation{ID: input.ParticipationID, Status: domain.ParticipationCompleted},
				Status:        usecase.SettlementSettled,
				Settlement: &usecase.SettlementResult{
					TransferID:       "trf-1",
					Hours:            decimal.NewFromInt(3),
					ProviderBalance:  decimal.NewFromInt(8),
					RequesterBalance: decimal.NewFromInt(2),
				},
			}, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/participations/p1/confirm", nil)
	req = withActor(setChiURLParam(req, "id", "p1"), "requester")
	rec := httptest.NewRecorder()

	h.Confirm(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp dto.ConfirmResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "SETTLED" || resp.Settlement == nil || resp.Settlement.ProviderBalance != "8.00" {
		t.Fatalf("unexpected response %+v", resp)
	}
}
