package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/iho/timebank/internal/adapter/http/dto"
	"github.com/iho/timebank/internal/adapter/http/middleware"
	"github.com/iho/timebank/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// writeDomainError maps err to a status and writes it. A reciprocity refusal
// carries the guard's decision.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	resp := dto.ErrorResponse{
		Error:   message,
		Message: err.Error(),
		Kind:    errorKind(err),
	}

	var recErr *domain.ReciprocityError
	if errors.As(err, &recErr) {
		resp.Reciprocity = dto.SpendDecisionFromDomain(recErr.Decision)
	}

	writeJSON(w, mapDomainError(err), resp)
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrCapacityExceeded):
		return http.StatusConflict
	case errors.Is(err, domain.ErrReciprocityLimitExceeded):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, dto.ErrInvalidRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, domain.ErrForbidden):
		return "FORBIDDEN"
	case errors.Is(err, domain.ErrInvalidTransition):
		return "INVALID_TRANSITION"
	case errors.Is(err, domain.ErrCapacityExceeded):
		return "CAPACITY_EXCEEDED"
	case errors.Is(err, domain.ErrReciprocityLimitExceeded):
		return "RECIPROCITY_LIMIT_EXCEEDED"
	case errors.Is(err, domain.ErrIntegrityFault):
		return "INTEGRITY_FAULT"
	case errors.Is(err, domain.ErrValidation), errors.Is(err, dto.ErrInvalidRequest):
		return "VALIDATION"
	default:
		return ""
	}
}

// decodeRequest reads and validates a JSON body into req.
func decodeRequest(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return false
	}
	if err := dto.Validate(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return false
	}
	return true
}

// requireActor returns the X-Account-ID the request acts as.
func requireActor(w http.ResponseWriter, r *http.Request) (string, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusBadRequest, "missing acting account", "set the "+middleware.ActorHeader+" header")
		return "", false
	}
	return actor, true
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}
