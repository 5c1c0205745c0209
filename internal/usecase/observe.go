package usecase

import (
	"errors"

	"github.com/iho/timebank/internal/domain"
	"github.com/iho/timebank/internal/infrastructure/metrics"
)

// errorKind maps an error onto its taxonomy label for metrics and logs.
func errorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, domain.ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, domain.ErrReciprocityLimitExceeded):
		return "reciprocity_limit_exceeded"
	case errors.Is(err, domain.ErrIntegrityFault):
		return "integrity_fault"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	default:
		return "internal"
	}
}

func recordExchangeError(m *metrics.Metrics, operation string, err error) {
	if m == nil || err == nil {
		return
	}
	m.ExchangeErrors.WithLabelValues(operation, errorKind(err)).Inc()
}
