package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/timebank/internal/usecase"
)

const (
	// IdempotencyKeyHeader is the header name for idempotency keys.
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyReplayHeader marks a response served from the store.
	IdempotencyReplayHeader = "X-Idempotency-Replay"
	defaultIdempotencyTTL   = 24 * time.Hour
	processingMarker        = "processing"
)

// IdempotencyMiddleware replays the first successful response for a repeated
// Idempotency-Key.
type IdempotencyMiddleware struct {
	store  usecase.IdempotencyStore
	ttl    time.Duration
	logger zerolog.Logger
}

// NewIdempotencyMiddleware creates a new IdempotencyMiddleware. A zero ttl
// uses 24h.
func NewIdempotencyMiddleware(store usecase.IdempotencyStore, ttl time.Duration, logger zerolog.Logger) *IdempotencyMiddleware {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &IdempotencyMiddleware{store: store, ttl: ttl, logger: logger}
}

// Wrap wraps an http.Handler with idempotency checking.
func (m *IdempotencyMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only apply to mutating requests
		if r.Method != http.MethodPost && r.Method != http.MethodPut {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Header.Get(IdempotencyKeyHeader)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}
		// Keys are scoped to the acting account.
		if actor, ok := ActorFromContext(r.Context()); ok {
			key = actor + ":" + key
		}

		exists, cachedResponse, err := m.store.CheckAndSet(r.Context(), key, nil, m.ttl)
		if err != nil {
			m.logger.Error().Err(err).Msg("idempotency check failed")
			http.Error(w, "idempotency check failed", http.StatusInternalServerError)
			return
		}

		if exists {
			if string(cachedResponse) == processingMarker {
				http.Error(w, "request with this idempotency key is in progress", http.StatusConflict)
				return
			}

			stored := decodeStoredResponse(cachedResponse)
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set(IdempotencyReplayHeader, "true")
			w.WriteHeader(stored.Status)
			w.Write(stored.Body)
			return
		}

		ctx := r.Context()
		succeeded := false
		// A refused or panicking request may be retried with the same key.
		defer func() {
			if succeeded {
				return
			}
			if err := m.store.Release(ctx, key); err != nil {
				m.logger.Warn().Err(err).Msg("failed to release idempotency key")
			}
		}()

		recorder := &responseRecorder{
			ResponseWriter: w,
			body:           &bytes.Buffer{},
			statusCode:     http.StatusOK,
		}
		next.ServeHTTP(recorder, r)

		if recorder.statusCode < 200 || recorder.statusCode >= 300 {
			return
		}
		succeeded = true

		payload, err := json.Marshal(storedResponse{Status: recorder.statusCode, Body: recorder.body.Bytes()})
		if err != nil {
			m.logger.Warn().Err(err).Msg("failed to encode idempotent response")
			return
		}
		if err := m.store.Update(ctx, key, payload, m.ttl); err != nil {
			m.logger.Warn().Err(err).Msg("failed to store idempotent response")
		}
	})
}

// storedResponse is what the store keeps for a completed request.
type storedResponse struct {
	Status int    `json:"status"`
	Body   []byte `json:"body"`
}

// decodeStoredResponse falls back to a bare 200 body for values that predate
// the status envelope.
func decodeStoredResponse(raw []byte) storedResponse {
	var stored storedResponse
	if err := json.Unmarshal(raw, &stored); err != nil || stored.Status == 0 {
		return storedResponse{Status: http.StatusOK, Body: raw}
	}
	return stored
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}
