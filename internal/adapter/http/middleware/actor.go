package middleware

import (
	"context"
	"net/http"
	"strings"
)

// ActorHeader names the account a request acts as. Callers are trusted to set
// it; there is no authentication.
const ActorHeader = "X-Account-ID"

type actorKey struct{}

// Actor copies the X-Account-ID header into the request context.
func Actor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := strings.TrimSpace(r.Header.Get(ActorHeader)); id != "" {
			r = r.WithContext(WithActor(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

// WithActor returns a context carrying the acting account ID.
func WithActor(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, actorKey{}, accountID)
}

// ActorFromContext returns the acting account ID, if any.
func ActorFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(actorKey{}).(string)
	return id, ok && id != ""
}
