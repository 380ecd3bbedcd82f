package authz

import (
	"context"
	"net/http"

	"github.com/adboard/adboard/internal/platform/httpx"
	"github.com/adboard/adboard/internal/shared"
)

// SessionResolver maps a request to the caller identity and its session token.
type SessionResolver interface {
	ResolveRequest(ctx context.Context, r *http.Request) (shared.Identity, string)
}

// Identify resolves the session cookie once per request and stores the
// resulting identity in the request context. Requests without a valid
// session continue as Anonymous.
func Identify(resolver SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			id, token := resolver.ResolveRequest(ctx, r)
			ctx = shared.ContextWithIdentity(ctx, id)
			if token != "" {
				ctx = shared.ContextWithSessionToken(ctx, token)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects anonymous callers with 401.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !shared.IdentityFromContext(r.Context()).IsAuthenticated() {
			httpx.RespondError(w, shared.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
