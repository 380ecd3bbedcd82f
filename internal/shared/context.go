package shared

import "context"

type identityContextKey struct{}

// Identity is the caller resolved from the session cookie.
type Identity struct {
	UserID        int64
	authenticated bool
}

// Anonymous is the identity of a request without a valid session.
var Anonymous = Identity{}

// Authenticated builds an identity for the given user.
func Authenticated(userID int64) Identity {
	return Identity{UserID: userID, authenticated: true}
}

// IsAuthenticated reports whether the identity belongs to a logged-in user.
func (i Identity) IsAuthenticated() bool {
	return i.authenticated
}

// ContextWithIdentity stores the identity in context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the identity from context, Anonymous if none.
func IdentityFromContext(ctx context.Context) Identity {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	if !ok {
		return Anonymous
	}
	return id
}

type sessionTokenContextKey struct{}

// ContextWithSessionToken stores the verified raw session token in context.
func ContextWithSessionToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, sessionTokenContextKey{}, token)
}

// SessionTokenFromContext returns the session token resolved for the request.
func SessionTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(sessionTokenContextKey{}).(string)
	return token
}
