// Package authz decides who may act on a resource and resolves the caller
// identity for each request.
package authz

import "github.com/adboard/adboard/internal/shared"

// Authorize permits a mutation only when caller is authenticated and owns
// the resource.
func Authorize(caller shared.Identity, ownerID int64) error {
	if !caller.IsAuthenticated() {
		return shared.ErrUnauthorized
	}
	if caller.UserID != ownerID {
		return shared.ErrForbidden
	}
	return nil
}
