// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/adboard/adboard/internal/shared"
)

// StatusFor maps domain errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrDuplicateEmail):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes err as a {message} body with the matching status.
// Internal errors never leak their text to the client.
func RespondError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	Message(w, status, messageFor(err, status))
}

func messageFor(err error, status int) string {
	switch {
	case errors.Is(err, shared.ErrDuplicateEmail):
		return "User already exists!"
	case errors.Is(err, shared.ErrInvalidCredentials):
		return "Invalid credentials!"
	case errors.Is(err, shared.ErrUnauthorized):
		return "Authentication required!"
	case errors.Is(err, shared.ErrForbidden):
		return "You do not own this ad!"
	case errors.Is(err, shared.ErrNotFound):
		return "Not found!"
	case errors.Is(err, shared.ErrValidation):
		return err.Error()
	}
	return http.StatusText(status)
}
