package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDuplicateEmail occurs when registering an email that already exists.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrUnauthorized indicates the request carries no valid session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates an authenticated caller that does not own the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrValidation indicates a missing or empty required field.
	ErrValidation = errors.New("validation failed")
)
