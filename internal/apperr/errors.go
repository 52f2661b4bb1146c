// Package apperr holds the error taxonomy shared by stores, services and
// handlers. Callers wrap these with fmt.Errorf("...: %w", err) and test
// with errors.Is; the api package maps them to HTTP status codes.
package apperr

import "errors"

var (
	// ErrUnauthorized: missing, malformed or expired access token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden: authenticated, but not entitled to this resource.
	ErrForbidden = errors.New("forbidden")

	ErrDuplicateUsername  = errors.New("username already registered")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")

	// ErrPublishUnavailable marks a realtime notification that did not reach
	// the broker. The data mutation that triggered it has already committed.
	ErrPublishUnavailable = errors.New("publish unavailable")

	// ErrStoreUnavailable marks a persistence failure. Fatal for the request.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// IsBusiness reports whether err belongs to the user-facing part of the
// taxonomy, i.e. it is safe to show its message to the caller.
func IsBusiness(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrDuplicateUsername) ||
		errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidInput)
}
