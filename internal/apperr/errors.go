// Package apperr defines the sentinel errors shared across service layers.
// Handlers map these onto HTTP status codes; anything else is a 500.
package apperr

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrAccessDenied = errors.New("access denied")
	ErrNotFound     = errors.New("not found")
	ErrTooLarge     = errors.New("too large")
	ErrRateLimited  = errors.New("rate limited")
)
