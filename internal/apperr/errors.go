// Package apperr holds the domain errors shared by services and repositories.
// Handlers translate them to HTTP status codes with StatusCode.
package apperr

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrForbidden     = errors.New("forbidden")
	ErrConflict      = errors.New("already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrMissingUserID = errors.New("user id is required")
)

// StatusCode maps a domain error to an HTTP status, 500 when unknown
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrMissingUserID):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
