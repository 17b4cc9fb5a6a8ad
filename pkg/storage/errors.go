package storage

import (
	"errors"
	"net/http"
)

// Storage errors. ErrNotFound is returned by Download and Delete for a
// missing key; the key errors come from validation before any provider
// call.
var (
	ErrNotFound        = errors.New("blob not found")
	ErrEmptyKey        = errors.New("storage key must not be empty")
	ErrInvalidKey      = errors.New("storage key contains invalid path segment")
	ErrUnknownProvider = errors.New("unknown storage provider")
)

// MapHTTPStatus maps storage errors to HTTP status codes. Unrecognized
// errors are provider failures and map to 502.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrEmptyKey), errors.Is(err, ErrInvalidKey):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnknownProvider):
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}
