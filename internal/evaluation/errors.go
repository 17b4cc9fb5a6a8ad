package evaluation

import (
	"errors"
	"net/http"
)

var (
	ErrMissingColumn = errors.New("missing required column")
	ErrEmptyTable    = errors.New("table has no header row")
	ErrMalformedRow  = errors.New("malformed table row")
)

// MapHTTPStatus maps evaluation errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrMissingColumn),
		errors.Is(err, ErrEmptyTable),
		errors.Is(err, ErrMalformedRow):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
