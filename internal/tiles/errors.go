package tiles

import (
	"errors"
	"net/http"
)

// Domain errors for tile operations.
var (
	ErrNotFound      = errors.New("tile not found")
	ErrDuplicate     = errors.New("tile already exists")
	ErrFileTooLarge  = errors.New("file exceeds maximum upload size")
	ErrInvalidFile   = errors.New("invalid file")
	ErrInvalidImage  = errors.New("invalid tile image")
	ErrIncomplete    = errors.New("tile is missing required files")
	ErrNoGroundTruth = errors.New("tile has no ground-truth labels")
)

// MapHTTPStatus maps tile domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNoGroundTruth):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrInvalidFile), errors.Is(err, ErrInvalidImage):
		return http.StatusBadRequest
	case errors.Is(err, ErrIncomplete):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
