package assessments

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/vantage/internal/tiles"
	"github.com/JaimeStill/vantage/internal/workflow"
)

// Domain errors for assessment operations.
var (
	ErrNotFound  = errors.New("assessment not found")
	ErrDuplicate = errors.New("assessment already exists")
)

// MapHTTPStatus maps assessment, tile, and workflow errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, workflow.ErrProjectFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, workflow.ErrLoadImages):
		return http.StatusBadGateway
	default:
		return tiles.MapHTTPStatus(err)
	}
}
