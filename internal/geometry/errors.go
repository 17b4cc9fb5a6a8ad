package geometry

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Sentinel errors describing why a footprint could not be projected.
var (
	ErrMalformed         = errors.New("malformed polygon")
	ErrEmpty             = errors.New("empty polygon")
	ErrDegenerate        = errors.New("degenerate polygon")
	ErrTooSmall          = errors.New("bounding box below minimum size")
	ErrDuplicateUID      = errors.New("duplicate uid")
	ErrNoFootprints      = errors.New("no footprints")
	ErrInvalidDimensions = errors.New("invalid image dimensions")
)

// GeometryError reports a single footprint that was excluded from a tile.
// It never aborts the tile.
type GeometryError struct {
	UID string `json:"uid"`
	Err error  `json:"-"`
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("footprint %s: %v", e.UID, e.Err)
}

func (e *GeometryError) Unwrap() error {
	return e.Err
}

// MarshalJSON renders the reason as text so per-tile reports stay readable.
func (e *GeometryError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		UID    string `json:"uid"`
		Reason string `json:"reason"`
	}{e.UID, e.Err.Error()})
}
