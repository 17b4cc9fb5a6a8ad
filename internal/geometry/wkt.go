// Package geometry converts building footprints from geographic coordinates
// into pixel bounding boxes within a tile image.
package geometry

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// Footprint is a building polygon identified by a uid that is stable
// across every stage of an assessment.
type Footprint struct {
	UID  string   `json:"uid"`
	Ring orb.Ring `json:"ring"`
}

// ParseRing parses a POLYGON WKT string and returns its outer ring
// as [lng, lat] coordinate pairs.
func ParseRing(s string) (orb.Ring, error) {
	if strings.TrimSpace(s) == "" {
		return nil, ErrEmpty
	}

	poly, err := wkt.UnmarshalPolygon(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if len(poly) == 0 || len(poly[0]) == 0 {
		return nil, ErrEmpty
	}

	return poly[0], nil
}

// Bounds returns the union of the ring extents, expanded on each side
// by margin times the extent along that axis.
func Bounds(rings []orb.Ring, margin float64) (orb.Bound, error) {
	if len(rings) == 0 {
		return orb.Bound{}, ErrNoFootprints
	}

	b := rings[0].Bound()
	for _, r := range rings[1:] {
		b = b.Union(r.Bound())
	}

	dx := (b.Max[0] - b.Min[0]) * margin
	dy := (b.Max[1] - b.Min[1]) * margin

	b.Min[0] -= dx
	b.Max[0] += dx
	b.Min[1] -= dy
	b.Max[1] += dy

	if b.Max[0] <= b.Min[0] || b.Max[1] <= b.Min[1] {
		return b, fmt.Errorf("%w: tile bounds have zero extent", ErrDegenerate)
	}

	return b, nil
}

func degenerate(r orb.Ring) bool {
	b := r.Bound()
	return b.Max[0] <= b.Min[0] || b.Max[1] <= b.Min[1]
}
