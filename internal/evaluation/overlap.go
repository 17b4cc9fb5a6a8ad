package evaluation

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/clip"
	"github.com/paulmach/orb/planar"

	"github.com/JaimeStill/vantage/internal/damage"
)

// Region is a ground-truth polygon carrying a damage class.
type Region struct {
	Class    damage.Class
	Geometry orb.Polygon
}

// ResolveOverlap selects the class of the region with the largest area
// inside target. Exact ties go to the lower class ordinal. It returns
// false when no region overlaps target with positive area.
func ResolveOverlap(target orb.Bound, regions []Region) (damage.Class, bool) {
	best := damage.Unclassified
	bestArea := 0.0

	for _, r := range regions {
		if !r.Class.Labeled() || len(r.Geometry) == 0 {
			continue
		}

		area := overlapArea(target, r.Geometry)
		if area <= 0 {
			continue
		}

		if area > bestArea || (area == bestArea && r.Class < best) {
			best = r.Class
			bestArea = area
		}
	}

	return best, bestArea > 0
}

func overlapArea(target orb.Bound, p orb.Polygon) float64 {
	clipped := clip.Polygon(target, p.Clone())
	if len(clipped) == 0 {
		return 0
	}
	return math.Abs(planar.Area(clipped))
}
