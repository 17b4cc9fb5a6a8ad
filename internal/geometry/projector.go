package geometry

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// DefaultMargin is the fractional margin added on each side of the
// union of footprint extents when deriving tile bounds.
const DefaultMargin = 0.10

// TileContext describes the image pair a set of footprints is projected onto.
// PreImage and PostImage are storage keys.
type TileContext struct {
	TileID    string    `json:"tile_id"`
	Bounds    orb.Bound `json:"bounds"`
	PreImage  string    `json:"pre_image"`
	PostImage string    `json:"post_image"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
}

// PixelBox is an axis-aligned bounding box in pixel space with (0,0)
// at the top-left corner. Coordinates are inclusive.
type PixelBox struct {
	XMin int `json:"x_min"`
	YMin int `json:"y_min"`
	XMax int `json:"x_max"`
	YMax int `json:"y_max"`
}

func (b PixelBox) String() string {
	return fmt.Sprintf("[%d,%d to %d,%d]", b.XMin, b.YMin, b.XMax, b.YMax)
}

// Located pairs a footprint uid with its projected pixel box.
type Located struct {
	UID string   `json:"uid"`
	Box PixelBox `json:"box"`
}

// Projection is the outcome of projecting a tile's footprints.
// Located preserves input order. Errors lists excluded footprints.
type Projection struct {
	Tile    TileContext      `json:"tile"`
	Located []Located        `json:"located"`
	Errors  []*GeometryError `json:"errors"`
}

// Projector maps footprints onto a tile using a linear transform from
// geographic bounds to pixel dimensions.
type Projector struct {
	Margin       float64
	MinBoxPixels int
}

// NewProjector creates a Projector. A negative margin falls back to DefaultMargin.
func NewProjector(margin float64, minBoxPixels int) *Projector {
	if margin < 0 {
		margin = DefaultMargin
	}
	return &Projector{
		Margin:       margin,
		MinBoxPixels: max(minBoxPixels, 0),
	}
}

// Project derives tile bounds from the footprints and maps each footprint
// to a PixelBox. Footprints that cannot be projected are reported in
// Projection.Errors, as is every repeat of a uid after its first
// occurrence, so each uid is located at most once. Only invalid image
// dimensions fail the whole tile.
func (p *Projector) Project(tile TileContext, footprints []Footprint) (*Projection, error) {
	if tile.Width <= 0 || tile.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, tile.Width, tile.Height)
	}

	result := &Projection{
		Located: make([]Located, 0, len(footprints)),
		Errors:  make([]*GeometryError, 0),
	}

	candidates := make([]Footprint, 0, len(footprints))
	seen := make(map[string]bool, len(footprints))
	for _, f := range footprints {
		if seen[f.UID] {
			result.Errors = append(result.Errors, &GeometryError{UID: f.UID, Err: ErrDuplicateUID})
			continue
		}
		seen[f.UID] = true

		switch {
		case len(f.Ring) == 0:
			result.Errors = append(result.Errors, &GeometryError{UID: f.UID, Err: ErrEmpty})
		case degenerate(f.Ring):
			result.Errors = append(result.Errors, &GeometryError{UID: f.UID, Err: ErrDegenerate})
		default:
			candidates = append(candidates, f)
		}
	}

	rings := make([]orb.Ring, len(candidates))
	for i, f := range candidates {
		rings[i] = f.Ring
	}

	if len(rings) > 0 {
		bounds, err := Bounds(rings, p.Margin)
		if err != nil {
			return nil, err
		}
		tile.Bounds = bounds
	}

	for _, f := range candidates {
		box, err := p.box(tile, f.Ring)
		if err != nil {
			result.Errors = append(result.Errors, &GeometryError{UID: f.UID, Err: err})
			continue
		}
		result.Located = append(result.Located, Located{UID: f.UID, Box: box})
	}

	result.Tile = tile
	return result, nil
}

func (p *Projector) box(tile TileContext, ring orb.Ring) (PixelBox, error) {
	w := float64(tile.Width)
	h := float64(tile.Height)
	lngRange := tile.Bounds.Max[0] - tile.Bounds.Min[0]
	latRange := tile.Bounds.Max[1] - tile.Bounds.Min[1]

	xMin, yMin := math.Inf(1), math.Inf(1)
	xMax, yMax := math.Inf(-1), math.Inf(-1)

	for _, pt := range ring {
		px := (pt[0] - tile.Bounds.Min[0]) / lngRange * w
		py := (tile.Bounds.Max[1] - pt[1]) / latRange * h

		xMin = math.Min(xMin, px)
		xMax = math.Max(xMax, px)
		yMin = math.Min(yMin, py)
		yMax = math.Max(yMax, py)
	}

	box := PixelBox{
		XMin: clamp(xMin, tile.Width),
		YMin: clamp(yMin, tile.Height),
		XMax: clamp(xMax, tile.Width),
		YMax: clamp(yMax, tile.Height),
	}

	if box.XMax-box.XMin < p.MinBoxPixels || box.YMax-box.YMin < p.MinBoxPixels {
		return PixelBox{}, fmt.Errorf(
			"%w: %dx%d px",
			ErrTooSmall, box.XMax-box.XMin, box.YMax-box.YMin,
		)
	}

	return box, nil
}

// clamp truncates v to an integer pixel index within [0, limit).
func clamp(v float64, limit int) int {
	return min(max(int(math.Floor(v)), 0), limit-1)
}
