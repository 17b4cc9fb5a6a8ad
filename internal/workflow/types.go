package workflow

import (
	"time"

	"github.com/JaimeStill/vantage/internal/damage"
	"github.com/JaimeStill/vantage/internal/geometry"
)

// Tile is the input to a single assessment run. Context carries the tile id,
// image storage keys, and pixel dimensions. Rejected lists footprints that
// were already excluded while decoding labels.
type Tile struct {
	Context    geometry.TileContext
	Footprints []geometry.Footprint
	Rejected   []*geometry.GeometryError
}

// Result is the classification outcome for one building. Confidence is nil
// when Class is damage.Unclassified.
type Result struct {
	UID         string       `json:"uid"`
	Class       damage.Class `json:"damage"`
	Confidence  *float64     `json:"confidence"`
	Explanation string       `json:"description"`
}

// Counts summarizes a run for reporting.
type Counts struct {
	Attempted    int `json:"attempted"`
	Succeeded    int `json:"succeeded"`
	Unclassified int `json:"unclassified"`
}

// BatchReport describes a batch whose buildings all became unclassified.
type BatchReport struct {
	Index    int    `json:"index"`
	Size     int    `json:"size"`
	Attempts int    `json:"attempts"`
	Error    string `json:"error"`
}

// Run is the immutable outcome of assessing one tile. Results holds exactly
// one entry per scheduled building, in scheduling order.
type Run struct {
	Tile           geometry.TileContext      `json:"tile"`
	Model          string                    `json:"model"`
	Results        []Result                  `json:"results"`
	Counts         Counts                    `json:"counts"`
	GeometryErrors []*geometry.GeometryError `json:"geometry_errors"`
	BatchFailures  []BatchReport             `json:"batch_failures"`
	Batches        int                       `json:"batches"`
	StartedAt      time.Time                 `json:"started_at"`
	CompletedAt    time.Time                 `json:"completed_at"`
}
