// Package tiles implements the tile domain for Vantage. A tile is a
// pre-/post-event image pair with its building footprint labels and,
// optionally, ground-truth damage labels.
package tiles

import (
	"time"

	"github.com/google/uuid"
)

// Tile is a registered image pair and its label references.
type Tile struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Disaster       string    `json:"disaster"`
	Width          int       `json:"width"`
	Height         int       `json:"height"`
	BuildingCount  int       `json:"building_count"`
	PreKey         *string   `json:"pre_key"`
	PostKey        *string   `json:"post_key"`
	LabelsKey      *string   `json:"labels_key"`
	GroundTruthKey *string   `json:"ground_truth_key"`
	IsComplete     bool      `json:"is_complete"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// HasGroundTruth reports whether ground-truth labels were registered.
func (t *Tile) HasGroundTruth() bool {
	return t.GroundTruthKey != nil
}

// CreateCommand carries the files for a new tile. Name is the filename
// stem shared by the tile's files, such as santa-rosa-wildfire_00000012.
// Missing parts leave the tile incomplete.
type CreateCommand struct {
	Name        string
	Pre         []byte
	Post        []byte
	Labels      []byte
	GroundTruth []byte
}
