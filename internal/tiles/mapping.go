package tiles

import (
	"net/url"
	"strconv"

	"github.com/JaimeStill/vantage/pkg/query"
	"github.com/JaimeStill/vantage/pkg/repository"
)

const columns = `id, name, disaster, width, height, building_count,
	pre_key, post_key, labels_key, ground_truth_key, is_complete, created_at, updated_at`

var projection = query.
	NewProjectionMap("public", "tiles", "t").
	Project("id", "ID").
	Project("name", "Name").
	Project("disaster", "Disaster").
	Project("width", "Width").
	Project("height", "Height").
	Project("building_count", "BuildingCount").
	Project("pre_key", "PreKey").
	Project("post_key", "PostKey").
	Project("labels_key", "LabelsKey").
	Project("ground_truth_key", "GroundTruthKey").
	Project("is_complete", "IsComplete").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for tile queries.
// Nil fields are ignored. Name uses case-insensitive contains matching.
type Filters struct {
	Name         *string `json:"name,omitempty"`
	Disaster     *string `json:"disaster,omitempty"`
	IsComplete   *bool   `json:"is_complete,omitempty"`
	MinBuildings *int    `json:"min_buildings,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereContains("Name", f.Name).
		WhereEquals("Disaster", f.Disaster).
		WhereEquals("IsComplete", f.IsComplete).
		WhereAtLeast("BuildingCount", f.MinBuildings)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if n := values.Get("name"); n != "" {
		f.Name = &n
	}

	if d := values.Get("disaster"); d != "" {
		f.Disaster = &d
	}

	if c := values.Get("is_complete"); c != "" {
		if v, err := strconv.ParseBool(c); err == nil {
			f.IsComplete = &v
		}
	}

	if mb := values.Get("min_buildings"); mb != "" {
		if v, err := strconv.Atoi(mb); err == nil {
			f.MinBuildings = &v
		}
	}

	return f
}

func scanTile(s repository.Scanner) (Tile, error) {
	var t Tile
	err := s.Scan(
		&t.ID,
		&t.Name,
		&t.Disaster,
		&t.Width,
		&t.Height,
		&t.BuildingCount,
		&t.PreKey,
		&t.PostKey,
		&t.LabelsKey,
		&t.GroundTruthKey,
		&t.IsComplete,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	return t, err
}
