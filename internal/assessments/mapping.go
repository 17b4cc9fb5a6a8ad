package assessments

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/JaimeStill/vantage/pkg/query"
	"github.com/JaimeStill/vantage/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "assessments", "a").
	Project("id", "ID").
	Project("tile_id", "TileID").
	Project("model_name", "ModelName").
	Project("attempted", "Attempted").
	Project("succeeded", "Succeeded").
	Project("unclassified", "Unclassified").
	Project("batches", "Batches").
	Project("geometry_errors", "GeometryErrors").
	Project("batch_failures", "BatchFailures").
	Project("started_at", "StartedAt").
	Project("completed_at", "CompletedAt").
	ProjectExpr("a.succeeded::float8 / NULLIF(a.attempted, 0)", "SuccessRate").
	Join("public", "tiles", "t", "JOIN", "t.id = a.tile_id").
	Project("name", "TileName")

var defaultSort = query.SortField{
	Field:      "CompletedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for assessment queries.
// Nil fields are ignored. TileName uses case-insensitive contains matching.
type Filters struct {
	TileID          *uuid.UUID `json:"tile_id,omitempty"`
	TileName        *string    `json:"tile_name,omitempty"`
	ModelName       *string    `json:"model_name,omitempty"`
	MinUnclassified *int       `json:"min_unclassified,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("TileID", f.TileID).
		WhereContains("TileName", f.TileName).
		WhereEquals("ModelName", f.ModelName).
		WhereAtLeast("Unclassified", f.MinUnclassified)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if t := values.Get("tile_id"); t != "" {
		if id, err := uuid.Parse(t); err == nil {
			f.TileID = &id
		}
	}

	if n := values.Get("tile_name"); n != "" {
		f.TileName = &n
	}

	if m := values.Get("model_name"); m != "" {
		f.ModelName = &m
	}

	if u := values.Get("min_unclassified"); u != "" {
		if v, err := strconv.Atoi(u); err == nil {
			f.MinUnclassified = &v
		}
	}

	return f
}

func scanAssessment(s repository.Scanner) (Assessment, error) {
	var a Assessment
	var issuesRaw, failuresRaw []byte

	err := s.Scan(
		&a.ID,
		&a.TileID,
		&a.ModelName,
		&a.Attempted,
		&a.Succeeded,
		&a.Unclassified,
		&a.Batches,
		&issuesRaw,
		&failuresRaw,
		&a.StartedAt,
		&a.CompletedAt,
		&a.SuccessRate,
		&a.TileName,
	)

	if err != nil {
		return a, err
	}

	if len(issuesRaw) > 0 {
		if err := json.Unmarshal(issuesRaw, &a.GeometryErrors); err != nil {
			return a, fmt.Errorf("unmarshal geometry_errors: %w", err)
		}
	}

	if len(failuresRaw) > 0 {
		if err := json.Unmarshal(failuresRaw, &a.BatchFailures); err != nil {
			return a, fmt.Errorf("unmarshal batch_failures: %w", err)
		}
	}

	return a, nil
}

func scanResult(s repository.Scanner) (Result, error) {
	var r Result
	err := s.Scan(&r.UID, &r.Damage, &r.Confidence, &r.Explanation)
	return r, err
}
