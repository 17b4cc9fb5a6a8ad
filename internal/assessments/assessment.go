// Package assessments implements the assessment domain for Vantage. It runs
// the workflow against registered tiles, persists per-building results, and
// derives evaluations, damage statistics, and GeoJSON exports from them.
package assessments

import (
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/vantage/internal/damage"
	"github.com/JaimeStill/vantage/internal/workflow"
)

// Assessment is a stored workflow run for a tile. It mirrors the
// assessments table with the tile name joined in.
type Assessment struct {
	ID             uuid.UUID              `json:"id"`
	TileID         uuid.UUID              `json:"tile_id"`
	TileName       string                 `json:"tile_name"`
	ModelName      string                 `json:"model_name"`
	Attempted      int                    `json:"attempted"`
	Succeeded      int                    `json:"succeeded"`
	Unclassified   int                    `json:"unclassified"`
	Batches        int                    `json:"batches"`
	SuccessRate    *float64               `json:"success_rate"`
	GeometryErrors []Issue                `json:"geometry_errors"`
	BatchFailures  []workflow.BatchReport `json:"batch_failures"`
	StartedAt      time.Time              `json:"started_at"`
	CompletedAt    time.Time              `json:"completed_at"`
}

// Issue is a footprint excluded before classification.
type Issue struct {
	UID    string `json:"uid"`
	Reason string `json:"reason"`
}

// Result is the stored outcome for one building.
type Result struct {
	UID         string       `json:"uid"`
	Damage      damage.Class `json:"damage"`
	Confidence  *float64     `json:"confidence"`
	Explanation string       `json:"description"`
}

// Detail is an assessment together with its results in scheduling order.
type Detail struct {
	Assessment
	Results []Result `json:"results"`
}

// ClassShare is the portion of results assigned one damage class.
type ClassShare struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Statistics describes the damage distribution of an assessment.
// MeanConfidence covers classified results only and is nil when none exist.
type Statistics struct {
	Total          int                   `json:"total"`
	Distribution   map[string]ClassShare `json:"distribution"`
	MeanConfidence *float64              `json:"mean_confidence"`
}
