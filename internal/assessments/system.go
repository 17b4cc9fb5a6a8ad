package assessments

import (
	"context"

	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"

	"github.com/JaimeStill/vantage/internal/evaluation"
	"github.com/JaimeStill/vantage/pkg/pagination"
)

// System defines the public contract for assessment domain operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Assessment], error)

	Find(ctx context.Context, id uuid.UUID) (*Detail, error)
	Assess(ctx context.Context, tileID uuid.UUID) (*Detail, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// Evaluate scores the stored results against the tile's ground truth.
	Evaluate(ctx context.Context, id uuid.UUID) (*evaluation.Report, error)
	Statistics(ctx context.Context, id uuid.UUID) (*Statistics, error)
	// GeoJSON renders the results over the tile's footprints and stores
	// the export alongside the assessment.
	GeoJSON(ctx context.Context, id uuid.UUID) (*geojson.FeatureCollection, error)
}
