package tiles

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/vantage/internal/evaluation"
	"github.com/JaimeStill/vantage/internal/labels"
	"github.com/JaimeStill/vantage/internal/workflow"
	"github.com/JaimeStill/vantage/pkg/pagination"
)

// System defines the public contract for tile domain operations.
type System interface {
	Handler(maxUploadSize int64) *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Tile], error)

	Find(ctx context.Context, id uuid.UUID) (*Tile, error)
	Create(ctx context.Context, cmd CreateCommand) (*Tile, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// Load fetches the stripped labels of a complete tile and returns the
	// assessment input. Image bytes stay in storage.
	Load(ctx context.Context, id uuid.UUID) (*workflow.Tile, error)
	// Labels returns the decoded stripped labels.
	Labels(ctx context.Context, id uuid.UUID) (*labels.File, error)
	// GroundTruth returns the tile's ground-truth labels.
	GroundTruth(ctx context.Context, id uuid.UUID) ([]evaluation.Label, error)
}
