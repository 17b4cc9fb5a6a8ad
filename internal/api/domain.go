package api

import (
	"github.com/JaimeStill/vantage/internal/assessments"
	"github.com/JaimeStill/vantage/internal/evaluation"
	"github.com/JaimeStill/vantage/internal/tiles"
	"github.com/JaimeStill/vantage/pkg/routes"
)

// Domain holds the systems and stateless handlers served by the API.
// Assessments depend on tiles for imagery and ground truth.
type Domain struct {
	Tiles       tiles.System
	Assessments assessments.System

	evaluations *evaluation.Handler
	blobs       *blobHandler
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	db := runtime.Database.Connection()

	tilesSystem := tiles.New(db, runtime.Storage, runtime.Logger, runtime.Pagination)

	return &Domain{
		Tiles: tilesSystem,
		Assessments: assessments.New(
			db,
			runtime.Workflow,
			tilesSystem,
			runtime.Storage,
			runtime.Logger,
			runtime.Pagination,
		),
		evaluations: evaluation.NewHandler(runtime.Logger, runtime.MaxUploadSize),
		blobs:       newBlobHandler(runtime.Storage, runtime.Logger),
	}
}

// Groups returns every route group of the domain, relative to the API
// base path.
func (d *Domain) Groups(maxUploadSize int64) []routes.Group {
	return []routes.Group{
		d.Tiles.Handler(maxUploadSize).Routes(),
		d.Assessments.Handler().Routes(),
		d.evaluations.Routes(),
		d.blobs.routes(),
	}
}
