package workflow

import (
	"context"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/JaimeStill/vantage/internal/model"
)

// Execute assesses a single tile. It projects the footprints, partitions
// the located buildings into batches, and classifies each batch through the
// retry controller with bounded parallelism. Batch failures degrade to
// unclassified results and never fail the run. Execute returns an error only
// when the tile itself cannot be processed.
func Execute(ctx context.Context, rt *Runtime, tile Tile) (*Run, error) {
	started := time.Now()

	proj, err := rt.Projector.Project(tile.Context, tile.Footprints)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProjectFailed, err)
	}

	images, err := loadImages(ctx, rt, tile)
	if err != nil {
		return nil, err
	}

	descriptors := make([]model.Descriptor, len(proj.Located))
	uids := make([]string, len(proj.Located))
	for i, l := range proj.Located {
		descriptors[i] = model.Descriptor{UID: l.UID, Box: l.Box}
		uids[i] = l.UID
	}

	batches := Partition(descriptors, rt.BatchSize)
	agg := NewAggregator(uids)

	rt.Logger.InfoContext(
		ctx, "assessment started",
		"tile_id", tile.Context.TileID,
		"buildings", len(descriptors),
		"batches", len(batches),
		"geometry_errors", len(tile.Rejected)+len(proj.Errors),
	)

	runBatches(ctx, rt, images, batches, agg)

	results, counts, failures := agg.Finish()

	run := &Run{
		Tile:           proj.Tile,
		Model:          rt.Classifier.Name(),
		Results:        results,
		Counts:         counts,
		GeometryErrors: slices.Concat(tile.Rejected, proj.Errors),
		BatchFailures:  failures,
		Batches:        len(batches),
		StartedAt:      started,
		CompletedAt:    time.Now(),
	}

	rt.Logger.InfoContext(
		ctx, "assessment complete",
		"tile_id", tile.Context.TileID,
		"attempted", counts.Attempted,
		"succeeded", counts.Succeeded,
		"unclassified", counts.Unclassified,
		"batch_failures", len(failures),
		"duration", run.CompletedAt.Sub(started),
	)

	return run, nil
}

func loadImages(ctx context.Context, rt *Runtime, tile Tile) (model.ImagePair, error) {
	pre, err := readBlob(ctx, rt, tile.Context.PreImage)
	if err != nil {
		return model.ImagePair{}, fmt.Errorf("%w: pre image: %w", ErrLoadImages, err)
	}

	post, err := readBlob(ctx, rt, tile.Context.PostImage)
	if err != nil {
		return model.ImagePair{}, fmt.Errorf("%w: post image: %w", ErrLoadImages, err)
	}

	return model.ImagePair{Pre: pre, Post: post, MediaType: "image/png"}, nil
}

func readBlob(ctx context.Context, rt *Runtime, key string) ([]byte, error) {
	body, err := rt.Storage.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return io.ReadAll(body)
}
