// Package workflow runs the per-tile assessment pipeline: footprint
// projection, batch scheduling, retry-wrapped model calls, and result
// aggregation into an immutable Run.
package workflow

import "errors"

// Sentinel errors for workflow operations.
var (
	ErrLoadImages    = errors.New("failed to load tile images")
	ErrProjectFailed = errors.New("failed to project footprints")
)
