package workflow

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/vantage/internal/model"
)

// runBatches classifies every batch and records each outcome with agg.
// Batch boundaries are paced by rt.BatchInterval; once ctx is cancelled no
// further batches start and their uids are left for Finish to fill.
func runBatches(
	ctx context.Context,
	rt *Runtime,
	images model.ImagePair,
	batches [][]model.Descriptor,
	agg *Aggregator,
) {
	var g errgroup.Group
	g.SetLimit(workerCount(rt.Concurrency, len(batches)))

	for i, batch := range batches {
		if i > 0 && !pause(ctx, rt.BatchInterval) {
			rt.Logger.WarnContext(
				ctx, "run cancelled before all batches started",
				"started", i,
				"batches", len(batches),
			)
			break
		}

		g.Go(func() error {
			var preds []model.Prediction
			out := rt.Retry.Do(ctx, func(ctx context.Context) error {
				p, err := classify(ctx, rt, images, batch)
				if err != nil {
					return err
				}
				preds = p
				return nil
			})

			if out.Err != nil {
				rt.Logger.WarnContext(
					ctx, "batch failed",
					"batch", i+1,
					"size", len(batch),
					"attempts", out.Attempts,
					"error", out.Err,
				)
			}

			agg.Record(i, batch, preds, out.Attempts, out.Err)
			return nil
		})
	}

	g.Wait()
}

// classify performs one model call bounded by the per-call timeout.
// A timeout of the call alone is reported as a transport failure so that
// it is retried.
func classify(ctx context.Context, rt *Runtime, images model.ImagePair, batch []model.Descriptor) ([]model.Prediction, error) {
	callCtx := ctx
	if rt.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, rt.CallTimeout)
		defer cancel()
	}

	preds, err := rt.Classifier.Classify(callCtx, images, batch)
	if err != nil && ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		return nil, &model.TransportError{Err: err}
	}
	return preds, err
}

func pause(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func workerCount(concurrency, batches int) int {
	return max(min(concurrency, batches), 1)
}
