package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/JaimeStill/vantage/internal/assessments"
	"github.com/JaimeStill/vantage/internal/config"
	"github.com/JaimeStill/vantage/internal/evaluation"
	"github.com/JaimeStill/vantage/internal/geometry"
	"github.com/JaimeStill/vantage/internal/infrastructure"
	"github.com/JaimeStill/vantage/internal/model"
	"github.com/JaimeStill/vantage/internal/tiles"
	"github.com/JaimeStill/vantage/internal/workflow"
	"github.com/JaimeStill/vantage/pkg/storage"
)

type options struct {
	dir     string
	tile    string
	out     string
	geoJSON string
}

// tileOutput is the per-tile record written by -out.
type tileOutput struct {
	Tile       string                 `json:"tile"`
	Run        *workflow.Run          `json:"run"`
	Statistics assessments.Statistics `json:"statistics"`
	Evaluation *evaluation.Report     `json:"evaluation,omitempty"`
}

// summary is printed to stdout once every tile has run.
type summary struct {
	Tiles      int                    `json:"tiles"`
	Skipped    []string               `json:"skipped,omitempty"`
	Statistics assessments.Statistics `json:"statistics"`
	Evaluation *evaluation.Report     `json:"evaluation,omitempty"`
}

func assessDir(ctx context.Context, opts options, stderr io.Writer, w io.Writer) error {
	cfg, err := config.Load(&config.Config{
		Storage: storage.Config{Provider: storage.ProviderLocal, Root: opts.dir},
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	logger := infrastructure.NewLogger(&cfg.Logging, stderr)

	classifier, err := model.New(&cfg.Model, logger)
	if err != nil {
		return fmt.Errorf("model init failed: %w", err)
	}

	store := storage.NewLocal(opts.dir, logger.With("system", "storage"))
	rt := workflow.NewRuntime(cfg, classifier, store, logger)

	entries, skipped, err := selectEntries(opts)
	if err != nil {
		return err
	}
	for _, s := range skipped {
		logger.Warn("tile skipped", "tile", s)
	}

	var (
		outputs    []tileOutput
		all        []assessments.Result
		records    []evaluation.Record
		mismatches evaluation.Mismatches
		truthed    int
		footprints = make(map[string]geometry.Footprint)
	)

	for i := range entries {
		if ctx.Err() != nil {
			break
		}
		e := &entries[i]

		tile, err := e.Tile()
		if err != nil {
			logger.Warn("tile skipped", "tile", e.Name, "error", err)
			continue
		}

		run, err := workflow.Execute(ctx, rt, *tile)
		if err != nil {
			logger.Error("tile failed", "tile", e.Name, "error", err)
			continue
		}

		results, issues := assessments.FromRun(run)
		output := tileOutput{
			Tile:       e.Name,
			Run:        run,
			Statistics: assessments.Summarize(results),
		}

		truth, err := e.GroundTruth()
		switch {
		case err == nil:
			recs, mm := assessments.JoinTruth(results, issues, truth)
			report := evaluation.Evaluate(recs, mm)
			output.Evaluation = &report
			records = append(records, recs...)
			mismatches = mismatches.Add(mm)
			truthed++
		case !errors.Is(err, tiles.ErrNoGroundTruth):
			logger.Warn("ground truth unreadable", "tile", e.Name, "error", err)
		}

		for _, fp := range tile.Footprints {
			footprints[fp.UID] = fp
		}
		all = append(all, results...)
		outputs = append(outputs, output)
	}

	if opts.out != "" {
		if err := writeFile(opts.out, outputs); err != nil {
			return fmt.Errorf("write predictions: %w", err)
		}
	}

	if opts.geoJSON != "" {
		fc := assessments.FeatureCollection(all, footprints)
		if err := writeFile(opts.geoJSON, fc); err != nil {
			return fmt.Errorf("write geojson: %w", err)
		}
	}

	s := summary{
		Tiles:      len(outputs),
		Skipped:    skipped,
		Statistics: assessments.Summarize(all),
	}
	if truthed > 0 {
		report := evaluation.Evaluate(records, mismatches)
		s.Evaluation = &report
	}

	if err := writeJSON(w, s); err != nil {
		return err
	}
	return ctx.Err()
}

func selectEntries(opts options) ([]tiles.Entry, []string, error) {
	m, err := tiles.Scan(opts.dir)
	if err != nil {
		return nil, nil, err
	}

	if opts.tile != "" {
		e, ok := m.Find(opts.tile)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s", tiles.ErrNotFound, opts.tile)
		}
		return []tiles.Entry{*e}, nil, nil
	}

	var skipped []string
	for _, e := range m.Entries {
		if !e.IsComplete {
			skipped = append(skipped, e.Name)
		}
	}
	return m.Complete(), skipped, nil
}
