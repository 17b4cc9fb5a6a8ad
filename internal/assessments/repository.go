package assessments

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"

	"github.com/JaimeStill/vantage/internal/evaluation"
	"github.com/JaimeStill/vantage/internal/tiles"
	"github.com/JaimeStill/vantage/internal/workflow"
	"github.com/JaimeStill/vantage/pkg/pagination"
	"github.com/JaimeStill/vantage/pkg/query"
	"github.com/JaimeStill/vantage/pkg/repository"
	"github.com/JaimeStill/vantage/pkg/storage"
)

type repo struct {
	db         *sql.DB
	rt         *workflow.Runtime
	tiles      tiles.System
	storage    storage.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates an assessment repository implementing the System interface.
func New(
	db *sql.DB,
	rt *workflow.Runtime,
	tiles tiles.System,
	store storage.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		rt:         rt,
		tiles:      tiles,
		storage:    store,
		logger:     logger.With("system", "assessments"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Assessment], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "TileName", "ModelName")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count assessments: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanAssessment)
	if err != nil {
		return nil, fmt.Errorf("query assessments: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Detail, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	a, err := repository.QueryOne(ctx, r.db, q, args, scanAssessment)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	results, err := repository.QueryMany(
		ctx, r.db,
		`SELECT uid, damage_class, confidence, explanation
		FROM assessment_results
		WHERE assessment_id = $1
		ORDER BY position`,
		[]any{id},
		scanResult,
	)
	if err != nil {
		return nil, fmt.Errorf("query assessment results: %w", err)
	}

	return &Detail{Assessment: a, Results: results}, nil
}

func (r *repo) Assess(ctx context.Context, tileID uuid.UUID) (*Detail, error) {
	tile, err := r.tiles.Load(ctx, tileID)
	if err != nil {
		return nil, err
	}

	run, err := workflow.Execute(ctx, r.rt, *tile)
	if err != nil {
		return nil, fmt.Errorf("assess tile %s: %w", tileID, err)
	}

	issuesJSON, err := json.Marshal(orEmpty(run.GeometryErrors))
	if err != nil {
		return nil, fmt.Errorf("marshal geometry errors: %w", err)
	}

	failuresJSON, err := json.Marshal(orEmpty(run.BatchFailures))
	if err != nil {
		return nil, fmt.Errorf("marshal batch failures: %w", err)
	}

	insertQ := `
		INSERT INTO assessments(
			tile_id, model_name, attempted, succeeded, unclassified,
			batches, geometry_errors, batch_failures, started_at, completed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`

	insertArgs := []any{
		tileID,
		run.Model,
		run.Counts.Attempted,
		run.Counts.Succeeded,
		run.Counts.Unclassified,
		run.Batches,
		issuesJSON,
		failuresJSON,
		run.StartedAt,
		run.CompletedAt,
	}

	resultColumns := []string{
		"assessment_id", "position", "uid", "damage_class", "confidence", "explanation",
	}

	id, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (uuid.UUID, error) {
		id, err := repository.QueryOne(ctx, tx, insertQ, insertArgs, scanID)
		if err != nil {
			return uuid.Nil, fmt.Errorf("insert assessment: %w", err)
		}

		rows := make([][]any, len(run.Results))
		for i, res := range run.Results {
			rows[i] = []any{id, i, res.UID, res.Class, res.Confidence, res.Explanation}
		}

		if err := repository.InsertRows(ctx, tx, "assessment_results", resultColumns, rows); err != nil {
			return uuid.Nil, err
		}

		return id, nil
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("tile assessed",
		"id", id,
		"tile_id", tileID,
		"attempted", run.Counts.Attempted,
		"succeeded", run.Counts.Succeeded,
		"unclassified", run.Counts.Unclassified,
	)
	return r.Find(ctx, id)
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if err := repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM assessments WHERE id = $1",
			id,
		); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	key := exportKey(id)
	if ok, err := r.storage.Exists(ctx, key); err == nil && ok {
		if err := r.storage.Delete(ctx, key); err != nil {
			r.logger.Warn("export cleanup failed", "key", key, "error", err)
		}
	}

	r.logger.Info("assessment deleted", "id", id)
	return nil
}

func (r *repo) Evaluate(ctx context.Context, id uuid.UUID) (*evaluation.Report, error) {
	d, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	truth, err := r.tiles.GroundTruth(ctx, d.TileID)
	if err != nil {
		return nil, err
	}

	records, mismatches := JoinTruth(d.Results, d.GeometryErrors, truth)
	report := evaluation.Evaluate(records, mismatches)

	r.logger.Info("assessment evaluated",
		"id", id,
		"evaluated", report.Evaluated,
		"excluded", report.Excluded,
	)
	return &report, nil
}

func (r *repo) Statistics(ctx context.Context, id uuid.UUID) (*Statistics, error) {
	d, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	s := Summarize(d.Results)
	return &s, nil
}

func (r *repo) GeoJSON(ctx context.Context, id uuid.UUID) (*geojson.FeatureCollection, error) {
	d, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	f, err := r.tiles.Labels(ctx, d.TileID)
	if err != nil {
		return nil, err
	}

	fc := FeatureCollection(d.Results, f.Polygons())

	data, err := fc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal geojson: %w", err)
	}

	key := exportKey(id)
	if err := r.storage.Upload(ctx, key, bytes.NewReader(data), "application/geo+json"); err != nil {
		return nil, fmt.Errorf("upload %s: %w", key, err)
	}

	r.logger.Info("assessment exported", "id", id, "features", len(fc.Features), "key", key)
	return fc, nil
}

func scanID(s repository.Scanner) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.Scan(&id)
	return id, err
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func exportKey(id uuid.UUID) string {
	return fmt.Sprintf("assessments/%s/assessment.geojson", id)
}
