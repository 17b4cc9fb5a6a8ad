package tiles

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/vantage/internal/evaluation"
	"github.com/JaimeStill/vantage/internal/labels"
	"github.com/JaimeStill/vantage/internal/workflow"
	"github.com/JaimeStill/vantage/pkg/formatting"
	"github.com/JaimeStill/vantage/pkg/pagination"
	"github.com/JaimeStill/vantage/pkg/query"
	"github.com/JaimeStill/vantage/pkg/repository"
	"github.com/JaimeStill/vantage/pkg/storage"
)

type repo struct {
	db         *sql.DB
	storage    storage.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a tile repository implementing the System interface.
func New(
	db *sql.DB,
	store storage.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		storage:    store,
		logger:     logger.With("system", "tiles"),
		pagination: pagination,
	}
}

func (r *repo) Handler(maxUploadSize int64) *Handler {
	return NewHandler(r, r.logger, r.pagination, maxUploadSize)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Tile], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Name", "Disaster")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count tiles: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanTile)
	if err != nil {
		return nil, fmt.Errorf("query tiles: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Tile, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	t, err := repository.QueryOne(ctx, r.db, q, args, scanTile)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &t, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Tile, error) {
	in, err := inspect(cmd)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	var uploaded []string

	upload := func(name string, data []byte, contentType string) (*string, error) {
		if len(data) == 0 {
			return nil, nil
		}
		key := buildStorageKey(id, name)
		if err := r.storage.Upload(ctx, key, bytes.NewReader(data), contentType); err != nil {
			return nil, fmt.Errorf("upload %s: %w", name, err)
		}
		uploaded = append(uploaded, key)
		return &key, nil
	}

	keys := make([]*string, 4)
	parts := []struct {
		name        string
		data        []byte
		contentType string
	}{
		{"pre.png", cmd.Pre, "image/png"},
		{"post.png", cmd.Post, "image/png"},
		{"labels.json", cmd.Labels, "application/json"},
		{"ground_truth.json", cmd.GroundTruth, "application/json"},
	}

	for i, p := range parts {
		key, err := upload(p.name, p.data, p.contentType)
		if err != nil {
			r.cleanup(uploaded)
			return nil, err
		}
		keys[i] = key
	}

	q := `
		INSERT INTO tiles(id, name, disaster, width, height, building_count,
			pre_key, post_key, labels_key, ground_truth_key, is_complete)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + columns

	insertArgs := []any{
		id,
		cmd.Name,
		disasterOf(cmd.Name),
		in.width,
		in.height,
		in.buildings,
		keys[0],
		keys[1],
		keys[2],
		keys[3],
		in.complete,
	}

	t, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Tile, error) {
		return repository.QueryOne(ctx, tx, q, insertArgs, scanTile)
	})

	if err != nil {
		r.cleanup(uploaded)
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	size := int64(len(cmd.Pre) + len(cmd.Post) + len(cmd.Labels) + len(cmd.GroundTruth))
	r.logger.Info(
		"tile created",
		"id", t.ID,
		"name", t.Name,
		"buildings", t.BuildingCount,
		"complete", t.IsComplete,
		"size", formatting.FormatBytes(size, 1),
	)
	return &t, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	t, err := r.Find(ctx, id)
	if err != nil {
		return err
	}

	_, err = repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(ctx, tx, "DELETE FROM tiles WHERE id = $1", id)
	})
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	var keys []string
	for _, k := range []*string{t.PreKey, t.PostKey, t.LabelsKey, t.GroundTruthKey} {
		if k != nil {
			keys = append(keys, *k)
		}
	}
	r.cleanup(keys)

	r.logger.Info("tile deleted", "id", id, "name", t.Name)
	return nil
}

func (r *repo) Load(ctx context.Context, id uuid.UUID) (*workflow.Tile, error) {
	t, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.IsComplete {
		return nil, fmt.Errorf("%w: %s", ErrIncomplete, t.Name)
	}

	f, err := r.decodeLabels(ctx, *t.LabelsKey)
	if err != nil {
		return nil, err
	}

	return BuildTile(t.Name, *t.PreKey, *t.PostKey, t.Width, t.Height, f), nil
}

func (r *repo) Labels(ctx context.Context, id uuid.UUID) (*labels.File, error) {
	t, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.LabelsKey == nil {
		return nil, fmt.Errorf("%w: %s has no labels", ErrIncomplete, t.Name)
	}
	return r.decodeLabels(ctx, *t.LabelsKey)
}

func (r *repo) GroundTruth(ctx context.Context, id uuid.UUID) ([]evaluation.Label, error) {
	t, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.GroundTruthKey == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoGroundTruth, t.Name)
	}

	f, err := r.decodeLabels(ctx, *t.GroundTruthKey)
	if err != nil {
		return nil, err
	}
	return f.GroundTruth(), nil
}

func (r *repo) decodeLabels(ctx context.Context, key string) (*labels.File, error) {
	body, err := r.storage.Download(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", key, err)
	}
	defer body.Close()

	f, err := labels.Decode(io.LimitReader(body, maxLabelBytes))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return f, nil
}

func (r *repo) cleanup(keys []string) {
	for _, key := range keys {
		if err := r.storage.Delete(context.Background(), key); err != nil {
			r.logger.Warn("blob cleanup failed", "key", key, "error", err)
		}
	}
}

const maxLabelBytes = 64 << 20

func buildStorageKey(id uuid.UUID, name string) string {
	return fmt.Sprintf("tiles/%s/%s", id, name)
}
