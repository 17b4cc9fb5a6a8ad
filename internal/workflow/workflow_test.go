package workflow_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/paulmach/orb"

	"github.com/JaimeStill/vantage/internal/damage"
	"github.com/JaimeStill/vantage/internal/geometry"
	"github.com/JaimeStill/vantage/internal/model"
	"github.com/JaimeStill/vantage/internal/retry"
	"github.com/JaimeStill/vantage/internal/workflow"
	"github.com/JaimeStill/vantage/pkg/storage"
)

type instantClock struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (c *instantClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.waits = append(c.waits, d)
	c.mu.Unlock()
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

// stubClassifier answers each batch through fn and counts calls.
type stubClassifier struct {
	mu    sync.Mutex
	calls int
	fn    func(call int, batch []model.Descriptor) ([]model.Prediction, error)
}

func (s *stubClassifier) Name() string { return "stub" }

func (s *stubClassifier) Classify(ctx context.Context, _ model.ImagePair, batch []model.Descriptor) ([]model.Prediction, error) {
	s.mu.Lock()
	s.calls++
	call := s.calls
	s.mu.Unlock()
	return s.fn(call, batch)
}

func (s *stubClassifier) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func allDestroyed(_ int, batch []model.Descriptor) ([]model.Prediction, error) {
	conf := 0.8
	preds := make([]model.Prediction, len(batch))
	for i, d := range batch {
		preds[i] = model.Prediction{UID: d.UID, Class: damage.Destroyed, Confidence: &conf}
	}
	return preds, nil
}

func square(minLng, minLat, size float64) orb.Ring {
	return orb.Ring{
		{minLng, minLat},
		{minLng + size, minLat},
		{minLng + size, minLat + size},
		{minLng, minLat + size},
		{minLng, minLat},
	}
}

func newTile(t *testing.T, store storage.System, n int) workflow.Tile {
	t.Helper()
	ctx := context.Background()

	for _, key := range []string{"tiles/t1/pre.png", "tiles/t1/post.png"} {
		if err := store.Upload(ctx, key, strings.NewReader("img"), "image/png"); err != nil {
			t.Fatalf("Upload error: %v", err)
		}
	}

	footprints := make([]geometry.Footprint, n)
	for i := range footprints {
		footprints[i] = geometry.Footprint{
			UID:  fmt.Sprintf("b%03d", i),
			Ring: square(float64(i%10)*10, float64(i/10)*10, 5),
		}
	}

	return workflow.Tile{
		Context: geometry.TileContext{
			TileID:    "t1",
			PreImage:  "tiles/t1/pre.png",
			PostImage: "tiles/t1/post.png",
			Width:     1024,
			Height:    1024,
		},
		Footprints: footprints,
	}
}

func newRuntime(t *testing.T, classifier model.Classifier, clock retry.Clock, batchSize, concurrency int) (*workflow.Runtime, storage.System) {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	store := storage.NewLocal(t.TempDir(), logger)

	return &workflow.Runtime{
		Classifier:  classifier,
		Storage:     store,
		Projector:   geometry.NewProjector(geometry.DefaultMargin, 0),
		Retry:       retry.New(retry.Policy{MaxAttempts: 5, ValidationRetries: 1}, retry.WithClock(clock)),
		BatchSize:   batchSize,
		Concurrency: concurrency,
		Logger:      logger,
	}, store
}

func assertComplete(t *testing.T, run *workflow.Run, tile workflow.Tile) {
	t.Helper()
	if len(run.Results) != len(tile.Footprints) {
		t.Fatalf("results: got %d, want %d", len(run.Results), len(tile.Footprints))
	}
	for i, r := range run.Results {
		if r.UID != tile.Footprints[i].UID {
			t.Errorf("result %d: got uid %s, want %s", i, r.UID, tile.Footprints[i].UID)
		}
	}
	if run.Counts.Attempted != run.Counts.Succeeded+run.Counts.Unclassified {
		t.Errorf("counts do not add up: %+v", run.Counts)
	}
}

func TestExecuteSuccess(t *testing.T) {
	classifier := &stubClassifier{fn: allDestroyed}
	rt, store := newRuntime(t, classifier, &instantClock{}, 4, 3)
	tile := newTile(t, store, 10)

	run, err := workflow.Execute(context.Background(), rt, tile)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	assertComplete(t, run, tile)

	if run.Batches != 3 {
		t.Errorf("batches: got %d, want 3", run.Batches)
	}
	if classifier.Calls() != 3 {
		t.Errorf("calls: got %d, want 3", classifier.Calls())
	}
	if run.Counts.Succeeded != 10 {
		t.Errorf("succeeded: got %d, want 10", run.Counts.Succeeded)
	}
	if run.Model != "stub" {
		t.Errorf("model: got %s, want stub", run.Model)
	}
	if run.Tile.Bounds.IsEmpty() {
		t.Error("tile bounds should be derived from footprints")
	}
}

func TestExecuteFailingBatch(t *testing.T) {
	classifier := &stubClassifier{fn: func(call int, batch []model.Descriptor) ([]model.Prediction, error) {
		if batch[0].UID == "b004" {
			return nil, errors.New("bad request")
		}
		return allDestroyed(call, batch)
	}}
	rt, store := newRuntime(t, classifier, &instantClock{}, 4, 1)
	tile := newTile(t, store, 10)

	run, err := workflow.Execute(context.Background(), rt, tile)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	assertComplete(t, run, tile)

	if run.Counts.Unclassified != 4 || run.Counts.Succeeded != 6 {
		t.Errorf("counts: got %+v, want 6 succeeded and 4 unclassified", run.Counts)
	}
	if len(run.BatchFailures) != 1 || run.BatchFailures[0].Index != 1 {
		t.Fatalf("batch failures: got %+v, want batch index 1", run.BatchFailures)
	}
	for _, r := range run.Results[4:8] {
		if r.Class != damage.Unclassified || r.Confidence != nil {
			t.Errorf("%s: got %s, want unclassified without confidence", r.UID, r.Class)
		}
	}
}

func TestExecuteAlwaysRateLimited(t *testing.T) {
	clock := &instantClock{}
	classifier := &stubClassifier{fn: func(int, []model.Descriptor) ([]model.Prediction, error) {
		return nil, &model.RateLimitError{Err: errors.New("429")}
	}}
	rt, store := newRuntime(t, classifier, clock, 85, 1)
	tile := newTile(t, store, 3)

	run, err := workflow.Execute(context.Background(), rt, tile)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	assertComplete(t, run, tile)

	if classifier.Calls() != 5 {
		t.Errorf("calls: got %d, want 5", classifier.Calls())
	}
	if len(clock.waits) != 4 {
		t.Errorf("waits: got %d, want 4", len(clock.waits))
	}
	if run.Counts.Unclassified != 3 {
		t.Errorf("unclassified: got %d, want 3", run.Counts.Unclassified)
	}
	if len(run.BatchFailures) != 1 || run.BatchFailures[0].Attempts != 5 {
		t.Errorf("batch failures: got %+v, want one with 5 attempts", run.BatchFailures)
	}
}

func TestExecuteMissingPredictions(t *testing.T) {
	classifier := &stubClassifier{fn: func(call int, batch []model.Descriptor) ([]model.Prediction, error) {
		preds, _ := allDestroyed(call, batch)
		return append(preds[1:], model.Prediction{UID: "stranger", Class: damage.NoDamage}), nil
	}}
	rt, store := newRuntime(t, classifier, &instantClock{}, 85, 1)
	tile := newTile(t, store, 4)

	run, err := workflow.Execute(context.Background(), rt, tile)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	assertComplete(t, run, tile)

	if run.Results[0].Class != damage.Unclassified {
		t.Errorf("omitted uid: got %s, want unclassified", run.Results[0].Class)
	}
	if run.Counts.Succeeded != 3 {
		t.Errorf("succeeded: got %d, want 3", run.Counts.Succeeded)
	}
}

func TestExecuteCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	classifier := &stubClassifier{fn: func(call int, batch []model.Descriptor) ([]model.Prediction, error) {
		cancel()
		return allDestroyed(call, batch)
	}}
	rt, store := newRuntime(t, classifier, &instantClock{}, 2, 1)
	rt.BatchInterval = time.Hour
	tile := newTile(t, store, 6)

	run, err := workflow.Execute(ctx, rt, tile)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	assertComplete(t, run, tile)

	if classifier.Calls() != 1 {
		t.Errorf("calls: got %d, want 1", classifier.Calls())
	}
	if run.Counts.Succeeded != 2 || run.Counts.Unclassified != 4 {
		t.Errorf("counts: got %+v, want 2 succeeded and 4 unclassified", run.Counts)
	}
}

func TestExecuteGeometryErrors(t *testing.T) {
	classifier := &stubClassifier{fn: allDestroyed}
	rt, store := newRuntime(t, classifier, &instantClock{}, 85, 1)
	tile := newTile(t, store, 3)
	tile.Footprints = append(tile.Footprints, geometry.Footprint{UID: "flat", Ring: orb.Ring{{0, 0}, {1, 0}, {2, 0}}})
	tile.Rejected = []*geometry.GeometryError{{UID: "bad-wkt", Err: geometry.ErrMalformed}}

	run, err := workflow.Execute(context.Background(), rt, tile)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	if len(run.Results) != 3 {
		t.Errorf("results: got %d, want 3", len(run.Results))
	}
	if len(run.GeometryErrors) != 2 {
		t.Fatalf("geometry errors: got %d, want 2", len(run.GeometryErrors))
	}
	if run.GeometryErrors[0].UID != "bad-wkt" || run.GeometryErrors[1].UID != "flat" {
		t.Errorf("geometry errors: got %v, %v", run.GeometryErrors[0], run.GeometryErrors[1])
	}
}

func TestExecuteDuplicateUID(t *testing.T) {
	classifier := &stubClassifier{fn: allDestroyed}
	rt, store := newRuntime(t, classifier, &instantClock{}, 85, 1)
	tile := newTile(t, store, 3)
	tile.Footprints[2].UID = tile.Footprints[0].UID

	run, err := workflow.Execute(context.Background(), rt, tile)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	seen := make(map[string]int)
	for _, r := range run.Results {
		seen[r.UID]++
	}
	if len(run.Results) != 2 || seen["b000"] != 1 || seen["b001"] != 1 {
		t.Errorf("results: got %d %v, want one each of b000 and b001", len(run.Results), seen)
	}
	if run.Counts.Attempted != 2 || run.Counts.Succeeded != 2 {
		t.Errorf("counts: got %+v, want 2 attempted and succeeded", run.Counts)
	}
	if len(run.GeometryErrors) != 1 || !errors.Is(run.GeometryErrors[0], geometry.ErrDuplicateUID) {
		t.Errorf("geometry errors: got %v, want one duplicate uid", run.GeometryErrors)
	}
}

func TestExecuteMissingImage(t *testing.T) {
	classifier := &stubClassifier{fn: allDestroyed}
	rt, store := newRuntime(t, classifier, &instantClock{}, 85, 1)
	tile := newTile(t, store, 2)
	tile.Context.PostImage = "tiles/t1/missing.png"

	_, err := workflow.Execute(context.Background(), rt, tile)
	if !errors.Is(err, workflow.ErrLoadImages) {
		t.Errorf("expected ErrLoadImages, got %v", err)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected wrapped ErrNotFound, got %v", err)
	}
}

func TestExecuteCallTimeoutRetried(t *testing.T) {
	classifier := &stubClassifier{fn: allDestroyed}
	slow := &timeoutOnce{next: classifier}

	rt, store := newRuntime(t, slow, &instantClock{}, 85, 1)
	rt.CallTimeout = 10 * time.Millisecond
	tile := newTile(t, store, 2)

	run, err := workflow.Execute(context.Background(), rt, tile)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if run.Counts.Succeeded != 2 {
		t.Errorf("succeeded: got %d, want 2", run.Counts.Succeeded)
	}
	if classifier.Calls() != 1 {
		t.Errorf("calls after timeout: got %d, want 1", classifier.Calls())
	}
}

// timeoutOnce blocks its first call until the per-call deadline expires.
type timeoutOnce struct {
	once sync.Once
	next model.Classifier
}

func (c *timeoutOnce) Name() string { return "slow" }

func (c *timeoutOnce) Classify(ctx context.Context, images model.ImagePair, batch []model.Descriptor) ([]model.Prediction, error) {
	blocked := false
	c.once.Do(func() { blocked = true })
	if blocked {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return c.next.Classify(ctx, images, batch)
}
