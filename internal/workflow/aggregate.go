package workflow

import (
	"cmp"
	"fmt"
	"slices"
	"sync"

	"github.com/JaimeStill/vantage/internal/damage"
	"github.com/JaimeStill/vantage/internal/model"
)

// Aggregator collects batch outcomes into exactly one Result per expected
// uid. Record is safe for concurrent use by batches with disjoint uids.
type Aggregator struct {
	mu       sync.Mutex
	order    []string
	expected map[string]bool
	results  map[string]Result
	failures []BatchReport
}

// NewAggregator seeds the aggregator with the scheduled uids in order.
func NewAggregator(uids []string) *Aggregator {
	expected := make(map[string]bool, len(uids))
	for _, uid := range uids {
		expected[uid] = true
	}
	return &Aggregator{
		order:    slices.Clone(uids),
		expected: expected,
		results:  make(map[string]Result, len(uids)),
	}
}

// Record stores the outcome of a batch. When err is non-nil every uid in the
// batch becomes unclassified. Otherwise each uid takes its prediction, or
// becomes unclassified when the model omitted it. Predictions for uids
// outside the batch, and repeated predictions, are ignored.
func (a *Aggregator) Record(index int, batch []model.Descriptor, preds []model.Prediction, attempts int, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err != nil {
		a.failures = append(a.failures, BatchReport{
			Index:    index,
			Size:     len(batch),
			Attempts: attempts,
			Error:    err.Error(),
		})
		for _, d := range batch {
			a.set(d.UID, unclassified(fmt.Sprintf("batch %d failed: %v", index+1, err)))
		}
		return
	}

	byUID := make(map[string]model.Prediction, len(preds))
	for _, p := range preds {
		if _, dup := byUID[p.UID]; !dup {
			byUID[p.UID] = p
		}
	}

	for _, d := range batch {
		p, ok := byUID[d.UID]
		if !ok || !p.Class.Labeled() {
			a.set(d.UID, unclassified("model did not return a result for this building"))
			continue
		}
		a.set(d.UID, Result{
			UID:         d.UID,
			Class:       p.Class,
			Confidence:  p.Confidence,
			Explanation: p.Description,
		})
	}
}

func (a *Aggregator) set(uid string, r Result) {
	if !a.expected[uid] {
		return
	}
	if _, done := a.results[uid]; done {
		return
	}
	r.UID = uid
	a.results[uid] = r
}

// Finish returns results in scheduling order along with counts and batch
// failures. Uids that were never recorded, such as those in batches skipped
// by cancellation, become unclassified.
func (a *Aggregator) Finish() ([]Result, Counts, []BatchReport) {
	a.mu.Lock()
	defer a.mu.Unlock()

	results := make([]Result, 0, len(a.order))
	counts := Counts{Attempted: len(a.order)}

	for _, uid := range a.order {
		r, ok := a.results[uid]
		if !ok {
			r = unclassified("batch did not complete")
			r.UID = uid
		}
		if r.Class == damage.Unclassified {
			counts.Unclassified++
		} else {
			counts.Succeeded++
		}
		results = append(results, r)
	}

	failures := slices.Clone(a.failures)
	slices.SortFunc(failures, func(x, y BatchReport) int {
		return cmp.Compare(x.Index, y.Index)
	})

	return results, counts, failures
}

func unclassified(reason string) Result {
	return Result{Class: damage.Unclassified, Explanation: reason}
}
