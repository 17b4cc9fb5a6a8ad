package assessments

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"gonum.org/v1/gonum/stat"

	"github.com/JaimeStill/vantage/internal/damage"
	"github.com/JaimeStill/vantage/internal/evaluation"
	"github.com/JaimeStill/vantage/internal/geometry"
	"github.com/JaimeStill/vantage/internal/workflow"
)

// Summarize computes the damage distribution of results. Every class,
// including unclassified, appears in the distribution.
func Summarize(results []Result) Statistics {
	s := Statistics{
		Total:        len(results),
		Distribution: make(map[string]ClassShare, int(damage.Unclassified)+1),
	}

	counts := make(map[damage.Class]int, int(damage.Unclassified)+1)
	var confidences []float64

	for _, r := range results {
		counts[r.Damage]++
		if r.Damage.Labeled() && r.Confidence != nil {
			confidences = append(confidences, *r.Confidence)
		}
	}

	for c := damage.NoDamage; c <= damage.Unclassified; c++ {
		share := ClassShare{Count: counts[c]}
		if s.Total > 0 {
			share.Percentage = 100 * float64(share.Count) / float64(s.Total)
		}
		s.Distribution[c.String()] = share
	}

	if len(confidences) > 0 {
		m := stat.Mean(confidences, nil)
		s.MeanConfidence = &m
	}
	return s
}

// Predictions converts stored results into evaluation input. Unclassified
// results keep their name so the join counts them as invalid predictions.
func Predictions(results []Result) []evaluation.Prediction {
	preds := make([]evaluation.Prediction, len(results))
	for i, r := range results {
		preds[i] = evaluation.Prediction{
			UID:        r.UID,
			Class:      r.Damage.String(),
			Confidence: r.Confidence,
		}
	}
	return preds
}

// FeatureCollection renders results as GeoJSON polygons styled by damage
// class. Results without a footprint are skipped.
func FeatureCollection(results []Result, footprints map[string]geometry.Footprint) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, r := range results {
		fp, ok := footprints[r.UID]
		if !ok {
			continue
		}

		f := geojson.NewFeature(orb.Polygon{fp.Ring})
		f.Properties["uid"] = r.UID
		f.Properties["damage"] = r.Damage.String()
		f.Properties["confidence"] = r.Confidence
		f.Properties["description"] = r.Explanation
		f.Properties["color"] = r.Damage.Color()
		fc.Append(f)
	}

	return fc
}

// FromRun converts a workflow run into stored results and issues.
func FromRun(run *workflow.Run) ([]Result, []Issue) {
	results := make([]Result, len(run.Results))
	for i, r := range run.Results {
		results[i] = Result{
			UID:         r.UID,
			Damage:      r.Class,
			Confidence:  r.Confidence,
			Explanation: r.Explanation,
		}
	}

	issues := make([]Issue, len(run.GeometryErrors))
	for i, ge := range run.GeometryErrors {
		issues[i] = Issue{UID: ge.UID, Reason: ge.Err.Error()}
	}
	return results, issues
}

// JoinTruth pairs results with ground-truth labels. Labels of footprints
// excluded before classification count as invalid geometry rather than as
// missing predictions.
func JoinTruth(results []Result, issues []Issue, truth []evaluation.Label) ([]evaluation.Record, evaluation.Mismatches) {
	truth, rejected := withoutRejected(truth, issues, results)

	records, mismatches := evaluation.Join(Predictions(results), truth)
	mismatches.InvalidGeometry += rejected
	return records, mismatches
}

// withoutRejected drops labels of footprints excluded before
// classification and returns how many were dropped. A uid that also has a
// result, such as the first of a duplicated pair, is kept.
func withoutRejected(truth []evaluation.Label, issues []Issue, results []Result) ([]evaluation.Label, int) {
	if len(issues) == 0 {
		return truth, 0
	}

	classified := make(map[string]bool, len(results))
	for _, res := range results {
		classified[res.UID] = true
	}

	rejected := make(map[string]bool, len(issues))
	for _, is := range issues {
		if !classified[is.UID] {
			rejected[is.UID] = true
		}
	}

	kept := make([]evaluation.Label, 0, len(truth))
	for _, l := range truth {
		if !rejected[l.UID] {
			kept = append(kept, l)
		}
	}
	return kept, len(truth) - len(kept)
}
