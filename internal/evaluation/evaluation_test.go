package evaluation_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JaimeStill/vantage/internal/damage"
	"github.com/JaimeStill/vantage/internal/evaluation"
)

func approx(t *testing.T, name string, got *float64, want float64) {
	t.Helper()
	if got == nil {
		t.Errorf("%s: got undefined, want %v", name, want)
		return
	}
	if math.Abs(*got-want) > 1e-9 {
		t.Errorf("%s: got %v, want %v", name, *got, want)
	}
}

func records(truth, predicted []damage.Class) []evaluation.Record {
	out := make([]evaluation.Record, len(truth))
	for i := range truth {
		out[i] = evaluation.Record{Truth: truth[i], Predicted: predicted[i]}
	}
	return out
}

func TestEvaluateExample(t *testing.T) {
	a, b := damage.NoDamage, damage.Destroyed
	report := evaluation.Evaluate(
		records([]damage.Class{a, a, b, b}, []damage.Class{a, b, b, b}),
		evaluation.Mismatches{},
	)

	approx(t, "accuracy", report.Accuracy, 0.75)

	var want evaluation.ConfusionMatrix
	want[a][a] = 1
	want[a][b] = 1
	want[b][b] = 2
	if diff := cmp.Diff(want, report.ConfusionMatrix); diff != "" {
		t.Errorf("confusion matrix mismatch (-want +got):\n%s", diff)
	}

	na := report.PerClass[a.String()]
	approx(t, "no-damage precision", na.Precision, 1)
	approx(t, "no-damage recall", na.Recall, 0.5)
	approx(t, "no-damage f1", na.F1, 2.0/3.0)

	nb := report.PerClass[b.String()]
	approx(t, "destroyed precision", nb.Precision, 2.0/3.0)
	approx(t, "destroyed recall", nb.Recall, 1)
	approx(t, "destroyed f1", nb.F1, 0.8)

	minor := report.PerClass[damage.MinorDamage.String()]
	if minor.Precision != nil || minor.Recall != nil || minor.F1 != nil {
		t.Errorf("minor-damage metrics should be undefined, got %+v", minor)
	}

	approx(t, "macro precision", report.MacroAverages.Precision, (1+2.0/3.0)/2)
	approx(t, "macro recall", report.MacroAverages.Recall, 0.75)
	approx(t, "usable fraction", report.UsableFraction, 1)
}

func TestEvaluateMatrixSums(t *testing.T) {
	truth := []damage.Class{0, 0, 1, 2, 2, 2, 1, 0}
	pred := []damage.Class{0, 1, 1, 2, 0, 2, 2, 0}
	report := evaluation.Evaluate(records(truth, pred), evaluation.Mismatches{})

	cm := report.ConfusionMatrix
	for _, c := range damage.Labels {
		var rows, cols int
		for i := range truth {
			if truth[i] == c {
				rows++
			}
			if pred[i] == c {
				cols++
			}
		}
		if cm.Row(c) != rows {
			t.Errorf("%s row sum: got %d, want %d", c, cm.Row(c), rows)
		}
		if cm.Column(c) != cols {
			t.Errorf("%s column sum: got %d, want %d", c, cm.Column(c), cols)
		}
	}
}

func TestEvaluateNoData(t *testing.T) {
	report := evaluation.Evaluate(nil, evaluation.Mismatches{InvalidLabel: 2})

	if report.Accuracy != nil {
		t.Errorf("accuracy: got %v, want no data", *report.Accuracy)
	}
	if report.MacroAverages.F1 != nil {
		t.Errorf("macro f1: got %v, want undefined", *report.MacroAverages.F1)
	}
	approx(t, "usable fraction", report.UsableFraction, 0)
	if report.Excluded != 2 {
		t.Errorf("excluded: got %d, want 2", report.Excluded)
	}

	data, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if out["accuracy"] != "no data" {
		t.Errorf("accuracy json: got %v, want \"no data\"", out["accuracy"])
	}

	cm, ok := out["confusion_matrix"].(map[string]any)
	if !ok || len(cm) != 3 {
		t.Fatalf("confusion_matrix should list all three rows, got %v", out["confusion_matrix"])
	}

	perClass := out["per_class"].(map[string]any)
	destroyed := perClass["destroyed"].(map[string]any)
	if destroyed["precision"] != "undefined" {
		t.Errorf("precision json: got %v, want \"undefined\"", destroyed["precision"])
	}
	if _, ok := out["macro_averages"]; !ok {
		t.Error("macro_averages missing from output")
	}
}

func TestF1ZeroWhenDefined(t *testing.T) {
	// minor-damage is predicted and present but never correct.
	report := evaluation.Evaluate(
		records(
			[]damage.Class{damage.MinorDamage, damage.NoDamage},
			[]damage.Class{damage.NoDamage, damage.MinorDamage},
		),
		evaluation.Mismatches{},
	)

	approx(t, "minor precision", report.PerClass[damage.MinorDamage.String()].Precision, 0)
	approx(t, "minor recall", report.PerClass[damage.MinorDamage.String()].Recall, 0)
	approx(t, "minor f1", report.PerClass[damage.MinorDamage.String()].F1, 0)
}

func TestJoin(t *testing.T) {
	predictions := []evaluation.Prediction{
		{UID: "a", Class: "no-damage"},
		{UID: "b", Class: "destroyed"},
		{UID: "c", Class: "unclassified"},
		{UID: "d", Class: "minor-damage"},
		{UID: "orphan", Class: "destroyed"},
	}
	labels := []evaluation.Label{
		{UID: "a", Class: "no-damage"},
		{UID: "b", Class: "minor-damage"},
		{UID: "c", Class: "destroyed"},
		{UID: "d", Class: "major-damage"},
		{UID: "e", Class: "destroyed"},
	}

	got, m := evaluation.Join(predictions, labels)

	want := []evaluation.Record{
		{UID: "a", Truth: damage.NoDamage, Predicted: damage.NoDamage},
		{UID: "b", Truth: damage.MinorDamage, Predicted: damage.Destroyed},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}

	wantM := evaluation.Mismatches{
		MissingPrediction: 1,
		MissingLabel:      1,
		InvalidLabel:      1,
		InvalidPrediction: 1,
	}
	if diff := cmp.Diff(wantM, m); diff != "" {
		t.Errorf("mismatches (-want +got):\n%s", diff)
	}

	report := evaluation.Evaluate(got, m)
	if report.Evaluated != 2 || report.Excluded != 4 {
		t.Errorf("evaluated/excluded: got %d/%d, want 2/4", report.Evaluated, report.Excluded)
	}
	approx(t, "usable fraction", report.UsableFraction, 2.0/6.0)
}
