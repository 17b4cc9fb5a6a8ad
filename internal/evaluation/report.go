package evaluation

import (
	"encoding/json"

	"gonum.org/v1/gonum/stat"

	"github.com/JaimeStill/vantage/internal/damage"
)

const (
	undefined = "undefined"
	noData    = "no data"
)

// Metrics holds the precision, recall, and F1 for one class. A nil value
// is undefined because its denominator is zero.
type Metrics struct {
	Precision *float64 `json:"precision"`
	Recall    *float64 `json:"recall"`
	F1        *float64 `json:"f1"`
	Support   int      `json:"support"`
}

func (m Metrics) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Precision any `json:"precision"`
		Recall    any `json:"recall"`
		F1        any `json:"f1"`
		Support   int `json:"support"`
	}{
		Precision: orElse(m.Precision, undefined),
		Recall:    orElse(m.Recall, undefined),
		F1:        orElse(m.F1, undefined),
		Support:   m.Support,
	})
}

// Report is the outcome of an evaluation.
type Report struct {
	ConfusionMatrix ConfusionMatrix    `json:"confusion_matrix"`
	Accuracy        *float64           `json:"accuracy"`
	PerClass        map[string]Metrics `json:"per_class"`
	MacroAverages   Metrics            `json:"macro_averages"`
	Evaluated       int                `json:"evaluated"`
	Excluded        int                `json:"excluded"`
	UsableFraction  *float64           `json:"usable_fraction"`
	Mismatches      Mismatches         `json:"mismatches"`
}

func (r Report) MarshalJSON() ([]byte, error) {
	type alias Report
	return json.Marshal(struct {
		alias
		Accuracy       any `json:"accuracy"`
		UsableFraction any `json:"usable_fraction"`
	}{
		alias:          alias(r),
		Accuracy:       orElse(r.Accuracy, noData),
		UsableFraction: orElse(r.UsableFraction, noData),
	})
}

// Evaluate computes the confusion matrix and metrics over records.
// Mismatches are reported alongside and never affect metric values.
func Evaluate(records []Record, mismatches Mismatches) Report {
	var cm ConfusionMatrix
	correct := 0
	for _, r := range records {
		cm.Add(r.Truth, r.Predicted)
		if r.Truth == r.Predicted {
			correct++
		}
	}

	evaluated := cm.Total()
	excluded := mismatches.Total() + len(records) - evaluated

	report := Report{
		ConfusionMatrix: cm,
		PerClass:        make(map[string]Metrics, len(damage.Labels)),
		Evaluated:       evaluated,
		Excluded:        excluded,
		Mismatches:      mismatches,
	}

	if evaluated > 0 {
		report.Accuracy = ratio(correct, evaluated)
	}
	if total := evaluated + excluded; total > 0 {
		report.UsableFraction = ratio(evaluated, total)
	}

	var precisions, recalls, f1s []float64
	for _, c := range damage.Labels {
		m := classMetrics(&cm, c)
		report.PerClass[c.String()] = m

		precisions = appendDefined(precisions, m.Precision)
		recalls = appendDefined(recalls, m.Recall)
		f1s = appendDefined(f1s, m.F1)
	}

	report.MacroAverages = Metrics{
		Precision: mean(precisions),
		Recall:    mean(recalls),
		F1:        mean(f1s),
		Support:   evaluated,
	}

	return report
}

func classMetrics(cm *ConfusionMatrix, c damage.Class) Metrics {
	tp := cm[c][c]
	m := Metrics{
		Precision: ratio(tp, cm.Column(c)),
		Recall:    ratio(tp, cm.Row(c)),
		Support:   cm.Row(c),
	}

	if m.Precision != nil && m.Recall != nil {
		p, r := *m.Precision, *m.Recall
		f1 := 0.0
		if p+r > 0 {
			f1 = 2 * p * r / (p + r)
		}
		m.F1 = &f1
	}

	return m
}

func ratio(num, den int) *float64 {
	if den == 0 {
		return nil
	}
	v := float64(num) / float64(den)
	return &v
}

func mean(xs []float64) *float64 {
	if len(xs) == 0 {
		return nil
	}
	v := stat.Mean(xs, nil)
	return &v
}

func appendDefined(xs []float64, v *float64) []float64 {
	if v == nil {
		return xs
	}
	return append(xs, *v)
}

func orElse(v *float64, fallback string) any {
	if v == nil {
		return fallback
	}
	return *v
}
