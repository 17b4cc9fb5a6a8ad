package evaluation

import (
	"encoding/json"

	"github.com/JaimeStill/vantage/internal/damage"
)

const classCount = int(damage.Unclassified)

// ConfusionMatrix counts records by ground truth (row) and prediction
// (column), indexed by damage class ordinal.
type ConfusionMatrix [classCount][classCount]int

// Add increments the cell for a labeled truth and prediction.
func (m *ConfusionMatrix) Add(truth, predicted damage.Class) {
	if !truth.Labeled() || !predicted.Labeled() {
		return
	}
	m[truth][predicted]++
}

// Row returns the number of records with the given ground truth.
func (m *ConfusionMatrix) Row(truth damage.Class) int {
	var n int
	for _, v := range m[truth] {
		n += v
	}
	return n
}

// Column returns the number of records predicted as the given class.
func (m *ConfusionMatrix) Column(predicted damage.Class) int {
	var n int
	for i := range m {
		n += m[i][predicted]
	}
	return n
}

// Total returns the number of records in the matrix.
func (m *ConfusionMatrix) Total() int {
	var n int
	for _, c := range damage.Labels {
		n += m.Row(c)
	}
	return n
}

// MarshalJSON writes every ground-truth row, including all-zero rows,
// as a nested object keyed by class label.
func (m ConfusionMatrix) MarshalJSON() ([]byte, error) {
	out := make(map[string]map[string]int, classCount)
	for _, t := range damage.Labels {
		row := make(map[string]int, classCount)
		for _, p := range damage.Labels {
			row[p.String()] = m[t][p]
		}
		out[t.String()] = row
	}
	return json.Marshal(out)
}
