// Package evaluation scores damage predictions against ground-truth labels.
// Records that cannot be joined are excluded from every metric and counted
// by reason so a report always states how much of the input was usable.
package evaluation

import (
	"github.com/JaimeStill/vantage/internal/damage"
)

// Label is a ground-truth class for one building or tile. Class is kept
// raw so that values outside the label set are counted rather than lost.
type Label struct {
	UID   string `json:"uid"`
	Class string `json:"class"`
}

// Prediction is a predicted class for one building or tile.
type Prediction struct {
	UID        string   `json:"uid"`
	Class      string   `json:"class"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// Record is a prediction joined with its ground truth. Both classes
// belong to the label set.
type Record struct {
	UID        string       `json:"uid"`
	Truth      damage.Class `json:"truth"`
	Predicted  damage.Class `json:"predicted"`
	Confidence *float64     `json:"confidence,omitempty"`
}

// Mismatches counts excluded inputs by reason.
type Mismatches struct {
	MissingPrediction int `json:"missing_prediction"`
	MissingLabel      int `json:"missing_label"`
	InvalidLabel      int `json:"invalid_label"`
	InvalidPrediction int `json:"invalid_prediction"`
	InvalidGeometry   int `json:"invalid_geometry"`
}

// Total returns the number of excluded inputs.
func (m Mismatches) Total() int {
	return m.MissingPrediction + m.MissingLabel + m.InvalidLabel +
		m.InvalidPrediction + m.InvalidGeometry
}

// Add returns the element-wise sum of m and o.
func (m Mismatches) Add(o Mismatches) Mismatches {
	return Mismatches{
		MissingPrediction: m.MissingPrediction + o.MissingPrediction,
		MissingLabel:      m.MissingLabel + o.MissingLabel,
		InvalidLabel:      m.InvalidLabel + o.InvalidLabel,
		InvalidPrediction: m.InvalidPrediction + o.InvalidPrediction,
		InvalidGeometry:   m.InvalidGeometry + o.InvalidGeometry,
	}
}

// Join pairs predictions with labels by uid in label order. The first
// occurrence of a duplicated uid is used on either side. A predicted
// unclassified outcome is outside the label set and counts as an
// invalid prediction.
func Join(predictions []Prediction, labels []Label) ([]Record, Mismatches) {
	var m Mismatches

	byUID := make(map[string]Prediction, len(predictions))
	for _, p := range predictions {
		if _, ok := byUID[p.UID]; !ok {
			byUID[p.UID] = p
		}
	}

	records := make([]Record, 0, len(labels))
	joined := make(map[string]bool, len(labels))

	for _, l := range labels {
		if joined[l.UID] {
			continue
		}
		joined[l.UID] = true

		p, ok := byUID[l.UID]
		if !ok {
			m.MissingPrediction++
			continue
		}

		r, reason := pair(l.UID, l.Class, p.Class)
		switch reason {
		case invalidLabel:
			m.InvalidLabel++
			continue
		case invalidPrediction:
			m.InvalidPrediction++
			continue
		}

		r.Confidence = p.Confidence
		records = append(records, r)
	}

	for uid := range byUID {
		if !joined[uid] {
			m.MissingLabel++
		}
	}

	return records, m
}

type exclusion int

const (
	none exclusion = iota
	invalidLabel
	invalidPrediction
)

func pair(uid, truth, predicted string) (Record, exclusion) {
	t, err := damage.Parse(truth)
	if err != nil {
		return Record{}, invalidLabel
	}
	p, err := damage.Parse(predicted)
	if err != nil {
		return Record{}, invalidPrediction
	}
	return Record{UID: uid, Truth: t, Predicted: p}, none
}
