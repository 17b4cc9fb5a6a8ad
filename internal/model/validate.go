package model

import (
	"fmt"
	"strings"

	"github.com/JaimeStill/vantage/internal/damage"
	"github.com/JaimeStill/vantage/pkg/formatting"
)

type rawPrediction struct {
	UID         string   `json:"uid"`
	Damage      string   `json:"damage"`
	Confidence  *float64 `json:"confidence"`
	Description string   `json:"description"`
}

// Validate parses a model response into predictions. The response must be
// a JSON list, optionally inside a markdown code fence, where every element
// has a non-empty uid and a damage value from the label set. Confidence,
// when present, must lie within [0, 1]. Any violation rejects the whole
// payload with a *ValidationError.
func Validate(content string) ([]Prediction, error) {
	raw, err := formatting.Parse[[]rawPrediction](content)
	if err != nil {
		return nil, &ValidationError{Reason: "response is not a JSON list", Err: err}
	}
	if raw == nil {
		return nil, &ValidationError{Reason: "response is null, not a JSON list"}
	}

	preds := make([]Prediction, 0, len(raw))
	for i, r := range raw {
		uid := strings.TrimSpace(r.UID)
		if uid == "" {
			return nil, &ValidationError{Reason: fmt.Sprintf("element %d missing uid", i)}
		}

		class, err := damage.Parse(r.Damage)
		if err != nil {
			return nil, &ValidationError{Reason: fmt.Sprintf("element %d (%s)", i, uid), Err: err}
		}

		if r.Confidence != nil && (*r.Confidence < 0 || *r.Confidence > 1) {
			return nil, &ValidationError{
				Reason: fmt.Sprintf("element %d (%s) confidence %v outside [0, 1]", i, uid, *r.Confidence),
			}
		}

		preds = append(preds, Prediction{
			UID:         uid,
			Class:       class,
			Confidence:  r.Confidence,
			Description: strings.TrimSpace(r.Description),
		})
	}

	return preds, nil
}
