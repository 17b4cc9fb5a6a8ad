// Package model defines the vision model capability used to classify
// building damage, along with strict validation of model output and
// provider implementations.
package model

import (
	"context"

	"github.com/JaimeStill/vantage/internal/damage"
	"github.com/JaimeStill/vantage/internal/geometry"
)

// ImagePair holds the encoded pre- and post-event tile images.
type ImagePair struct {
	Pre       []byte
	Post      []byte
	MediaType string
}

// Descriptor locates a single building within the image pair.
type Descriptor struct {
	UID string            `json:"uid"`
	Box geometry.PixelBox `json:"box"`
}

// Prediction is one building classification returned by a model.
type Prediction struct {
	UID         string       `json:"uid"`
	Class       damage.Class `json:"damage"`
	Confidence  *float64     `json:"confidence,omitempty"`
	Description string       `json:"description"`
}

// Classifier classifies a batch of located buildings against an image pair.
// Implementations return *RateLimitError or *TransportError for conditions
// worth retrying and *ValidationError when the response is malformed.
type Classifier interface {
	Name() string
	Classify(ctx context.Context, images ImagePair, descriptors []Descriptor) ([]Prediction, error)
}
