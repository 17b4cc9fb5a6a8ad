// Package labels decodes xView2-style building label files. Stripped files
// carry only uid and WKT geometry; ground-truth files add the damage subtype.
package labels

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/JaimeStill/vantage/internal/evaluation"
	"github.com/JaimeStill/vantage/internal/geometry"
)

// Label file errors. ErrInvalidLabels indicates the document is not valid
// JSON or is missing the features.lng_lat list.
var (
	ErrInvalidLabels = errors.New("invalid label file")
	ErrMissingUID    = errors.New("feature missing uid")
)

// Properties holds the per-feature metadata of a label file.
type Properties struct {
	UID         string `json:"uid"`
	FeatureType string `json:"feature_type,omitempty"`
	Subtype     string `json:"subtype,omitempty"`
}

// Feature is a single building entry in a label file.
type Feature struct {
	Properties Properties `json:"properties"`
	WKT        string     `json:"wkt"`
}

// File is a decoded label document.
type File struct {
	Features struct {
		LngLat []Feature `json:"lng_lat"`
	} `json:"features"`
}

// Decode reads a label document from r.
func Decode(r io.Reader) (*File, error) {
	var raw struct {
		Features *struct {
			LngLat []Feature `json:"lng_lat"`
		} `json:"features"`
	}

	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLabels, err)
	}
	if raw.Features == nil || raw.Features.LngLat == nil {
		return nil, fmt.Errorf("%w: missing features.lng_lat", ErrInvalidLabels)
	}

	f := &File{}
	f.Features.LngLat = raw.Features.LngLat
	return f, nil
}

// Footprints parses each feature's geometry in file order. Features whose
// WKT cannot be parsed are returned as geometry errors and excluded.
// Duplicate uids keep their first occurrence.
func (f *File) Footprints() ([]geometry.Footprint, []*geometry.GeometryError) {
	footprints := make([]geometry.Footprint, 0, len(f.Features.LngLat))
	failures := make([]*geometry.GeometryError, 0)
	seen := make(map[string]bool, len(f.Features.LngLat))

	for _, feat := range f.Features.LngLat {
		uid := feat.Properties.UID
		if uid == "" {
			failures = append(failures, &geometry.GeometryError{Err: ErrMissingUID})
			continue
		}
		if seen[uid] {
			failures = append(failures, &geometry.GeometryError{UID: uid, Err: geometry.ErrDuplicateUID})
			continue
		}
		seen[uid] = true

		ring, err := geometry.ParseRing(feat.WKT)
		if err != nil {
			failures = append(failures, &geometry.GeometryError{UID: uid, Err: err})
			continue
		}

		footprints = append(footprints, geometry.Footprint{UID: uid, Ring: ring})
	}

	return footprints, failures
}

// GroundTruth returns the uid and raw subtype of every feature that
// carries a subtype, in file order. Subtypes are not validated here so
// that values outside the label set are counted during evaluation.
func (f *File) GroundTruth() []evaluation.Label {
	truth := make([]evaluation.Label, 0, len(f.Features.LngLat))
	seen := make(map[string]bool, len(f.Features.LngLat))

	for _, feat := range f.Features.LngLat {
		uid := feat.Properties.UID
		if uid == "" || feat.Properties.Subtype == "" || seen[uid] {
			continue
		}
		seen[uid] = true
		truth = append(truth, evaluation.Label{UID: uid, Class: feat.Properties.Subtype})
	}
	return truth
}

// HasGroundTruth reports whether any feature carries a damage subtype.
func (f *File) HasGroundTruth() bool {
	for _, feat := range f.Features.LngLat {
		if feat.Properties.Subtype != "" {
			return true
		}
	}
	return false
}

// Polygons returns the parsed outer ring of each feature by uid.
// Features whose geometry cannot be parsed are omitted.
func (f *File) Polygons() map[string]geometry.Footprint {
	footprints, _ := f.Footprints()
	out := make(map[string]geometry.Footprint, len(footprints))
	for _, fp := range footprints {
		out[fp.UID] = fp
	}
	return out
}

// Count returns the number of features in the file.
func (f *File) Count() int {
	return len(f.Features.LngLat)
}
