package assessments

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JaimeStill/vantage/internal/damage"
	"github.com/JaimeStill/vantage/internal/evaluation"
)

func TestWithoutRejected(t *testing.T) {
	truth := []evaluation.Label{
		{UID: "a", Class: "no-damage"},
		{UID: "b", Class: "destroyed"},
		{UID: "c", Class: "destroyed"},
	}
	issues := []Issue{
		{UID: "b", Reason: "degenerate polygon"},
		{UID: "c", Reason: "duplicate uid"},
	}
	results := []Result{
		{UID: "a", Damage: damage.NoDamage},
		{UID: "c", Damage: damage.Destroyed},
	}

	kept, rejected := withoutRejected(truth, issues, results)

	want := []evaluation.Label{
		{UID: "a", Class: "no-damage"},
		{UID: "c", Class: "destroyed"},
	}
	if diff := cmp.Diff(want, kept); diff != "" {
		t.Errorf("kept (-want +got):\n%s", diff)
	}
	if rejected != 1 {
		t.Errorf("rejected: got %d, want 1", rejected)
	}
}

func TestExportKey(t *testing.T) {
	id := [16]byte{1}
	if got := exportKey(id); got != "assessments/01000000-0000-0000-0000-000000000000/assessment.geojson" {
		t.Errorf("got %s", got)
	}
}
