package model_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/JaimeStill/vantage/internal/damage"
	"github.com/JaimeStill/vantage/internal/geometry"
	"github.com/JaimeStill/vantage/internal/model"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
		wantErr bool
	}{
		{
			name:    "plain list",
			content: `[{"uid": "a", "damage": "destroyed", "confidence": 0.9, "description": "Reduced to ash"}]`,
			want:    1,
		},
		{
			name:    "fenced list",
			content: "```json\n[{\"uid\": \"a\", \"damage\": \"no-damage\"}, {\"uid\": \"b\", \"damage\": \"minor-damage\"}]\n```",
			want:    2,
		},
		{name: "empty list", content: `[]`, want: 0},
		{name: "null", content: `null`, wantErr: true},
		{name: "fenced null", content: "```json\nnull\n```", wantErr: true},
		{name: "object not list", content: `{"uid": "a", "damage": "destroyed"}`, wantErr: true},
		{name: "prose", content: "I could not classify these buildings.", wantErr: true},
		{name: "missing uid", content: `[{"damage": "destroyed"}]`, wantErr: true},
		{name: "label outside set", content: `[{"uid": "a", "damage": "major-damage"}]`, wantErr: true},
		{name: "missing damage", content: `[{"uid": "a"}]`, wantErr: true},
		{name: "confidence above one", content: `[{"uid": "a", "damage": "destroyed", "confidence": 1.5}]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			preds, err := model.Validate(tt.content)
			if tt.wantErr {
				var ve *model.ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("expected *ValidationError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate error: %v", err)
			}
			if len(preds) != tt.want {
				t.Errorf("got %d predictions, want %d", len(preds), tt.want)
			}
		})
	}
}

func TestValidateFields(t *testing.T) {
	preds, err := model.Validate(`[{"uid": " a ", "damage": "Minor-Damage", "confidence": 0.4, "description": " cracked roof "}]`)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}

	p := preds[0]
	if p.UID != "a" {
		t.Errorf("uid: got %q, want a", p.UID)
	}
	if p.Class != damage.MinorDamage {
		t.Errorf("class: got %s, want minor-damage", p.Class)
	}
	if p.Confidence == nil || *p.Confidence != 0.4 {
		t.Errorf("confidence: got %v, want 0.4", p.Confidence)
	}
	if p.Description != "cracked roof" {
		t.Errorf("description: got %q, want cracked roof", p.Description)
	}
}

func TestPrompt(t *testing.T) {
	prompt := model.Prompt([]model.Descriptor{
		{UID: "abc", Box: geometry.PixelBox{XMin: 1, YMin: 2, XMax: 30, YMax: 40}},
		{UID: "def", Box: geometry.PixelBox{XMin: 5, YMin: 6, XMax: 7, YMax: 8}},
	})

	for _, want := range []string{
		"There are 2 buildings",
		"UID: abc, Location: pixel bbox [1,2 to 30,40]",
		"UID: def, Location: pixel bbox [5,6 to 7,8]",
		`Do NOT use "major-damage"`,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
