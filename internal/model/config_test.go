package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/JaimeStill/vantage/internal/model"
)

func TestConfigFinalizeDefaults(t *testing.T) {
	cfg := model.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.Provider != model.ProviderAnthropic {
		t.Errorf("provider: got %s, want %s", cfg.Provider, model.ProviderAnthropic)
	}
	if cfg.MaxTokens != 16384 {
		t.Errorf("max_tokens: got %d, want 16384", cfg.MaxTokens)
	}
	if cfg.TimeoutDuration() != 2*time.Minute {
		t.Errorf("timeout: got %s, want 2m", cfg.TimeoutDuration())
	}
}

func TestConfigFinalizeEnv(t *testing.T) {
	t.Setenv("TEST_MODEL_NAME", "claude-opus-4-1")
	t.Setenv("TEST_MODEL_MAX_TOKENS", "2048")
	t.Setenv("TEST_MODEL_API_KEY", "secret")

	env := &model.Env{
		Name:      "TEST_MODEL_NAME",
		MaxTokens: "TEST_MODEL_MAX_TOKENS",
		APIKey:    "TEST_MODEL_API_KEY",
	}

	cfg := model.Config{Name: "from-file"}
	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.Name != "claude-opus-4-1" {
		t.Errorf("name: got %s, want claude-opus-4-1", cfg.Name)
	}
	if cfg.MaxTokens != 2048 {
		t.Errorf("max_tokens: got %d, want 2048", cfg.MaxTokens)
	}
	if cfg.APIKey != "secret" {
		t.Errorf("api_key: got %s, want secret", cfg.APIKey)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  model.Config
	}{
		{name: "unknown provider", cfg: model.Config{Provider: "gemini"}},
		{name: "bad timeout", cfg: model.Config{Timeout: "soon"}},
		{name: "negative max tokens", cfg: model.Config{MaxTokens: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Finalize(nil); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}

	cfg := model.Config{Provider: "gemini"}
	if err := cfg.Finalize(nil); !errors.Is(err, model.ErrUnknownProvider) {
		t.Errorf("expected ErrUnknownProvider, got %v", err)
	}
}

func TestConfigMerge(t *testing.T) {
	base := model.Config{Name: "base", Timeout: "1m", MaxTokens: 100}
	base.Merge(&model.Config{Name: "overlay"})

	if base.Name != "overlay" {
		t.Errorf("name: got %s, want overlay", base.Name)
	}
	if base.Timeout != "1m" || base.MaxTokens != 100 {
		t.Errorf("zero overlay fields should not overwrite: %+v", base)
	}
}
