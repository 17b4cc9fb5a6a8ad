package storage_test

import (
	"strings"
	"testing"

	"github.com/JaimeStill/vantage/pkg/storage"
)

func TestFinalizeDefaults(t *testing.T) {
	cfg := storage.Config{ConnectionString: "test-connection"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.Provider != storage.ProviderAzure {
		t.Errorf("provider: got %s, want azure", cfg.Provider)
	}
	if cfg.ContainerName != "tiles" {
		t.Errorf("container_name: got %s, want tiles", cfg.ContainerName)
	}
}

func TestFinalizeEnvOverrides(t *testing.T) {
	t.Setenv("TEST_PROVIDER", "local")
	t.Setenv("TEST_ROOT", "/var/lib/vantage")

	env := &storage.Env{
		Provider: "TEST_PROVIDER",
		Root:     "TEST_ROOT",
	}

	cfg := storage.Config{}
	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.Provider != storage.ProviderLocal {
		t.Errorf("provider: got %s, want local", cfg.Provider)
	}
	if cfg.Root != "/var/lib/vantage" {
		t.Errorf("root: got %s, want /var/lib/vantage", cfg.Root)
	}
}

func TestFinalizeValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     storage.Config
		wantErr string
	}{
		{
			name:    "azure without credentials",
			cfg:     storage.Config{ContainerName: "tiles"},
			wantErr: "connection_string or account_url required",
		},
		{
			name: "azure with account url",
			cfg:  storage.Config{AccountURL: "https://acct.blob.core.windows.net"},
		},
		{
			name: "local defaults root",
			cfg:  storage.Config{Provider: storage.ProviderLocal},
		},
		{
			name:    "unknown provider",
			cfg:     storage.Config{Provider: "s3"},
			wantErr: "unknown storage provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := storage.Config{Provider: "azure", ContainerName: "tiles", ConnectionString: "base"}
	base.Merge(&storage.Config{ConnectionString: "overlay"})

	if base.ConnectionString != "overlay" {
		t.Errorf("connection_string: got %s, want overlay", base.ConnectionString)
	}
	if base.ContainerName != "tiles" {
		t.Errorf("container_name: got %s, want tiles", base.ContainerName)
	}
}
