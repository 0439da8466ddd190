package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shpitdev/smsnotify/internal/config"
)

func TestLoad_DefaultsWhenNothingSet(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Workers != 100 {
		t.Fatalf("workers = %d, want 100", cfg.Workers)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Fatalf("request timeout = %s, want 5s", cfg.RequestTimeout)
	}
	if cfg.DefaultRegion != "AU" {
		t.Fatalf("region = %q, want AU", cfg.DefaultRegion)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "smsnotify.yaml")
	content := "sender: FileSender\nworkers: 7\nrequest_timeout: 9s\ndefault_region: NZ\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("SENDER_NAME", "EnvSender")
	t.Setenv("REQUEST_TIMEOUT", "2s")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Sender != "EnvSender" {
		t.Fatalf("sender = %q, want env value", cfg.Sender)
	}
	if cfg.RequestTimeout != 2*time.Second {
		t.Fatalf("request timeout = %s, want env value", cfg.RequestTimeout)
	}
	if cfg.Workers != 7 {
		t.Fatalf("workers = %d, want file value", cfg.Workers)
	}
	if cfg.DefaultRegion != "NZ" {
		t.Fatalf("region = %q, want file value", cfg.DefaultRegion)
	}
}

func TestLoad_RejectsUnknownFileKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "smsnotify.yaml")
	if err := os.WriteFile(path, []byte("snder: typo\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := config.Load(path); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestLoad_RejectsBadEnvValues(t *testing.T) {
	t.Setenv("WORKERS", "lots")
	if _, err := config.Load(""); err == nil {
		t.Fatal("expected error for non-numeric WORKERS")
	}
}

func TestValidate(t *testing.T) {
	cfg := config.Default()
	cfg.Token = "t"
	cfg.Sender = "ACME"
	cfg.InputFile = "in.csv"
	cfg.OutputFile = "out.csv"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("complete config should validate: %v", err)
	}

	missingToken := cfg
	missingToken.Token = ""
	if err := missingToken.Validate(); err == nil {
		t.Fatal("expected error for missing token")
	}

	badWorkers := cfg
	badWorkers.Workers = 0
	if err := badWorkers.Validate(); err == nil {
		t.Fatal("expected error for zero workers")
	}
}
