package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"taskdesk/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Dir != dir {
		t.Errorf("expected dir %q, got %q", dir, cfg.Dir)
	}
	if cfg.Backend != config.BackendREST {
		t.Errorf("expected backend %q, got %q", config.BackendREST, cfg.Backend)
	}
	if cfg.SessionStore != config.SessionStoreFile {
		t.Errorf("expected session store %q, got %q", config.SessionStoreFile, cfg.SessionStore)
	}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("expected timeout 10s, got %s", cfg.Timeout)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := "server: https://tasks.example.com/api/\nsession_store: sqlite\ntimeout: 3s\nrequire_due_date: true\n"
	if err := os.WriteFile(filepath.Join(dir, config.FileName), []byte(yaml), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv("TASKDESK_OUTPUT", "yaml")

	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server != "https://tasks.example.com/api" {
		t.Errorf("expected trailing slash trimmed, got %q", cfg.Server)
	}
	if cfg.SessionStore != config.SessionStoreSQLite {
		t.Errorf("expected sqlite session store, got %q", cfg.SessionStore)
	}
	if cfg.Timeout != 3*time.Second {
		t.Errorf("expected timeout 3s, got %s", cfg.Timeout)
	}
	if !cfg.RequireDueDate {
		t.Error("expected require_due_date to be true")
	}
	if cfg.Output != config.OutputYAML {
		t.Errorf("expected output from env, got %q", cfg.Output)
	}
}

func TestLoad_InvalidBackend(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, config.FileName), []byte("backend: carrier-pigeon\n"), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	_, err := config.Load(dir)
	if err == nil {
		t.Fatal("expected error for unknown backend")
	}
	if err.Error() != "unknown backend: carrier-pigeon" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDefaultConfigDir_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got := config.DefaultConfigDir(); got != filepath.Join("/tmp/xdg", config.AppName) {
		t.Errorf("unexpected dir %q", got)
	}
}
