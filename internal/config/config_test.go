package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "fehlt.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ClearThreshold != 0.6 {
		t.Errorf("clear_threshold = %v", cfg.ClearThreshold)
	}
	if cfg.ExtractWorkers != 2 {
		t.Errorf("extract_workers = %d", cfg.ExtractWorkers)
	}
	if cfg.Template != "Standard" {
		t.Errorf("template = %q", cfg.Template)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archiv.yaml")
	content := "archive_root: /srv/archiv\nclear_threshold: 0.75\nextract_workers: 4\nlog_level: debug\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ArchiveRoot != "/srv/archiv" {
		t.Errorf("archive_root = %q", cfg.ArchiveRoot)
	}
	if cfg.ClearThreshold != 0.75 {
		t.Errorf("clear_threshold = %v", cfg.ClearThreshold)
	}
	if cfg.ExtractWorkers != 4 {
		t.Errorf("extract_workers = %d", cfg.ExtractWorkers)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log_level = %q", cfg.LogLevel)
	}
	// Untouched keys keep their defaults.
	if cfg.UnclearDir != "./archiv/Unklar" {
		t.Errorf("unclear_dir = %q", cfg.UnclearDir)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archiv.yaml")
	if err := os.WriteFile(path, []byte("archive_root: /aus/datei\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	t.Setenv("ARCHIVE_ROOT", "/aus/umgebung")
	t.Setenv("ARCHIVE_CLEAR_THRESHOLD", "0.8")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ArchiveRoot != "/aus/umgebung" {
		t.Errorf("archive_root = %q", cfg.ArchiveRoot)
	}
	if cfg.ClearThreshold != 0.8 {
		t.Errorf("clear_threshold = %v", cfg.ClearThreshold)
	}
}

func TestLoadRejectsBadThreshold(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archiv.yaml")
	if err := os.WriteFile(path, []byte("clear_threshold: 1.5\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for threshold > 1")
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kaputt.yaml")
	if err := os.WriteFile(path, []byte(":\n  - [\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
