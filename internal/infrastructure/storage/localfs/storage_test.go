package localfs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMoveCreatesTargetDirs(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "eingang.pdf")
	if err := os.WriteFile(src, []byte("inhalt"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	dst := filepath.Join(dir, "Kunde", "28307 - Meier", "2025", "abgelegt.pdf")
	store := New()
	if err := store.Move(src, dst); err != nil {
		t.Fatalf("move: %v", err)
	}

	data, err := os.ReadFile(dst)
	if err != nil || string(data) != "inhalt" {
		t.Fatalf("target content = %q, %v", data, err)
	}
	if store.Exists(src) {
		t.Error("source still present after move")
	}
}

func TestMoveRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "neu.pdf")
	dst := filepath.Join(dir, "vorhanden.pdf")
	if err := os.WriteFile(src, []byte("neu"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	if err := os.WriteFile(dst, []byte("alt"), 0o644); err != nil {
		t.Fatalf("write target: %v", err)
	}

	store := New()
	if err := store.Move(src, dst); err == nil {
		t.Fatal("expected error for existing target")
	}
	data, _ := os.ReadFile(dst)
	if string(data) != "alt" {
		t.Errorf("target overwritten: %q", data)
	}
	if !store.Exists(src) {
		t.Error("source vanished despite refused move")
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	store := New()
	if store.Exists(filepath.Join(dir, "fehlt.pdf")) {
		t.Error("missing file reported as existing")
	}
	path := filepath.Join(dir, "da.pdf")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !store.Exists(path) {
		t.Error("existing file not found")
	}
}
