package snapshot

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestSaveJSONWritesAndOverwrites(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := store.SaveJSON(context.Background(), "abc123_chunks", map[string]int{"count": 3}); err != nil {
		t.Fatalf("SaveJSON() error = %v", err)
	}
	if err := store.SaveJSON(context.Background(), "abc123_chunks", map[string]int{"count": 5}); err != nil {
		t.Fatalf("second SaveJSON() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "abc123_chunks.json"))
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	var got map[string]int
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["count"] != 5 {
		t.Fatalf("count = %d, want 5", got["count"])
	}
}

func TestSaveJSONSanitizesKey(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := store.SaveJSON(context.Background(), "a/b:c", "x"); err != nil {
		t.Fatalf("SaveJSON() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "a_b_c.json")); err != nil {
		t.Fatalf("sanitized file missing: %v", err)
	}
}
