package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestTextExtractUTF8WithBOM(t *testing.T) {
	path := writeTempFile(t, "doc.txt", append([]byte{0xEF, 0xBB, 0xBF}, "Общие требования"...))

	got, err := NewTextStrategy().Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "Общие требования" {
		t.Fatalf("text = %q", got)
	}
}

func TestTextExtractCP1251(t *testing.T) {
	// "СНиП №5 — «Бетон»… 20°" in Windows-1251.
	raw := []byte{
		0xD1, 0xCD, 0xE8, 0xCF, 0x20, 0xB9, 0x35, 0x20,
		0x97, 0x20, 0xAB, 0xC1, 0xE5, 0xF2, 0xEE, 0xED,
		0xBB, 0x85, 0x20, 0x32, 0x30, 0xB0,
	}
	path := writeTempFile(t, "legacy.txt", raw)

	got, err := NewTextStrategy().Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := "СНиП №5 — «Бетон»… 20°"
	if got != want {
		t.Fatalf("text = %q, want %q", got, want)
	}
}
