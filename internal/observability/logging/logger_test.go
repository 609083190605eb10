package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLoggerEmitsJSONWithServiceAttr(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "bldr-ingest", "info", "json")

	log.Info("started", "workers", 4)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if rec["service"] != "bldr-ingest" {
		t.Fatalf("expected service attr, got %v", rec["service"])
	}
	if rec["msg"] != "started" {
		t.Fatalf("expected msg, got %v", rec["msg"])
	}
}

func TestNewLoggerTextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "bldr-ingest", "info", "text")

	log.Info("started")

	out := buf.String()
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Fatalf("expected text output, got %q", out)
	}
	if !strings.Contains(out, "service=bldr-ingest") {
		t.Fatalf("expected service attr in text output, got %q", out)
	}
}

func TestNewLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "bldr-ingest", "warn", "json")

	log.Info("ignored")
	if buf.Len() != 0 {
		t.Fatalf("expected info suppressed at warn level, got %q", buf.String())
	}

	log.Warn("kept")
	if buf.Len() == 0 {
		t.Fatal("expected warn record to pass the level filter")
	}
}

func TestParseLevelUnknownDefaultsToInfo(t *testing.T) {
	if got := parseLevel("verbose"); got != slog.LevelInfo {
		t.Fatalf("expected info for unknown level, got %v", got)
	}
}
