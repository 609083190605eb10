package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/s9034541160-source/bldr-ingest/internal/core/domain"
)

func TestPointIDIsDeterministic(t *testing.T) {
	a := PointID("abc123:0")
	b := PointID("abc123:0")
	c := PointID("abc123:1")
	if a != b {
		t.Fatalf("same chunk id produced different point ids: %s vs %s", a, b)
	}
	if a == c {
		t.Fatalf("different chunk ids collided: %s", a)
	}
}

func TestUpsertChunksBatchesAndRewritesIDs(t *testing.T) {
	var upserts [][]map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut && r.URL.Path == "/collections/docs" {
			w.WriteHeader(http.StatusOK)
			return
		}
		if r.Method == http.MethodPut && r.URL.Path == "/collections/docs/points" {
			var payload struct {
				Points []map[string]any `json:"points"`
			}
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Fatalf("decode upsert: %v", err)
			}
			upserts = append(upserts, payload.Points)
			w.WriteHeader(http.StatusOK)
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := New(server.URL, "docs", 2)
	points := []domain.ChunkPoint{
		{PointID: "h:0", Vector: []float32{1, 0}, Payload: map[string]any{"content_hash": "h"}},
		{PointID: "h:1", Vector: []float32{0, 1}, Payload: map[string]any{"content_hash": "h"}},
		{PointID: "h:2", Vector: []float32{1, 1}, Payload: map[string]any{"content_hash": "h"}},
	}
	if err := client.UpsertChunks(context.Background(), points); err != nil {
		t.Fatalf("UpsertChunks() error = %v", err)
	}

	if len(upserts) != 2 {
		t.Fatalf("batches = %d, want 2", len(upserts))
	}
	if len(upserts[0]) != 2 || len(upserts[1]) != 1 {
		t.Fatalf("batch sizes = %d,%d", len(upserts[0]), len(upserts[1]))
	}
	if got := upserts[0][0]["id"]; got != PointID("h:0") {
		t.Fatalf("point id = %v, want %s", got, PointID("h:0"))
	}
}

func TestHasDocumentFiltersByContentHash(t *testing.T) {
	var capturedFilter map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/docs/points/scroll" {
			http.NotFound(w, r)
			return
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode scroll: %v", err)
		}
		capturedFilter, _ = payload["filter"].(map[string]any)
		_, _ = w.Write([]byte(`{"result":{"points":[{"id":"x"}]}}`))
	}))
	defer server.Close()

	client := New(server.URL, "docs", 0)
	found, err := client.HasDocument(context.Background(), "deadbeef")
	if err != nil {
		t.Fatalf("HasDocument() error = %v", err)
	}
	if !found {
		t.Fatal("expected found")
	}
	if capturedFilter == nil {
		t.Fatal("no filter sent")
	}
}

func TestHasDocumentMissingCollectionMeansAbsent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := New(server.URL, "docs", 0)
	found, err := client.HasDocument(context.Background(), "deadbeef")
	if err != nil {
		t.Fatalf("HasDocument() error = %v", err)
	}
	if found {
		t.Fatal("expected absent for missing collection")
	}
}
