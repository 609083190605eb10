package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClassifySimilarityPicksClosestTemplate(t *testing.T) {
	// Orthogonal unit vectors per input keyword make cosine outcomes exact.
	vectors := map[string][]float32{
		"смета на строительство": {0.9, 0.1, 0},
		"шаблон смет":            {1, 0, 0},
		"шаблон норм":            {0, 1, 0},
	}
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		var payload struct {
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		out := make([][]float32, len(payload.Input))
		for i, text := range payload.Input {
			v, ok := vectors[text]
			if !ok {
				t.Fatalf("unexpected embed input %q", text)
			}
			out[i] = v
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"embeddings": out})
	}))
	defer server.Close()

	client := New(server.URL, "embed-model")
	templates := map[string]string{
		"smeta": "шаблон смет",
		"norms": "шаблон норм",
	}

	label, score, err := client.ClassifySimilarity(context.Background(), "смета на строительство", templates)
	if err != nil {
		t.Fatalf("ClassifySimilarity() error = %v", err)
	}
	if label != "smeta" {
		t.Fatalf("label = %s, want smeta", label)
	}
	if score < 0.9 {
		t.Fatalf("score = %f, want >= 0.9", score)
	}

	firstRun := requests
	if _, _, err := client.ClassifySimilarity(context.Background(), "смета на строительство", templates); err != nil {
		t.Fatalf("second ClassifySimilarity() error = %v", err)
	}
	if requests != firstRun+1 {
		t.Fatalf("template embeddings not cached: %d extra requests", requests-firstRun-1)
	}
}

func TestEmbedCountMismatchFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings":[[1,0]]}`))
	}))
	defer server.Close()

	client := New(server.URL, "embed-model")
	_, err := client.Embed(context.Background(), []string{"a", "b"})
	if err == nil || !strings.Contains(err.Error(), "mismatch") {
		t.Fatalf("expected mismatch error, got %v", err)
	}
}

func TestEmbedIncludesHTTPBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	client := New(server.URL, "embed-model")
	_, err := client.Embed(context.Background(), []string{"hello"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("expected response body in error, got %v", err)
	}
}
