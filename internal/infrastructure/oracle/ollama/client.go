// Package ollama implements the semantic oracle on top of a local Ollama
// embedding endpoint. Template embeddings are computed lazily and cached
// for the lifetime of the client.
package ollama

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"
)

type Client struct {
	baseURL    string
	embedModel string
	httpClient *http.Client

	mu            sync.Mutex
	templateCache map[string][]float32
}

func New(baseURL, embedModel string) *Client {
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		embedModel:    embedModel,
		httpClient:    &http.Client{Timeout: 120 * time.Second},
		templateCache: make(map[string][]float32),
	}
}

func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	request := map[string]any{
		"model": c.embedModel,
		"input": texts,
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := c.postJSON(ctx, "/api/embed", request, &response, "embed"); err != nil {
		return nil, err
	}
	if len(response.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embed count mismatch: got %d for %d inputs", len(response.Embeddings), len(texts))
	}
	return response.Embeddings, nil
}

// ClassifySimilarity embeds the text and compares it to each category
// template by cosine similarity, returning the best-scoring label.
func (c *Client) ClassifySimilarity(ctx context.Context, text string, templates map[string]string) (string, float64, error) {
	if len(templates) == 0 {
		return "", 0, fmt.Errorf("no templates provided")
	}

	vectors, err := c.Embed(ctx, []string{text})
	if err != nil {
		return "", 0, err
	}
	textVec := vectors[0]

	bestLabel := ""
	bestScore := -1.0
	for label, template := range templates {
		tmplVec, err := c.templateVector(ctx, template)
		if err != nil {
			return "", 0, err
		}
		score := cosine(textVec, tmplVec)
		if score > bestScore || (score == bestScore && label < bestLabel) {
			bestLabel = label
			bestScore = score
		}
	}
	return bestLabel, bestScore, nil
}

func (c *Client) templateVector(ctx context.Context, template string) ([]float32, error) {
	c.mu.Lock()
	cached, ok := c.templateCache[template]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	vectors, err := c.Embed(ctx, []string{template})
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.templateCache[template] = vectors[0]
	c.mu.Unlock()
	return vectors[0], nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
