// Package qdrant talks to the Qdrant REST API directly. Point IDs are
// derived from the chunk IDs, so re-ingesting an unchanged document
// overwrites its points instead of duplicating them.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/s9034541160-source/bldr-ingest/internal/core/domain"
)

type Client struct {
	baseURL    string
	collection string
	batchSize  int
	httpClient *http.Client

	ensureMu          sync.Mutex
	ensuredCollection bool
	ensuredVectorSize int
}

func New(baseURL, collection string, batchSize int) *Client {
	if batchSize <= 0 {
		batchSize = 64
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		batchSize:  batchSize,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// pointNamespace fixes the UUID namespace for chunk-derived point IDs.
var pointNamespace = uuid.MustParse("8e2b6c52-4a47-4f19-9d3e-1b5a0c7d9e21")

// PointID maps a chunk ID onto a stable UUID accepted by Qdrant.
func PointID(chunkID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(chunkID)).String()
}

func (c *Client) UpsertChunks(ctx context.Context, points []domain.ChunkPoint) error {
	if len(points) == 0 {
		return nil
	}
	if err := c.ensureCollection(ctx, len(points[0].Vector)); err != nil {
		return err
	}

	type qdrantPoint struct {
		ID      string         `json:"id"`
		Vector  []float32      `json:"vector"`
		Payload map[string]any `json:"payload"`
	}

	for start := 0; start < len(points); start += c.batchSize {
		end := start + c.batchSize
		if end > len(points) {
			end = len(points)
		}
		batch := make([]qdrantPoint, 0, end-start)
		for _, p := range points[start:end] {
			batch = append(batch, qdrantPoint{
				ID:      PointID(p.PointID),
				Vector:  p.Vector,
				Payload: p.Payload,
			})
		}

		body, err := json.Marshal(map[string]any{"points": batch})
		if err != nil {
			return fmt.Errorf("marshal upsert body: %w", err)
		}

		url := fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, c.collection)
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create upsert request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return domain.WrapError(domain.ErrPersistenceUnavailable, "qdrant upsert", err)
		}
		status := resp.StatusCode
		resp.Body.Close()
		if status >= 300 {
			return domain.WrapError(domain.ErrPersistenceUnavailable, "qdrant upsert",
				fmt.Errorf("status %d", status))
		}
	}
	return nil
}

// HasDocument reports whether any point carries the given content hash. Used
// as the dedup cross-check against the ledger.
func (c *Client) HasDocument(ctx context.Context, contentHash string) (bool, error) {
	reqBody := map[string]any{
		"limit":        1,
		"with_payload": false,
		"with_vector":  false,
		"filter": map[string]any{
			"must": []map[string]any{
				{
					"key":   "content_hash",
					"match": map[string]any{"value": contentHash},
				},
			},
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return false, fmt.Errorf("marshal scroll body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points/scroll", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("create scroll request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, domain.WrapError(domain.ErrPersistenceUnavailable, "qdrant scroll", err)
	}
	defer resp.Body.Close()

	// A missing collection simply means nothing was indexed yet.
	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode >= 300 {
		return false, domain.WrapError(domain.ErrPersistenceUnavailable, "qdrant scroll",
			fmt.Errorf("status %s", resp.Status))
	}

	var scrollResp struct {
		Result struct {
			Points []struct {
				ID any `json:"id"`
			} `json:"points"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&scrollResp); err != nil {
		return false, fmt.Errorf("decode scroll response: %w", err)
	}
	return len(scrollResp.Result.Points) > 0, nil
}

func (c *Client) ensureCollection(ctx context.Context, vectorSize int) error {
	c.ensureMu.Lock()
	if c.ensuredCollection && c.ensuredVectorSize == vectorSize {
		c.ensureMu.Unlock()
		return nil
	}
	c.ensureMu.Unlock()

	reqBody := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal create collection body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create collection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.WrapError(domain.ErrPersistenceUnavailable, "qdrant ensure collection", err)
	}
	defer resp.Body.Close()

	// 200/201 for create, 409 if already exists (depends on version/config).
	if resp.StatusCode == http.StatusConflict {
		c.markCollectionEnsured(vectorSize)
		return nil
	}
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if msg := strings.TrimSpace(string(body)); msg != "" {
			return domain.WrapError(domain.ErrPersistenceUnavailable, "qdrant ensure collection",
				fmt.Errorf("status %s: %s", resp.Status, msg))
		}
		return domain.WrapError(domain.ErrPersistenceUnavailable, "qdrant ensure collection",
			fmt.Errorf("status %s", resp.Status))
	}
	c.markCollectionEnsured(vectorSize)
	return nil
}

func (c *Client) markCollectionEnsured(vectorSize int) {
	c.ensureMu.Lock()
	defer c.ensureMu.Unlock()
	c.ensuredCollection = true
	c.ensuredVectorSize = vectorSize
}
