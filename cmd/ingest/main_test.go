package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/s9034541160-source/bldr-ingest/internal/observability/metrics"
)

func TestMetricsMuxRoutes(t *testing.T) {
	mux := newMetricsMux(metrics.NewIngestMetrics("bldr-ingest").Handler())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz: code=%d body=%q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: code=%d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/other", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown path: code=%d", rec.Code)
	}
}
