package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/s9034541160-source/bldr-ingest/internal/core/domain"
)

type fakeVectorStore struct {
	calls    int
	failures int
	err      error
}

func (f *fakeVectorStore) UpsertChunks(ctx context.Context, points []domain.ChunkPoint) error {
	f.calls++
	if f.calls <= f.failures {
		return f.err
	}
	return nil
}

func (f *fakeVectorStore) HasDocument(ctx context.Context, contentHash string) (bool, error) {
	f.calls++
	if f.calls <= f.failures {
		return false, f.err
	}
	return true, nil
}

type fakeOracle struct {
	calls int
	err   error
}

func (f *fakeOracle) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1}
	}
	return out, nil
}

func (f *fakeOracle) ClassifySimilarity(ctx context.Context, text string, templates map[string]string) (string, float64, error) {
	f.calls++
	return "norms", 0.9, f.err
}

func retryOnlyExecutor() *Executor {
	return NewExecutor(Config{
		MaxAttempts:    3,
		InitialDelay:   1 * time.Millisecond,
		MaxDelay:       2 * time.Millisecond,
		BackoffFactor:  2,
		BreakerEnabled: false,
	}, nil)
}

func TestVectorUpsertRetriesUnavailableStore(t *testing.T) {
	store := &fakeVectorStore{
		failures: 2,
		err:      domain.WrapError(domain.ErrPersistenceUnavailable, "qdrant upsert", errors.New("503")),
	}
	wrapped := WrapVectorStore(store, retryOnlyExecutor())

	if err := wrapped.UpsertChunks(context.Background(), []domain.ChunkPoint{{PointID: "h:0"}}); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if store.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", store.calls)
	}
}

func TestOracleEmbedDoesNotRetryDataError(t *testing.T) {
	oracle := &fakeOracle{err: errors.New("embed count mismatch")}
	wrapped := WrapOracle(oracle, retryOnlyExecutor())

	_, err := wrapped.Embed(context.Background(), []string{"текст"})
	if err == nil {
		t.Fatal("expected error")
	}
	if oracle.calls != 1 {
		t.Fatalf("data errors must not retry, got %d attempts", oracle.calls)
	}
}

func TestOracleEmbedRetriesTemporaryError(t *testing.T) {
	oracle := &fakeOracle{err: domain.WrapError(domain.ErrTemporary, "ollama embed", errors.New("502"))}
	wrapped := WrapOracle(oracle, retryOnlyExecutor())

	_, err := wrapped.Embed(context.Background(), []string{"текст"})
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error after retries, got %v", err)
	}
	if oracle.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", oracle.calls)
	}
}

func TestOpenBreakerReportsStoreUnavailable(t *testing.T) {
	exec := NewExecutor(Config{
		MaxAttempts:        1,
		InitialDelay:       1 * time.Millisecond,
		MaxDelay:           1 * time.Millisecond,
		BackoffFactor:      2,
		BreakerEnabled:     true,
		BreakerMinCalls:    2,
		BreakerFailureRate: 0.5,
		BreakerCooldown:    time.Minute,
		BreakerProbeCalls:  1,
	}, nil)
	store := &fakeVectorStore{
		failures: 100,
		err:      domain.WrapError(domain.ErrPersistenceUnavailable, "qdrant upsert", errors.New("connection refused")),
	}
	wrapped := WrapVectorStore(store, exec)

	for i := 0; i < 2; i++ {
		if err := wrapped.UpsertChunks(context.Background(), nil); err == nil {
			t.Fatalf("expected failure on call %d", i)
		}
	}

	callsBefore := store.calls
	err := wrapped.UpsertChunks(context.Background(), nil)
	if store.calls != callsBefore {
		t.Fatal("open circuit must not reach the store")
	}
	if !domain.IsKind(err, domain.ErrPersistenceUnavailable) {
		t.Fatalf("open circuit must report the store unavailable, got %v", err)
	}
}
