package resilience

import (
	"context"
	"errors"

	"github.com/s9034541160-source/bldr-ingest/internal/core/domain"
	"github.com/s9034541160-source/bldr-ingest/internal/core/ports"
)

// classifyStoreError drives retry and breaker accounting for the oracle and
// store decorators. Temporary and availability kinds are worth retrying;
// cancellation is neither retried nor counted against the breaker.
func classifyStoreError(err error) ErrorClassification {
	switch {
	case err == nil:
		return ErrorClassification{}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded),
		domain.IsKind(err, domain.ErrGraphConflict):
		return ErrorClassification{Retryable: false, RecordFailure: false}
	case IsCircuitOpen(err),
		domain.IsKind(err, domain.ErrTemporary),
		domain.IsKind(err, domain.ErrPersistenceUnavailable):
		return ErrorClassification{Retryable: true, RecordFailure: true}
	default:
		return ErrorClassification{Retryable: false, RecordFailure: true}
	}
}

// markUnavailable keeps the snapshot fallback reachable when a breaker is
// open: a rejected call is an availability failure, not a data error.
func markUnavailable(operation string, err error) error {
	if err == nil || !IsCircuitOpen(err) {
		return err
	}
	return domain.WrapError(domain.ErrPersistenceUnavailable, operation, err)
}

// Oracle retries embedding and similarity calls.
type Oracle struct {
	next ports.SemanticOracle
	exec *Executor
}

func WrapOracle(next ports.SemanticOracle, exec *Executor) *Oracle {
	return &Oracle{next: next, exec: exec}
}

func (o *Oracle) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	err := o.exec.Execute(ctx, "oracle.embed", func(ctx context.Context) error {
		var err error
		out, err = o.next.Embed(ctx, texts)
		return err
	}, classifyStoreError)
	return out, markUnavailable("oracle embed", err)
}

func (o *Oracle) ClassifySimilarity(ctx context.Context, text string, templates map[string]string) (string, float64, error) {
	var (
		label string
		score float64
	)
	err := o.exec.Execute(ctx, "oracle.classify", func(ctx context.Context) error {
		var err error
		label, score, err = o.next.ClassifySimilarity(ctx, text, templates)
		return err
	}, classifyStoreError)
	return label, score, err
}

// VectorStore retries Qdrant calls.
type VectorStore struct {
	next ports.VectorStore
	exec *Executor
}

func WrapVectorStore(next ports.VectorStore, exec *Executor) *VectorStore {
	return &VectorStore{next: next, exec: exec}
}

func (v *VectorStore) UpsertChunks(ctx context.Context, points []domain.ChunkPoint) error {
	err := v.exec.Execute(ctx, "vector.upsert", func(ctx context.Context) error {
		return v.next.UpsertChunks(ctx, points)
	}, classifyStoreError)
	return markUnavailable("vector upsert", err)
}

func (v *VectorStore) HasDocument(ctx context.Context, contentHash string) (bool, error) {
	var found bool
	err := v.exec.Execute(ctx, "vector.dedup_check", func(ctx context.Context) error {
		var err error
		found, err = v.next.HasDocument(ctx, contentHash)
		return err
	}, classifyStoreError)
	return found, err
}

// GraphStore retries Neo4j calls.
type GraphStore struct {
	next ports.GraphStore
	exec *Executor
}

func WrapGraphStore(next ports.GraphStore, exec *Executor) *GraphStore {
	return &GraphStore{next: next, exec: exec}
}

func (g *GraphStore) UpsertDocument(ctx context.Context, rec domain.FileRecord) error {
	err := g.exec.Execute(ctx, "graph.document", func(ctx context.Context) error {
		return g.next.UpsertDocument(ctx, rec)
	}, classifyStoreError)
	return markUnavailable("graph document", err)
}

func (g *GraphStore) UpsertReferences(ctx context.Context, contentHash string, refs []domain.NTDReference) error {
	err := g.exec.Execute(ctx, "graph.references", func(ctx context.Context) error {
		return g.next.UpsertReferences(ctx, contentHash, refs)
	}, classifyStoreError)
	return markUnavailable("graph references", err)
}

func (g *GraphStore) CreateWorkSequence(ctx context.Context, contentHash string, works []domain.WorkSequenceItem) error {
	err := g.exec.Execute(ctx, "graph.works", func(ctx context.Context) error {
		return g.next.CreateWorkSequence(ctx, contentHash, works)
	}, classifyStoreError)
	return markUnavailable("graph works", err)
}
