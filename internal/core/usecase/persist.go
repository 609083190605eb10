package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/s9034541160-source/bldr-ingest/internal/core/domain"
	"github.com/s9034541160-source/bldr-ingest/internal/core/ports"
)

// Persister commits a file's chunks and graph edges. Implementations must
// degrade to local snapshots instead of failing when a store is down.
type Persister interface {
	Persist(ctx context.Context, file domain.SourceFile, info domain.DocTypeInfo,
		chunks []domain.Chunk, refs []domain.NTDReference, meta domain.Metadata,
		quality domain.QualityReport) (domain.FileRecord, []string, error)
}

// Gateway is the dual-store persistence path: embeddings into the vector
// store, Document/NTD/Work nodes into the graph. Store outages downgrade to
// JSON snapshots so a run never loses data.
type Gateway struct {
	oracle    ports.SemanticOracle
	vectors   ports.VectorStore
	graph     ports.GraphStore
	snapshots ports.SnapshotStore
	events    ports.EventPublisher
	batchSize int
	log       *slog.Logger
}

func NewGateway(oracle ports.SemanticOracle, vectors ports.VectorStore, graph ports.GraphStore,
	snapshots ports.SnapshotStore, events ports.EventPublisher, batchSize int, log *slog.Logger) *Gateway {
	if batchSize <= 0 {
		batchSize = 64
	}
	return &Gateway{
		oracle:    oracle,
		vectors:   vectors,
		graph:     graph,
		snapshots: snapshots,
		events:    events,
		batchSize: batchSize,
		log:       log,
	}
}

func (g *Gateway) Persist(ctx context.Context, file domain.SourceFile, info domain.DocTypeInfo,
	chunks []domain.Chunk, refs []domain.NTDReference, meta domain.Metadata,
	quality domain.QualityReport) (domain.FileRecord, []string, error) {

	record := domain.FileRecord{
		ContentHash:  file.ContentHash,
		Path:         file.Path,
		DocType:      info,
		ChunkCount:   len(chunks),
		QualityScore: quality.Score,
		ProcessedAt:  time.Now().UTC(),
	}

	var warnings []string

	if err := g.persistChunks(ctx, file, info, chunks); err != nil {
		if !domain.IsKind(err, domain.ErrPersistenceUnavailable) {
			return record, warnings, err
		}
		warnings = append(warnings, g.snapshotFallback(ctx, file.ContentHash+"_chunks", chunks, err))
	}

	if err := g.persistGraph(ctx, record, refs, meta); err != nil {
		if !domain.IsKind(err, domain.ErrPersistenceUnavailable) {
			return record, warnings, err
		}
		payload := map[string]any{"record": record, "references": refs, "works": meta.Works}
		warnings = append(warnings, g.snapshotFallback(ctx, file.ContentHash+"_graph", payload, err))
	}

	if g.events != nil {
		if err := g.events.PublishDocumentIndexed(ctx, record); err != nil {
			g.log.Warn("indexed event not published", "content_hash", file.ContentHash, "error", err)
			warnings = append(warnings, "событие индексации не опубликовано")
		}
	}
	return record, warnings, nil
}

func (g *Gateway) persistChunks(ctx context.Context, file domain.SourceFile, info domain.DocTypeInfo, chunks []domain.Chunk) error {
	for start := 0; start < len(chunks); start += g.batchSize {
		end := start + g.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Content
		}
		vectors, err := g.oracle.Embed(ctx, texts)
		if err != nil {
			return domain.WrapError(domain.ErrPersistenceUnavailable, "embed chunk batch", err)
		}
		if len(vectors) != len(batch) {
			return domain.WrapError(domain.ErrPersistenceUnavailable, "embed chunk batch",
				fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(batch)))
		}

		points := make([]domain.ChunkPoint, len(batch))
		for i, c := range batch {
			points[i] = domain.ChunkPoint{
				PointID: c.ID,
				Vector:  vectors[i],
				Payload: map[string]any{
					"content_hash": file.ContentHash,
					"chunk_index":  start + i,
					"text":         c.Content,
					"chunk_type":   string(c.Type),
					"path":         c.Path,
					"level":        c.HierarchyLevel,
					"title":        c.Title,
					"doc_type":     string(info.Type),
					"subtype":      info.Subtype,
				},
			}
		}
		if err := g.vectors.UpsertChunks(ctx, points); err != nil {
			return err
		}
		g.log.Debug("chunk batch upserted", "content_hash", file.ContentHash,
			"from", start, "to", end, "total", len(chunks))
	}
	return nil
}

func (g *Gateway) persistGraph(ctx context.Context, record domain.FileRecord,
	refs []domain.NTDReference, meta domain.Metadata) error {
	if err := g.graph.UpsertDocument(ctx, record); err != nil {
		return err
	}
	if err := g.graph.UpsertReferences(ctx, record.ContentHash, refs); err != nil {
		if domain.IsKind(err, domain.ErrGraphConflict) {
			g.log.Warn("graph reference conflict ignored", "content_hash", record.ContentHash, "error", err)
			return nil
		}
		return err
	}
	if len(meta.Works) > 0 && worksApplicable(record.DocType.Type) {
		if err := g.graph.CreateWorkSequence(ctx, record.ContentHash, meta.Works); err != nil {
			if domain.IsKind(err, domain.ErrGraphConflict) {
				g.log.Warn("work sequence conflict ignored", "content_hash", record.ContentHash, "error", err)
				return nil
			}
			return err
		}
	}
	return nil
}

func worksApplicable(t domain.DocType) bool {
	return t == domain.TypePPR || t == domain.TypeSmeta || t == domain.TypeNorms
}

func (g *Gateway) snapshotFallback(ctx context.Context, key string, value any, cause error) string {
	g.log.Warn("store unavailable, writing snapshot", "key", key, "error", cause)
	if g.snapshots == nil {
		return fmt.Sprintf("хранилище недоступно, снапшот не настроен: %s", key)
	}
	if err := g.snapshots.SaveJSON(ctx, key, value); err != nil {
		g.log.Error("snapshot write failed", "key", key, "error", err)
		return fmt.Sprintf("хранилище недоступно, снапшот не записан: %s", key)
	}
	return fmt.Sprintf("хранилище недоступно, данные сохранены в снапшот: %s", key)
}
