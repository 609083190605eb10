// Package neo4j maintains the reference graph: Document and NTD nodes with
// REFERENCES_NTD edges, plus per-run Work chains linked by PRECEDES.
package neo4j

import (
	"context"
	"log/slog"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/s9034541160-source/bldr-ingest/internal/core/domain"
)

type Store struct {
	driver neo4j.DriverWithContext
	log    *slog.Logger
}

func New(ctx context.Context, uri, user, password string, log *slog.Logger) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, domain.WrapError(domain.ErrPersistenceUnavailable, "create neo4j driver", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, domain.WrapError(domain.ErrPersistenceUnavailable, "verify neo4j connectivity", err)
	}
	return &Store{driver: driver, log: log}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// UpsertDocument merges the Document node keyed by content hash, refreshing
// its mutable properties on re-ingestion.
func (s *Store) UpsertDocument(ctx context.Context, rec domain.FileRecord) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, `
			MERGE (d:Document {content_hash: $hash})
			SET d.path = $path,
			    d.doc_type = $doc_type,
			    d.subtype = $subtype,
			    d.confidence = $confidence,
			    d.chunk_count = $chunk_count,
			    d.quality_score = $quality_score,
			    d.processed_at = $processed_at`,
			map[string]any{
				"hash":          rec.ContentHash,
				"path":          rec.Path,
				"doc_type":      string(rec.DocType.Type),
				"subtype":       rec.DocType.Subtype,
				"confidence":    rec.DocType.Confidence,
				"chunk_count":   rec.ChunkCount,
				"quality_score": rec.QualityScore,
				"processed_at":  rec.ProcessedAt.UTC().Format("2006-01-02T15:04:05Z"),
			})
		return nil, err
	})
	if err != nil {
		return domain.WrapError(domain.ErrPersistenceUnavailable, "merge document node", err)
	}
	return nil
}

// UpsertReferences merges the NTD nodes the document cites and the edges to
// them. NTD nodes are shared across documents, so canonical IDs must be
// stable before this call.
func (s *Store) UpsertReferences(ctx context.Context, contentHash string, refs []domain.NTDReference) error {
	if len(refs) == 0 {
		return nil
	}
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, ref := range refs {
			_, err := tx.Run(ctx, `
				MATCH (d:Document {content_hash: $hash})
				MERGE (n:NTD {canonical_id: $canonical_id})
				SET n.document_type = $document_type
				MERGE (d)-[r:REFERENCES_NTD]->(n)
				SET r.confidence = $confidence,
				    r.raw_text = $raw_text,
				    r.context = $context`,
				map[string]any{
					"hash":          contentHash,
					"canonical_id":  ref.CanonicalID,
					"document_type": string(ref.DocumentType),
					"confidence":    ref.Confidence,
					"raw_text":      ref.RawText,
					"context":       ref.Context,
				})
			if err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return domain.WrapError(domain.ErrPersistenceUnavailable, "merge ntd references", err)
	}
	s.log.Debug("references merged", "content_hash", contentHash, "count", len(refs))
	return nil
}

// CreateWorkSequence writes the work chain for ppr/smeta/norms documents.
// Work nodes are created fresh each run; stale chains from a previous run
// of the same document are removed first.
func (s *Store) CreateWorkSequence(ctx context.Context, contentHash string, works []domain.WorkSequenceItem) error {
	if len(works) == 0 {
		return nil
	}
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, `
			MATCH (d:Document {content_hash: $hash})-[:CONTAINS]->(w:Work)
			DETACH DELETE w`,
			map[string]any{"hash": contentHash}); err != nil {
			return nil, err
		}

		for i, work := range works {
			_, err := tx.Run(ctx, `
				MATCH (d:Document {content_hash: $hash})
				CREATE (w:Work {
					name: $name,
					seq: $seq,
					duration_days: $duration_days,
					priority: $priority,
					quality: $quality,
					doc_type: $doc_type,
					section: $section
				})
				CREATE (d)-[:CONTAINS]->(w)`,
				map[string]any{
					"hash":          contentHash,
					"name":          work.Name,
					"seq":           i,
					"duration_days": work.DurationDays,
					"priority":      work.Priority,
					"quality":       work.Quality,
					"doc_type":      string(work.DocType),
					"section":       work.Section,
				})
			if err != nil {
				return nil, err
			}
		}

		for _, work := range works {
			for _, dep := range work.Dependencies {
				_, err := tx.Run(ctx, `
					MATCH (d:Document {content_hash: $hash})-[:CONTAINS]->(prev:Work {name: $prev})
					MATCH (d)-[:CONTAINS]->(next:Work {name: $next})
					CREATE (prev)-[:PRECEDES]->(next)`,
					map[string]any{
						"hash": contentHash,
						"prev": dep,
						"next": work.Name,
					})
				if err != nil {
					return nil, err
				}
			}
		}
		return nil, nil
	})
	if err != nil {
		return domain.WrapError(domain.ErrPersistenceUnavailable, "create work sequence", err)
	}
	s.log.Debug("work sequence created", "content_hash", contentHash, "count", len(works))
	return nil
}
