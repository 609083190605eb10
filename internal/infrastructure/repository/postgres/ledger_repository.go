package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/s9034541160-source/bldr-ingest/internal/core/domain"
)

// LedgerRepository is the processed-files ledger: one row per content hash,
// overwritten on re-ingestion.
type LedgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *LedgerRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across concurrent worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS processed_files (
	content_hash TEXT PRIMARY KEY,
	original_path TEXT NOT NULL,
	processed_at TIMESTAMPTZ NOT NULL,
	chunk_count INTEGER NOT NULL DEFAULT 0,
	doc_type TEXT NOT NULL,
	quality_score DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_processed_files_doc_type ON processed_files(doc_type);

CREATE TABLE IF NOT EXISTS move_history (
	id BIGSERIAL PRIMARY KEY,
	moved_at TIMESTAMPTZ NOT NULL,
	original_path TEXT NOT NULL,
	new_path TEXT NOT NULL,
	doc_type TEXT NOT NULL,
	reason TEXT NOT NULL
);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// Get returns the ledger entry for a hash, or nil when never processed.
func (r *LedgerRepository) Get(ctx context.Context, contentHash string) (*domain.LedgerEntry, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT content_hash, original_path, processed_at, chunk_count, doc_type, quality_score
FROM processed_files
WHERE content_hash = $1
`, contentHash)

	var entry domain.LedgerEntry
	var docType string
	err := row.Scan(&entry.ContentHash, &entry.OriginalPath, &entry.ProcessedAt,
		&entry.ChunkCount, &docType, &entry.QualityScore)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan ledger entry: %w", err)
	}
	entry.DocType = domain.DocType(docType)
	return &entry, nil
}

func (r *LedgerRepository) Put(ctx context.Context, entry domain.LedgerEntry) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO processed_files (content_hash, original_path, processed_at, chunk_count, doc_type, quality_score)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (content_hash) DO UPDATE
SET original_path = EXCLUDED.original_path,
    processed_at = EXCLUDED.processed_at,
    chunk_count = EXCLUDED.chunk_count,
    doc_type = EXCLUDED.doc_type,
    quality_score = EXCLUDED.quality_score
`, entry.ContentHash, entry.OriginalPath, entry.ProcessedAt, entry.ChunkCount,
		string(entry.DocType), entry.QualityScore)
	if err != nil {
		return fmt.Errorf("upsert ledger entry: %w", err)
	}
	return nil
}
