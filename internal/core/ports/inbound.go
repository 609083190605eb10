package ports

import (
	"context"

	"github.com/s9034541160-source/bldr-ingest/internal/core/domain"
)

// DocumentIngestor runs the full ingestion pipeline over a directory tree.
type DocumentIngestor interface {
	IngestDirectory(ctx context.Context, root string, limit int) (domain.RunReport, error)
}

// FileProcessor runs the per-file state machine for one source file.
type FileProcessor interface {
	ProcessFile(ctx context.Context, file domain.SourceFile) domain.FileOutcome
}
