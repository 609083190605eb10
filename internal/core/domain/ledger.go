package domain

import "time"

// LedgerEntry records the outcome of one full ingestion. Keyed by content
// hash; the pipeline appends or overwrites, never deletes.
type LedgerEntry struct {
	ContentHash  string    `json:"content_hash"`
	OriginalPath string    `json:"original_path"`
	ProcessedAt  time.Time `json:"processed_at"`
	ChunkCount   int       `json:"chunk_count"`
	DocType      DocType   `json:"doc_type"`
	QualityScore float64   `json:"quality_score"`
}

// Move records one file relocation performed by the router. The history log
// is append-only; undo pops the last entry.
type Move struct {
	Timestamp    time.Time `json:"timestamp"`
	OriginalPath string    `json:"original_path"`
	NewPath      string    `json:"new_path"`
	DocType      DocType   `json:"doc_type"`
	Reason       string    `json:"reason"`
}
