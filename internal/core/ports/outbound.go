package ports

import (
	"context"

	"github.com/s9034541160-source/bldr-ingest/internal/core/domain"
)

// TextExtractor runs the escalating extraction chain for one file. It never
// fails outright: the worst case is a placeholder with method=failed.
type TextExtractor interface {
	Extract(ctx context.Context, file domain.SourceFile) (domain.ExtractedText, error)
}

// DocumentClassifier types a document from its text and filename.
type DocumentClassifier interface {
	Classify(ctx context.Context, text, filename string) (domain.DocTypeInfo, error)
}

// StructuralAnalyzer builds the section tree plus tables and lists.
type StructuralAnalyzer interface {
	Analyze(ctx context.Context, text string) (domain.Structure, error)
}

// ReferenceExtractor finds normative-document references in text.
type ReferenceExtractor interface {
	ExtractReferences(text string) []domain.NTDReference
	ExtractFromBibliography(text string) []domain.NTDReference
}

// Chunker turns a section tree into path-addressed chunks.
type Chunker interface {
	Chunk(contentHash string, structure domain.Structure) []domain.Chunk
}

// MetadataExtractor harvests typed fields from structure and tables.
type MetadataExtractor interface {
	ExtractMetadata(structure domain.Structure, docType domain.DocTypeInfo) domain.Metadata
}

// QualityScorer produces the advisory per-file quality report.
type QualityScorer interface {
	Score(typeConfidence float64, sectionCount, chunkCount int, metadataQuality float64, referenceCount int) domain.QualityReport
}

// FileRouter relocates a classified file into the folder taxonomy.
type FileRouter interface {
	Route(ctx context.Context, file domain.SourceFile, info domain.DocTypeInfo) (string, error)
	Undo(ctx context.Context) (*domain.Move, error)
}

// SemanticOracle is the external embedding/similarity capability. Model
// identity and loading are out of scope.
type SemanticOracle interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	ClassifySimilarity(ctx context.Context, text string, templates map[string]string) (label string, score float64, err error)
}

// OCREngine renders PDF pages to images and recognizes their text.
type OCREngine interface {
	RenderPages(ctx context.Context, pdfPath string, first, last, dpi int) ([]string, error)
	Recognize(ctx context.Context, imagePath string, languages []string) (string, error)
}

// VectorStore persists chunk points and answers the dedup cross-check.
type VectorStore interface {
	UpsertChunks(ctx context.Context, points []domain.ChunkPoint) error
	HasDocument(ctx context.Context, contentHash string) (bool, error)
}

// GraphStore writes the normative-reference graph. Document and NTD nodes
// use MERGE semantics; work-sequence nodes are created per run.
type GraphStore interface {
	UpsertDocument(ctx context.Context, rec domain.FileRecord) error
	UpsertReferences(ctx context.Context, contentHash string, refs []domain.NTDReference) error
	CreateWorkSequence(ctx context.Context, contentHash string, works []domain.WorkSequenceItem) error
}

// LedgerStore is the at-most-once ingestion gate.
type LedgerStore interface {
	Get(ctx context.Context, contentHash string) (*domain.LedgerEntry, error)
	Put(ctx context.Context, entry domain.LedgerEntry) error
}

// MoveHistory records router moves for undo.
type MoveHistory interface {
	Append(ctx context.Context, move domain.Move) error
	PopLast(ctx context.Context) (*domain.Move, error)
}

// SnapshotStore keeps local JSON fallbacks when remote stores are down.
type SnapshotStore interface {
	SaveJSON(ctx context.Context, key string, value any) error
}

// EventPublisher notifies downstream consumers about indexed documents.
type EventPublisher interface {
	PublishDocumentIndexed(ctx context.Context, rec domain.FileRecord) error
}
