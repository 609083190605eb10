package domain

import "time"

// DocType is the closed set of recognized construction-document categories.
type DocType string

const (
	TypeNorms     DocType = "norms"
	TypePPR       DocType = "ppr"
	TypeSmeta     DocType = "smeta"
	TypeProjects  DocType = "projects"
	TypeEstimates DocType = "estimates"
	TypeContracts DocType = "contracts"
	TypeFinance   DocType = "finance"
	TypeSafety    DocType = "safety"
	TypeOther     DocType = "other"
)

// KnownDocTypes lists every classifiable type except the catch-all.
func KnownDocTypes() []DocType {
	return []DocType{
		TypeNorms, TypePPR, TypeSmeta, TypeProjects,
		TypeEstimates, TypeContracts, TypeFinance, TypeSafety,
	}
}

type DetectionMethod string

const (
	DetectRegex    DetectionMethod = "regex"
	DetectSemantic DetectionMethod = "semantic"
	DetectEnsemble DetectionMethod = "ensemble"
)

// DocTypeInfo is the classifier verdict consumed by every later stage.
type DocTypeInfo struct {
	Type       DocType         `json:"type"`
	Subtype    string          `json:"subtype,omitempty"`
	Confidence float64         `json:"confidence"`
	Method     DetectionMethod `json:"method"`
}

// SourceFile describes a discovered file. The path may change after routing;
// the content hash never does once computed.
type SourceFile struct {
	Path        string    `json:"path"`
	ContentHash string    `json:"content_hash"`
	Size        int64     `json:"size"`
	TypeHint    DocType   `json:"type_hint,omitempty"`
	Discovered  time.Time `json:"discovered_at"`
}

type ExtractionMethod string

const (
	ExtractNative        ExtractionMethod = "native"
	ExtractNativePartial ExtractionMethod = "native_partial"
	ExtractOCR           ExtractionMethod = "ocr"
	ExtractDesperate     ExtractionMethod = "desperate"
	ExtractFailed        ExtractionMethod = "failed"
)

// ExtractedText holds the text produced for one source file. It is scoped to
// a single pipeline run and never persisted standalone.
type ExtractedText struct {
	ContentHash string           `json:"content_hash"`
	Text        string           `json:"text"`
	Method      ExtractionMethod `json:"method"`
}

// FileRecord is the per-file ingestion record handed to the graph store.
type FileRecord struct {
	ContentHash  string      `json:"content_hash"`
	Path         string      `json:"path"`
	DocType      DocTypeInfo `json:"doc_type"`
	ChunkCount   int         `json:"chunk_count"`
	QualityScore float64     `json:"quality_score"`
	ProcessedAt  time.Time   `json:"processed_at"`
}
