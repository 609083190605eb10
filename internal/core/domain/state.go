package domain

// FileState enumerates the per-file pipeline states. Skipped, Completed and
// Failed are terminal.
type FileState string

const (
	StateDiscovered          FileState = "discovered"
	StateValidated           FileState = "validated"
	StateSkipped             FileState = "skipped"
	StateExtracted           FileState = "extracted"
	StateClassified          FileState = "classified"
	StateStructured          FileState = "structurally_analyzed"
	StateRouted              FileState = "routed"
	StateReferencesExtracted FileState = "references_extracted"
	StateChunked             FileState = "chunked"
	StateMetadataExtracted   FileState = "metadata_extracted"
	StateQualityScored       FileState = "quality_scored"
	StatePersisted           FileState = "persisted"
	StateCompleted           FileState = "completed"
	StateFailed              FileState = "failed"
)

func (s FileState) Terminal() bool {
	return s == StateSkipped || s == StateCompleted || s == StateFailed
}

// FileOutcome is the terminal result of one file's pipeline run.
type FileOutcome struct {
	File        SourceFile    `json:"file"`
	State       FileState     `json:"state"`
	FailedStage string        `json:"failed_stage,omitempty"`
	Reason      string        `json:"reason,omitempty"`
	ChunkCount  int           `json:"chunk_count"`
	RefCount    int           `json:"reference_count"`
	Quality     QualityReport `json:"quality"`
	Warnings    []string      `json:"warnings,omitempty"`
}
