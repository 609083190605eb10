package domain

// Metadata holds fields harvested from a document's structure and tables.
// CategoryQuality is the bounded sub-score fed into the quality report.
type Metadata struct {
	Materials     []string           `json:"materials,omitempty"`
	Dates         []string           `json:"dates,omitempty"`
	Finances      []string           `json:"finances,omitempty"`
	DocNumbers    []string           `json:"doc_numbers,omitempty"`
	Requirements  []string           `json:"requirements,omitempty"`
	CostItems     []CostItem         `json:"cost_items,omitempty"`
	CostTotal     float64            `json:"cost_total,omitempty"`
	Works         []WorkSequenceItem `json:"works,omitempty"`
	CategoryScore float64            `json:"category_score"`
}

// CostItem is one priced line of an estimate document.
type CostItem struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// QualityReport is the advisory completeness assessment for one ingestion.
// It never blocks the pipeline.
type QualityReport struct {
	Score           float64  `json:"score"`
	Issues          []string `json:"issues,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// RunReport summarizes one whole ingestion run. Always produced, even when
// individual files fail.
type RunReport struct {
	FilesFound     int      `json:"files_found"`
	FilesProcessed int      `json:"files_processed"`
	FilesSkipped   int      `json:"files_skipped"`
	FilesFailed    int      `json:"files_failed"`
	ChunksTotal    int      `json:"chunks_total"`
	ReferenceTotal int      `json:"references_total"`
	SuccessRate    float64  `json:"success_rate"`
	QualityIssues  []string `json:"quality_issues,omitempty"`
}
