// Package quality computes the advisory per-file ingestion quality report.
package quality

import "github.com/s9034541160-source/bldr-ingest/internal/core/domain"

const (
	lowConfidenceThreshold = 0.7
	minSections            = 2
	minChunks              = 3
	lowMetadataThreshold   = 0.3

	penaltyLowConfidence = 15
	penaltyFewSections   = 20
	penaltyFewChunks     = 10
	penaltyLowMetadata   = 15
	penaltyNoReferences  = 5
)

type Scorer struct{}

func NewScorer() *Scorer {
	return &Scorer{}
}

// Score starts at 100 and subtracts fixed penalties. Purely advisory: a low
// score never blocks persistence.
func (s *Scorer) Score(typeConfidence float64, sectionCount, chunkCount int, metadataQuality float64, referenceCount int) domain.QualityReport {
	report := domain.QualityReport{Score: 100}

	if typeConfidence < lowConfidenceThreshold {
		report.Score -= penaltyLowConfidence
		report.Issues = append(report.Issues, "низкая уверенность классификации типа документа")
		report.Recommendations = append(report.Recommendations, "проверить тип документа вручную")
	}
	if sectionCount < minSections {
		report.Score -= penaltyFewSections
		report.Issues = append(report.Issues, "структура документа не распознана")
		report.Recommendations = append(report.Recommendations, "проверить качество исходного файла или OCR")
	}
	if chunkCount < minChunks {
		report.Score -= penaltyFewChunks
		report.Issues = append(report.Issues, "слишком мало фрагментов для индексации")
	}
	if metadataQuality < lowMetadataThreshold {
		report.Score -= penaltyLowMetadata
		report.Issues = append(report.Issues, "метаданные извлечены не полностью")
	}
	if referenceCount == 0 && chunkCount >= minChunks {
		report.Score -= penaltyNoReferences
		report.Issues = append(report.Issues, "не найдено ссылок на нормативные документы")
	}

	if report.Score < 0 {
		report.Score = 0
	}
	return report
}
