// Package metadata harvests typed fields from analyzed document structure:
// a generic pass over every section and table, then a doc-type-specific pass.
package metadata

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/s9034541160-source/bldr-ingest/internal/core/domain"
)

var (
	materialRe = regexp.MustCompile(`(?i)(бетон(?:ная\s+смесь)?|арматур[аы]|кирпич|цемент|щебень|песок|раствор|сталь|древесина|гидроизоляция)(?:\s+(?:класса|марки)\s+\S+)?`)
	dateRe     = regexp.MustCompile(`\d{2}[./]\d{2}[./]\d{4}|\d{4}-\d{2}-\d{2}`)
	financeRe  = regexp.MustCompile(`(?i)(\d[\d\s]*(?:[.,]\d+)?)\s*(?:тыс\.?\s*)?руб`)
	docNumRe   = regexp.MustCompile(`(?i)№\s*[\d\-/]+`)

	requirementRe = regexp.MustCompile(`(?i)(?:должн|следует|необходимо|не\s+допускается|запрещается|обязан)`)
	costItemRe    = regexp.MustCompile(`(?im)^(.{5,80}?)\s+(\d[\d\s]*(?:[.,]\d+)?)\s*руб`)
	stageRe       = regexp.MustCompile(`(?i)(?:этап|стадия|очередь)\s*(?:№\s*)?(\d+)[\s:\-]*([^.\n]{0,80})`)
	durationRe    = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(?:календарных\s+)?(?:дн\.|дня|дней|суток|смен)`)
)

// Category contribution caps for the bounded quality sub-score, in units
// of 0.05. Integer units keep the fully-saturated sum at exactly 1.0.
const (
	materialsCap = 8
	financesCap  = 6
	datesCap     = 4
	docNumsCap   = 2

	scoreUnits = materialsCap + financesCap + datesCap + docNumsCap
)

type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractMetadata runs the generic pattern pass over every section and table,
// then the type-specific pass, and computes the capped category score.
func (e *Extractor) ExtractMetadata(structure domain.Structure, docType domain.DocTypeInfo) domain.Metadata {
	var md domain.Metadata

	var blocks []string
	if structure.Tree != nil {
		for _, s := range structure.Tree.Sections() {
			blocks = append(blocks, s.Title+"\n"+s.Content)
		}
		if len(blocks) == 0 && len(structure.Tree.Nodes) > 0 {
			blocks = append(blocks, structure.Tree.Nodes[0].Content)
		}
	}
	for _, t := range structure.Tables {
		blocks = append(blocks, t.Caption+"\n"+strings.Join(t.Rows, "\n"))
	}

	for _, block := range blocks {
		md.Materials = appendUnique(md.Materials, materialRe.FindAllString(block, -1))
		md.Dates = appendUnique(md.Dates, dateRe.FindAllString(block, -1))
		md.Finances = appendUnique(md.Finances, financeRe.FindAllString(block, -1))
		md.DocNumbers = appendUnique(md.DocNumbers, docNumRe.FindAllString(block, -1))
	}

	switch docType.Type {
	case domain.TypeNorms:
		extractRequirements(&md, blocks)
	case domain.TypeSmeta, domain.TypeEstimates:
		extractCostItems(&md, blocks)
	case domain.TypePPR:
		extractWorkStages(&md, blocks, docType.Type)
	}

	md.CategoryScore = categoryScore(md)
	return md
}

// extractRequirements collects normative punkte: sentences carrying modal
// requirement markers.
func extractRequirements(md *domain.Metadata, blocks []string) {
	for _, block := range blocks {
		for _, sentence := range strings.Split(block, ".") {
			sentence = strings.TrimSpace(sentence)
			if sentence == "" || !requirementRe.MatchString(sentence) {
				continue
			}
			if len([]rune(sentence)) > 300 {
				sentence = string([]rune(sentence)[:300])
			}
			md.Requirements = append(md.Requirements, sentence)
		}
	}
}

// extractCostItems collects priced lines and a running total.
func extractCostItems(md *domain.Metadata, blocks []string) {
	for _, block := range blocks {
		for _, m := range costItemRe.FindAllStringSubmatch(block, -1) {
			amount := parseAmount(m[2])
			if amount == 0 {
				continue
			}
			md.CostItems = append(md.CostItems, domain.CostItem{
				Name:   strings.TrimSpace(m[1]),
				Amount: amount,
			})
			md.CostTotal += amount
		}
	}
}

// extractWorkStages collects stage/duration tokens for PRECEDES graph edges.
func extractWorkStages(md *domain.Metadata, blocks []string, docType domain.DocType) {
	for _, block := range blocks {
		for _, m := range stageRe.FindAllStringSubmatch(block, -1) {
			item := domain.WorkSequenceItem{
				Name:    strings.TrimSpace(m[2]),
				DocType: docType,
				Quality: 0.5,
			}
			if item.Name == "" {
				item.Name = "этап " + m[1]
			}
			if n, err := strconv.Atoi(m[1]); err == nil {
				item.Priority = n
				if n > 1 {
					item.Dependencies = []string{"этап " + strconv.Itoa(n-1)}
				}
			}
			if d := durationRe.FindStringSubmatch(block); d != nil {
				item.DurationDays = parseAmount(d[1])
			}
			md.Works = append(md.Works, item)
		}
	}
}

// categoryScore sums weighted category presence with per-category caps.
// Materials, finances and dates contribute 0.1 per hit, document numbers
// 0.05 per hit.
func categoryScore(md domain.Metadata) float64 {
	units := min(len(md.Materials)*2, materialsCap) +
		min(len(md.Finances)*2, financesCap) +
		min(len(md.Dates)*2, datesCap) +
		min(len(md.DocNumbers), docNumsCap)
	return float64(units) / scoreUnits
}

func parseAmount(s string) float64 {
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func appendUnique(dst []string, values []string) []string {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		seen := false
		for _, existing := range dst {
			if strings.EqualFold(existing, v) {
				seen = true
				break
			}
		}
		if !seen {
			dst = append(dst, v)
		}
	}
	return dst
}
