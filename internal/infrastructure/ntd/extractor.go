package ntd

import (
	"regexp"
	"sort"
	"strings"

	"github.com/s9034541160-source/bldr-ingest/internal/core/domain"
)

// RE2 word boundaries are ASCII-only, so every pattern carries its own
// leading boundary group; the reference itself is capture group 1.
const boundary = `(?:^|[^А-Яа-яЁёA-Za-z0-9])`

type refPattern struct {
	docType domain.NTDType
	re      *regexp.Regexp
}

var refPatterns = []refPattern{
	{domain.NTDSP, regexp.MustCompile(`(?i)` + boundary + `(СП\s*\d+(?:\.\d+)*(?:[-.]\d{2,4})?)`)},
	{domain.NTDSNiP, regexp.MustCompile(`(?i)` + boundary + `(СНиП\s*\d+(?:\.\d+)*(?:-\d{2,4})?)`)},
	{domain.NTDGOST, regexp.MustCompile(`(?i)` + boundary + `(ГОСТ\s*(?:Р\s*)?\d+(?:\.\d+)*(?:-\d{2,4})?)`)},
	{domain.NTDGESN, regexp.MustCompile(`(?i)` + boundary + `(ГЭСН\s*(?:р\s*)?\d+(?:-\d+)*(?:\.\d+)?)`)},
	{domain.NTDFER, regexp.MustCompile(`(?i)` + boundary + `(ФЕР\s*\d+(?:-\d+)*(?:\.\d+)?)`)},
	{domain.NTDTER, regexp.MustCompile(`(?i)` + boundary + `(ТЕР\s*\d+(?:-\d+)*(?:\.\d+)?)`)},
	{domain.NTDPP, regexp.MustCompile(`(?i)` + boundary + `(постановлени[ея]\s+правительства(?:\s+РФ)?\s*(?:№|N)\s*\d+)`)},
	{domain.NTDPrikaz, regexp.MustCompile(`(?i)` + boundary + `(приказ(?:\s+минстроя(?:\s+россии)?)?\s*(?:№|N)\s*\d+(?:/пр)?)`)},
	{domain.NTDFZ, regexp.MustCompile(`(?i)` + boundary + `((?:федеральн(?:ый|ого)\s+закон(?:а)?\s*)?(?:№|N)\s*\d+-ФЗ)`)},
}

var (
	qualifyingPhrases = []string{
		"согласно", "в соответствии с", "требовани", "на основании",
		"руководствуясь", "с учетом",
	}
	yearInRawRe       = regexp.MustCompile(`(?:19|20)\d{2}`)
	bibliographyRe    = regexp.MustCompile(`(?im)^\s*(?:библиография|список\s+литературы|нормативные\s+ссылки)\s*$`)
	sectionBreakRe    = regexp.MustCompile(`(?m)^\s*(?:\d+\.?\s+)?[А-ЯЁA-Z][А-ЯЁA-Z\s]{10,}$`)
	contextWindowSize = 100
)

// Extractor scans document text for normative-document references.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractReferences finds every reference, canonicalizes it, scores
// confidence and deduplicates by (canonical_id, document_type), keeping the
// highest-confidence instance. Output is sorted by descending confidence.
func (e *Extractor) ExtractReferences(text string) []domain.NTDReference {
	best := make(map[domain.RefKey]domain.NTDReference)

	for _, p := range refPatterns {
		for _, m := range p.re.FindAllStringSubmatchIndex(text, -1) {
			start, end := m[2], m[3]
			raw := strings.TrimSpace(text[start:end])
			canonical := Canonicalize(raw)
			if canonical == "" {
				continue
			}

			ctx := contextWindow(text, start, end)
			ref := domain.NTDReference{
				CanonicalID:  canonical,
				DocumentType: p.docType,
				RawText:      raw,
				Context:      ctx,
				Position:     start,
				Confidence:   scoreReference(raw, ctx, p.docType),
			}

			key := ref.Key()
			if existing, ok := best[key]; !ok || ref.Confidence > existing.Confidence {
				best[key] = ref
			}
		}
	}

	out := make([]domain.NTDReference, 0, len(best))
	for _, ref := range best {
		out = append(out, ref)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].CanonicalID < out[j].CanonicalID
	})
	return out
}

// ExtractFromBibliography restricts scanning to a detected bibliography or
// normative-references section. Returns nil when no such section exists.
func (e *Extractor) ExtractFromBibliography(text string) []domain.NTDReference {
	loc := bibliographyRe.FindStringIndex(text)
	if loc == nil {
		return nil
	}
	body := text[loc[1]:]
	if next := sectionBreakRe.FindStringIndex(body); next != nil && next[0] > 0 {
		body = body[:next[0]]
	}
	return e.ExtractReferences(body)
}

// scoreReference implements the fixed scoring ladder: base 0.5, +0.2 for a
// qualifying context phrase, +0.1 for an explicit year, +0.1 for СП,
// -0.1 for a suspiciously short match, clamped to [0,1].
func scoreReference(raw, context string, docType domain.NTDType) float64 {
	score := 0.5

	lower := strings.ToLower(context)
	for _, phrase := range qualifyingPhrases {
		if strings.Contains(lower, phrase) {
			score += 0.2
			break
		}
	}
	if yearInRawRe.MatchString(raw) {
		score += 0.1
	}
	if docType == domain.NTDSP {
		score += 0.1
	}
	if len([]rune(raw)) < 10 {
		score -= 0.1
	}

	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score
}

// contextWindow returns a symmetric rune-safe window around the match.
func contextWindow(text string, start, end int) string {
	lo := start - contextWindowSize
	if lo < 0 {
		lo = 0
	}
	hi := end + contextWindowSize
	if hi > len(text) {
		hi = len(text)
	}
	for lo > 0 && !isRuneStart(text[lo]) {
		lo--
	}
	for hi < len(text) && !isRuneStart(text[hi]) {
		hi++
	}
	return text[lo:hi]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
