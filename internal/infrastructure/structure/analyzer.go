// Package structure builds a document's section tree through a tiered
// analysis chain: header patterns, semantic clustering, fixed-size
// paragraphs, then sentence runs as a last resort.
package structure

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/s9034541160-source/bldr-ingest/internal/core/domain"
	"github.com/s9034541160-source/bldr-ingest/internal/core/ports"
)

const (
	minSectionsForHeaders = 5
	minValidSections      = 3
	minSectionWords       = 20
	paragraphSectionWords = 500
	sentencesPerFragment  = 10
)

var (
	numberedHeaderRe = regexp.MustCompile(`^\s*(\d+(?:\.\d+)*)\.?\s+(\S.{0,118})$`)
	romanHeaderRe    = regexp.MustCompile(`^\s*((?:X{0,3})(?:IX|IV|V?I{1,3}|V|X))[.)]\s+(\S.{0,98})$`)
	letterHeaderRe   = regexp.MustCompile(`^\s*([А-ЯЁ])[.)]\s+(\S.{0,98})$`)
	keywordHeaderRe  = regexp.MustCompile(`(?i)^\s*(глава|раздел|часть|пункт)\s+(\S+)\s*(.*)$`)
	allCapsLineRe    = regexp.MustCompile(`^\s*[А-ЯЁA-Z][А-ЯЁA-Z\s,.\-]{9,98}$`)
	sentenceSplitRe  = regexp.MustCompile(`(?:[.!?]+)\s+`)
)

type Analyzer struct {
	oracle ports.SemanticOracle
	log    *slog.Logger
}

// NewAnalyzer builds the tiered analyzer. A nil oracle disables the
// semantic-cluster tier.
func NewAnalyzer(oracle ports.SemanticOracle, log *slog.Logger) *Analyzer {
	return &Analyzer{oracle: oracle, log: log}
}

// Analyze runs the tier chain and returns the section tree with detected
// tables and lists. The full text is kept on the root node so downstream
// stages can re-scan it. Never fails: the worst case is sentence fragments.
func (a *Analyzer) Analyze(ctx context.Context, text string) (domain.Structure, error) {
	lines := strings.Split(text, "\n")

	tree, tier := a.headerTier(lines)
	if len(tree.Sections()) < minSectionsForHeaders && a.oracle != nil {
		if clustered := a.semanticTier(ctx, text); clustered != nil {
			tree, tier = clustered, "semantic"
		}
	}
	if len(tree.Sections()) < minValidSections {
		tree, tier = paragraphTier(text), "paragraph"
	}
	if len(tree.Sections()) < minValidSections {
		if sentences := sentenceTier(text); len(sentences.Sections()) > 0 {
			tree, tier = sentences, "sentence"
		}
	}

	tree = validate(tree, text)
	tree.Nodes[0].Content = text

	return domain.Structure{
		Tree:   tree,
		Tables: DetectTables(lines),
		Lists:  DetectLists(lines),
		Tier:   tier,
	}, nil
}

type headerMatch struct {
	number string
	title  string
	level  int
}

// headerTier recognizes numbered, roman, lettered, keyword and all-caps
// headers and assembles sections with a stack-based builder.
func (a *Analyzer) headerTier(lines []string) (*domain.SectionTree, string) {
	tree := domain.NewSectionTree("document")

	type frame struct {
		idx   int
		level int
	}
	stack := []frame{{idx: 0, level: 0}}

	var content strings.Builder
	contentStart := 0

	flush := func(end int) {
		text := strings.TrimSpace(content.String())
		content.Reset()
		if text == "" {
			return
		}
		top := stack[len(stack)-1].idx
		if tree.Nodes[top].Content != "" {
			tree.Nodes[top].Content += "\n" + text
		} else {
			tree.Nodes[top].Content = text
		}
		tree.Nodes[top].LineEnd = end
	}

	for i, line := range lines {
		h := matchHeader(line)
		if h == nil {
			if strings.TrimSpace(line) != "" {
				if content.Len() == 0 {
					contentStart = i
				}
				content.WriteString(line)
				content.WriteString("\n")
			}
			continue
		}

		flush(contentStart)
		for len(stack) > 1 && stack[len(stack)-1].level >= h.level {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1].idx
		idx := tree.AddChild(parent, domain.Section{
			Number:    h.number,
			Title:     h.title,
			Level:     h.level,
			LineStart: i,
			LineEnd:   i,
		})
		stack = append(stack, frame{idx: idx, level: h.level})
	}
	flush(len(lines) - 1)

	return tree, "headers"
}

func matchHeader(line string) *headerMatch {
	if m := numberedHeaderRe.FindStringSubmatch(line); m != nil {
		title := strings.TrimSpace(m[2])
		if looksLikeTitle(title) {
			return &headerMatch{
				number: m[1],
				title:  title,
				level:  strings.Count(m[1], ".") + 1,
			}
		}
	}
	if m := keywordHeaderRe.FindStringSubmatch(line); m != nil {
		return &headerMatch{
			number: m[2],
			title:  strings.TrimSpace(m[2] + " " + m[3]),
			level:  1,
		}
	}
	if m := romanHeaderRe.FindStringSubmatch(line); m != nil {
		return &headerMatch{number: m[1], title: strings.TrimSpace(m[2]), level: 1}
	}
	if m := letterHeaderRe.FindStringSubmatch(line); m != nil {
		return &headerMatch{number: m[1], title: strings.TrimSpace(m[2]), level: 2}
	}
	trimmed := strings.TrimSpace(line)
	if allCapsLineRe.MatchString(line) && strings.Contains(trimmed, " ") {
		return &headerMatch{title: trimmed, level: 1}
	}
	return nil
}

// looksLikeTitle rejects numbered lines that read like running sentences.
func looksLikeTitle(s string) bool {
	if len([]rune(s)) > 120 {
		return false
	}
	return !strings.HasSuffix(s, ",") && !strings.HasSuffix(s, ";")
}

// semanticTier embeds paragraphs and clusters them into 5-15 groups. Returns
// nil when the oracle fails or there is too little material.
func (a *Analyzer) semanticTier(ctx context.Context, text string) *domain.SectionTree {
	paragraphs := splitParagraphs(text)
	if len(paragraphs) < minValidSections {
		return nil
	}

	vectors, err := a.oracle.Embed(ctx, paragraphs)
	if err != nil || len(vectors) != len(paragraphs) {
		if err != nil {
			a.log.Warn("semantic tier unavailable", "error", err)
		}
		return nil
	}

	k := len(paragraphs) / 4
	if k < 5 {
		k = 5
	}
	if k > 15 {
		k = 15
	}
	if k > len(paragraphs) {
		k = len(paragraphs)
	}

	assignment := kmeans(vectors, k, 12)
	groups := make([][]string, k)
	for i, cluster := range assignment {
		groups[cluster] = append(groups[cluster], paragraphs[i])
	}

	tree := domain.NewSectionTree("document")
	for _, group := range groups {
		if len(group) == 0 {
			continue
		}
		tree.AddChild(0, domain.Section{
			Title:   firstShortSentence(group[0]),
			Level:   1,
			Content: strings.Join(group, "\n\n"),
		})
	}
	if len(tree.Sections()) < minValidSections {
		return nil
	}
	return tree
}

// paragraphTier accumulates paragraphs into roughly fixed-size sections.
func paragraphTier(text string) *domain.SectionTree {
	tree := domain.NewSectionTree("document")

	var buf []string
	words := 0
	flush := func() {
		if len(buf) == 0 {
			return
		}
		content := strings.Join(buf, "\n\n")
		tree.AddChild(0, domain.Section{
			Title:   firstShortSentence(buf[0]),
			Level:   1,
			Content: content,
		})
		buf = buf[:0]
		words = 0
	}

	for _, p := range splitParagraphs(text) {
		buf = append(buf, p)
		words += len(strings.Fields(p))
		if words >= paragraphSectionWords {
			flush()
		}
	}
	flush()
	return tree
}

// sentenceTier is the last resort: runs of ~10 sentences per fragment.
func sentenceTier(text string) *domain.SectionTree {
	tree := domain.NewSectionTree("document")

	sentences := sentenceSplitRe.Split(text, -1)
	var buf []string
	flush := func() {
		if len(buf) == 0 {
			return
		}
		content := strings.TrimSpace(strings.Join(buf, ". "))
		if content != "" {
			tree.AddChild(0, domain.Section{
				Title:   firstShortSentence(content),
				Level:   1,
				Content: content,
			})
		}
		buf = buf[:0]
	}

	for _, s := range sentences {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		buf = append(buf, s)
		if len(buf) >= sentencesPerFragment {
			flush()
		}
	}
	flush()
	return tree
}

// validate drops undersized sections; if too few survive, the paragraph tier
// is re-run on the full text as a baseline.
func validate(tree *domain.SectionTree, text string) *domain.SectionTree {
	kept := domain.NewSectionTree(tree.Nodes[0].Title)
	remap := map[int]int{0: 0}

	for i := 1; i < len(tree.Nodes); i++ {
		node := tree.Nodes[i]
		if node.WordCount() < minSectionWords && len(node.Children) == 0 {
			continue
		}
		parent, ok := remap[node.Parent]
		if !ok {
			parent = 0
		}
		node.Children = nil
		remap[i] = kept.AddChild(parent, node)
	}

	if len(kept.Sections()) < minValidSections {
		return paragraphTier(text)
	}
	return kept
}

func splitParagraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// firstShortSentence returns the first sentence capped at 80 runes for use
// as a synthetic section title.
func firstShortSentence(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.IndexAny(text, ".!?\n"); idx > 0 {
		text = text[:idx]
	}
	runes := []rune(text)
	if len(runes) > 80 {
		return string(runes[:80])
	}
	return text
}
