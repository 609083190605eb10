package structure

import (
	"regexp"
	"strings"

	"github.com/s9034541160-source/bldr-ingest/internal/core/domain"
)

var (
	tableCaptionRe = regexp.MustCompile(`(?i)^\s*таблица\s+([\d.а-яё]+)\s*[-–—]?\s*(.*)$`)
	pipeRowRe      = regexp.MustCompile(`^\s*\|.*\|\s*$`)
	listMarkerRe   = regexp.MustCompile(`^(\s*)([-•*]|\d+[.)]|[а-яёa-z][.)])\s+(\S.*)$`)
)

// DetectTables finds "Таблица N" captioned blocks and markdown-pipe rows.
// Rows belong to the most recent caption; orphan pipe runs become anonymous
// tables.
func DetectTables(lines []string) []domain.Table {
	var tables []domain.Table
	current := -1

	for i, line := range lines {
		if m := tableCaptionRe.FindStringSubmatch(line); m != nil {
			tables = append(tables, domain.Table{
				Number:  m[1],
				Caption: strings.TrimSpace(m[2]),
				Line:    i,
			})
			current = len(tables) - 1
			continue
		}
		if pipeRowRe.MatchString(line) {
			if current < 0 {
				tables = append(tables, domain.Table{Line: i})
				current = len(tables) - 1
			}
			tables[current].Rows = append(tables[current].Rows, strings.TrimSpace(line))
			continue
		}
		if strings.TrimSpace(line) == "" {
			current = -1
		}
	}

	out := tables[:0]
	for _, t := range tables {
		if t.Number != "" || len(t.Rows) >= 2 {
			out = append(out, t)
		}
	}
	return out
}

// DetectLists finds numbered, bulleted and lettered enumeration items with
// level inferred from leading whitespace.
func DetectLists(lines []string) []domain.ListItem {
	var items []domain.ListItem
	for i, line := range lines {
		m := listMarkerRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		items = append(items, domain.ListItem{
			Marker: m[2],
			Text:   strings.TrimSpace(m[3]),
			Level:  len(m[1])/2 + 1,
			Line:   i,
		})
	}
	return items
}
