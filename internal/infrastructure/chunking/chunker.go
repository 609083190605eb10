// Package chunking turns analyzed document structure into path-addressed
// chunks, the unit of vector-store persistence.
package chunking

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/s9034541160-source/bldr-ingest/internal/core/domain"
)

// Numeric markers up to three levels deep: "6", "6.1", "6.1.1".
var numericMarkerRe = regexp.MustCompile(`^\s*(\d+(?:\.\d+){0,2})\.?\s+(\S.*)$`)

type Chunker struct{}

func NewChunker() *Chunker {
	return &Chunker{}
}

// Chunk builds one chunk per recognized hierarchy node. Each chunk's Path is
// the ordered list of ancestor numbers including its own, so
// len(Path) == HierarchyLevel and Path[:len-1] is the parent's Path. When the
// text carries no numeric markers the analyzer's sections are wrapped
// one-to-one as fallback chunks. Tables become separate table chunks.
func (c *Chunker) Chunk(contentHash string, structure domain.Structure) []domain.Chunk {
	text := ""
	if structure.Tree != nil && len(structure.Tree.Nodes) > 0 {
		text = structure.Tree.Nodes[0].Content
	}

	chunks := c.hierarchical(text)
	if chunks == nil {
		chunks = c.wrapSections(structure)
	}
	chunks = append(chunks, c.tableChunks(structure.Tables)...)

	for i := range chunks {
		chunks[i].ID = fmt.Sprintf("%s:%d", contentHash, i)
	}
	return chunks
}

type markerNode struct {
	path    []string
	level   int
	title   string
	content strings.Builder
}

// hierarchical scans for numeric markers and builds the path-addressed chunk
// list. Returns nil when no markers exist.
func (c *Chunker) hierarchical(text string) []domain.Chunk {
	lines := strings.Split(text, "\n")

	var nodes []*markerNode
	var stack []*markerNode
	var preamble strings.Builder

	for _, line := range lines {
		m := numericMarkerRe.FindStringSubmatch(line)
		if m == nil {
			trimmed := strings.TrimRight(line, " \t")
			if trimmed == "" {
				continue
			}
			if len(stack) == 0 {
				preamble.WriteString(trimmed)
				preamble.WriteString("\n")
			} else {
				top := stack[len(stack)-1]
				top.content.WriteString(trimmed)
				top.content.WriteString("\n")
			}
			continue
		}

		number := m[1]
		level := strings.Count(number, ".") + 1
		for len(stack) > 0 && stack[len(stack)-1].level >= level {
			stack = stack[:len(stack)-1]
		}

		var path []string
		if len(stack) > 0 {
			parent := stack[len(stack)-1]
			path = append(append([]string(nil), parent.path...), number)
		} else {
			path = []string{number}
		}

		node := &markerNode{path: path, level: len(path), title: strings.TrimSpace(m[2])}
		node.content.WriteString(strings.TrimSpace(line))
		node.content.WriteString("\n")
		nodes = append(nodes, node)
		stack = append(stack, node)
	}

	if len(nodes) == 0 {
		return nil
	}

	var chunks []domain.Chunk
	if head := strings.TrimSpace(preamble.String()); head != "" {
		chunks = append(chunks, domain.Chunk{
			Content:        head,
			Type:           domain.ChunkHeader,
			HierarchyLevel: 0,
		})
	}
	for _, n := range nodes {
		chunk := domain.Chunk{
			Content:        strings.TrimSpace(n.content.String()),
			Type:           domain.ChunkSection,
			Path:           n.path,
			HierarchyLevel: len(n.path),
			Title:          n.title,
			Metadata: map[string]string{
				"number": n.path[len(n.path)-1],
			},
		}
		if parent := chunk.ParentPath(); parent != nil {
			chunk.Metadata["parent"] = strings.Join(parent, "/")
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}

// wrapSections converts analyzer fallback sections into one chunk each.
func (c *Chunker) wrapSections(structure domain.Structure) []domain.Chunk {
	if structure.Tree == nil {
		return nil
	}
	var chunks []domain.Chunk
	for _, s := range structure.Tree.Sections() {
		content := s.Content
		if content == "" {
			content = s.Title
		}
		if strings.TrimSpace(content) == "" {
			continue
		}
		chunks = append(chunks, domain.Chunk{
			Content:        content,
			Type:           domain.ChunkFallback,
			HierarchyLevel: 0,
			Title:          s.Title,
			Metadata:       map[string]string{"tier": structure.Tier},
		})
	}
	return chunks
}

func (c *Chunker) tableChunks(tables []domain.Table) []domain.Chunk {
	var chunks []domain.Chunk
	for _, t := range tables {
		content := strings.Join(t.Rows, "\n")
		if t.Caption != "" {
			content = t.Caption + "\n" + content
		}
		if strings.TrimSpace(content) == "" {
			continue
		}
		chunks = append(chunks, domain.Chunk{
			Content:        content,
			Type:           domain.ChunkTable,
			HierarchyLevel: 0,
			Title:          strings.TrimSpace("Таблица " + t.Number),
			Metadata:       map[string]string{"table": t.Number},
		})
	}
	return chunks
}
