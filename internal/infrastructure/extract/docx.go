package extract

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/s9034541160-source/bldr-ingest/internal/core/domain"
)

// DOCXStrategy pulls paragraph and table text from Word documents.
type DOCXStrategy struct{}

func NewDOCXStrategy() *DOCXStrategy { return &DOCXStrategy{} }

func (s *DOCXStrategy) Name() string { return "docx" }

func (s *DOCXStrategy) Supports(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".docx")
}

func (s *DOCXStrategy) Extract(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", domain.WrapError(domain.ErrValidation, "open docx", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", domain.WrapError(domain.ErrValidation, "stat docx", err)
	}

	doc, err := docx.Parse(f, info.Size())
	if err != nil {
		return "", domain.WrapError(domain.ErrValidation, "parse docx", err)
	}

	var sb strings.Builder
	for _, item := range doc.Document.Body.Items {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		switch v := item.(type) {
		case *docx.Paragraph:
			if text := paragraphText(v); text != "" {
				sb.WriteString(text)
				sb.WriteString("\n")
			}
		case *docx.Table:
			for _, row := range v.TableRows {
				var cells []string
				for _, cell := range row.TableCells {
					var cb strings.Builder
					for _, p := range cell.Paragraphs {
						cb.WriteString(paragraphText(p))
						cb.WriteString(" ")
					}
					cells = append(cells, strings.TrimSpace(cb.String()))
				}
				sb.WriteString(strings.Join(cells, " | "))
				sb.WriteString("\n")
			}
		}
	}
	return sb.String(), nil
}

func paragraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
