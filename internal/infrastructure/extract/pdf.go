package extract

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/s9034541160-source/bldr-ingest/internal/core/domain"
)

// PDFStrategy reads the embedded text layer of a PDF. Scanned documents
// yield little or nothing here and escalate to OCR.
type PDFStrategy struct{}

func NewPDFStrategy() *PDFStrategy { return &PDFStrategy{} }

func (s *PDFStrategy) Name() string { return "pdf_text_layer" }

func (s *PDFStrategy) Supports(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

func (s *PDFStrategy) Extract(ctx context.Context, path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", domain.WrapError(domain.ErrValidation, "open pdf", err)
	}
	defer f.Close()

	var sb strings.Builder
	total := reader.NumPage()
	for n := 1; n <= total; n++ {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		page := reader.Page(n)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single corrupt page should not void the rest.
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
