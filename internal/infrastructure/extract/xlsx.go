package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/s9034541160-source/bldr-ingest/internal/core/domain"
)

// XLSXStrategy flattens spreadsheet rows into pipe-separated lines so the
// downstream table detector can recover them as tables. Estimates arrive
// almost exclusively in this format.
type XLSXStrategy struct{}

func NewXLSXStrategy() *XLSXStrategy { return &XLSXStrategy{} }

func (s *XLSXStrategy) Name() string { return "xlsx" }

func (s *XLSXStrategy) Supports(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".xlsx" || ext == ".xlsm"
}

func (s *XLSXStrategy) Extract(ctx context.Context, path string) (string, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return "", domain.WrapError(domain.ErrValidation, "open xlsx", err)
	}
	defer wb.Close()

	var sb strings.Builder
	for _, sheet := range wb.GetSheetList() {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		rows, err := wb.GetRows(sheet)
		if err != nil {
			return "", domain.WrapError(domain.ErrValidation, fmt.Sprintf("read sheet %q", sheet), err)
		}
		if len(rows) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "Лист: %s\n", sheet)
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, " | "))
			if line == "" || strings.Trim(line, "| ") == "" {
				continue
			}
			sb.WriteString(line)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
