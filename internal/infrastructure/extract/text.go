package extract

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/s9034541160-source/bldr-ingest/internal/core/domain"
)

// TextStrategy reads plain-text files, tolerating the cp1251 encoding that
// older Russian office exports still use.
type TextStrategy struct{}

func NewTextStrategy() *TextStrategy { return &TextStrategy{} }

func (s *TextStrategy) Name() string { return "plain_text" }

func (s *TextStrategy) Supports(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".txt" || ext == ".md" || ext == ".csv"
}

func (s *TextStrategy) Extract(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", domain.WrapError(domain.ErrValidation, "read text file", err)
	}
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	if !utf8.Valid(data) {
		decoded, err := charmap.Windows1251.NewDecoder().Bytes(data)
		if err != nil {
			return "", domain.WrapError(domain.ErrValidation, "decode cp1251 text", err)
		}
		data = decoded
	}
	return string(data), nil
}
