// Package extract implements the escalating text-extraction chain: native
// text layer first, OCR for scans, a desperate low-resolution pass last.
// The controller never fails outright; the worst case is a placeholder
// marked with method=failed.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/s9034541160-source/bldr-ingest/internal/core/domain"
	"github.com/s9034541160-source/bldr-ingest/internal/core/ports"
)

const (
	// StrongThreshold is the native-text length that short-circuits OCR.
	StrongThreshold = 2000
	// WeakThreshold is the minimum length considered usable at all.
	WeakThreshold = 100
	// DesperatePages bounds the last-resort low-resolution OCR pass.
	DesperatePages = 5

	normalDPI    = 300
	desperateDPI = 150

	failedPlaceholder = "[извлечение текста не удалось]"
)

// Strategy is one native extraction attempt for a specific format.
type Strategy interface {
	Name() string
	Supports(path string) bool
	Extract(ctx context.Context, path string) (string, error)
}

type Controller struct {
	strategies []Strategy
	ocr        ports.OCREngine
	languages  []string
	ocrTimeout time.Duration
	log        *slog.Logger
}

// NewController wires the format strategies in priority order. A nil OCR
// engine limits the chain to native extraction.
func NewController(strategies []Strategy, ocr ports.OCREngine, languages []string, ocrTimeout time.Duration, log *slog.Logger) *Controller {
	if len(languages) == 0 {
		languages = []string{"rus", "eng"}
	}
	if ocrTimeout <= 0 {
		ocrTimeout = 10 * time.Minute
	}
	return &Controller{
		strategies: strategies,
		ocr:        ocr,
		languages:  languages,
		ocrTimeout: ocrTimeout,
		log:        log,
	}
}

// Extract runs the escalation policy. The returned error is always nil for
// readable files; unreadable files get method=failed with a wrapped
// validation error so the orchestrator can mark them fatal.
func (c *Controller) Extract(ctx context.Context, file domain.SourceFile) (domain.ExtractedText, error) {
	if _, err := os.Stat(file.Path); err != nil {
		return domain.ExtractedText{
			ContentHash: file.ContentHash,
			Text:        failedPlaceholder,
			Method:      domain.ExtractFailed,
		}, domain.WrapError(domain.ErrValidation, "stat source file", err)
	}

	native := c.nativeText(ctx, file.Path)
	if len([]rune(native)) >= StrongThreshold {
		return domain.ExtractedText{ContentHash: file.ContentHash, Text: native, Method: domain.ExtractNative}, nil
	}

	fallback := ""
	if len([]rune(native)) >= WeakThreshold {
		// Hybrid scans keep a thin text layer; keep it and OCR anyway.
		fallback = native
	}

	if c.ocr == nil || !isPDF(file.Path) {
		if fallback != "" {
			return domain.ExtractedText{ContentHash: file.ContentHash, Text: fallback, Method: domain.ExtractNativePartial}, nil
		}
		if strings.TrimSpace(native) != "" {
			return domain.ExtractedText{ContentHash: file.ContentHash, Text: native, Method: domain.ExtractNativePartial}, nil
		}
		return domain.ExtractedText{ContentHash: file.ContentHash, Text: failedPlaceholder, Method: domain.ExtractFailed}, nil
	}

	ocrText := c.ocrAllPages(ctx, file.Path)
	if len([]rune(ocrText)) >= WeakThreshold && len(ocrText) > len(fallback) {
		return domain.ExtractedText{ContentHash: file.ContentHash, Text: ocrText, Method: domain.ExtractOCR}, nil
	}
	if strings.TrimSpace(fallback) != "" {
		return domain.ExtractedText{ContentHash: file.ContentHash, Text: fallback, Method: domain.ExtractNativePartial}, nil
	}

	desperate := c.ocrFirstPages(ctx, file.Path, DesperatePages, desperateDPI)
	if strings.TrimSpace(desperate) != "" {
		return domain.ExtractedText{ContentHash: file.ContentHash, Text: desperate, Method: domain.ExtractDesperate}, nil
	}
	return domain.ExtractedText{ContentHash: file.ContentHash, Text: failedPlaceholder, Method: domain.ExtractFailed}, nil
}

// nativeText tries every supporting strategy and keeps the longest result.
func (c *Controller) nativeText(ctx context.Context, path string) string {
	best := ""
	for _, s := range c.strategies {
		if !s.Supports(path) {
			continue
		}
		text, err := s.Extract(ctx, path)
		if err != nil {
			c.log.Warn("native extraction attempt failed", "strategy", s.Name(), "path", path, "error", err)
			continue
		}
		if len(text) > len(best) {
			best = text
		}
	}
	return strings.TrimSpace(best)
}

func (c *Controller) ocrAllPages(ctx context.Context, path string) string {
	return c.ocrPages(ctx, path, 0, 0, normalDPI)
}

func (c *Controller) ocrFirstPages(ctx context.Context, path string, pages, dpi int) string {
	return c.ocrPages(ctx, path, 1, pages, dpi)
}

// ocrPages renders the requested page range and recognizes each image with
// the dual-language model, concatenating per-page text with page markers.
// Temp images are removed on every exit path.
func (c *Controller) ocrPages(ctx context.Context, path string, first, last, dpi int) string {
	ocrCtx, cancel := context.WithTimeout(ctx, c.ocrTimeout)
	defer cancel()

	images, err := c.ocr.RenderPages(ocrCtx, path, first, last, dpi)
	defer removeAll(images)
	if err != nil {
		c.log.Warn("page rendering failed", "path", path, "error", err)
		return ""
	}

	var sb strings.Builder
	for i, image := range images {
		if ocrCtx.Err() != nil {
			c.log.Warn("ocr timed out, keeping partial text", "path", path, "pages_done", i)
			break
		}
		text, err := c.ocr.Recognize(ocrCtx, image, c.languages)
		if err != nil {
			c.log.Warn("ocr page failed", "path", path, "page", i+1, "error", err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		fmt.Fprintf(&sb, "[стр. %d]\n%s\n", i+1, strings.TrimSpace(text))
	}
	return strings.TrimSpace(sb.String())
}

// removeAll deletes the rendered page images and their temp directory once
// it is empty.
func removeAll(paths []string) {
	dirs := map[string]struct{}{}
	for _, p := range paths {
		if p == "" {
			continue
		}
		_ = os.Remove(p)
		dirs[filepath.Dir(p)] = struct{}{}
	}
	for d := range dirs {
		_ = os.Remove(d)
	}
}

func isPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}
