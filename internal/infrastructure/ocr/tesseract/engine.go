// Package tesseract shells out to pdftoppm and tesseract for scanned
// documents. Both binaries must be on PATH; the bootstrap checks this at
// startup so a missing install fails fast rather than per file.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/s9034541160-source/bldr-ingest/internal/core/domain"
)

type Engine struct {
	pdftoppmBin  string
	tesseractBin string
	limiter      *rate.Limiter
	slots        chan struct{}
	log          *slog.Logger
}

// NewEngine builds the engine with the given binary paths (empty strings
// fall back to PATH lookup). maxConcurrent bounds parallel tesseract
// processes, which are memory hungry on large page images; the rate
// limiter additionally smooths process launches.
func NewEngine(pdftoppmBin, tesseractBin string, maxConcurrent int, log *slog.Logger) *Engine {
	if pdftoppmBin == "" {
		pdftoppmBin = "pdftoppm"
	}
	if tesseractBin == "" {
		tesseractBin = "tesseract"
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 2
	}
	return &Engine{
		pdftoppmBin:  pdftoppmBin,
		tesseractBin: tesseractBin,
		limiter:      rate.NewLimiter(rate.Limit(maxConcurrent), maxConcurrent),
		slots:        make(chan struct{}, maxConcurrent),
		log:          log,
	}
}

// acquire takes a concurrency slot and a launch-rate token. The returned
// release must be called when the process exits.
func (e *Engine) acquire(ctx context.Context) (func(), error) {
	select {
	case e.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if err := e.limiter.Wait(ctx); err != nil {
		<-e.slots
		return nil, err
	}
	return func() { <-e.slots }, nil
}

// CheckBinaries verifies both executables resolve. Called once at startup.
func (e *Engine) CheckBinaries() error {
	for _, bin := range []string{e.pdftoppmBin, e.tesseractBin} {
		if _, err := exec.LookPath(bin); err != nil {
			return domain.WrapError(domain.ErrValidation, "locate ocr binary", err)
		}
	}
	return nil
}

// RenderPages rasterizes the pdf into per-page PNG files inside a fresh
// temp directory and returns their paths in page order. first/last of 0
// mean the whole document. Callers own cleanup of the returned files.
func (e *Engine) RenderPages(ctx context.Context, pdfPath string, first, last, dpi int) ([]string, error) {
	dir, err := os.MkdirTemp("", "bldr-ocr-*")
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "create ocr temp dir", err)
	}

	args := []string{"-png", "-r", strconv.Itoa(dpi)}
	if first > 0 {
		args = append(args, "-f", strconv.Itoa(first))
	}
	if last > 0 {
		args = append(args, "-l", strconv.Itoa(last))
	}
	args = append(args, pdfPath, filepath.Join(dir, "page"))

	cmd := exec.CommandContext(ctx, e.pdftoppmBin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		os.RemoveAll(dir)
		return nil, domain.WrapError(domain.ErrTemporary, "pdftoppm",
			fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String())))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		os.RemoveAll(dir)
		return nil, domain.WrapError(domain.ErrTemporary, "list rendered pages", err)
	}
	pages := make([]string, 0, len(entries))
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".png") {
			pages = append(pages, filepath.Join(dir, entry.Name()))
		}
	}
	// pdftoppm zero-pads page numbers, so lexical order is page order.
	sort.Strings(pages)
	return pages, nil
}

// Recognize runs tesseract on one page image and returns the plain text.
func (e *Engine) Recognize(ctx context.Context, imagePath string, languages []string) (string, error) {
	release, err := e.acquire(ctx)
	if err != nil {
		return "", err
	}
	defer release()

	lang := strings.Join(languages, "+")
	if lang == "" {
		lang = "rus+eng"
	}

	cmd := exec.CommandContext(ctx, e.tesseractBin, imagePath, "stdout", "-l", lang, "--psm", "3")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", domain.WrapError(domain.ErrTemporary, "tesseract",
			fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String())))
	}
	return stdout.String(), nil
}
