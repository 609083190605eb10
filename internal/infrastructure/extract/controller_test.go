package extract

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/s9034541160-source/bldr-ingest/internal/core/domain"
)

type fakeStrategy struct {
	name string
	ext  string
	text string
	err  error
}

func (f *fakeStrategy) Name() string { return f.name }

func (f *fakeStrategy) Supports(path string) bool {
	return strings.EqualFold(filepath.Ext(path), f.ext)
}

func (f *fakeStrategy) Extract(ctx context.Context, path string) (string, error) {
	return f.text, f.err
}

type fakeOCR struct {
	pages      []string
	renderErr  error
	rendered   []string
	recognized int
}

func (f *fakeOCR) RenderPages(ctx context.Context, path string, first, last, dpi int) ([]string, error) {
	if f.renderErr != nil {
		return nil, f.renderErr
	}
	pages := f.pages
	if last > 0 && last < len(pages) {
		pages = pages[:last]
	}
	out := make([]string, len(pages))
	for i := range pages {
		tmp, err := os.CreateTemp("", "ocr-page-*.png")
		if err != nil {
			return nil, err
		}
		tmp.Close()
		out[i] = tmp.Name()
	}
	f.rendered = append(f.rendered, out...)
	return out, nil
}

func (f *fakeOCR) Recognize(ctx context.Context, imagePath string, languages []string) (string, error) {
	f.recognized++
	if f.recognized > len(f.pages) {
		return "", nil
	}
	return f.pages[f.recognized-1], nil
}

func srcFile(t *testing.T, ext string) domain.SourceFile {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc"+ext)
	if err := os.WriteFile(path, []byte("stub"), 0o644); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return domain.SourceFile{Path: path, ContentHash: "abc123"}
}

func newTestController(strategies []Strategy, ocr *fakeOCR) *Controller {
	var engine *fakeOCR
	if ocr != nil {
		engine = ocr
	}
	log := slog.New(slog.DiscardHandler)
	if engine == nil {
		return NewController(strategies, nil, nil, time.Minute, log)
	}
	return NewController(strategies, engine, []string{"rus", "eng"}, time.Minute, log)
}

func TestStrongNativeTextSkipsOCR(t *testing.T) {
	long := strings.Repeat("нормативный текст ", 200)
	ocr := &fakeOCR{pages: []string{"ocr text"}}
	c := newTestController([]Strategy{&fakeStrategy{name: "pdf", ext: ".pdf", text: long}}, ocr)

	got, err := c.Extract(context.Background(), srcFile(t, ".pdf"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got.Method != domain.ExtractNative {
		t.Fatalf("method = %s, want native", got.Method)
	}
	if len(ocr.rendered) != 0 {
		t.Fatalf("OCR was invoked for a strong native result")
	}
}

func TestScannedPDFFallsToOCR(t *testing.T) {
	page := strings.Repeat("распознанный текст страницы ", 10)
	ocr := &fakeOCR{pages: []string{page, page}}
	c := newTestController([]Strategy{&fakeStrategy{name: "pdf", ext: ".pdf", text: ""}}, ocr)

	got, err := c.Extract(context.Background(), srcFile(t, ".pdf"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got.Method != domain.ExtractOCR {
		t.Fatalf("method = %s, want ocr", got.Method)
	}
	if !strings.Contains(got.Text, "[стр. 1]") || !strings.Contains(got.Text, "[стр. 2]") {
		t.Fatalf("page markers missing: %q", got.Text)
	}
	for _, p := range ocr.rendered {
		if _, err := os.Stat(p); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("temp image %s was not removed", p)
		}
	}
}

func TestHybridScanKeepsNativeWhenOCRWeak(t *testing.T) {
	partial := strings.Repeat("тонкий текстовый слой ", 10)
	ocr := &fakeOCR{pages: []string{"кратко"}}
	c := newTestController([]Strategy{&fakeStrategy{name: "pdf", ext: ".pdf", text: partial}}, ocr)

	got, err := c.Extract(context.Background(), srcFile(t, ".pdf"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got.Method != domain.ExtractNativePartial {
		t.Fatalf("method = %s, want native_partial", got.Method)
	}
	if !strings.Contains(got.Text, "тонкий текстовый слой") {
		t.Fatalf("native partial text lost: %q", got.Text)
	}
}

func TestDesperatePassAfterRenderFailure(t *testing.T) {
	// First full-resolution render fails, desperate pass succeeds.
	calls := 0
	ocr := &flakyOCR{failFirst: &calls, pages: []string{"обрывок текста"}}
	c := NewController([]Strategy{&fakeStrategy{name: "pdf", ext: ".pdf", text: ""}}, ocr, nil, time.Minute, slog.New(slog.DiscardHandler))

	got, err := c.Extract(context.Background(), srcFile(t, ".pdf"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got.Method != domain.ExtractDesperate {
		t.Fatalf("method = %s, want desperate", got.Method)
	}
}

type flakyOCR struct {
	failFirst *int
	pages     []string
	idx       int
}

func (f *flakyOCR) RenderPages(ctx context.Context, path string, first, last, dpi int) ([]string, error) {
	*f.failFirst++
	if *f.failFirst == 1 {
		return nil, errors.New("pdftoppm crashed")
	}
	out := make([]string, len(f.pages))
	for i := range f.pages {
		tmp, err := os.CreateTemp("", "ocr-page-*.png")
		if err != nil {
			return nil, err
		}
		tmp.Close()
		out[i] = tmp.Name()
	}
	return out, nil
}

func (f *flakyOCR) Recognize(ctx context.Context, imagePath string, languages []string) (string, error) {
	if f.idx >= len(f.pages) {
		return "", nil
	}
	t := f.pages[f.idx]
	f.idx++
	return t, nil
}

func TestUnreadableFileYieldsPlaceholder(t *testing.T) {
	ocr := &fakeOCR{}
	c := newTestController([]Strategy{&fakeStrategy{name: "pdf", ext: ".pdf", text: ""}}, ocr)

	got, err := c.Extract(context.Background(), domain.SourceFile{Path: "/nonexistent/doc.pdf", ContentHash: "x"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if got.Method != domain.ExtractFailed {
		t.Fatalf("method = %s, want failed", got.Method)
	}
	if got.Text != failedPlaceholder {
		t.Fatalf("text = %q, want placeholder", got.Text)
	}
}

func TestNonPDFNeverEscalatesToOCR(t *testing.T) {
	partial := strings.Repeat("текст документа ", 20)
	ocr := &fakeOCR{pages: []string{"ocr"}}
	c := newTestController([]Strategy{&fakeStrategy{name: "docx", ext: ".docx", text: partial}}, ocr)

	got, err := c.Extract(context.Background(), srcFile(t, ".docx"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got.Method != domain.ExtractNativePartial {
		t.Fatalf("method = %s, want native_partial", got.Method)
	}
	if len(ocr.rendered) != 0 {
		t.Fatalf("OCR invoked for non-pdf input")
	}
}

func TestLongestStrategyResultWins(t *testing.T) {
	short := &fakeStrategy{name: "a", ext: ".pdf", text: "мало"}
	failing := &fakeStrategy{name: "b", ext: ".pdf", err: errors.New("broken")}
	long := &fakeStrategy{name: "c", ext: ".pdf", text: strings.Repeat("полный текст ", 200)}
	c := newTestController([]Strategy{short, failing, long}, nil)

	got, err := c.Extract(context.Background(), srcFile(t, ".pdf"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got.Method != domain.ExtractNative {
		t.Fatalf("method = %s, want native", got.Method)
	}
	if !strings.Contains(got.Text, "полный текст") {
		t.Fatalf("longest result not chosen")
	}
}
