package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/s9034541160-source/bldr-ingest/internal/core/domain"
)

type fakeLedger struct {
	entries map[string]*domain.LedgerEntry
	puts    int
	getErr  error
}

func (f *fakeLedger) Get(ctx context.Context, hash string) (*domain.LedgerEntry, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.entries[hash], nil
}

func (f *fakeLedger) Put(ctx context.Context, entry domain.LedgerEntry) error {
	if f.entries == nil {
		f.entries = map[string]*domain.LedgerEntry{}
	}
	f.entries[entry.ContentHash] = &entry
	f.puts++
	return nil
}

type fakeVectors struct {
	has     bool
	hasErr  error
	upserts int
}

func (f *fakeVectors) UpsertChunks(ctx context.Context, points []domain.ChunkPoint) error {
	f.upserts++
	return nil
}

func (f *fakeVectors) HasDocument(ctx context.Context, hash string) (bool, error) {
	return f.has, f.hasErr
}

type fakeExtractor struct {
	text   domain.ExtractedText
	err    error
	called int
}

func (f *fakeExtractor) Extract(ctx context.Context, file domain.SourceFile) (domain.ExtractedText, error) {
	f.called++
	return f.text, f.err
}

type fakeClassifier struct {
	info domain.DocTypeInfo
	err  error
}

func (f *fakeClassifier) Classify(ctx context.Context, text, filename string) (domain.DocTypeInfo, error) {
	return f.info, f.err
}

type fakeAnalyzer struct {
	structure domain.Structure
	err       error
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, text string) (domain.Structure, error) {
	return f.structure, f.err
}

type fakeRouter struct {
	newPath string
	err     error
	calls   int
}

func (f *fakeRouter) Route(ctx context.Context, file domain.SourceFile, info domain.DocTypeInfo) (string, error) {
	f.calls++
	return f.newPath, f.err
}

func (f *fakeRouter) Undo(ctx context.Context) (*domain.Move, error) { return nil, nil }

type fakeRefs struct {
	refs []domain.NTDReference
}

func (f *fakeRefs) ExtractReferences(text string) []domain.NTDReference { return f.refs }
func (f *fakeRefs) ExtractFromBibliography(text string) []domain.NTDReference { return f.refs }

type fakeChunker struct {
	chunks []domain.Chunk
}

func (f *fakeChunker) Chunk(hash string, structure domain.Structure) []domain.Chunk {
	return f.chunks
}

type fakeMetadata struct {
	meta domain.Metadata
}

func (f *fakeMetadata) ExtractMetadata(structure domain.Structure, info domain.DocTypeInfo) domain.Metadata {
	return f.meta
}

type fakeScorer struct{ score float64 }

func (f *fakeScorer) Score(conf float64, sections, chunks int, metaQuality float64, refs int) domain.QualityReport {
	return domain.QualityReport{Score: f.score}
}

type fakePersister struct {
	calls    int
	warnings []string
	err      error
}

func (f *fakePersister) Persist(ctx context.Context, file domain.SourceFile, info domain.DocTypeInfo,
	chunks []domain.Chunk, refs []domain.NTDReference, meta domain.Metadata,
	quality domain.QualityReport) (domain.FileRecord, []string, error) {
	f.calls++
	if f.err != nil {
		return domain.FileRecord{}, f.warnings, f.err
	}
	return domain.FileRecord{ContentHash: file.ContentHash, ChunkCount: len(chunks)}, f.warnings, nil
}

type pipelineFakes struct {
	ledger    *fakeLedger
	vectors   *fakeVectors
	extractor *fakeExtractor
	router    *fakeRouter
	persister *fakePersister
	scorer    *fakeScorer
}

func goodStructure() domain.Structure {
	tree := domain.NewSectionTree("doc")
	tree.Nodes[0].Content = "1. Раздел\nтекст раздела"
	tree.AddChild(0, domain.Section{Number: "1", Title: "Раздел", Level: 1, Content: "текст раздела"})
	return domain.Structure{Tree: tree, Tier: "headers"}
}

func newTestProcessor(fakes *pipelineFakes) *Processor {
	if fakes.ledger == nil {
		fakes.ledger = &fakeLedger{}
	}
	if fakes.vectors == nil {
		fakes.vectors = &fakeVectors{}
	}
	if fakes.extractor == nil {
		fakes.extractor = &fakeExtractor{text: domain.ExtractedText{
			ContentHash: "abc", Text: "1. Раздел\nтекст раздела", Method: domain.ExtractNative,
		}}
	}
	if fakes.router == nil {
		fakes.router = &fakeRouter{}
	}
	if fakes.persister == nil {
		fakes.persister = &fakePersister{}
	}
	if fakes.scorer == nil {
		fakes.scorer = &fakeScorer{score: 80}
	}
	deps := ProcessorDeps{
		Ledger:     fakes.ledger,
		Vectors:    fakes.vectors,
		Extractor:  fakes.extractor,
		Classifier: &fakeClassifier{info: domain.DocTypeInfo{Type: domain.TypeNorms, Confidence: 0.9}},
		Analyzer:   &fakeAnalyzer{structure: goodStructure()},
		Router:     fakes.router,
		References: &fakeRefs{refs: []domain.NTDReference{{CanonicalID: "ГОСТ 26633", DocumentType: domain.NTDGOST, Confidence: 0.7}}},
		Chunker:    &fakeChunker{chunks: []domain.Chunk{{ID: "abc:0", Content: "текст раздела", Type: domain.ChunkSection}}},
		Metadata:   &fakeMetadata{},
		Scorer:     fakes.scorer,
		Persister:  fakes.persister,

		ReviewBelow: 60,
	}
	return NewProcessor("ingest", deps, slog.New(slog.DiscardHandler))
}

func TestProcessFileCompletesAndRecordsLedger(t *testing.T) {
	fakes := &pipelineFakes{}
	p := newTestProcessor(fakes)

	outcome := p.ProcessFile(context.Background(), domain.SourceFile{Path: "/in/a.pdf", ContentHash: "abc"})
	if outcome.State != domain.StateCompleted {
		t.Fatalf("state = %s, want completed (reason: %s)", outcome.State, outcome.Reason)
	}
	if fakes.persister.calls != 1 {
		t.Fatalf("persister calls = %d", fakes.persister.calls)
	}
	if fakes.ledger.puts != 1 {
		t.Fatalf("ledger puts = %d", fakes.ledger.puts)
	}
	if outcome.ChunkCount != 1 || outcome.RefCount != 1 {
		t.Fatalf("counts = %d chunks, %d refs", outcome.ChunkCount, outcome.RefCount)
	}
}

func TestDuplicateInLedgerIsSkippedWithoutWrites(t *testing.T) {
	fakes := &pipelineFakes{
		ledger: &fakeLedger{entries: map[string]*domain.LedgerEntry{
			"abc": {ContentHash: "abc"},
		}},
	}
	p := newTestProcessor(fakes)

	outcome := p.ProcessFile(context.Background(), domain.SourceFile{Path: "/in/a.pdf", ContentHash: "abc"})
	if outcome.State != domain.StateSkipped {
		t.Fatalf("state = %s, want skipped", outcome.State)
	}
	if fakes.extractor.called != 0 {
		t.Fatal("extraction ran for a duplicate")
	}
	if fakes.persister.calls != 0 {
		t.Fatal("persistence ran for a duplicate")
	}
	if fakes.ledger.puts != 0 {
		t.Fatal("ledger rewritten for a duplicate")
	}
}

func TestDuplicateInVectorStoreIsSkipped(t *testing.T) {
	fakes := &pipelineFakes{vectors: &fakeVectors{has: true}}
	p := newTestProcessor(fakes)

	outcome := p.ProcessFile(context.Background(), domain.SourceFile{Path: "/in/a.pdf", ContentHash: "abc"})
	if outcome.State != domain.StateSkipped {
		t.Fatalf("state = %s, want skipped", outcome.State)
	}
}

func TestVectorDedupCheckFailureProceeds(t *testing.T) {
	fakes := &pipelineFakes{vectors: &fakeVectors{hasErr: errors.New("qdrant down")}}
	p := newTestProcessor(fakes)

	outcome := p.ProcessFile(context.Background(), domain.SourceFile{Path: "/in/a.pdf", ContentHash: "abc"})
	if outcome.State != domain.StateCompleted {
		t.Fatalf("state = %s, want completed", outcome.State)
	}
}

func TestFailedExtractionIsFatalForFile(t *testing.T) {
	fakes := &pipelineFakes{
		extractor: &fakeExtractor{text: domain.ExtractedText{Method: domain.ExtractFailed, Text: "[извлечение текста не удалось]"}},
	}
	p := newTestProcessor(fakes)

	outcome := p.ProcessFile(context.Background(), domain.SourceFile{Path: "/in/scan.pdf", ContentHash: "abc"})
	if outcome.State != domain.StateFailed {
		t.Fatalf("state = %s, want failed", outcome.State)
	}
	if outcome.FailedStage != "extract" {
		t.Fatalf("failed stage = %s", outcome.FailedStage)
	}
	if fakes.persister.calls != 0 {
		t.Fatal("persistence ran for an unreadable file")
	}
}

func TestDegradedExtractionAddsWarningAndContinues(t *testing.T) {
	fakes := &pipelineFakes{
		extractor: &fakeExtractor{text: domain.ExtractedText{
			ContentHash: "abc", Text: "распознанный текст", Method: domain.ExtractOCR,
		}},
	}
	p := newTestProcessor(fakes)

	outcome := p.ProcessFile(context.Background(), domain.SourceFile{Path: "/in/scan.pdf", ContentHash: "abc"})
	if outcome.State != domain.StateCompleted {
		t.Fatalf("state = %s, want completed", outcome.State)
	}
	found := false
	for _, w := range outcome.Warnings {
		if strings.Contains(w, "ocr") {
			found = true
		}
	}
	if !found {
		t.Fatalf("no degradation warning: %v", outcome.Warnings)
	}
}

func TestRoutingFailureDoesNotFailFile(t *testing.T) {
	fakes := &pipelineFakes{router: &fakeRouter{err: errors.New("disk full")}}
	p := newTestProcessor(fakes)

	outcome := p.ProcessFile(context.Background(), domain.SourceFile{Path: "/in/a.pdf", ContentHash: "abc"})
	if outcome.State != domain.StateCompleted {
		t.Fatalf("state = %s, want completed", outcome.State)
	}
	if outcome.File.Path != "/in/a.pdf" {
		t.Fatalf("path changed despite failed move: %s", outcome.File.Path)
	}
}

func TestRoutedPathPropagatesToOutcome(t *testing.T) {
	fakes := &pipelineFakes{router: &fakeRouter{newPath: "/docs/01_НОРМАТИВЫ/a.pdf"}}
	p := newTestProcessor(fakes)

	outcome := p.ProcessFile(context.Background(), domain.SourceFile{Path: "/in/a.pdf", ContentHash: "abc"})
	if outcome.File.Path != "/docs/01_НОРМАТИВЫ/a.pdf" {
		t.Fatalf("path = %s", outcome.File.Path)
	}
}

func TestPersistenceErrorFailsFile(t *testing.T) {
	fakes := &pipelineFakes{persister: &fakePersister{err: errors.New("vector store rejected batch")}}
	p := newTestProcessor(fakes)

	outcome := p.ProcessFile(context.Background(), domain.SourceFile{Path: "/in/a.pdf", ContentHash: "abc"})
	if outcome.State != domain.StateFailed || outcome.FailedStage != "persist" {
		t.Fatalf("state = %s, stage = %s", outcome.State, outcome.FailedStage)
	}
}

func TestLowQualityScoreFlaggedForReview(t *testing.T) {
	fakes := &pipelineFakes{scorer: &fakeScorer{score: 40}}
	p := newTestProcessor(fakes)

	outcome := p.ProcessFile(context.Background(), domain.SourceFile{Path: "/in/a.pdf", ContentHash: "abc"})
	if outcome.State != domain.StateCompleted {
		t.Fatalf("state = %s, want completed", outcome.State)
	}
	found := false
	for _, w := range outcome.Warnings {
		if strings.Contains(w, "ручной проверки") {
			found = true
		}
	}
	if !found {
		t.Fatalf("no review warning: %v", outcome.Warnings)
	}

	fakes = &pipelineFakes{scorer: &fakeScorer{score: 75}}
	outcome = newTestProcessor(fakes).ProcessFile(context.Background(),
		domain.SourceFile{Path: "/in/b.pdf", ContentHash: "def"})
	for _, w := range outcome.Warnings {
		if strings.Contains(w, "ручной проверки") {
			t.Fatalf("unexpected review warning: %v", outcome.Warnings)
		}
	}
}

func TestPersisterWarningsSurfaceInOutcome(t *testing.T) {
	fakes := &pipelineFakes{persister: &fakePersister{warnings: []string{"хранилище недоступно, данные сохранены в снапшот: abc_chunks"}}}
	p := newTestProcessor(fakes)

	outcome := p.ProcessFile(context.Background(), domain.SourceFile{Path: "/in/a.pdf", ContentHash: "abc"})
	if outcome.State != domain.StateCompleted {
		t.Fatalf("state = %s, want completed", outcome.State)
	}
	if len(outcome.Warnings) == 0 || !strings.Contains(outcome.Warnings[len(outcome.Warnings)-1], "снапшот") {
		t.Fatalf("warnings = %v", outcome.Warnings)
	}
}
