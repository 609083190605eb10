package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/s9034541160-source/bldr-ingest/internal/core/domain"
	"github.com/s9034541160-source/bldr-ingest/internal/core/ports"
)

// Metrics is the subset of worker metrics the pipeline reports into. A nil
// value disables reporting.
type Metrics interface {
	StartFile()
	FinishFile(service, status string)
	ObserveStage(service, stage string, duration time.Duration)
	AddChunks(n int)
	AddReferences(n int)
}

// Processor is the per-file state machine. Stage failures that represent
// genuine data problems fail the file; everything else degrades with a
// warning and the pipeline keeps going.
type Processor struct {
	service string

	ledger     ports.LedgerStore
	vectors    ports.VectorStore
	extractor  ports.TextExtractor
	classifier ports.DocumentClassifier
	analyzer   ports.StructuralAnalyzer
	router     ports.FileRouter
	references ports.ReferenceExtractor
	chunker    ports.Chunker
	metadata   ports.MetadataExtractor
	scorer     ports.QualityScorer
	persister  Persister

	reviewBelow float64

	metrics Metrics
	log     *slog.Logger
}

type ProcessorDeps struct {
	Ledger     ports.LedgerStore
	Vectors    ports.VectorStore
	Extractor  ports.TextExtractor
	Classifier ports.DocumentClassifier
	Analyzer   ports.StructuralAnalyzer
	Router     ports.FileRouter
	References ports.ReferenceExtractor
	Chunker    ports.Chunker
	Metadata   ports.MetadataExtractor
	Scorer     ports.QualityScorer
	Persister  Persister
	Metrics    Metrics

	// ReviewBelow flags completed files whose quality score falls under the
	// threshold; zero disables the flag.
	ReviewBelow float64
}

func NewProcessor(service string, deps ProcessorDeps, log *slog.Logger) *Processor {
	return &Processor{
		service:    service,
		ledger:     deps.Ledger,
		vectors:    deps.Vectors,
		extractor:  deps.Extractor,
		classifier: deps.Classifier,
		analyzer:   deps.Analyzer,
		router:     deps.Router,
		references: deps.References,
		chunker:    deps.Chunker,
		metadata:   deps.Metadata,
		scorer:     deps.Scorer,
		persister:  deps.Persister,

		reviewBelow: deps.ReviewBelow,

		metrics: deps.Metrics,
		log:     log,
	}
}

func (p *Processor) ProcessFile(ctx context.Context, file domain.SourceFile) domain.FileOutcome {
	if p.metrics != nil {
		p.metrics.StartFile()
	}
	outcome := p.run(ctx, file)
	if p.metrics != nil {
		p.metrics.FinishFile(p.service, string(outcome.State))
		p.metrics.AddChunks(outcome.ChunkCount)
		p.metrics.AddReferences(outcome.RefCount)
	}
	return outcome
}

func (p *Processor) run(ctx context.Context, file domain.SourceFile) domain.FileOutcome {
	outcome := domain.FileOutcome{File: file, State: domain.StateDiscovered}
	log := p.log.With("path", file.Path, "content_hash", file.ContentHash)

	// Validated / dedup gate.
	duplicate, err := p.alreadyIngested(ctx, file.ContentHash)
	if err != nil {
		return p.fail(outcome, "dedup", err)
	}
	if duplicate {
		log.Info("duplicate content skipped")
		outcome.State = domain.StateSkipped
		outcome.Reason = "duplicate content"
		return outcome
	}
	outcome.State = domain.StateValidated

	// Extracted.
	stageStart := time.Now()
	extracted, err := p.extractor.Extract(ctx, file)
	p.observe("extract", stageStart)
	if err != nil || extracted.Method == domain.ExtractFailed {
		if err == nil {
			err = fmt.Errorf("extraction produced no usable text")
		}
		return p.fail(outcome, "extract", domain.WrapError(domain.ErrValidation, "extract text", err))
	}
	if extracted.Method != domain.ExtractNative {
		log.Warn("extraction degraded", "method", extracted.Method)
		outcome.Warnings = append(outcome.Warnings,
			fmt.Sprintf("извлечение текста методом %s", extracted.Method))
	}
	outcome.State = domain.StateExtracted

	// Classified. Oracle trouble degrades to the catch-all type.
	stageStart = time.Now()
	info, err := p.classifier.Classify(ctx, extracted.Text, filepath.Base(file.Path))
	p.observe("classify", stageStart)
	if err != nil {
		log.Warn("classification failed, treating as other", "error", err)
		info = domain.DocTypeInfo{Type: domain.TypeOther, Method: domain.DetectRegex}
		outcome.Warnings = append(outcome.Warnings, "классификация не удалась")
	}
	if info.Confidence < 0.3 {
		outcome.Warnings = append(outcome.Warnings,
			fmt.Sprintf("низкая уверенность классификации: %.2f", info.Confidence))
	}
	outcome.State = domain.StateClassified

	// StructurallyAnalyzed. The analyzer has its own fallback tiers; an
	// outright error leaves the whole text as a single root section.
	stageStart = time.Now()
	structure, err := p.analyzer.Analyze(ctx, extracted.Text)
	p.observe("analyze", stageStart)
	if err != nil || structure.Tree == nil {
		log.Warn("structural analysis failed, using flat structure", "error", err)
		tree := domain.NewSectionTree(filepath.Base(file.Path))
		tree.Nodes[0].Content = extracted.Text
		structure = domain.Structure{Tree: tree, Tier: "flat"}
		outcome.Warnings = append(outcome.Warnings, "структурный анализ не удался")
	}
	outcome.State = domain.StateStructured

	// Routed, side effect only. A failed move never fails the file.
	stageStart = time.Now()
	newPath, err := p.router.Route(ctx, file, info)
	p.observe("route", stageStart)
	if err != nil {
		log.Warn("routing failed, file left in place", "error", err)
		outcome.Warnings = append(outcome.Warnings, "файл не перемещён")
	} else if newPath != "" {
		file.Path = newPath
		outcome.File.Path = newPath
	}
	outcome.State = domain.StateRouted

	// ReferencesExtracted.
	stageStart = time.Now()
	refs := p.references.ExtractReferences(extracted.Text)
	p.observe("references", stageStart)
	outcome.RefCount = len(refs)
	outcome.State = domain.StateReferencesExtracted

	// Chunked.
	stageStart = time.Now()
	chunks := p.chunker.Chunk(file.ContentHash, structure)
	p.observe("chunk", stageStart)
	if len(chunks) == 0 {
		return p.fail(outcome, "chunk",
			domain.WrapError(domain.ErrValidation, "chunk document", fmt.Errorf("no chunks produced")))
	}
	outcome.ChunkCount = len(chunks)
	outcome.State = domain.StateChunked

	// MetadataExtracted.
	meta := p.metadata.ExtractMetadata(structure, info)
	outcome.State = domain.StateMetadataExtracted

	// QualityScored.
	quality := p.scorer.Score(info.Confidence, len(structure.Tree.Sections()), len(chunks),
		meta.CategoryScore, len(refs))
	outcome.Quality = quality
	if p.reviewBelow > 0 && quality.Score < p.reviewBelow {
		log.Warn("quality below review threshold", "score", quality.Score, "threshold", p.reviewBelow)
		outcome.Warnings = append(outcome.Warnings,
			fmt.Sprintf("качество %.0f ниже порога ручной проверки %.0f", quality.Score, p.reviewBelow))
	}
	outcome.State = domain.StateQualityScored

	// Persisted.
	stageStart = time.Now()
	record, warnings, err := p.persister.Persist(ctx, file, info, chunks, refs, meta, quality)
	p.observe("persist", stageStart)
	outcome.Warnings = append(outcome.Warnings, warnings...)
	if err != nil {
		return p.fail(outcome, "persist", err)
	}
	outcome.State = domain.StatePersisted

	if err := p.ledger.Put(ctx, domain.LedgerEntry{
		ContentHash:  file.ContentHash,
		OriginalPath: file.Path,
		ProcessedAt:  record.ProcessedAt,
		ChunkCount:   len(chunks),
		DocType:      info.Type,
		QualityScore: quality.Score,
	}); err != nil {
		log.Warn("ledger write failed", "error", err)
		outcome.Warnings = append(outcome.Warnings, "запись в реестр не удалась")
	}

	log.Info("file ingested", "doc_type", info.Type, "chunks", len(chunks),
		"references", len(refs), "quality", quality.Score)
	outcome.State = domain.StateCompleted
	return outcome
}

// alreadyIngested consults the ledger first and the vector store second, so
// a lost ledger does not cause duplicate points.
func (p *Processor) alreadyIngested(ctx context.Context, contentHash string) (bool, error) {
	entry, err := p.ledger.Get(ctx, contentHash)
	if err != nil {
		return false, domain.WrapError(domain.ErrPersistenceUnavailable, "read ledger", err)
	}
	if entry != nil {
		return true, nil
	}
	found, err := p.vectors.HasDocument(ctx, contentHash)
	if err != nil {
		p.log.Warn("vector dedup check failed, proceeding", "content_hash", contentHash, "error", err)
		return false, nil
	}
	return found, nil
}

func (p *Processor) fail(outcome domain.FileOutcome, stage string, err error) domain.FileOutcome {
	p.log.Error("file failed", "path", outcome.File.Path, "stage", stage, "error", err)
	outcome.State = domain.StateFailed
	outcome.FailedStage = stage
	outcome.Reason = err.Error()
	return outcome
}

func (p *Processor) observe(stage string, start time.Time) {
	if p.metrics != nil {
		p.metrics.ObserveStage(p.service, stage, time.Since(start))
	}
}
