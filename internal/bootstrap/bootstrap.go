package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/s9034541160-source/bldr-ingest/internal/config"
	"github.com/s9034541160-source/bldr-ingest/internal/core/ports"
	"github.com/s9034541160-source/bldr-ingest/internal/core/usecase"
	"github.com/s9034541160-source/bldr-ingest/internal/infrastructure/chunking"
	"github.com/s9034541160-source/bldr-ingest/internal/infrastructure/classify"
	"github.com/s9034541160-source/bldr-ingest/internal/infrastructure/extract"
	"github.com/s9034541160-source/bldr-ingest/internal/infrastructure/graph/neo4j"
	"github.com/s9034541160-source/bldr-ingest/internal/infrastructure/metadata"
	"github.com/s9034541160-source/bldr-ingest/internal/infrastructure/ntd"
	"github.com/s9034541160-source/bldr-ingest/internal/infrastructure/ocr/tesseract"
	"github.com/s9034541160-source/bldr-ingest/internal/infrastructure/oracle/ollama"
	"github.com/s9034541160-source/bldr-ingest/internal/infrastructure/quality"
	"github.com/s9034541160-source/bldr-ingest/internal/infrastructure/queue/nats"
	"github.com/s9034541160-source/bldr-ingest/internal/infrastructure/repository/postgres"
	"github.com/s9034541160-source/bldr-ingest/internal/infrastructure/resilience"
	"github.com/s9034541160-source/bldr-ingest/internal/infrastructure/router"
	"github.com/s9034541160-source/bldr-ingest/internal/infrastructure/snapshot"
	"github.com/s9034541160-source/bldr-ingest/internal/infrastructure/structure"
	"github.com/s9034541160-source/bldr-ingest/internal/infrastructure/vector/qdrant"
	"github.com/s9034541160-source/bldr-ingest/internal/observability/metrics"
)

// App wires the full ingestion pipeline. Construction fails only on
// unrecoverable startup problems (postgres/neo4j unreachable); optional
// pieces like NATS degrade to disabled.
type App struct {
	Config   config.Config
	Ingestor ports.DocumentIngestor
	Metrics  *metrics.IngestMetrics
	Log      *slog.Logger

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ledger := postgres.NewLedgerRepository(db)
	if err := ledger.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	moveHistory := postgres.NewMoveHistoryRepository(db)

	graphStore, err := neo4j.New(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword, log)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect neo4j: %w", err)
	}

	snapshots, err := snapshot.New(cfg.SnapshotDir)
	if err != nil {
		_ = db.Close()
		_ = graphStore.Close(ctx)
		return nil, fmt.Errorf("init snapshot store: %w", err)
	}

	taxonomy, err := router.LoadTaxonomy(cfg.TaxonomyPath)
	if err != nil {
		_ = db.Close()
		_ = graphStore.Close(ctx)
		return nil, fmt.Errorf("load taxonomy: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig(), log)

	var events ports.EventPublisher
	var queue *nats.Queue
	if cfg.NATSEnabled {
		queue, err = nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: executor,
		})
		if err != nil {
			log.Warn("nats unavailable, events disabled", "error", err)
		} else {
			events = queue
		}
	}

	oracle := resilience.WrapOracle(ollama.New(cfg.OllamaURL, cfg.OllamaEmbedModel), executor)
	vectors := resilience.WrapVectorStore(qdrant.New(cfg.QdrantURL, cfg.QdrantCollection, cfg.QdrantBatchSize), executor)
	wiredGraph := resilience.WrapGraphStore(graphStore, executor)

	ocrEngine := tesseract.NewEngine(cfg.OCRPdftoppmBin, cfg.OCRTesseractBin, cfg.OCRMaxConcurrent, log)
	var ocr ports.OCREngine
	if err := ocrEngine.CheckBinaries(); err != nil {
		log.Warn("ocr binaries missing, scanned documents degrade to native extraction", "error", err)
	} else {
		ocr = ocrEngine
	}

	strategies := []extract.Strategy{
		extract.NewPDFStrategy(),
		extract.NewDOCXStrategy(),
		extract.NewXLSXStrategy(),
		extract.NewHTMLStrategy(),
		extract.NewTextStrategy(),
	}
	extractor := extract.NewController(strategies, ocr, ocrLanguages(cfg.OCRLanguages),
		time.Duration(cfg.OCRTimeoutSeconds)*time.Second, log)

	ingestMetrics := metrics.NewIngestMetrics("bldr-ingest")

	gateway := usecase.NewGateway(oracle, vectors, wiredGraph, snapshots, events, cfg.QdrantBatchSize, log)
	processor := usecase.NewProcessor("bldr-ingest", usecase.ProcessorDeps{
		Ledger:     ledger,
		Vectors:    vectors,
		Extractor:  extractor,
		Classifier: classify.NewClassifier(oracle, log),
		Analyzer:   structure.NewAnalyzer(oracle, log),
		Router:     router.New(cfg.BaseDir, taxonomy, moveHistory, cfg.ClassifyMinConfidence, log),
		References: ntd.NewExtractor(),
		Chunker:    chunking.NewChunker(),
		Metadata:   metadata.NewExtractor(),
		Scorer:     quality.NewScorer(),
		Persister:  gateway,
		Metrics:    ingestMetrics,

		ReviewBelow: cfg.QualityReviewBelow,
	}, log)

	discoverer := usecase.NewDiscoverer(cfg.MaxFileSizeMB, log)
	orchestrator := usecase.NewOrchestrator(discoverer, processor, cfg.Workers, log)

	return &App{
		Config:   cfg,
		Ingestor: orchestrator,
		Metrics:  ingestMetrics,
		Log:      log,
		closeFn: func() {
			if queue != nil {
				queue.Close()
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = graphStore.Close(shutdownCtx)
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func ocrLanguages(spec string) []string {
	return strings.FieldsFunc(spec, func(r rune) bool {
		return r == '+' || r == ','
	})
}
