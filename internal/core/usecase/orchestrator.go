package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/s9034541160-source/bldr-ingest/internal/core/domain"
	"github.com/s9034541160-source/bldr-ingest/internal/core/ports"
)

// Orchestrator fans discovered files out over a bounded worker pool. One
// file failing never aborts the run; the report always materializes.
type Orchestrator struct {
	discoverer *Discoverer
	processor  ports.FileProcessor
	workers    int
	log        *slog.Logger
}

func NewOrchestrator(discoverer *Discoverer, processor ports.FileProcessor, workers int, log *slog.Logger) *Orchestrator {
	if workers <= 0 {
		workers = 4
	}
	return &Orchestrator{
		discoverer: discoverer,
		processor:  processor,
		workers:    workers,
		log:        log,
	}
}

func (o *Orchestrator) IngestDirectory(ctx context.Context, root string, limit int) (domain.RunReport, error) {
	files, err := o.discoverer.Discover(root, limit)
	if err != nil {
		return domain.RunReport{}, err
	}
	o.log.Info("ingestion run started", "root", root, "files", len(files), "workers", o.workers)

	jobs := make(chan domain.SourceFile)
	outcomes := make(chan domain.FileOutcome, len(files))

	var wg sync.WaitGroup
	for w := 0; w < o.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for file := range jobs {
				outcomes <- o.processor.ProcessFile(ctx, file)
			}
		}()
	}

feed:
	for _, file := range files {
		select {
		case <-ctx.Done():
			o.log.Warn("run cancelled, draining workers", "error", ctx.Err())
			break feed
		case jobs <- file:
		}
	}
	close(jobs)
	wg.Wait()
	close(outcomes)

	report := buildReport(len(files), outcomes)
	o.log.Info("ingestion run finished",
		"found", report.FilesFound,
		"processed", report.FilesProcessed,
		"skipped", report.FilesSkipped,
		"failed", report.FilesFailed,
		"chunks", report.ChunksTotal,
		"references", report.ReferenceTotal,
		"success_rate", report.SuccessRate)
	return report, ctx.Err()
}

func buildReport(found int, outcomes <-chan domain.FileOutcome) domain.RunReport {
	report := domain.RunReport{FilesFound: found}
	for outcome := range outcomes {
		switch outcome.State {
		case domain.StateCompleted:
			report.FilesProcessed++
			report.ChunksTotal += outcome.ChunkCount
			report.ReferenceTotal += outcome.RefCount
		case domain.StateSkipped:
			report.FilesSkipped++
		default:
			report.FilesFailed++
			report.QualityIssues = append(report.QualityIssues,
				fmt.Sprintf("%s: %s (%s)", outcome.File.Path, outcome.Reason, outcome.FailedStage))
		}
		for _, issue := range outcome.Quality.Issues {
			report.QualityIssues = append(report.QualityIssues,
				fmt.Sprintf("%s: %s", outcome.File.Path, issue))
		}
	}
	attempted := report.FilesProcessed + report.FilesFailed
	if attempted > 0 {
		report.SuccessRate = float64(report.FilesProcessed) / float64(attempted)
	}
	return report
}
