package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/s9034541160-source/bldr-ingest/internal/bootstrap"
	"github.com/s9034541160-source/bldr-ingest/internal/config"
	"github.com/s9034541160-source/bldr-ingest/internal/core/usecase"
	"github.com/s9034541160-source/bldr-ingest/internal/observability/logging"
)

var (
	flagLimit  int
	flagDryRun bool
)

var rootCmd = &cobra.Command{
	Use:           "bldr-ingest",
	Short:         "Construction document ingestion pipeline",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var ingestCmd = &cobra.Command{
	Use:   "ingest [root-dir]",
	Short: "Ingest a directory of construction documents",
	Long: `Walks the directory tree, extracts and classifies every supported
document, chunks it into the vector store and links its normative
references in the graph. Per-file failures never abort the run.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().IntVar(&flagLimit, "limit", 0, "Process at most N files (0 = no cap)")
	ingestCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Discover and report files without processing them")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	log := logging.New("bldr-ingest", cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if flagDryRun {
		return runDryRun(cmd, cfg, log, args[0])
	}

	app, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("startup: %w", err)
	}
	defer app.Close()

	metricsSrv := &http.Server{
		Addr:    ":" + cfg.MetricsPort,
		Handler: newMetricsMux(app.Metrics.Handler()),
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("metrics server stopped", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}()

	report, runErr := app.Ingestor.IngestDirectory(ctx, args[0], flagLimit)
	printReport(cmd, report)

	// Per-file failures are part of a successful run; only cancellation or
	// a discovery failure is an error exit.
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

func runDryRun(cmd *cobra.Command, cfg config.Config, log *slog.Logger, root string) error {
	discoverer := usecase.NewDiscoverer(cfg.MaxFileSizeMB, log)
	files, err := discoverer.Discover(root, flagLimit)
	if err != nil {
		return err
	}
	cmd.Printf("Найдено файлов: %d\n", len(files))
	for _, f := range files {
		cmd.Printf("  %-10s %10d  %s\n", f.TypeHint, f.Size, f.Path)
	}
	return nil
}

func newMetricsMux(metricsHandler http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metricsHandler)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
