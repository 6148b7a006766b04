// Command summarizer runs the Summarizer HTTP API or drives
// one batch of LLM summarization and embedding generation over
// unsummarized Articles.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	_ "github.com/crb2nu/news-analyzer/docs" // swagger docs

	"github.com/crb2nu/news-analyzer/cmd/internal/bootstrap"
	"github.com/crb2nu/news-analyzer/internal/api"
	"github.com/crb2nu/news-analyzer/internal/platformconfig"
	"github.com/crb2nu/news-analyzer/internal/repository/postgres"
	"github.com/crb2nu/news-analyzer/internal/summarizer"
)

func main() {
	logger := bootstrap.NewLogger()

	var batchSize int
	var maxConcurrent int

	root := &cobra.Command{Use: "summarizer", Short: "Serve the read API or run a summarization batch"}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the Summarizer HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), logger)
		},
	}

	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "Summarize and embed one batch of unsummarized Articles",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			deps, cleanup, err := wireSummarizer(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			opts := summarizer.DefaultBatchOptions()
			if batchSize > 0 {
				opts.BatchSize = batchSize
			}
			if maxConcurrent > 0 {
				opts.MaxConcurrent = maxConcurrent
			}

			stats, err := deps.worker.RunBatch(ctx, opts)
			if err != nil {
				return err
			}
			logger.Info("batch complete", slog.Int("processed", stats.Processed), slog.Int("failed", stats.Failed))
			return nil
		},
	}
	batchCmd.Flags().IntVar(&batchSize, "batch-size", 0, "override the default batch size (50)")
	batchCmd.Flags().IntVar(&maxConcurrent, "max-concurrent", 0, "override the default concurrency (5)")

	root.AddCommand(serveCmd, batchCmd)

	ctx, stop := bootstrap.SignalContext(logger, platformconfig.DefaultCrawlTimeouts().GracePeriod)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		bootstrap.ExitForErr(logger, "summarizer command failed", err)
	}
}

// runServe wires the full read API and blocks until the signal context
// cancels, then drains in-flight requests within the shutdown grace
// period before exiting.
func runServe(ctx context.Context, logger *slog.Logger) error {
	db, err := bootstrap.OpenDB()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	client := postgres.NewClient(db)
	cfg := platformconfig.LoadServerConfig()

	deps := api.Deps{
		DB:         db,
		Articles:   postgres.NewArticleRepository(client),
		Summaries:  postgres.NewSummaryRepository(client),
		Events:     postgres.NewArticleEventRepository(client),
		Embeddings: postgres.NewEmbeddingRepository(client),
		Rollups:    postgres.NewTrendingRollupRepository(client),
		StaticDir:  cfg.StaticDir,
		Logger:     logger,
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("summarizer api listening", slog.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), platformconfig.DefaultCrawlTimeouts().GracePeriod)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
