// Command worker is a self-hosted alternative to an external cluster
// scheduler (cron-like schedules, at-most-one concurrency, retry with
// back-off). It drives the same operations the cmd/scraper,
// cmd/extractor, cmd/summarizer, and cmd/notifier CLIs expose, on the
// default pipeline cadences, for operators who have no cluster
// scheduler available. A cluster that already runs CronJobs against the
// per-component binaries does not need this process.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/crb2nu/news-analyzer/cmd/internal/bootstrap"
	"github.com/crb2nu/news-analyzer/internal/infra/worker"
	"github.com/crb2nu/news-analyzer/internal/platformconfig"
	"github.com/crb2nu/news-analyzer/internal/scraper"
	"github.com/crb2nu/news-analyzer/internal/summarizer"
)

// defaultDigestTopN matches SendDigest's documented default; the
// scheduler has no per-run CLI flag to override it the way `notifier
// send --top-n` does.
const defaultDigestTopN = 5

func main() {
	logger := bootstrap.NewLogger()

	metrics := worker.NewWorkerMetrics()
	cfg, err := worker.LoadConfigFromEnv(logger, metrics)
	if err != nil {
		bootstrap.ExitForErr(logger, "worker: load config", err)
		return
	}
	if err := cfg.Validate(); err != nil {
		bootstrap.ExitForErr(logger, "worker: invalid config", err)
		return
	}

	grace := platformconfig.DefaultCrawlTimeouts().GracePeriod
	ctx, stop := bootstrap.SignalContext(logger, grace)
	defer stop()

	deps, cleanup, err := wireWorker(ctx)
	if err != nil {
		bootstrap.ExitForErr(logger, "worker: wire dependencies", err)
		return
	}
	defer cleanup()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warn("invalid timezone, falling back to UTC", slog.String("timezone", cfg.Timezone), slog.Any("error", err))
		loc = time.UTC
	}

	health := worker.NewHealthServer(fmt.Sprintf(":%d", cfg.HealthPort), logger)
	go func() {
		if err := health.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()

	c := cron.New(cron.WithLocation(loc))
	schedule := func(job string, sc worker.ScheduleConfig, run func(context.Context) error) {
		if !sc.Enabled {
			logger.Info("job disabled, not scheduled", slog.String("job", job))
			return
		}
		if _, err := c.AddFunc(sc.Expression, func() {
			runJob(logger, metrics, job, sc.Timeout, run)
		}); err != nil {
			logger.Error("failed to schedule job", slog.String("job", job), slog.Any("error", err))
		}
	}

	schedule("auth-refresh", cfg.AuthRefresh, func(ctx context.Context) error {
		return runAuthRefresh(ctx, deps)
	})
	schedule("scrape", cfg.Scrape, func(ctx context.Context) error {
		return runScrape(ctx, logger, deps)
	})
	schedule("extract", cfg.Extract, func(ctx context.Context) error {
		return runExtract(ctx, logger, deps)
	})
	schedule("summarize-batch", cfg.SummarizeBatch, func(ctx context.Context) error {
		return runSummarizeBatch(ctx, logger, deps)
	})
	schedule("notify", cfg.Notify, func(ctx context.Context) error {
		return runNotify(ctx, logger, deps, defaultDigestTopN)
	})

	c.Start()
	health.SetReady(true)

	logger.Info("worker started",
		slog.String("timezone", cfg.Timezone),
		slog.String("scrape_cron", cfg.Scrape.Expression),
		slog.String("extract_cron", cfg.Extract.Expression),
		slog.String("summarize_cron", cfg.SummarizeBatch.Expression),
		slog.String("notify_cron", cfg.Notify.Expression))

	<-ctx.Done()
	health.SetReady(false)
	logger.Info("shutting down scheduler, letting running jobs finish", slog.Duration("grace", grace))
	drained := c.Stop()
	select {
	case <-drained.Done():
		logger.Info("scheduler drained")
	case <-time.After(grace):
		logger.Error("grace period elapsed with jobs still running")
	}
}

// runJob wraps a single job firing with a timeout, panic recovery (a
// browser-context leak or PDF-parser panic must never take the whole
// scheduler process down), and metrics/duration recording.
func runJob(logger *slog.Logger, metrics *worker.WorkerMetrics, job string, timeout time.Duration, run func(context.Context) error) {
	start := time.Now()
	status := "success"
	defer func() {
		if r := recover(); r != nil {
			logger.Error("job panicked", slog.String("job", job), slog.Any("panic", r))
			status = "failure"
		}
		metrics.RecordJobRun(job, status)
		metrics.RecordJobDuration(job, time.Since(start).Seconds())
		if status == "success" {
			metrics.RecordJobSuccess(job)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	logger.Info("job starting", slog.String("job", job))
	if err := run(ctx); err != nil {
		logger.Error("job failed", slog.String("job", job), slog.Any("error", err))
		status = "failure"
		return
	}
	logger.Info("job complete", slog.String("job", job))
}

func runAuthRefresh(ctx context.Context, deps *workerDeps) error {
	pubs, err := deps.publications.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active publications: %w", err)
	}
	var errs []error
	for _, pub := range pubs {
		scr := deps.newScraper(pub.Slug)
		if _, err := scr.Login(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", pub.Slug, err))
		}
	}
	return joinErrs(errs)
}

func runScrape(ctx context.Context, logger *slog.Logger, deps *workerDeps) error {
	pubs, err := deps.publications.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active publications: %w", err)
	}
	date := time.Now().In(time.UTC).Truncate(24 * time.Hour)
	dateStr := date.Format("2006-01-02")

	var errs []error
	for _, pub := range pubs {
		scr := deps.newScraper(pub.Slug)
		if _, err := scr.Login(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: login: %w", pub.Slug, err))
			continue
		}
		pages, err := scr.Discover(ctx, editionURL(pub.Slug, dateStr))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: discover: %w", pub.Slug, err))
			continue
		}
		results, err := scr.Download(ctx, date, pages, false)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: download: %w", pub.Slug, err))
			continue
		}
		downloaded, failed := 0, 0
		for _, r := range results {
			switch r.Status {
			case scraper.DownloadDownloaded:
				downloaded++
			case scraper.DownloadFailed:
				failed++
			}
		}
		if failed > 0 {
			errs = append(errs, fmt.Errorf("%s: %d of %d pages failed", pub.Slug, failed, len(results)))
		}
		logger.Info("scrape complete", slog.String("publication", pub.Slug), slog.Int("pages", len(results)), slog.Int("downloaded", downloaded), slog.Int("failed", failed))
	}
	return joinErrs(errs)
}

func runExtract(ctx context.Context, logger *slog.Logger, deps *workerDeps) error {
	pubs, err := deps.publications.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active publications: %w", err)
	}
	date := time.Now().In(time.UTC).Truncate(24 * time.Hour)

	var errs []error
	for _, pub := range pubs {
		report, err := deps.extractor.ProcessEdition(ctx, pub.Slug, date, false)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", pub.Slug, err))
			continue
		}
		logger.Info("extract complete",
			slog.String("publication", pub.Slug),
			slog.Int("found", report.Found),
			slog.Int("new", report.New),
			slog.Int("duplicate", report.Duplicate),
			slog.Int("failed", report.Failed))
	}
	return joinErrs(errs)
}

func runSummarizeBatch(ctx context.Context, logger *slog.Logger, deps *workerDeps) error {
	stats, err := deps.summarizer.RunBatch(ctx, summarizer.DefaultBatchOptions())
	if err != nil {
		return err
	}
	logger.Info("summarize batch complete", slog.Int("processed", stats.Processed), slog.Int("failed", stats.Failed))

	res, err := deps.analytics.Run(ctx, time.Now().In(time.UTC).Truncate(24*time.Hour), 0)
	if err != nil {
		logger.Error("analytics recompute failed", slog.Any("error", err))
		return nil // Transient/UpstreamUnavailable-shaped; batch already succeeded, don't fail the job for it.
	}
	logger.Info("analytics recompute complete", slog.Any("written", res.Written))
	return nil
}

func runNotify(ctx context.Context, logger *slog.Logger, deps *workerDeps, topN int) error {
	date := time.Now().In(time.UTC).Truncate(24 * time.Hour)
	result, err := deps.notifier.SendDigest(ctx, date, topN, false)
	if err != nil {
		return err
	}
	logger.Info("digest sent", slog.Bool("posted", result.Posted), slog.Int("count", result.Count))
	return nil
}

func joinErrs(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	msg := errs[0].Error()
	for _, e := range errs[1:] {
		msg += "; " + e.Error()
	}
	return fmt.Errorf("%s", msg)
}
