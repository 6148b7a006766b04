package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/crb2nu/news-analyzer/cmd/internal/bootstrap"
	"github.com/crb2nu/news-analyzer/internal/analytics"
	"github.com/crb2nu/news-analyzer/internal/extractor"
	infrafetcher "github.com/crb2nu/news-analyzer/internal/infra/fetcher"
	infrascraper "github.com/crb2nu/news-analyzer/internal/infra/scraper"
	infrasummarizer "github.com/crb2nu/news-analyzer/internal/infra/summarizer"
	"github.com/crb2nu/news-analyzer/internal/notifier"
	"github.com/crb2nu/news-analyzer/internal/objectstore"
	"github.com/crb2nu/news-analyzer/internal/platformconfig"
	"github.com/crb2nu/news-analyzer/internal/repository"
	"github.com/crb2nu/news-analyzer/internal/repository/postgres"
	"github.com/crb2nu/news-analyzer/internal/scraper"
	"github.com/crb2nu/news-analyzer/internal/summarizer"
)

// workerDeps holds every component the scheduler drives, wired once at
// startup and reused across every cron firing, mirroring the per-binary
// wire*.go files in cmd/scraper, cmd/extractor, cmd/summarizer,
// cmd/notifier (this process dispatches into all four in-process instead
// of shelling out to the separate binaries).
type workerDeps struct {
	db           *sql.DB
	store        *objectstore.Store
	publications repository.PublicationRepository
	extractor    *extractor.Extractor
	summarizer   *summarizer.Worker
	notifier     *notifier.Notifier
	analytics    *analytics.Recomputer

	newScraper func(publicationSlug string) *scraper.Scraper
}

func wireWorker(ctx context.Context) (*workerDeps, func(), error) {
	db, err := bootstrap.OpenDB()
	if err != nil {
		return nil, nil, err
	}
	client := postgres.NewClient(db)

	articles := postgres.NewArticleRepository(client)
	summaries := postgres.NewSummaryRepository(client)
	events := postgres.NewArticleEventRepository(client)
	history := postgres.NewProcessingHistoryRepository(client)
	publications := postgres.NewPublicationRepository(client)
	rollups := postgres.NewTrendingRollupRepository(client)

	objCfg, err := platformconfig.LoadObjectStoreConfig()
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	store, err := objectstore.New(ctx, objectstore.Config{
		Endpoint:        objCfg.Endpoint,
		Region:          "us-east-1",
		Bucket:          objCfg.Bucket,
		AccessKeyID:     objCfg.AccessKey,
		SecretAccessKey: objCfg.SecretKey,
		UsePathStyle:    true,
	})
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("worker: open object store: %w", err)
	}

	creds, err := platformconfig.LoadCredentialsConfig()
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	proxyCfg, err := platformconfig.LoadProxyConfig()
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	tuning := platformconfig.LoadTuningConfig()
	timeouts := platformconfig.DefaultCrawlTimeouts()

	base := platformconfig.OptionalEnv("EEDITION_BASE_URL", "https://eedition.example.com")
	browser := scraper.NewChromeBrowser(tuning.PWTrace, timeouts.ScrapeDownload)
	sessions := &scraper.ObjectStoreSessionStore{Store: store}
	proxies := scraper.NewProxyPool(proxyCfg)
	scraperMetrics := scraper.NewMetrics()
	scraperOpts := []scraper.Option{scraper.WithDownloadTimeout(timeouts.ScrapeDownload)}
	if feedURL := platformconfig.OptionalEnv("EEDITION_FEED_URL", ""); feedURL != "" {
		feed := infrascraper.NewRSSFetcher(&http.Client{Timeout: timeouts.ScrapeDownload})
		scraperOpts = append(scraperOpts, scraper.WithFeedFallback(feed, feedURL))
	}
	newScraper := func(publicationSlug string) *scraper.Scraper {
		return scraper.New(publicationSlug, base+"/login", browser, sessions, proxies, store, scraperMetrics, creds,
			scraperOpts...)
	}

	ex := extractor.New(store, articles, events, history, publications, nil,
		infrafetcher.NewReadabilityFetcher(infrafetcher.DefaultConfig()))

	llmCfg, err := platformconfig.LoadLLMConfig()
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	sw := summarizer.New(articles, summaries, nil, summarizer.NewOpenAIEmbedder(llmCfg.APIBase, llmCfg.APIKey, llmCfg.Model))
	llm, err := infrasummarizer.NewOpenAI(llmCfg.APIBase, llmCfg.APIKey, infrasummarizer.DefaultConfig(), sw.NotifyThrottled)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("worker: build llm client: %w", err)
	}
	sw.SetSummarizer(llm)

	notifyCfg, err := platformconfig.LoadNotifierConfig()
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	var notifyOpts []notifier.Option
	if sourceBase := platformconfig.OptionalEnv("APP_PUBLIC_BASE_URL", ""); sourceBase != "" {
		notifyOpts = append(notifyOpts, notifier.WithSourceBase(sourceBase))
	}
	ntf := notifier.New(articles, summaries, notifyCfg, notifyOpts...)

	cleanup := func() { _ = db.Close() }
	return &workerDeps{
		db:           db,
		store:        store,
		publications: publications,
		extractor:    ex,
		summarizer:   sw,
		notifier:     ntf,
		analytics:    analytics.New(rollups),
		newScraper:   newScraper,
	}, cleanup, nil
}

func editionURL(publicationSlug string, date string) string {
	base := platformconfig.OptionalEnv("EEDITION_BASE_URL", "https://eedition.example.com")
	return fmt.Sprintf("%s/%s/%s", base, publicationSlug, date)
}
