package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/crb2nu/news-analyzer/cmd/internal/bootstrap"
	infrascraper "github.com/crb2nu/news-analyzer/internal/infra/scraper"
	"github.com/crb2nu/news-analyzer/internal/objectstore"
	"github.com/crb2nu/news-analyzer/internal/platformconfig"
	"github.com/crb2nu/news-analyzer/internal/repository"
	"github.com/crb2nu/news-analyzer/internal/repository/postgres"
	"github.com/crb2nu/news-analyzer/internal/scraper"
)

// editionURLs derives the interactive login page and the edition's page-list
// URL for a publication/date pair from EEDITION_BASE_URL, an optional
// tuning knob.
func editionURLs(publicationSlug, dateStr string) (loginURL, editionURL string) {
	base := platformconfig.OptionalEnv("EEDITION_BASE_URL", "https://eedition.example.com")
	return base + "/login", fmt.Sprintf("%s/%s/%s", base, publicationSlug, dateStr)
}

type scraperDeps struct {
	scraper      *scraper.Scraper
	publications repository.PublicationRepository
	store        *objectstore.Store
}

func wireScraper(ctx context.Context, publicationSlug string) (*scraperDeps, func(), error) {
	creds, err := platformconfig.LoadCredentialsConfig()
	if err != nil {
		return nil, nil, err
	}
	proxyCfg, err := platformconfig.LoadProxyConfig()
	if err != nil {
		return nil, nil, err
	}
	objCfg, err := platformconfig.LoadObjectStoreConfig()
	if err != nil {
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
		return nil, nil, fmt.Errorf("scraper: open object store: %w", err)
	}

	db, err := bootstrap.OpenDB()
	if err != nil {
		return nil, nil, err
	}
	client := postgres.NewClient(db)
	publications := postgres.NewPublicationRepository(client)

	tuning := platformconfig.LoadTuningConfig()
	pwTrace := tuning.PWTrace
	timeouts := platformconfig.DefaultCrawlTimeouts()

	browser := scraper.NewChromeBrowser(pwTrace, timeouts.ScrapeDownload)
	sessions := &scraper.ObjectStoreSessionStore{Store: store}
	proxies := scraper.NewProxyPool(proxyCfg)
	metrics := scraper.NewMetrics()

	loginURL, _ := editionURLs(publicationSlug, "")
	opts := []scraper.Option{scraper.WithDownloadTimeout(timeouts.ScrapeDownload)}
	if feedURL := platformconfig.OptionalEnv("EEDITION_FEED_URL", ""); feedURL != "" {
		feed := infrascraper.NewRSSFetcher(&http.Client{Timeout: timeouts.ScrapeDownload})
		opts = append(opts, scraper.WithFeedFallback(feed, feedURL))
	}
	s := scraper.New(publicationSlug, loginURL, browser, sessions, proxies, store, metrics, creds, opts...)

	cleanup := func() { _ = db.Close() }
	return &scraperDeps{scraper: s, publications: publications, store: store}, cleanup, nil
}
