// Package scraper implements the RSS/Atom discovery fallback used for
// publications that expose a feed alongside their e-edition.
package scraper

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/crb2nu/news-analyzer/internal/resilience/circuitbreaker"
	"github.com/crb2nu/news-analyzer/internal/resilience/retry"

	"github.com/mmcdole/gofeed"
	"github.com/sony/gobreaker"
)

// FeedItem is one entry discovered via an RSS/Atom feed, just enough
// information to fold into Discover's []PageURL result.
type FeedItem struct {
	Title       string
	URL         string
	Content     string
	PublishedAt time.Time
}

// RSSFetcher implements a feed-based discovery fallback using the gofeed
// library, wrapped in the same circuit breaker/retry envelope as the rest
// of the scraper's network calls.
type RSSFetcher struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewRSSFetcher creates an RSSFetcher using client for transport (the
// scraper's proxy-rotated client, so feed discovery shares the same
// egress path as PDF/HTML download).
func NewRSSFetcher(client *http.Client) *RSSFetcher {
	return &RSSFetcher{
		client:         client,
		circuitBreaker: circuitbreaker.New(circuitbreaker.ScraperProxyConfig()),
		retryConfig:    retry.ScraperConfig(),
	}
}

// Fetch retrieves and parses an RSS/Atom feed from feedURL.
func (f *RSSFetcher) Fetch(ctx context.Context, feedURL string) ([]FeedItem, error) {
	var items []FeedItem

	retryErr := retry.WithBackoff(ctx, f.retryConfig, func() error {
		cbResult, err := f.circuitBreaker.Execute(func() (interface{}, error) {
			return f.doFetch(ctx, feedURL)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("scraper: feed fetch circuit breaker open",
					slog.String("url", feedURL),
					slog.String("state", f.circuitBreaker.State().String()))
			}
			return err
		}
		items = cbResult.([]FeedItem)
		return nil
	})
	if retryErr != nil {
		return nil, retryErr
	}
	return items, nil
}

func (f *RSSFetcher) doFetch(ctx context.Context, feedURL string) ([]FeedItem, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = "news-analyzer-scraper/1.0"
	fp.Client = f.client

	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, err
	}

	items := make([]FeedItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		pubAt := time.Now()
		if it.PublishedParsed != nil {
			pubAt = *it.PublishedParsed
		}
		content := it.Content
		if content == "" {
			content = it.Description
		}
		items = append(items, FeedItem{
			Title:       it.Title,
			URL:         it.Link,
			Content:     content,
			PublishedAt: pubAt,
		})
	}
	return items, nil
}
