package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/crb2nu/news-analyzer/internal/apperr"
	infrascraper "github.com/crb2nu/news-analyzer/internal/infra/scraper"
	"github.com/crb2nu/news-analyzer/internal/objectstore"
	"github.com/crb2nu/news-analyzer/internal/platformconfig"
	"github.com/crb2nu/news-analyzer/internal/resilience/retry"
)

// Scraper implements the session lifecycle, edition discovery,
// and idempotent download into the Object Store. One Scraper handles one
// publication at a time; callers running multiple publications construct
// one Scraper per publication slug.
type Scraper struct {
	publicationSlug string
	loginURL        string

	browser  Browser
	sessions SessionStore
	proxies  *ProxyPool
	store    DownloadStore
	metrics  *Metrics
	lifecyle *Lifecycle

	creds        platformconfig.CredentialsConfig
	retryCfg     retry.Config
	timeouts     downloadTimeouts
	userAgent    string
	maxBodyBytes int64

	feed    *infrascraper.RSSFetcher
	feedURL string
}

// Option configures a Scraper beyond its required constructor arguments.
type Option func(*Scraper)

// WithUserAgent overrides the default download User-Agent.
func WithUserAgent(ua string) Option {
	return func(s *Scraper) { s.userAgent = ua }
}

// WithMaxBodyBytes bounds a single downloaded page/asset.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Scraper) { s.maxBodyBytes = n }
}

// WithDownloadTimeout overrides the per-attempt download timeout
// (defaults to platformconfig.DefaultCrawlTimeouts().ScrapeDownload).
func WithDownloadTimeout(d time.Duration) Option {
	return func(s *Scraper) { s.timeouts.Download = d }
}

// WithRetryConfig overrides the proxy-rotation retry/backoff schedule
// (defaults to retry.ScraperConfig()); tests use this to shrink delays.
func WithRetryConfig(cfg retry.Config) Option {
	return func(s *Scraper) { s.retryCfg = cfg }
}

// WithFeedFallback enables the optional RSS/Atom discovery fallback for
// publications that expose a feed alongside their e-edition: when the
// browser-driven Discover finds no pages, Discover retries against
// feedURL before returning EditionNotFound.
func WithFeedFallback(feed *infrascraper.RSSFetcher, feedURL string) Option {
	return func(s *Scraper) {
		s.feed = feed
		s.feedURL = feedURL
	}
}

// DownloadStore is the narrow slice of objectstore.Store the scraper needs
// to persist downloaded pages, kept as an interface (mirroring the
// session-blob ObjectStore above) so tests can substitute an in-memory
// fake instead of driving a real S3-compatible endpoint.
type DownloadStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	Put(ctx context.Context, key string, body []byte, contentType string, metadata map[string]string) error
}

// New builds a Scraper for one publication.
func New(
	publicationSlug, loginURL string,
	browser Browser,
	sessions SessionStore,
	proxies *ProxyPool,
	store DownloadStore,
	metrics *Metrics,
	creds platformconfig.CredentialsConfig,
	opts ...Option,
) *Scraper {
	s := &Scraper{
		publicationSlug: publicationSlug,
		loginURL:        loginURL,
		browser:         browser,
		sessions:        sessions,
		proxies:         proxies,
		store:           store,
		metrics:         metrics,
		lifecyle:        NewLifecycle(),
		creds:           creds,
		retryCfg:        retry.ScraperConfig(),
		timeouts:        downloadTimeouts{Download: platformconfig.DefaultCrawlTimeouts().ScrapeDownload},
		userAgent:       "news-analyzer-scraper/1.0",
		maxBodyBytes:    64 << 20,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scraper) recordTransition() {
	if s.metrics != nil {
		s.metrics.SessionTransitions.WithLabelValues(s.lifecyle.State().String()).Inc()
	}
}

// Login runs the full NoSession -> LoggingIn -> Active transition: if a
// valid, unexpired session blob already exists it is reused instead of
// driving the browser again.
func (s *Scraper) Login(ctx context.Context) (*SessionState, error) {
	existing, err := s.sessions.Load(ctx, s.publicationSlug)
	if err == nil && !existing.Expired(time.Now().UTC()) {
		return existing, nil
	}

	if err := s.lifecyle.BeginLogin(); err != nil {
		return nil, fmt.Errorf("scraper: %w", err)
	}
	s.recordTransition()

	state, loginErr := s.browser.Login(ctx, s.loginURL, s.creds.Username, s.creds.Password)
	if loginErr != nil {
		s.lifecyle.LoginFailed()
		s.recordTransition()
		return nil, loginErr
	}
	state.Publication = s.publicationSlug

	if err := s.lifecyle.LoginSucceeded(); err != nil {
		return nil, fmt.Errorf("scraper: %w", err)
	}
	s.recordTransition()

	if err := s.sessions.Save(ctx, s.publicationSlug, state); err != nil {
		return nil, fmt.Errorf("scraper: save session: %w", err)
	}
	return state, nil
}

// refresh drives Expired -> Refreshing -> Active|Failed, re-running Login
// through the browser and persisting the new session.
func (s *Scraper) refresh(ctx context.Context) (*SessionState, error) {
	if err := s.lifecyle.BeginRefresh(); err != nil {
		return nil, fmt.Errorf("scraper: %w", err)
	}
	s.recordTransition()

	state, err := s.browser.Login(ctx, s.loginURL, s.creds.Username, s.creds.Password)
	if err != nil {
		final := s.lifecyle.RefreshFailed()
		s.recordTransition()
		if final == StateFailed {
			return nil, authFailed("refresh", err)
		}
		return nil, sessionExpired("refresh", err)
	}
	state.Publication = s.publicationSlug

	if err := s.lifecyle.RefreshSucceeded(); err != nil {
		return nil, fmt.Errorf("scraper: %w", err)
	}
	s.recordTransition()

	if err := s.sessions.Save(ctx, s.publicationSlug, state); err != nil {
		return nil, fmt.Errorf("scraper: save session: %w", err)
	}
	return state, nil
}

// sessionFor returns a usable session, transparently refreshing an
// expired one.
func (s *Scraper) sessionFor(ctx context.Context) (*SessionState, error) {
	state, err := s.sessions.Load(ctx, s.publicationSlug)
	if err != nil {
		return s.Login(ctx)
	}
	if state.Expired(time.Now().UTC()) {
		if s.lifecyle.State() != StateExpired {
			s.lifecyle.state = StateActive
			_ = s.lifecyle.MarkExpired()
		}
		s.recordTransition()
		return s.refresh(ctx)
	}
	return state, nil
}

// Discover lists an edition's page URLs in ascending page-number order.
// When the browser-driven discovery finds nothing and a feed fallback is
// configured (WithFeedFallback), it retries against the publication's
// RSS/Atom feed before giving up.
func (s *Scraper) Discover(ctx context.Context, editionURL string) ([]PageURL, error) {
	session, err := s.sessionFor(ctx)
	if err != nil {
		return nil, err
	}
	pages, err := s.browser.Discover(ctx, session, editionURL)
	if err == nil && len(pages) > 0 {
		return pages, nil
	}

	if s.feed != nil {
		if feedPages, feedErr := s.discoverViaFeed(ctx); feedErr == nil && len(feedPages) > 0 {
			return feedPages, nil
		} else if feedErr != nil {
			slog.Warn("scraper: feed discovery fallback failed", slog.String("publication", s.publicationSlug), slog.Any("error", feedErr))
		}
	}

	if err != nil {
		return nil, err
	}
	return nil, editionNotFound("discover", fmt.Errorf("no pages found at %s", editionURL))
}

// discoverViaFeed maps the configured RSS/Atom feed's items onto
// PageURL, in feed order (the feed has no page-number concept, so
// ordering is stable-by-position rather than the browser path's
// page-ascending guarantee).
func (s *Scraper) discoverViaFeed(ctx context.Context) ([]PageURL, error) {
	items, err := s.feed.Fetch(ctx, s.feedURL)
	if err != nil {
		return nil, transient("discover via feed", err)
	}
	pages := make([]PageURL, 0, len(items))
	for i, item := range items {
		pages = append(pages, PageURL{Page: i + 1, URL: item.URL})
	}
	return pages, nil
}

// DownloadStatus is one page's outcome in a Download run: downloaded,
// cached, or failed.
type DownloadStatus string

const (
	DownloadDownloaded DownloadStatus = "downloaded"
	DownloadCached     DownloadStatus = "cached"
	DownloadFailed     DownloadStatus = "failed"
)

// DownloadResult names the URL fetched, the object store key it was (or
// would have been) written to, and its outcome.
type DownloadResult struct {
	URL    string
	Key    string
	Bytes  int
	Status DownloadStatus
}

// Download fetches each page and writes it to the Object Store under
// the fixed RawBlobKey scheme, skipping pages that already exist unless
// force is set. Idempotent: re-running Download for an already-complete
// edition is a no-op per page.
//
// A per-URL transient failure (network, proxy, 5xx exhausting its
// retries) is recorded as DownloadFailed and the loop continues to the
// next page, so one bad URL never sinks the edition. Download aborts the
// whole run early on a session/auth loss, caller cancellation, or a
// failed Exists or Put call on the download store.
func (s *Scraper) Download(ctx context.Context, editionDate time.Time, pages []PageURL, force bool) ([]DownloadResult, error) {
	if _, err := s.sessionFor(ctx); err != nil {
		return nil, err
	}

	results := make([]DownloadResult, 0, len(pages))
	for _, page := range pages {
		key := objectstore.KeyForURL(editionDate, s.publicationSlug, page.URL)

		if !force {
			exists, err := s.store.Exists(ctx, key)
			if err != nil {
				return results, transient("download", err)
			}
			if exists {
				results = append(results, DownloadResult{URL: page.URL, Key: key, Status: DownloadCached})
				continue
			}
		}

		body, err := s.downloadWithRotation(ctx, page.URL)
		if err != nil {
			if s.metrics != nil {
				s.metrics.AttemptsTotal.WithLabelValues("failure").Inc()
			}
			if isFatalDownloadErr(err) {
				return results, err
			}
			slog.Warn("scraper: page failed after retries, continuing edition",
				slog.String("publication", s.publicationSlug), slog.String("url", page.URL), slog.String("error", err.Error()))
			results = append(results, DownloadResult{URL: page.URL, Key: key, Status: DownloadFailed})
			continue
		}
		if s.metrics != nil {
			s.metrics.AttemptsTotal.WithLabelValues("success").Inc()
			s.metrics.DownloadBytesTotal.Add(float64(len(body)))
		}

		contentType := contentTypeForURL(page.URL)
		if err := s.store.Put(ctx, key, body, contentType, map[string]string{
			"publication": s.publicationSlug,
			"page":        fmt.Sprintf("%d", page.Page),
			"source_url":  page.URL,
		}); err != nil {
			return results, transient("download", err)
		}
		results = append(results, DownloadResult{URL: page.URL, Key: key, Bytes: len(body), Status: DownloadDownloaded})
	}
	if s.metrics != nil {
		s.metrics.EditionsDownloaded.Inc()
	}
	return results, nil
}

// isFatalDownloadErr reports whether a downloadWithRotation failure should
// abort the remainder of the edition instead of being recorded per-page.
// Context cancellation and an unrecoverable session/auth loss affect every
// remaining page identically, so there is nothing to gain by continuing;
// a single page's retry exhaustion does not.
func isFatalDownloadErr(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return apperr.KindOf(err) == apperr.KindAuthFailed
}

func contentTypeForURL(rawURL string) string {
	switch {
	case hasSuffixFold(rawURL, ".pdf"):
		return "application/pdf"
	case hasSuffixFold(rawURL, ".png"):
		return "image/png"
	case hasSuffixFold(rawURL, ".jpg"), hasSuffixFold(rawURL, ".jpeg"):
		return "image/jpeg"
	default:
		return "text/html; charset=utf-8"
	}
}

func hasSuffixFold(s, suffix string) bool {
	if len(s) < len(suffix) {
		return false
	}
	tail := s[len(s)-len(suffix):]
	for i := range tail {
		a, b := tail[i], suffix[i]
		if 'A' <= a && a <= 'Z' {
			a += 'a' - 'A'
		}
		if a != b {
			return false
		}
	}
	return true
}
