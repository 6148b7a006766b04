package notifier

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/crb2nu/news-analyzer/internal/domain"
	"github.com/crb2nu/news-analyzer/internal/platformconfig"
	"github.com/crb2nu/news-analyzer/internal/repository"
	"github.com/crb2nu/news-analyzer/internal/resilience/circuitbreaker"
	"github.com/crb2nu/news-analyzer/internal/resilience/retry"
)

// Result reports whether SendDigest posted and how many items it carried.
type Result struct {
	Posted bool
	Count  int
}

// Notifier composes the daily digest and POSTs it to the ntfy push
// endpoint: rate limiter, typed error classification, and Retry-After
// handling around a single
// channel, per DESIGN.md's "notification abstraction consolidation".
type Notifier struct {
	articles   repository.ArticleRepository
	summaries  repository.SummaryRepository
	cfg        platformconfig.NotifierConfig
	client     *http.Client
	breaker    *circuitbreaker.CircuitBreaker
	retryCfg   retry.Config
	limiter    *RateLimiter
	ranker     Ranker
	sourceBase string // base URL of the API, for the optional attachment link
}

// Option configures a Notifier beyond its required constructor arguments.
type Option func(*Notifier)

// WithRanker overrides the default (word_count DESC, section priority, id)
// ranker.
func WithRanker(r Ranker) Option {
	return func(n *Notifier) { n.ranker = r }
}

// WithSourceBase sets the public base URL used to build the optional
// attachment link to /articles/{id}/source.
func WithSourceBase(base string) Option {
	return func(n *Notifier) { n.sourceBase = base }
}

// New builds a Notifier against cfg's ntfy endpoint.
func New(
	articles repository.ArticleRepository,
	summaries repository.SummaryRepository,
	cfg platformconfig.NotifierConfig,
	opts ...Option,
) *Notifier {
	n := &Notifier{
		articles:  articles,
		summaries: summaries,
		cfg:       cfg,
		client:    &http.Client{Timeout: platformconfig.DefaultCrawlTimeouts().NotifierPOST},
		breaker:   circuitbreaker.New(circuitbreaker.NotifierConfig()),
		retryCfg:  retry.NotifierConfig(),
		limiter:   NewRateLimiter(1, 3),
		ranker:    DefaultRanker{},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// SendDigest selects the top topN summarized Articles on date (using
// DefaultRanker, or the one passed via WithRanker), POSTs the
// composed digest, and marks each selected Article notified only after
// a successful POST. A date with zero summarized Articles posts nothing
// and returns {posted:false, count:0}, nil.
//
// Without force, an Article already marked notified for date is excluded,
// so a second run for the same date is a no-op. force widens the pool to
// already-notified Articles too, re-sending the digest on operator demand
// .
func (n *Notifier) SendDigest(ctx context.Context, date time.Time, topN int, force bool) (Result, error) {
	if topN <= 0 {
		topN = 5
	}

	// Pull a generous pool so the Ranker, not the SQL LIMIT, decides the
	// final top-N ordering.
	var pool []*domain.Article
	var err error
	if force {
		pool, err = n.notifiablePoolForced(ctx, date)
	} else {
		pool, err = n.articles.ListNotifiableOnDate(ctx, date, 500)
	}
	if err != nil {
		return Result{}, fmt.Errorf("notifier: list notifiable: %w", err)
	}
	if len(pool) == 0 {
		return Result{Posted: false, Count: 0}, nil
	}

	selected := n.ranker.Top(pool, topN)

	items := make([]DigestItem, 0, len(selected))
	for _, a := range selected {
		summaryOne := ""
		if summary, err := n.summaries.LatestBrief(ctx, a.ID); err == nil && summary != nil {
			summaryOne = firstLine(summary.SummaryText)
		}
		items = append(items, DigestItem{Article: a, SummaryOne: summaryOne})
	}

	if err := n.post(ctx, date.Format("2006-01-02"), items); err != nil {
		return Result{}, fmt.Errorf("notifier: post digest: %w", err)
	}

	for _, a := range selected {
		if err := n.articles.AdvanceStatus(ctx, a.ID, domain.StatusNotified); err != nil {
			slog.Warn("notifier: mark notified failed", slog.Int64("article_id", a.ID), slog.String("error", err.Error()))
		}
	}

	return Result{Posted: true, Count: len(selected)}, nil
}

// notifiablePoolForced widens SendDigest's candidate pool to Articles
// already marked notified for date, since ListNotifiableOnDate's query
// excludes them by design.
func (n *Notifier) notifiablePoolForced(ctx context.Context, date time.Time) ([]*domain.Article, error) {
	all, err := n.articles.ListByDate(ctx, 0, date, repository.ArticleFilter{Limit: 500})
	if err != nil {
		return nil, err
	}
	pool := make([]*domain.Article, 0, len(all))
	for _, a := range all {
		if a.ProcessingStatus == domain.StatusSummarized || a.ProcessingStatus == domain.StatusNotified {
			pool = append(pool, a)
		}
	}
	return pool, nil
}

// post sends exactly one HTTP POST carrying the composed digest,
// retrying transient failures with bounded back-off.
func (n *Notifier) post(ctx context.Context, dateStr string, items []DigestItem) error {
	url := n.cfg.URL + "/" + n.cfg.Topic
	body := buildBody(items)
	title := buildTitle(dateStr, len(items))
	tags := buildTags(items)

	// The attachment link is optional and gated by
	// NTFY_ATTACH_FULL: off by default so the push stays a lightweight
	// text digest, on to let the client jump straight to the top
	// article's source view.
	var attachURL string
	if n.cfg.AttachFull && n.sourceBase != "" && len(items) > 0 {
		attachURL = fmt.Sprintf("%s/articles/%d/source", n.sourceBase, items[0].Article.ID)
	}

	delay := n.retryCfg.InitialDelay
	var lastErr error
	for attempt := 1; attempt <= n.retryCfg.MaxAttempts; attempt++ {
		if err := n.limiter.Allow(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
		_, err := n.breaker.Execute(func() (interface{}, error) {
			return nil, n.doPost(ctx, url, body, title, tags, attachURL)
		})
		if err == nil {
			return nil
		}
		lastErr = err

		if rle, ok := asRateLimitError(err); ok {
			select {
			case <-time.After(rle.RetryAfter):
				continue
			case <-ctx.Done():
				return fmt.Errorf("context canceled during ntfy rate-limit backoff: %w", ctx.Err())
			}
		}

		if !isRetryable(err) {
			return err
		}

		if attempt == n.retryCfg.MaxAttempts {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("context canceled during ntfy retry backoff: %w", ctx.Err())
		}
		delay = time.Duration(float64(delay) * n.retryCfg.Multiplier)
		if delay > n.retryCfg.MaxDelay {
			delay = n.retryCfg.MaxDelay
		}
	}
	return fmt.Errorf("ntfy post failed after %d attempts: %w", n.retryCfg.MaxAttempts, lastErr)
}

func asRateLimitError(err error) (*RateLimitError, bool) {
	rle, ok := err.(*RateLimitError)
	return rle, ok
}

func (n *Notifier) doPost(ctx context.Context, url, body, title, tags, attachURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Title", title)
	req.Header.Set("Priority", "3")
	if tags != "" {
		req.Header.Set("Tags", tags)
	}
	if n.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+n.cfg.Token)
	}
	if attachURL != "" {
		req.Header.Set("Attach", attachURL)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return &RateLimitError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	}
	if resp.StatusCode >= 500 {
		return &ServerError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return &ClientError{StatusCode: resp.StatusCode, Body: string(respBody)}
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 2 * time.Second
	}
	if secs, err := strconv.Atoi(header); err == nil {
		return time.Duration(secs) * time.Second
	}
	if when, err := http.ParseTime(header); err == nil {
		if d := time.Until(when); d > 0 {
			return d
		}
	}
	return 2 * time.Second
}
