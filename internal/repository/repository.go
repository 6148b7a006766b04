// Package repository declares the persistence boundary between the
// pipeline components and the Relational Store. Concrete implementations
// live in repository/postgres.
package repository

import (
	"context"
	"time"

	"github.com/crb2nu/news-analyzer/internal/domain"
)

// ArticleFilter narrows ListByDate and Search results.
type ArticleFilter struct {
	Section string
	Query   string
	Limit   int
}

// ArticleRepository is the sole write/read path for Article rows.
type ArticleRepository interface {
	// Insert upserts an Article, enforcing the content_hash/edition_date
	// uniqueness invariant. It returns (id, inserted=false, nil) on a
	// duplicate rather than an error, so callers can tally it as a dup.
	Insert(ctx context.Context, a *domain.Article) (id int64, inserted bool, err error)
	Get(ctx context.Context, id int64) (*domain.Article, error)
	ListByDate(ctx context.Context, publicationID int64, date time.Time, filter ArticleFilter) ([]*domain.Article, error)
	DistinctDates(ctx context.Context, limit int) ([]DateCount, error)
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
	// AdvanceStatus applies the monotonic processing_status transition,
	// returning domain.ErrInvalidInput if the transition is illegal.
	AdvanceStatus(ctx context.Context, id int64, next domain.ProcessingStatus) error
	// MarkFailed sets processing_status=failed and records reason in the
	// article's audit field, the trail a manual reset starts from.
	MarkFailed(ctx context.Context, id int64, reason string) error
	ListByStatus(ctx context.Context, status domain.ProcessingStatus, limit int) ([]*domain.Article, error)
	ListNotifiableOnDate(ctx context.Context, date time.Time, limit int) ([]*domain.Article, error)
}

// DateCount is one row of /feed/dates.
type DateCount struct {
	Date       time.Time
	Total      int
	Summarized int
}

// SearchResult is one row of /search.
type SearchResult struct {
	ArticleID int64
	Title     string
	Section   string
	Summary   string
	Score     float64
}

// SimilarResult is one row of /similar.
type SimilarResult struct {
	ArticleID int64
	Title     string
	Section   string
	Distance  float64
}

// SummaryRepository persists Summary rows, at most one per (article_id,
// summary_type).
type SummaryRepository interface {
	Insert(ctx context.Context, s *domain.Summary) (int64, error)
	// CommitSummary atomically persists one article's summarization: the
	// Summary row, an optional Embedding (nil to skip), and the status
	// advance to summarized, in a single transaction so a crash can never
	// leave a summary row next to an article still marked extracted.
	CommitSummary(ctx context.Context, s *domain.Summary, e *domain.Embedding) error
	GetByArticle(ctx context.Context, articleID int64, summaryType string) (*domain.Summary, error)
	LatestBrief(ctx context.Context, articleID int64) (*domain.Summary, error)
}

// ArticleEventRepository persists ArticleEvent rows.
type ArticleEventRepository interface {
	Insert(ctx context.Context, e *domain.ArticleEvent) (int64, error)
	UpcomingGroupedByDate(ctx context.Context, days int) (map[string][]*domain.ArticleEvent, error)
}

// EmbeddingRepository persists Embedding rows and serves vector
// similarity queries against pgvector. Nearest returns
// domain.ErrEmbeddingsUnavailable when the embedding store has not been
// bootstrapped; embeddings are a hard dependency for /similar, not an
// optional feature.
type EmbeddingRepository interface {
	Upsert(ctx context.Context, e *domain.Embedding) error
	Nearest(ctx context.Context, articleID int64, limit int) ([]SimilarResult, error)
}

// ProcessingHistoryRepository is the append-only audit trail written once
// per source type processed in an extractor run.
type ProcessingHistoryRepository interface {
	Insert(ctx context.Context, h *domain.ProcessingHistory) (int64, error)
}

// TrendingRollupRepository persists and serves derived analytics.
type TrendingRollupRepository interface {
	Upsert(ctx context.Context, r *domain.TrendingRollup) error
	Top(ctx context.Context, kind, asOf string, limit int) ([]*domain.TrendingRollup, error)
	Timeline(ctx context.Context, kind, key string, days int) ([]TimelinePoint, error)
	// KeyCounts returns, for kind, the per-key article/summary count on
	// asOf plus the mean and population stddev of that key's daily count
	// over the trailing windowDays days (asOf inclusive), the raw
	// material the analytics recompute job turns into score/zscore.
	KeyCounts(ctx context.Context, kind string, asOf time.Time, windowDays int) ([]KeyCount, error)
}

// KeyCount is one (kind, key)'s trailing-window count distribution, as
// returned by TrendingRollupRepository.KeyCounts.
type KeyCount struct {
	Key    string
	Count  float64
	Mean   float64
	StdDev float64
}

// TimelinePoint is one row of /analytics/timeline.
type TimelinePoint struct {
	Date     time.Time
	Count    int
	SumScore float64
}

// PublicationRepository resolves publication slugs to ids and lists
// active publications for the scheduler.
type PublicationRepository interface {
	GetBySlug(ctx context.Context, slug string) (*domain.Publication, error)
	ListActive(ctx context.Context) ([]*domain.Publication, error)
}
