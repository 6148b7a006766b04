// Package domain holds the entities shared by every component: the
// canonical Article and its related rows (Summary, ArticleEvent, Embedding,
// ProcessingHistory, TrendingRollup), plus the pure normalization and
// validation functions the rest of the pipeline depends on.
package domain

import "time"

// SourceType identifies which extraction pipeline produced an Article.
type SourceType string

const (
	SourcePDF   SourceType = "pdf"
	SourceHTML  SourceType = "html"
	SourceFB    SourceType = "fb"
	SourceOther SourceType = "other"
)

// ProcessingStatus is the Article's position in the pipeline. Transitions
// are monotonic: Extracted -> Summarized -> Notified. Failed is terminal
// until a manual reset.
type ProcessingStatus string

const (
	StatusExtracted  ProcessingStatus = "extracted"
	StatusSummarized ProcessingStatus = "summarized"
	StatusNotified   ProcessingStatus = "notified"
	StatusFailed     ProcessingStatus = "failed"
)

// CanAdvanceTo reports whether the monotonic status transition from s to
// next is legal. failed is reachable from any non-terminal status; once
// failed, only a manual reset (handled outside this type) can move on.
func (s ProcessingStatus) CanAdvanceTo(next ProcessingStatus) bool {
	if s == StatusFailed {
		return false
	}
	order := map[ProcessingStatus]int{
		StatusExtracted:  0,
		StatusSummarized: 1,
		StatusNotified:   2,
	}
	if next == StatusFailed {
		return true
	}
	cur, curOK := order[s]
	nxt, nxtOK := order[next]
	return curOK && nxtOK && nxt > cur
}

// Article is the canonical unit the pipeline extracts, summarizes, and
// serves. Identity is the surrogate ID; content_hash is unique per
// EditionDate (ArticleRepository.Insert drops a duplicate via ON CONFLICT).
type Article struct {
	ID               int64
	PublicationID    int64
	Publication      string
	EditionDate      time.Time // date-only, truncated to midnight UTC
	Title            string
	Content          string
	ContentHash      string
	SourceType       SourceType
	URL              string
	SourceFile       string
	Section          string
	PageNumber       int
	ColumnNumber     int
	Author           string
	WordCount        int
	DatePublished    *time.Time
	DateExtracted    time.Time
	RawHTML          string
	LocationName     string
	LocationLat      *float64
	LocationLon      *float64
	EventDates       []time.Time
	Tags             map[string]string
	Metadata         map[string]string
	ProcessingStatus ProcessingStatus
	// ProcessingError records why ProcessingStatus became failed; empty
	// otherwise. Cleared when a summary commit succeeds.
	ProcessingError string
}

// Summary belongs to exactly one Article. At most one Summary of each
// SummaryType exists per Article (enforced by a unique index on
// (article_id, summary_type)).
type Summary struct {
	ID               int64
	ArticleID        int64
	SummaryText      string
	SummaryType      string
	Bullets          []string
	Tags             []string
	ModelUsed        string
	TokensUsed       int
	GenerationTimeMs int
	CreatedAt        time.Time
}

// ArticleEvent belongs to an Article; an Article may have zero or more.
type ArticleEvent struct {
	ID           int64
	ArticleID    int64
	Title        string
	Description  string
	StartTime    *time.Time
	EndTime      *time.Time
	LocationName string
	LocationMeta map[string]string
}

// Embedding belongs to an Article; at most one per Article (enforced by a
// unique index on article_id).
type Embedding struct {
	ID        int64
	ArticleID int64
	Vector    []float32
	Provider  string
	Model     string
	CreatedAt time.Time
}

// ProcessingHistory is an append-only audit row, one per source type
// processed in an ProcessEdition run.
type ProcessingHistory struct {
	ID                int64
	DateProcessed     time.Time
	SourceType        SourceType
	ArticlesFound     int
	ArticlesNew       int
	ArticlesDuplicate int
	Notes             string
	CreatedAt         time.Time
}

// TrendingRollup is a derived, time-windowed aggregation recomputed from
// Article and Summary history.
type TrendingRollup struct {
	ID       int64
	Kind     string // section|tag|entity|topic
	Key      string
	AsOfDate time.Time
	Score    float64
	ZScore   float64
	Details  map[string]string
}

// Publication is the (publication) side of the logical Edition grouping
// (publication, edition_date).
type Publication struct {
	ID          int64
	Slug        string
	Name        string
	EditionCron string
	Active      bool
}
