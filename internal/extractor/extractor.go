package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/crb2nu/news-analyzer/internal/domain"
	"github.com/crb2nu/news-analyzer/internal/objectstore"
	"github.com/crb2nu/news-analyzer/internal/repository"
)

// ObjectStore is the narrow slice of objectstore.Store the extractor
// needs, kept as an interface so tests can substitute an in-memory fake.
type ObjectStore interface {
	ListKeysUnderPrefix(ctx context.Context, prefix string) ([]string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	GetMetadata(ctx context.Context, key string) (map[string]string, error)
}

var _ ObjectStore = (*objectstore.Store)(nil)

// ContentFetcher live-fetches and extracts an article's text directly
// from its source URL, independent of the stored raw blob. The extractor
// uses it only as a thin-content supplement (see minWordsBeforeRefetch):
// RSS/Atom-discovered pages (internal/scraper's feed fallback) often
// download to a summary or AMP variant with much less text than the
// canonical article, so a second, live fetch of the original URL can
// recover the full body.
type ContentFetcher interface {
	FetchContent(ctx context.Context, url string) (string, error)
}

// minWordsBeforeRefetch is the content length below which the extractor
// treats an HTML block as a stub and asks the ContentFetcher to refetch it
// via its canonical URL.
const minWordsBeforeRefetch = 40

// ProcessingReport tallies one ProcessEdition run.
type ProcessingReport struct {
	Found      int
	New        int
	Duplicate  int
	Failed     int
	FailedKeys []string
}

// Extractor wires the PDF and HTML pipelines to the Object Store and
// Relational Store.
type Extractor struct {
	store        ObjectStore
	articles     repository.ArticleRepository
	events       repository.ArticleEventRepository
	history      repository.ProcessingHistoryRepository
	publications repository.PublicationRepository
	splitter     PageSplitter
	fetcher      ContentFetcher
}

// New builds an Extractor. splitter may be nil to use the default
// ColumnHeuristicSplitter. fetcher may be nil, in which case stub HTML
// blocks are kept as-is instead of being refetched.
func New(
	store ObjectStore,
	articles repository.ArticleRepository,
	events repository.ArticleEventRepository,
	history repository.ProcessingHistoryRepository,
	publications repository.PublicationRepository,
	splitter PageSplitter,
	fetcher ContentFetcher,
) *Extractor {
	if splitter == nil {
		splitter = NewColumnHeuristicSplitter()
	}
	return &Extractor{
		store:        store,
		articles:     articles,
		events:       events,
		history:      history,
		publications: publications,
		splitter:     splitter,
		fetcher:      fetcher,
	}
}

// ProcessEdition lists every raw blob under <date>/<publication>/raw/,
// extracts each into candidate blocks, normalizes, dedups, and upserts
// Articles in ascending (page_number, column_number, block_index) order.
// force is currently unused by the extractor itself (idempotency lives
// in the dedup rule, not in re-processing); it is accepted for CLI
// symmetry with the scraper's --force flag and reserved for a future
// "reprocess even if already extracted" mode.
func (e *Extractor) ProcessEdition(ctx context.Context, publicationSlug string, date time.Time, force bool) (ProcessingReport, error) {
	pub, err := e.publications.GetBySlug(ctx, publicationSlug)
	if err != nil {
		return ProcessingReport{}, fmt.Errorf("extractor: resolve publication %s: %w", publicationSlug, err)
	}

	editionDate := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	prefix := fmt.Sprintf("%s/%s/raw/", editionDate.Format("2006-01-02"), publicationSlug)

	keys, err := e.store.ListKeysUnderPrefix(ctx, prefix)
	if err != nil {
		return ProcessingReport{}, fmt.Errorf("extractor: list %s: %w", prefix, err)
	}

	report := ProcessingReport{}
	bySourceType := map[domain.SourceType]*domain.ProcessingHistory{}

	for _, key := range keys {
		report.Found++
		sourceType := sourceTypeForKey(key)
		hist := bySourceType[sourceType]
		if hist == nil {
			hist = &domain.ProcessingHistory{SourceType: sourceType, DateProcessed: editionDate}
			bySourceType[sourceType] = hist
		}
		hist.ArticlesFound++

		blocks, err := e.extractKey(ctx, key, sourceType)
		if err != nil {
			slog.Warn("extractor: blob failed", slog.String("key", key), slog.String("error", err.Error()))
			report.Failed++
			report.FailedKeys = append(report.FailedKeys, key)
			continue
		}

		sort.SliceStable(blocks, func(i, j int) bool {
			if blocks[i].PageNumber != blocks[j].PageNumber {
				return blocks[i].PageNumber < blocks[j].PageNumber
			}
			if blocks[i].ColumnNumber != blocks[j].ColumnNumber {
				return blocks[i].ColumnNumber < blocks[j].ColumnNumber
			}
			return blocks[i].BlockIndex < blocks[j].BlockIndex
		})

		for _, block := range blocks {
			article := blockToArticle(block, pub, editionDate, sourceType, key)
			id, inserted, err := e.articles.Insert(ctx, article)
			if err != nil {
				slog.Warn("extractor: insert failed", slog.String("key", key), slog.String("error", err.Error()))
				report.Failed++
				continue
			}
			if !inserted {
				hist.ArticlesDuplicate++
				report.Duplicate++
				continue
			}
			hist.ArticlesNew++
			report.New++

			for _, eventDate := range ExtractEventDates(article.Content, time.Now().UTC()) {
				ev := &domain.ArticleEvent{
					ArticleID: id,
					Title:     article.Title,
					StartTime: ptrTime(eventDate),
				}
				if _, err := e.events.Insert(ctx, ev); err != nil {
					slog.Warn("extractor: event insert failed", slog.Int64("article_id", id), slog.String("error", err.Error()))
				}
			}
		}
	}

	for _, hist := range bySourceType {
		if _, err := e.history.Insert(ctx, hist); err != nil {
			slog.Warn("extractor: processing_history insert failed", slog.String("error", err.Error()))
		}
	}

	return report, nil
}

func (e *Extractor) extractKey(ctx context.Context, key string, sourceType domain.SourceType) ([]Block, error) {
	raw, err := e.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get blob: %w", err)
	}

	switch sourceType {
	case domain.SourcePDF:
		return ExtractPDFBlocks(raw, key, e.splitter)
	case domain.SourceHTML:
		pageURL := ""
		if meta, err := e.store.GetMetadata(ctx, key); err == nil {
			pageURL = meta["source_url"]
		}
		block, err := ExtractHTMLBlock(raw, pageURL, key)
		if err != nil {
			return nil, err
		}
		e.refetchIfStub(ctx, &block)
		return []Block{block}, nil
	default:
		return nil, ErrUnsupportedSourceType
	}
}

// refetchIfStub asks e.fetcher for the canonical article body when block
// looks like a feed-summary stub.
func (e *Extractor) refetchIfStub(ctx context.Context, block *Block) {
	if e.fetcher == nil || block.URL == "" {
		return
	}
	if domain.WordCount(block.Content) >= minWordsBeforeRefetch {
		return
	}
	full, err := e.fetcher.FetchContent(ctx, block.URL)
	if err != nil {
		slog.Debug("extractor: stub refetch failed", slog.String("url", block.URL), slog.String("error", err.Error()))
		return
	}
	full = strings.TrimSpace(full)
	if domain.WordCount(full) > domain.WordCount(block.Content) {
		block.Content = full
	}
}

func sourceTypeForKey(key string) domain.SourceType {
	lower := strings.ToLower(key)
	switch {
	case strings.HasSuffix(lower, ".pdf"):
		return domain.SourcePDF
	case strings.HasSuffix(lower, ".html"), strings.HasSuffix(lower, ".htm"):
		return domain.SourceHTML
	default:
		return domain.SourceOther
	}
}

func blockToArticle(b Block, pub *domain.Publication, editionDate time.Time, sourceType domain.SourceType, sourceKey string) *domain.Article {
	content := strings.TrimSpace(b.Content)
	return &domain.Article{
		PublicationID:    pub.ID,
		Publication:      pub.Slug,
		EditionDate:      editionDate,
		Title:            b.Title,
		Content:          content,
		ContentHash:      domain.ContentHash(content),
		SourceType:       sourceType,
		URL:              b.URL,
		SourceFile:       sourceKey,
		Section:          domain.NormalizeSection(b.Section),
		PageNumber:       b.PageNumber,
		ColumnNumber:     b.ColumnNumber,
		Author:           b.Author,
		WordCount:        domain.WordCount(content),
		DatePublished:    b.DatePublished,
		DateExtracted:    time.Now().UTC(),
		RawHTML:          b.RawHTML,
		LocationName:     ExtractLocationName(content),
		EventDates:       ExtractEventDates(content, time.Now().UTC()),
		Tags:             tagsToMap(ExtractTags(content)),
		ProcessingStatus: domain.StatusExtracted,
	}
}

func tagsToMap(tags []string) map[string]string {
	if len(tags) == 0 {
		return nil
	}
	m := make(map[string]string, len(tags))
	for _, t := range tags {
		m[t] = "1"
	}
	return m
}

func ptrTime(t time.Time) *time.Time { return &t }
