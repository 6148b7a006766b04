package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/crb2nu/news-analyzer/internal/domain"
	"github.com/crb2nu/news-analyzer/internal/repository"
)

// ArticleRepository implements repository.ArticleRepository against the
// articles table.
type ArticleRepository struct {
	*Client
}

// NewArticleRepository wraps c for Article persistence.
func NewArticleRepository(c *Client) *ArticleRepository {
	return &ArticleRepository{Client: c}
}

var _ repository.ArticleRepository = (*ArticleRepository)(nil)

// Insert upserts an Article. The unique index on (content_hash,
// edition_date) makes the second insert of a duplicate a no-op, surfaced
// here as inserted=false rather than an error.
func (r *ArticleRepository) Insert(ctx context.Context, a *domain.Article) (int64, bool, error) {
	eventDates, err := marshalTimes(a.EventDates)
	if err != nil {
		return 0, false, fmt.Errorf("marshal event_dates: %w", err)
	}
	tags, err := marshalStringMap(a.Tags)
	if err != nil {
		return 0, false, fmt.Errorf("marshal tags: %w", err)
	}
	metadata, err := marshalStringMap(a.Metadata)
	if err != nil {
		return 0, false, fmt.Errorf("marshal metadata: %w", err)
	}

	var id int64
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO articles (
			publication_id, edition_date, title, content, content_hash, source_type,
			url, source_file, publication, section, page_number, column_number,
			author, word_count, date_published, raw_html,
			location_name, location_lat, location_lon, event_dates, tags, metadata,
			processing_status
		) VALUES (
			$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23
		)
		ON CONFLICT (content_hash, edition_date) DO NOTHING
		RETURNING id`,
		nullInt64(a.PublicationID), a.EditionDate, a.Title, a.Content, a.ContentHash, string(a.SourceType),
		nullString(a.URL), nullString(a.SourceFile), nullString(a.Publication), nullString(a.Section),
		nullIntVal(a.PageNumber), nullIntVal(a.ColumnNumber), nullString(a.Author), nullIntVal(a.WordCount),
		a.DatePublished, nullString(a.RawHTML),
		nullString(a.LocationName), a.LocationLat, a.LocationLon, eventDates, tags, metadata,
		string(a.ProcessingStatus),
	)
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("insert article: %w", err)
	}
	return id, true, nil
}

func (r *ArticleRepository) Get(ctx context.Context, id int64) (*domain.Article, error) {
	row := r.db.QueryRowContext(ctx, articleSelectCols+` WHERE id = $1`, id)
	return scanArticle(row)
}

func (r *ArticleRepository) ListByDate(ctx context.Context, publicationID int64, date time.Time, filter repository.ArticleFilter) ([]*domain.Article, error) {
	// Limit==0 is an explicit "return nothing", distinct from an unset/negative filter, which defaults.
	limit := filter.Limit
	switch {
	case limit < 0:
		limit = 50
	case limit > 200:
		limit = 200
	}
	// q matches title or summary, not raw body content, so the
	// query joins summaries (type brief) whenever q is set rather than
	// reusing the unqualified articleSelectCols + WHERE shape.
	var query string
	args := []interface{}{date}
	argN := 2
	if filter.Query != "" {
		query = articleSelectColsAliased + ` LEFT JOIN summaries s ON s.article_id = a.id AND s.summary_type = 'brief' WHERE a.edition_date = $1`
	} else {
		query = articleSelectCols + ` WHERE edition_date = $1`
	}
	col := func(name string) string {
		if filter.Query != "" {
			return "a." + name
		}
		return name
	}
	if publicationID > 0 {
		query += fmt.Sprintf(" AND %s = $%d", col("publication_id"), argN)
		args = append(args, publicationID)
		argN++
	}
	if filter.Section != "" {
		query += fmt.Sprintf(" AND %s = $%d", col("section"), argN)
		args = append(args, filter.Section)
		argN++
	}
	if filter.Query != "" {
		query += fmt.Sprintf(" AND (a.title ILIKE $%d OR s.summary_text ILIKE $%d)", argN, argN)
		args = append(args, "%"+filter.Query+"%")
		argN++
	}
	query += fmt.Sprintf(" ORDER BY %s ASC, %s ASC, %s ASC LIMIT $%d", col("section"), col("page_number"), col("id"), argN)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list articles by date: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*domain.Article
	for rows.Next() {
		a, err := scanArticleRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *ArticleRepository) DistinctDates(ctx context.Context, limit int) ([]repository.DateCount, error) {
	if limit <= 0 || limit > 60 {
		limit = 14
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT edition_date, COUNT(*) AS total,
			COUNT(*) FILTER (WHERE processing_status IN ('summarized','notified')) AS summarized
		FROM articles
		GROUP BY edition_date
		ORDER BY edition_date DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("distinct dates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []repository.DateCount
	for rows.Next() {
		var dc repository.DateCount
		if err := rows.Scan(&dc.Date, &dc.Total, &dc.Summarized); err != nil {
			return nil, err
		}
		out = append(out, dc)
	}
	return out, rows.Err()
}

// Search ranks articles with ts_rank over the generated search_vector
// column (best-effort pg_trgm/tsvector bootstrap in MigrateUp), falling
// back to a plain ILIKE scan when the vector column/index is absent.
func (r *ArticleRepository) Search(ctx context.Context, query string, limit int) ([]repository.SearchResult, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id, a.title, a.section,
			coalesce(s.summary_text, ''),
			ts_rank(a.search_vector, plainto_tsquery('english', $1)) AS score
		FROM articles a
		LEFT JOIN summaries s ON s.article_id = a.id AND s.summary_type = 'brief'
		WHERE a.search_vector @@ plainto_tsquery('english', $1)
		ORDER BY score DESC
		LIMIT $2`, query, limit)
	if err != nil {
		return r.searchFallback(ctx, query, limit)
	}
	defer func() { _ = rows.Close() }()

	var out []repository.SearchResult
	for rows.Next() {
		var sr repository.SearchResult
		if err := rows.Scan(&sr.ArticleID, &sr.Title, &sr.Section, &sr.Summary, &sr.Score); err != nil {
			return nil, err
		}
		out = append(out, sr)
	}
	return out, rows.Err()
}

func (r *ArticleRepository) searchFallback(ctx context.Context, query string, limit int) ([]repository.SearchResult, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id, a.title, a.section, coalesce(s.summary_text, '')
		FROM articles a
		LEFT JOIN summaries s ON s.article_id = a.id AND s.summary_type = 'brief'
		WHERE a.title ILIKE $1 OR a.content ILIKE $1 OR s.summary_text ILIKE $1
		LIMIT $2`, "%"+query+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("search fallback: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []repository.SearchResult
	for rows.Next() {
		var sr repository.SearchResult
		if err := rows.Scan(&sr.ArticleID, &sr.Title, &sr.Section, &sr.Summary); err != nil {
			return nil, err
		}
		sr.Score = 1.0
		out = append(out, sr)
	}
	return out, rows.Err()
}

// AdvanceStatus checks the monotonic transition invariant before writing,
// returning domain.ErrInvalidInput on an illegal transition rather than
// silently clobbering status.
func (r *ArticleRepository) AdvanceStatus(ctx context.Context, id int64, next domain.ProcessingStatus) error {
	var current string
	if err := r.db.QueryRowContext(ctx, `SELECT processing_status FROM articles WHERE id = $1`, id).Scan(&current); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}
	if !domain.ProcessingStatus(current).CanAdvanceTo(next) {
		return fmt.Errorf("%w: cannot advance %s -> %s", domain.ErrInvalidInput, current, next)
	}
	_, err := r.db.ExecContext(ctx, `UPDATE articles SET processing_status = $1 WHERE id = $2`, string(next), id)
	return err
}

// MarkFailed is terminal until a manual reset: it records why in
// processing_error so the operator resetting the row can see what broke.
// Unlike AdvanceStatus it does not check CanAdvanceTo; failed is
// reachable from any non-terminal status and re-marking is harmless.
func (r *ArticleRepository) MarkFailed(ctx context.Context, id int64, reason string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE articles SET processing_status = 'failed', processing_error = left($1, 2000) WHERE id = $2`,
		reason, id)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	return nil
}

func (r *ArticleRepository) ListByStatus(ctx context.Context, status domain.ProcessingStatus, limit int) ([]*domain.Article, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, articleSelectCols+` WHERE processing_status = $1 ORDER BY date_extracted ASC LIMIT $2`,
		string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("list by status: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*domain.Article
	for rows.Next() {
		a, err := scanArticleRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListNotifiableOnDate returns summarized Articles for date, ranked by
// the Notifier's default ranker: word_count DESC, then section priority,
// then id ASC.
func (r *ArticleRepository) ListNotifiableOnDate(ctx context.Context, date time.Time, limit int) ([]*domain.Article, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := r.db.QueryContext(ctx, articleSelectCols+`
		WHERE edition_date = $1 AND processing_status = 'summarized'
		ORDER BY
			word_count DESC NULLS LAST,
			CASE section
				WHEN 'News' THEN 0
				WHEN 'Local' THEN 1
				WHEN 'Public Safety' THEN 2
				WHEN 'Business' THEN 3
				WHEN 'Sports' THEN 4
				WHEN 'Opinion' THEN 5
				WHEN 'Obituaries' THEN 6
				ELSE 7
			END,
			id ASC
		LIMIT $2`, date, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifiable: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*domain.Article
	for rows.Next() {
		a, err := scanArticleRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

const articleSelectCols = `
	SELECT id, coalesce(publication_id,0), coalesce(publication,''), edition_date, title, content,
		content_hash, source_type, coalesce(url,''), coalesce(source_file,''), coalesce(section,''),
		coalesce(page_number,0), coalesce(column_number,0), coalesce(author,''), coalesce(word_count,0),
		date_published, date_extracted, coalesce(raw_html,''), coalesce(location_name,''),
		location_lat, location_lon, event_dates, tags, metadata, processing_status,
		coalesce(processing_error,'')
	FROM articles`

// articleSelectColsAliased is articleSelectCols with every column and the
// FROM clause qualified under alias "a", for queries that join another
// table (e.g. ListByDate's summaries join for the q filter) where bare
// column names would otherwise collide (summaries has its own id).
const articleSelectColsAliased = `
	SELECT a.id, coalesce(a.publication_id,0), coalesce(a.publication,''), a.edition_date, a.title, a.content,
		a.content_hash, a.source_type, coalesce(a.url,''), coalesce(a.source_file,''), coalesce(a.section,''),
		coalesce(a.page_number,0), coalesce(a.column_number,0), coalesce(a.author,''), coalesce(a.word_count,0),
		a.date_published, a.date_extracted, coalesce(a.raw_html,''), coalesce(a.location_name,''),
		a.location_lat, a.location_lon, a.event_dates, a.tags, a.metadata, a.processing_status,
		coalesce(a.processing_error,'')
	FROM articles a`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanArticle(row *sql.Row) (*domain.Article, error) {
	return scanArticleGeneric(row)
}

func scanArticleRows(rows *sql.Rows) (*domain.Article, error) {
	return scanArticleGeneric(rows)
}

func scanArticleGeneric(s scanner) (*domain.Article, error) {
	var a domain.Article
	var sourceType, status string
	var eventDatesRaw, tagsRaw, metadataRaw []byte

	err := s.Scan(
		&a.ID, &a.PublicationID, &a.Publication, &a.EditionDate, &a.Title, &a.Content,
		&a.ContentHash, &sourceType, &a.URL, &a.SourceFile, &a.Section,
		&a.PageNumber, &a.ColumnNumber, &a.Author, &a.WordCount,
		&a.DatePublished, &a.DateExtracted, &a.RawHTML, &a.LocationName,
		&a.LocationLat, &a.LocationLon, &eventDatesRaw, &tagsRaw, &metadataRaw, &status,
		&a.ProcessingError,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan article: %w", err)
	}
	a.SourceType = domain.SourceType(sourceType)
	a.ProcessingStatus = domain.ProcessingStatus(status)
	if a.EventDates, err = unmarshalTimes(eventDatesRaw); err != nil {
		return nil, err
	}
	if a.Tags, err = unmarshalStringMap(tagsRaw); err != nil {
		return nil, err
	}
	if a.Metadata, err = unmarshalStringMap(metadataRaw); err != nil {
		return nil, err
	}
	return &a, nil
}

func nullString(s string) interface{} {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func nullIntVal(i int) interface{} {
	if i == 0 {
		return nil
	}
	return i
}

func nullInt64(i int64) interface{} {
	if i == 0 {
		return nil
	}
	return i
}
