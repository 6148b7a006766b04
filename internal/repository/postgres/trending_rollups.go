package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/crb2nu/news-analyzer/internal/domain"
	"github.com/crb2nu/news-analyzer/internal/repository"
)

// TrendingRollupRepository implements repository.TrendingRollupRepository
// against the trending_rollups table, recomputed periodically by the
// analytics job and read back by /analytics/trending and /analytics/timeline.
type TrendingRollupRepository struct {
	*Client
}

func NewTrendingRollupRepository(c *Client) *TrendingRollupRepository {
	return &TrendingRollupRepository{Client: c}
}

var _ repository.TrendingRollupRepository = (*TrendingRollupRepository)(nil)

// Upsert replaces the (kind, key, as_of_date) row, the grain each
// recompute pass regenerates wholesale.
func (r *TrendingRollupRepository) Upsert(ctx context.Context, t *domain.TrendingRollup) error {
	details, err := marshalStringMap(t.Details)
	if err != nil {
		return fmt.Errorf("marshal details: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO trending_rollups (kind, key, as_of_date, score, zscore, details)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT ON CONSTRAINT uq_trending_rollup DO UPDATE SET
			score = EXCLUDED.score,
			zscore = EXCLUDED.zscore,
			details = EXCLUDED.details`,
		t.Kind, t.Key, t.AsOfDate, t.Score, t.ZScore, details)
	if err != nil {
		return fmt.Errorf("upsert trending rollup: %w", err)
	}
	return nil
}

// Top returns the highest-scoring rows of a kind as of a given date,
// ordered by score descending as /analytics/trending expects.
func (r *TrendingRollupRepository) Top(ctx context.Context, kind, asOf string, limit int) ([]*domain.TrendingRollup, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, key, as_of_date, score, zscore, details
		FROM trending_rollups
		WHERE kind = $1 AND as_of_date = $2
		ORDER BY score DESC
		LIMIT $3`, kind, asOf, limit)
	if err != nil {
		return nil, fmt.Errorf("top trending: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*domain.TrendingRollup
	for rows.Next() {
		t, err := scanTrendingRollup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Timeline returns the day-by-day count/score history for one (kind, key)
// over the trailing `days` days, for /analytics/timeline.
func (r *TrendingRollupRepository) Timeline(ctx context.Context, kind, key string, days int) ([]repository.TimelinePoint, error) {
	if days <= 0 || days > 365 {
		days = 30
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT as_of_date, count(*), coalesce(sum(score),0)
		FROM trending_rollups
		WHERE kind = $1 AND key = $2
			AND as_of_date >= (now() - ($3 || ' days')::interval)::date
		GROUP BY as_of_date
		ORDER BY as_of_date ASC`, kind, key, days)
	if err != nil {
		return nil, fmt.Errorf("trending timeline: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []repository.TimelinePoint
	for rows.Next() {
		var p repository.TimelinePoint
		if err := rows.Scan(&p.Date, &p.Count, &p.SumScore); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// kindSourceQuery maps a trending kind to the SQL fragment producing one
// (key, edition_date) row per occurrence, the unit KeyCounts aggregates
// into a daily count per key. "entity" reads the keys of the extractor's
// keyword-tag map; "tag"/"topic" both read the summarizer's free-form tag
// list; treating "topic" as a second view over the same tag vocabulary
// is the documented decision, see DESIGN.md.
var kindSourceQuery = map[string]string{
	"section": `SELECT section AS key, edition_date AS d FROM articles WHERE section IS NOT NULL AND section <> ''`,
	"entity":  `SELECT jsonb_object_keys(tags) AS key, edition_date AS d FROM articles WHERE tags <> '{}'::jsonb`,
	"tag": `SELECT jsonb_array_elements_text(s.tags) AS key, a.edition_date AS d
		FROM summaries s JOIN articles a ON a.id = s.article_id WHERE jsonb_array_length(s.tags) > 0`,
	"topic": `SELECT jsonb_array_elements_text(s.tags) AS key, a.edition_date AS d
		FROM summaries s JOIN articles a ON a.id = s.article_id WHERE jsonb_array_length(s.tags) > 0`,
}

// KeyCounts computes, for every key seen under kind within the trailing
// windowDays days (asOf inclusive), that key's count on asOf and the
// mean/stddev of its daily count across the window -- the analytics job's
// recompute pass turns these into TrendingRollup.Score/ZScore.
func (r *TrendingRollupRepository) KeyCounts(ctx context.Context, kind string, asOf time.Time, windowDays int) ([]repository.KeyCount, error) {
	source, ok := kindSourceQuery[kind]
	if !ok {
		return nil, fmt.Errorf("trending key counts: unknown kind %q", kind)
	}
	if windowDays <= 0 {
		windowDays = 14
	}
	query := fmt.Sprintf(`
		WITH source AS (%s),
		daily AS (
			SELECT key, d, count(*) AS cnt
			FROM source
			WHERE d > $1::date - ($2 || ' days')::interval AND d <= $1::date
			GROUP BY key, d
		),
		stats AS (
			SELECT key,
				sum(cnt)::float8 / $3 AS mean,
				sqrt(greatest(sum(cnt * cnt)::float8 / $3 - power(sum(cnt)::float8 / $3, 2), 0)) AS sd
			FROM daily
			GROUP BY key
		)
		SELECT stats.key, coalesce(today.cnt, 0) AS cnt, stats.mean, coalesce(stats.sd, 0)
		FROM stats
		LEFT JOIN (SELECT key, cnt FROM daily WHERE d = $1::date) today USING (key)
		ORDER BY stats.key ASC`, source)

	rows, err := r.db.QueryContext(ctx, query, asOf, windowDays, float64(windowDays))
	if err != nil {
		return nil, fmt.Errorf("trending key counts (%s): %w", kind, err)
	}
	defer func() { _ = rows.Close() }()

	var out []repository.KeyCount
	for rows.Next() {
		var kc repository.KeyCount
		var cnt float64
		if err := rows.Scan(&kc.Key, &cnt, &kc.Mean, &kc.StdDev); err != nil {
			return nil, err
		}
		kc.Count = cnt
		out = append(out, kc)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTrendingRollup(row rowScanner) (*domain.TrendingRollup, error) {
	var t domain.TrendingRollup
	var detailsRaw []byte
	var asOf time.Time
	if err := row.Scan(&t.ID, &t.Kind, &t.Key, &asOf, &t.Score, &t.ZScore, &detailsRaw); err != nil {
		return nil, err
	}
	t.AsOfDate = asOf
	details, err := unmarshalStringMap(detailsRaw)
	if err != nil {
		return nil, err
	}
	t.Details = details
	return &t, nil
}
