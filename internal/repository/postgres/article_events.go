package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/crb2nu/news-analyzer/internal/domain"
	"github.com/crb2nu/news-analyzer/internal/repository"
)

// ArticleEventRepository implements repository.ArticleEventRepository
// against the article_events table.
type ArticleEventRepository struct {
	*Client
}

func NewArticleEventRepository(c *Client) *ArticleEventRepository {
	return &ArticleEventRepository{Client: c}
}

var _ repository.ArticleEventRepository = (*ArticleEventRepository)(nil)

func (r *ArticleEventRepository) Insert(ctx context.Context, e *domain.ArticleEvent) (int64, error) {
	meta, err := marshalStringMap(e.LocationMeta)
	if err != nil {
		return 0, fmt.Errorf("marshal location_meta: %w", err)
	}
	var id int64
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO article_events (article_id, title, description, start_time, end_time, location_name, location_meta)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id`,
		e.ArticleID, e.Title, nullString(e.Description), e.StartTime, e.EndTime, nullString(e.LocationName), meta,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert article event: %w", err)
	}
	return id, nil
}

// UpcomingGroupedByDate returns events whose start_time falls within the
// next `days` days, grouped by the event's start date (YYYY-MM-DD key) for
// the community-calendar view /events serves.
func (r *ArticleEventRepository) UpcomingGroupedByDate(ctx context.Context, days int) (map[string][]*domain.ArticleEvent, error) {
	if days <= 0 || days > 90 {
		days = 30
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, article_id, title, coalesce(description,''), start_time, end_time,
			coalesce(location_name,''), location_meta
		FROM article_events
		WHERE start_time IS NOT NULL
			AND start_time >= now()
			AND start_time < now() + ($1 || ' days')::interval
		ORDER BY start_time ASC`, days)
	if err != nil {
		return nil, fmt.Errorf("upcoming events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := map[string][]*domain.ArticleEvent{}
	for rows.Next() {
		var e domain.ArticleEvent
		var metaRaw []byte
		if err := rows.Scan(&e.ID, &e.ArticleID, &e.Title, &e.Description, &e.StartTime, &e.EndTime,
			&e.LocationName, &metaRaw); err != nil {
			return nil, err
		}
		if e.LocationMeta, err = unmarshalStringMap(metaRaw); err != nil {
			return nil, err
		}
		key := e.StartTime.Format(time.DateOnly)
		out[key] = append(out[key], &e)
	}
	return out, rows.Err()
}
