package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pgvector/pgvector-go"

	"github.com/crb2nu/news-analyzer/internal/domain"
	"github.com/crb2nu/news-analyzer/internal/repository"
)

// SummaryRepository implements repository.SummaryRepository against the
// summaries table.
type SummaryRepository struct {
	*Client
}

func NewSummaryRepository(c *Client) *SummaryRepository {
	return &SummaryRepository{Client: c}
}

var _ repository.SummaryRepository = (*SummaryRepository)(nil)

// Insert writes a Summary row. The unique index on (article_id,
// summary_type) means a re-summarize of the same article/type is a
// conflict; callers that want to replace a summary do so through a
// separate re-run path, not through this method.
func (r *SummaryRepository) Insert(ctx context.Context, s *domain.Summary) (int64, error) {
	bullets, err := marshalStrings(s.Bullets)
	if err != nil {
		return 0, fmt.Errorf("marshal bullets: %w", err)
	}
	tags, err := marshalStrings(s.Tags)
	if err != nil {
		return 0, fmt.Errorf("marshal tags: %w", err)
	}

	var id int64
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO summaries (
			article_id, summary_text, summary_type, bullets, tags,
			model_used, tokens_used, generation_time_ms
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id`,
		s.ArticleID, s.SummaryText, s.SummaryType, bullets, tags,
		nullString(s.ModelUsed), nullIntVal(s.TokensUsed), nullIntVal(s.GenerationTimeMs),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert summary: %w", err)
	}
	return id, nil
}

// CommitSummary persists one article's summarization atomically: the
// Summary row, the optional Embedding, and the advance to summarized all
// commit or roll back together, so a mid-batch crash can never leave a
// summary row next to an article still marked extracted (which would
// re-enter the queue and burn another LLM call every batch tick).
//
// The summary insert is an upsert on (article_id, summary_type): a
// re-run over an article that got a summary written under older,
// non-transactional code replaces the row instead of failing forever on
// the unique index. The embedding runs under a savepoint — a missing
// pgvector table must not roll back the summary itself.
func (r *SummaryRepository) CommitSummary(ctx context.Context, s *domain.Summary, e *domain.Embedding) error {
	bullets, err := marshalStrings(s.Bullets)
	if err != nil {
		return fmt.Errorf("marshal bullets: %w", err)
	}
	tags, err := marshalStrings(s.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	tx, err := r.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin summary commit: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO summaries (
			article_id, summary_text, summary_type, bullets, tags,
			model_used, tokens_used, generation_time_ms
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (article_id, summary_type) DO UPDATE SET
			summary_text = EXCLUDED.summary_text,
			bullets = EXCLUDED.bullets,
			tags = EXCLUDED.tags,
			model_used = EXCLUDED.model_used,
			tokens_used = EXCLUDED.tokens_used,
			generation_time_ms = EXCLUDED.generation_time_ms,
			created_at = now()
		RETURNING id`,
		s.ArticleID, s.SummaryText, s.SummaryType, bullets, tags,
		nullString(s.ModelUsed), nullIntVal(s.TokensUsed), nullIntVal(s.GenerationTimeMs),
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("insert summary: %w", err)
	}
	s.ID = id

	if e != nil {
		if _, err := tx.ExecContext(ctx, `SAVEPOINT embedding_upsert`); err != nil {
			return fmt.Errorf("embedding savepoint: %w", err)
		}
		vec := pgvector.NewVector(e.Vector)
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO article_embeddings (article_id, embedding, provider, model)
			VALUES ($1,$2,$3,$4)
			ON CONFLICT (article_id) DO UPDATE SET
				embedding = EXCLUDED.embedding,
				provider = EXCLUDED.provider,
				model = EXCLUDED.model,
				created_at = now()`,
			e.ArticleID, vec, e.Provider, e.Model); err != nil {
			if _, rerr := tx.ExecContext(ctx, `ROLLBACK TO SAVEPOINT embedding_upsert`); rerr != nil {
				return fmt.Errorf("rollback embedding savepoint: %w", rerr)
			}
			slog.Warn("summary commit: embedding persist failed, committing without it",
				slog.Int64("article_id", e.ArticleID), slog.String("error", err.Error()))
		}
	}

	var current string
	if err := tx.QueryRowContext(ctx,
		`SELECT processing_status FROM articles WHERE id = $1 FOR UPDATE`, s.ArticleID).Scan(&current); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("lock article status: %w", err)
	}
	if !domain.ProcessingStatus(current).CanAdvanceTo(domain.StatusSummarized) {
		return fmt.Errorf("%w: cannot advance %s -> %s", domain.ErrInvalidInput, current, domain.StatusSummarized)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE articles SET processing_status = $1, processing_error = NULL WHERE id = $2`,
		string(domain.StatusSummarized), s.ArticleID); err != nil {
		return fmt.Errorf("advance status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit summary: %w", err)
	}
	return nil
}

func (r *SummaryRepository) GetByArticle(ctx context.Context, articleID int64, summaryType string) (*domain.Summary, error) {
	row := r.db.QueryRowContext(ctx, summarySelectCols+` WHERE article_id = $1 AND summary_type = $2`, articleID, summaryType)
	return scanSummary(row)
}

// LatestBrief returns the most recently created 'brief' summary for an
// article, the type the Notifier and /feed endpoints read by default.
func (r *SummaryRepository) LatestBrief(ctx context.Context, articleID int64) (*domain.Summary, error) {
	row := r.db.QueryRowContext(ctx, summarySelectCols+`
		WHERE article_id = $1 AND summary_type = 'brief'
		ORDER BY created_at DESC LIMIT 1`, articleID)
	return scanSummary(row)
}

const summarySelectCols = `
	SELECT id, article_id, summary_text, summary_type, bullets, tags,
		coalesce(model_used,''), coalesce(tokens_used,0), coalesce(generation_time_ms,0), created_at
	FROM summaries`

func scanSummary(row *sql.Row) (*domain.Summary, error) {
	var s domain.Summary
	var bulletsRaw, tagsRaw []byte
	err := row.Scan(
		&s.ID, &s.ArticleID, &s.SummaryText, &s.SummaryType, &bulletsRaw, &tagsRaw,
		&s.ModelUsed, &s.TokensUsed, &s.GenerationTimeMs, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan summary: %w", err)
	}
	if s.Bullets, err = unmarshalStrings(bulletsRaw); err != nil {
		return nil, err
	}
	if s.Tags, err = unmarshalStrings(tagsRaw); err != nil {
		return nil, err
	}
	return &s, nil
}
