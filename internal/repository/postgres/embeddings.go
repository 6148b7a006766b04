package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"

	"github.com/crb2nu/news-analyzer/internal/domain"
	"github.com/crb2nu/news-analyzer/internal/repository"
)

// undefinedTableCode is Postgres's SQLSTATE for a missing relation,
// returned here when the pgvector extension/table was never bootstrapped
// (MigrateUp treats it as best-effort).
const undefinedTableCode = "42P01"

// EmbeddingRepository implements repository.EmbeddingRepository against
// the article_embeddings table, bootstrapped best-effort by MigrateUp when
// the pgvector extension is available. Nearest returns
// domain.ErrEmbeddingsUnavailable when the table doesn't exist: embeddings
// are a hard dependency for /similar, not an optional feature
// that degrades to a keyword fallback.
type EmbeddingRepository struct {
	*Client
}

func NewEmbeddingRepository(c *Client) *EmbeddingRepository {
	return &EmbeddingRepository{Client: c}
}

var _ repository.EmbeddingRepository = (*EmbeddingRepository)(nil)

// Upsert writes or replaces an Article's embedding vector.
func (r *EmbeddingRepository) Upsert(ctx context.Context, e *domain.Embedding) error {
	vec := pgvector.NewVector(e.Vector)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO article_embeddings (article_id, embedding, provider, model)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (article_id) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			provider = EXCLUDED.provider,
			model = EXCLUDED.model,
			created_at = now()`,
		e.ArticleID, vec, e.Provider, e.Model)
	if err != nil {
		return fmt.Errorf("upsert embedding: %w", err)
	}
	return nil
}

// Nearest returns the closest neighbors to articleID's embedding by cosine
// distance, using the ivfflat index MigrateUp creates. articleID itself is
// excluded from the result.
func (r *EmbeddingRepository) Nearest(ctx context.Context, articleID int64, limit int) ([]repository.SimilarResult, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx, `
		WITH target AS (SELECT embedding FROM article_embeddings WHERE article_id = $1)
		SELECT a.id, a.title, coalesce(a.section, ''), e.embedding <=> target.embedding AS distance
		FROM article_embeddings e
		JOIN articles a ON a.id = e.article_id
		CROSS JOIN target
		WHERE e.article_id != $1
		ORDER BY distance ASC
		LIMIT $2`, articleID, limit)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == undefinedTableCode {
			return nil, domain.ErrEmbeddingsUnavailable
		}
		return nil, fmt.Errorf("nearest embeddings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []repository.SimilarResult
	for rows.Next() {
		var sr repository.SimilarResult
		if err := rows.Scan(&sr.ArticleID, &sr.Title, &sr.Section, &sr.Distance); err != nil {
			return nil, err
		}
		out = append(out, sr)
	}
	return out, rows.Err()
}
