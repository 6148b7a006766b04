package postgres

import (
	"context"
	"fmt"

	"github.com/crb2nu/news-analyzer/internal/domain"
	"github.com/crb2nu/news-analyzer/internal/repository"
)

// ProcessingHistoryRepository implements repository.ProcessingHistoryRepository
// against the processing_history table, the append-only tally an Extractor
// run writes once per source type processed.
type ProcessingHistoryRepository struct {
	*Client
}

func NewProcessingHistoryRepository(c *Client) *ProcessingHistoryRepository {
	return &ProcessingHistoryRepository{Client: c}
}

var _ repository.ProcessingHistoryRepository = (*ProcessingHistoryRepository)(nil)

func (r *ProcessingHistoryRepository) Insert(ctx context.Context, h *domain.ProcessingHistory) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO processing_history (
			date_processed, source_type, articles_found, articles_new, articles_duplicate, notes
		) VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id`,
		h.DateProcessed, string(h.SourceType), h.ArticlesFound, h.ArticlesNew, h.ArticlesDuplicate, nullString(h.Notes),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert processing history: %w", err)
	}
	return id, nil
}
