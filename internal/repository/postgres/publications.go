package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/crb2nu/news-analyzer/internal/domain"
	"github.com/crb2nu/news-analyzer/internal/repository"
)

// PublicationRepository implements repository.PublicationRepository against
// the publications table, seeded once by MigrateUp from seeds/publications.sql.
type PublicationRepository struct {
	*Client
}

func NewPublicationRepository(c *Client) *PublicationRepository {
	return &PublicationRepository{Client: c}
}

var _ repository.PublicationRepository = (*PublicationRepository)(nil)

const publicationSelectCols = `SELECT id, slug, name, edition_cron, active FROM publications`

func (r *PublicationRepository) GetBySlug(ctx context.Context, slug string) (*domain.Publication, error) {
	row := r.db.QueryRowContext(ctx, publicationSelectCols+` WHERE slug = $1`, slug)
	var p domain.Publication
	err := row.Scan(&p.ID, &p.Slug, &p.Name, &p.EditionCron, &p.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get publication by slug: %w", err)
	}
	return &p, nil
}

// ListActive returns every publication the scheduler should enumerate
// editions for, in slug order for deterministic job fan-out.
func (r *PublicationRepository) ListActive(ctx context.Context) ([]*domain.Publication, error) {
	rows, err := r.db.QueryContext(ctx, publicationSelectCols+` WHERE active ORDER BY slug ASC`)
	if err != nil {
		return nil, fmt.Errorf("list active publications: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*domain.Publication
	for rows.Next() {
		var p domain.Publication
		if err := rows.Scan(&p.ID, &p.Slug, &p.Name, &p.EditionCron, &p.Active); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}
