package postgres_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"

	"github.com/crb2nu/news-analyzer/internal/domain"
	"github.com/crb2nu/news-analyzer/internal/repository"
	pg "github.com/crb2nu/news-analyzer/internal/repository/postgres"
)

var articleColumns = []string{
	"id", "publication_id", "publication", "edition_date", "title", "content",
	"content_hash", "source_type", "url", "source_file", "section",
	"page_number", "column_number", "author", "word_count",
	"date_published", "date_extracted", "raw_html", "location_name",
	"location_lat", "location_lon", "event_dates", "tags", "metadata", "processing_status",
	"processing_error",
}

func artRow(a *domain.Article) *sqlmock.Rows {
	return sqlmock.NewRows(articleColumns).AddRow(
		a.ID, a.PublicationID, a.Publication, a.EditionDate, a.Title, a.Content,
		a.ContentHash, string(a.SourceType), a.URL, a.SourceFile, a.Section,
		a.PageNumber, a.ColumnNumber, a.Author, a.WordCount,
		a.DatePublished, a.DateExtracted, a.RawHTML, a.LocationName,
		a.LocationLat, a.LocationLon, []byte(`[]`), []byte(`{}`), []byte(`{}`), string(a.ProcessingStatus),
		a.ProcessingError,
	)
}

func TestArticleRepositoryGet(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	edition := time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC)
	want := &domain.Article{
		ID: 1, EditionDate: edition,
		Title: "Council approves budget", Content: "The town council voted...",
		ContentHash: "abc123", SourceType: domain.SourcePDF,
		Section: "News", PageNumber: 1, WordCount: 4,
		DateExtracted:    edition,
		EventDates:       []time.Time{},
		Tags:             map[string]string{},
		Metadata:         map[string]string{},
		ProcessingStatus: domain.StatusExtracted,
	}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id")).
		WithArgs(int64(1)).
		WillReturnRows(artRow(want))

	repo := pg.NewArticleRepository(pg.NewClient(db))
	got, err := repo.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("Get err=%v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestArticleRepositoryGetNotFound(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id")).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(articleColumns))

	repo := pg.NewArticleRepository(pg.NewClient(db))
	if _, err := repo.Get(context.Background(), 99); err != domain.ErrNotFound {
		t.Fatalf("Get err=%v, want domain.ErrNotFound", err)
	}
}

// An explicit Limit of 0 must reach the database as LIMIT 0, not be
// floored up to a default page size.
func TestArticleRepositoryListByDateLimitZero(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	edition := time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id")).
		WithArgs(edition, 0).
		WillReturnRows(sqlmock.NewRows(articleColumns))

	repo := pg.NewArticleRepository(pg.NewClient(db))
	got, err := repo.ListByDate(context.Background(), 0, edition, repository.ArticleFilter{Limit: 0})
	if err != nil {
		t.Fatalf("ListByDate err=%v", err)
	}
	if len(got) != 0 {
		t.Fatalf("ListByDate returned %d rows, want 0", len(got))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

// A duplicate (content_hash, edition_date) insert hits the ON CONFLICT
// DO NOTHING clause, returns no row, and surfaces as inserted=false with
// no error.
func TestArticleRepositoryInsertDuplicateIsNoop(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO articles")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := pg.NewArticleRepository(pg.NewClient(db))
	a := &domain.Article{
		EditionDate: time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC),
		Title:       "Dup", Content: "same body", ContentHash: "abc123",
		SourceType: domain.SourceHTML, ProcessingStatus: domain.StatusExtracted,
	}
	id, inserted, err := repo.Insert(context.Background(), a)
	if err != nil {
		t.Fatalf("Insert err=%v", err)
	}
	if inserted || id != 0 {
		t.Fatalf("Insert = (%d, %v), want (0, false)", id, inserted)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
