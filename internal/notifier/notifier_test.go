package notifier

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/crb2nu/news-analyzer/internal/domain"
	"github.com/crb2nu/news-analyzer/internal/platformconfig"
	"github.com/crb2nu/news-analyzer/internal/repository"
)

type fakeArticles struct {
	pool     []*domain.Article
	byDate   []*domain.Article
	notified []int64
}

func (f *fakeArticles) Insert(ctx context.Context, a *domain.Article) (int64, bool, error) {
	return 0, false, nil
}
func (f *fakeArticles) Get(ctx context.Context, id int64) (*domain.Article, error) { return nil, nil }
func (f *fakeArticles) ListByDate(ctx context.Context, publicationID int64, date time.Time, filter repository.ArticleFilter) ([]*domain.Article, error) {
	return f.byDate, nil
}
func (f *fakeArticles) DistinctDates(ctx context.Context, limit int) ([]repository.DateCount, error) {
	return nil, nil
}
func (f *fakeArticles) Search(ctx context.Context, query string, limit int) ([]repository.SearchResult, error) {
	return nil, nil
}
func (f *fakeArticles) AdvanceStatus(ctx context.Context, id int64, next domain.ProcessingStatus) error {
	f.notified = append(f.notified, id)
	return nil
}
func (f *fakeArticles) MarkFailed(ctx context.Context, id int64, reason string) error { return nil }
func (f *fakeArticles) ListByStatus(ctx context.Context, status domain.ProcessingStatus, limit int) ([]*domain.Article, error) {
	return nil, nil
}
func (f *fakeArticles) ListNotifiableOnDate(ctx context.Context, date time.Time, limit int) ([]*domain.Article, error) {
	return f.pool, nil
}

type fakeSummaries struct{}

func (f *fakeSummaries) Insert(ctx context.Context, s *domain.Summary) (int64, error) { return 1, nil }
func (f *fakeSummaries) CommitSummary(ctx context.Context, s *domain.Summary, e *domain.Embedding) error {
	return nil
}
func (f *fakeSummaries) GetByArticle(ctx context.Context, articleID int64, summaryType string) (*domain.Summary, error) {
	return nil, nil
}
func (f *fakeSummaries) LatestBrief(ctx context.Context, articleID int64) (*domain.Summary, error) {
	return &domain.Summary{SummaryText: "A one-line brief."}, nil
}

func TestSendDigestZeroArticlesIsNoop(t *testing.T) {
	articles := &fakeArticles{}
	n := New(articles, &fakeSummaries{}, platformconfig.NotifierConfig{URL: "http://unused", Topic: "x"})

	result, err := n.SendDigest(context.Background(), time.Now(), 5, false)
	if err != nil {
		t.Fatalf("SendDigest: %v", err)
	}
	if result.Posted || result.Count != 0 {
		t.Fatalf("expected no-op result, got %+v", result)
	}
}

func TestSendDigestPostsTopNAndMarksNotified(t *testing.T) {
	var gotTitle, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTitle = r.Header.Get("Title")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	articles := &fakeArticles{pool: []*domain.Article{
		{ID: 1, Title: "Short story", WordCount: 100, Section: "Sports"},
		{ID: 2, Title: "Long story", WordCount: 900, Section: "News"},
		{ID: 3, Title: "Medium story", WordCount: 400, Section: "Local"},
	}}
	cfg := platformconfig.NotifierConfig{URL: srv.URL, Topic: "digest"}
	n := New(articles, &fakeSummaries{}, cfg)

	result, err := n.SendDigest(context.Background(), time.Now(), 2, false)
	if err != nil {
		t.Fatalf("SendDigest: %v", err)
	}
	if !result.Posted || result.Count != 2 {
		t.Fatalf("expected posted=true count=2, got %+v", result)
	}
	if gotTitle == "" {
		t.Fatal("expected a Title header on the push request")
	}
	if gotBody == "" {
		t.Fatal("expected a non-empty digest body")
	}
	if len(articles.notified) != 2 {
		t.Fatalf("expected 2 articles marked notified, got %d", len(articles.notified))
	}
	// Article 2 (word_count 900) must rank before article 3 (400).
	if articles.notified[0] != 2 {
		t.Fatalf("expected highest word count article notified first, got order %v", articles.notified)
	}
}

func TestSendDigestNonRetryableClientErrorFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	articles := &fakeArticles{pool: []*domain.Article{{ID: 1, Title: "A", WordCount: 10}}}
	cfg := platformconfig.NotifierConfig{URL: srv.URL, Topic: "digest"}
	n := New(articles, &fakeSummaries{}, cfg)

	if _, err := n.SendDigest(context.Background(), time.Now(), 5, false); err == nil {
		t.Fatal("expected an error for a 400 response")
	}
	if len(articles.notified) != 0 {
		t.Fatal("expected no articles marked notified on failed post")
	}
}

func TestSendDigestForceIncludesAlreadyNotified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	articles := &fakeArticles{
		pool: nil, // ListNotifiableOnDate finds nothing: already notified
		byDate: []*domain.Article{
			{ID: 1, Title: "A", WordCount: 500, ProcessingStatus: domain.StatusNotified},
			{ID: 2, Title: "B", WordCount: 10, ProcessingStatus: domain.StatusExtracted},
		},
	}
	cfg := platformconfig.NotifierConfig{URL: srv.URL, Topic: "digest"}
	n := New(articles, &fakeSummaries{}, cfg)

	result, err := n.SendDigest(context.Background(), time.Now(), 5, true)
	if err != nil {
		t.Fatalf("SendDigest: %v", err)
	}
	if !result.Posted || result.Count != 1 {
		t.Fatalf("expected the already-notified article to be resent, got %+v", result)
	}
}

func TestSendDigestAttachesSourceOnlyWhenAttachFullEnabled(t *testing.T) {
	var gotAttach string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAttach = r.Header.Get("Attach")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	articles := &fakeArticles{pool: []*domain.Article{{ID: 1, Title: "A", WordCount: 10}}}
	cfg := platformconfig.NotifierConfig{URL: srv.URL, Topic: "digest", AttachFull: false}
	n := New(articles, &fakeSummaries{}, cfg, WithSourceBase("https://example.test"))
	if _, err := n.SendDigest(context.Background(), time.Now(), 5, false); err != nil {
		t.Fatalf("SendDigest: %v", err)
	}
	if gotAttach != "" {
		t.Fatalf("expected no Attach header with AttachFull=false, got %q", gotAttach)
	}

	cfg.AttachFull = true
	n = New(articles, &fakeSummaries{}, cfg, WithSourceBase("https://example.test"))
	if _, err := n.SendDigest(context.Background(), time.Now(), 5, false); err != nil {
		t.Fatalf("SendDigest: %v", err)
	}
	if gotAttach == "" {
		t.Fatal("expected an Attach header with AttachFull=true and a source base set")
	}
}

func TestDefaultRankerOrdersByWordCountThenSectionThenID(t *testing.T) {
	articles := []*domain.Article{
		{ID: 3, WordCount: 100, Section: "Sports"},
		{ID: 1, WordCount: 100, Section: "News"},
		{ID: 2, WordCount: 200, Section: "Opinion"},
	}
	top := DefaultRanker{}.Top(articles, 3)
	if top[0].ID != 2 {
		t.Fatalf("expected highest word count first, got id %d", top[0].ID)
	}
	if top[1].ID != 1 || top[2].ID != 3 {
		t.Fatalf("expected section priority tie-break News before Sports, got order %d,%d", top[1].ID, top[2].ID)
	}
}
