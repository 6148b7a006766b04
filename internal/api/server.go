package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/crb2nu/news-analyzer/internal/observability/metrics"
	"github.com/crb2nu/news-analyzer/internal/observability/requestid"
	"github.com/crb2nu/news-analyzer/internal/observability/tracing"
	"github.com/crb2nu/news-analyzer/internal/repository"
)

// Deps bundles every repository the API's handlers read from, plus the
// shared DB handle for /health and the static asset directory for the
// frontend fallback.
type Deps struct {
	DB         *sql.DB
	Articles   repository.ArticleRepository
	Summaries  repository.SummaryRepository
	Events     repository.ArticleEventRepository
	Embeddings repository.EmbeddingRepository
	Rollups    repository.TrendingRollupRepository
	StaticDir  string
	Logger     *slog.Logger
}

// metricsMiddleware records per-request Prometheus observations:
// request count and duration, labeled by path and status.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := wrap(w)
		next.ServeHTTP(sw, r)
		metrics.RecordHTTPRequest(r.Method, r.URL.Path, http.StatusText(sw.status), time.Since(start), int(r.ContentLength), sw.bytes)
	})
}

// NewRouter builds the full Summarizer HTTP API surface: a
// Go 1.22+ method+pattern ServeMux wrapped in the request-id, tracing,
// logging, recover, CORS, metrics, and method-guard middleware chain, in
// that order from outermost to innermost so every handler sees a request
// id before it's logged or traced.
func NewRouter(deps Deps) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /health", &HealthHandler{DB: deps.DB})
	mux.Handle("GET /feed/dates", &FeedDatesHandler{Articles: deps.Articles, Logger: deps.Logger})
	mux.Handle("GET /feed", &FeedHandler{Articles: deps.Articles, Logger: deps.Logger})
	mux.Handle("GET /search", &SearchHandler{Articles: deps.Articles, Logger: deps.Logger})
	mux.Handle("GET /similar", &SimilarHandler{Articles: deps.Articles, Embeddings: deps.Embeddings, Logger: deps.Logger})
	mux.Handle("GET /analytics/trending", &TrendingHandler{Rollups: deps.Rollups, Logger: deps.Logger})
	mux.Handle("GET /analytics/timeline", &TimelineHandler{Rollups: deps.Rollups, Logger: deps.Logger})
	mux.Handle("GET /events", &EventsHandler{Events: deps.Events, Logger: deps.Logger})
	mux.Handle("GET /articles/{id}/source", &SourceHandler{Articles: deps.Articles, Logger: deps.Logger})
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)
	mux.Handle("GET /", &StaticHandler{Dir: deps.StaticDir})

	var handler http.Handler = mux
	handler = methodGuard(handler)
	handler = metricsMiddleware(handler)
	handler = CORS(handler)
	handler = Recover(deps.Logger)(handler)
	handler = Logging(deps.Logger)(handler)
	handler = tracing.Middleware(handler)
	handler = requestid.Middleware(handler)
	return handler
}
