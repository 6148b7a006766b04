package api

import (
	"log/slog"
	"net/http"

	"github.com/crb2nu/news-analyzer/internal/repository"
)

// SearchHandler serves GET /search: BM25 full-text search over
// title+summary+content, score descending.
type SearchHandler struct {
	Articles repository.ArticleRepository
	Logger   *slog.Logger
}

type searchResultDTO struct {
	ArticleID int64   `json:"article_id"`
	Title     string  `json:"title"`
	Section   string  `json:"section"`
	Summary   string  `json:"summary"`
	Score     float64 `json:"score"`
}

// @Summary      Full-text search
// @Description  Ranks articles over title, summary, and content; score descending.
// @Tags         search
// @Produce      json
// @Param        q      query  string  true   "query string"
// @Param        limit  query  int     false  "max results"  default(20)  maximum(50)
// @Success      200 {array}  map[string]any
// @Failure      400 {object} map[string]any "empty q"
// @Router       /search [get]
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		Error(w, http.StatusBadRequest, "q is required")
		return
	}
	limit := intParam(r, "limit", 20, 1, 50)

	results, err := h.Articles.Search(r.Context(), q, limit)
	if err != nil {
		InternalError(w, h.Logger, "search: query", err)
		return
	}

	dtos := make([]searchResultDTO, 0, len(results))
	for _, res := range results {
		dtos = append(dtos, searchResultDTO{
			ArticleID: res.ArticleID,
			Title:     res.Title,
			Section:   res.Section,
			Summary:   res.Summary,
			Score:     res.Score,
		})
	}
	JSON(w, http.StatusOK, dtos)
}
