package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/crb2nu/news-analyzer/internal/domain"
	"github.com/crb2nu/news-analyzer/internal/repository"
)

// SimilarHandler serves GET /similar: vector nearest-neighbor lookup over
// Embeddings, ascending distance, excluding the queried Article itself.
type SimilarHandler struct {
	Articles   repository.ArticleRepository
	Embeddings repository.EmbeddingRepository
	Logger     *slog.Logger
}

type similarResultDTO struct {
	ArticleID int64   `json:"article_id"`
	Title     string  `json:"title"`
	Section   string  `json:"section"`
	Distance  float64 `json:"distance"`
}

// @Summary      Similar articles by embedding distance
// @Tags         search
// @Produce      json
// @Param        id     query  int  true   "article id"
// @Param        limit  query  int  false  "max neighbours"  default(10)  maximum(50)
// @Success      200 {array}  map[string]any
// @Failure      404 {object} map[string]any "unknown article id"
// @Failure      503 {object} map[string]any "embedding store unavailable"
// @Router       /similar [get]
func (h *SimilarHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	idStr := r.URL.Query().Get("id")
	if idStr == "" {
		Error(w, http.StatusBadRequest, "id is required")
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		Error(w, http.StatusBadRequest, "id must be an integer")
		return
	}
	limit := intParam(r, "limit", 10, 1, 50)

	if _, err := h.Articles.Get(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			Error(w, http.StatusNotFound, "article not found")
			return
		}
		InternalError(w, h.Logger, "similar: get article", err)
		return
	}

	results, err := h.Embeddings.Nearest(r.Context(), id, limit)
	if err != nil {
		if errors.Is(err, domain.ErrEmbeddingsUnavailable) {
			ErrorDetail(w, http.StatusServiceUnavailable, "upstream unavailable", "embedding provider unavailable")
			return
		}
		InternalError(w, h.Logger, "similar: nearest", err)
		return
	}

	dtos := make([]similarResultDTO, 0, len(results))
	for _, res := range results {
		dtos = append(dtos, similarResultDTO{
			ArticleID: res.ArticleID,
			Title:     res.Title,
			Section:   res.Section,
			Distance:  res.Distance,
		})
	}
	JSON(w, http.StatusOK, dtos)
}
