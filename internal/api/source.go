package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/crb2nu/news-analyzer/internal/domain"
	"github.com/crb2nu/news-analyzer/internal/repository"
)

// SourceHandler serves GET /articles/{id}/source: the Article's stored
// raw HTML verbatim, a 302 to its original URL, or 404 when neither is
// available.
type SourceHandler struct {
	Articles repository.ArticleRepository
	Logger   *slog.Logger
}

func (h *SourceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	idStr := r.PathValue("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		Error(w, http.StatusBadRequest, "id must be an integer")
		return
	}

	a, err := h.Articles.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			Error(w, http.StatusNotFound, "article not found")
			return
		}
		InternalError(w, h.Logger, "source: get article", err)
		return
	}

	if a.RawHTML != "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(a.RawHTML))
		return
	}
	if a.URL != "" {
		http.Redirect(w, r, a.URL, http.StatusFound)
		return
	}
	Error(w, http.StatusNotFound, "no source available for this article")
}
