package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/crb2nu/news-analyzer/internal/domain"
	"github.com/crb2nu/news-analyzer/internal/repository"
)

// FeedDatesHandler serves GET /feed/dates: distinct edition dates, most
// recent first, with per-date total/summarized counts.
type FeedDatesHandler struct {
	Articles repository.ArticleRepository
	Logger   *slog.Logger
}

type dateCountDTO struct {
	Date       string `json:"date"`
	Total      int    `json:"total"`
	Summarized int    `json:"summarized"`
}

func (h *FeedDatesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	limit := intParam(r, "limit", 14, 1, 60)

	counts, err := h.Articles.DistinctDates(r.Context(), limit)
	if err != nil {
		InternalError(w, h.Logger, "feed/dates: list distinct dates", err)
		return
	}

	dtos := make([]dateCountDTO, 0, len(counts))
	for _, c := range counts {
		dtos = append(dtos, dateCountDTO{
			Date:       c.Date.Format("2006-01-02"),
			Total:      c.Total,
			Summarized: c.Summarized,
		})
	}
	JSON(w, http.StatusOK, map[string]any{"dates": dtos})
}

// articleItemDTO is one entry of GET /feed's items array: the Article plus
// its extracted event dates.
type articleItemDTO struct {
	ID            int64    `json:"id"`
	PublicationID int64    `json:"publication_id"`
	Publication   string   `json:"publication"`
	EditionDate   string   `json:"edition_date"`
	Title         string   `json:"title"`
	Section       string   `json:"section"`
	PageNumber    int      `json:"page_number"`
	ColumnNumber  int      `json:"column_number"`
	Author        string   `json:"author"`
	WordCount     int      `json:"word_count"`
	URL           string   `json:"url,omitempty"`
	LocationName  string   `json:"location_name,omitempty"`
	Status        string   `json:"processing_status"`
	Events        []string `json:"events"`
}

func toArticleItemDTO(a *domain.Article) articleItemDTO {
	events := make([]string, 0, len(a.EventDates))
	for _, d := range a.EventDates {
		events = append(events, d.Format("2006-01-02"))
	}
	return articleItemDTO{
		ID:            a.ID,
		PublicationID: a.PublicationID,
		Publication:   a.Publication,
		EditionDate:   a.EditionDate.Format("2006-01-02"),
		Title:         a.Title,
		Section:       a.Section,
		PageNumber:    a.PageNumber,
		ColumnNumber:  a.ColumnNumber,
		Author:        a.Author,
		WordCount:     a.WordCount,
		URL:           a.URL,
		LocationName:  a.LocationName,
		Status:        string(a.ProcessingStatus),
		Events:        events,
	}
}

// FeedHandler serves GET /feed: Articles for one edition date, optionally
// narrowed by section and a free-text query.
type FeedHandler struct {
	Articles repository.ArticleRepository
	Logger   *slog.Logger
}

// @Summary      Articles for one edition date
// @Description  Returns the articles of one edition date, filtered by section and free-text query, ordered by (section, page_number, id).
// @Tags         feed
// @Produce      json
// @Param        date_str  query  string  false  "edition date, YYYY-MM-DD"  default(today)
// @Param        limit     query  int     false  "max items"  default(50)  maximum(200)
// @Param        section   query  string  false  "normalized section filter"
// @Param        q         query  string  false  "case-insensitive substring over title or summary"
// @Success      200 {object} map[string]any
// @Failure      400 {object} map[string]any "invalid date_str"
// @Router       /feed [get]
func (h *FeedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if raw := r.URL.Query().Get("date_str"); raw != "" {
		if _, err := time.Parse("2006-01-02", raw); err != nil {
			Error(w, http.StatusBadRequest, "date_str must be YYYY-MM-DD")
			return
		}
	}
	date := dateParam(r, "date_str")
	limit := intParamAllowZero(r, "limit", 50, 200)
	filter := repository.ArticleFilter{
		Section: r.URL.Query().Get("section"),
		Query:   r.URL.Query().Get("q"),
		Limit:   limit,
	}

	// publicationID=0 means "no publication filter"; /feed has no
	// publication query parameter.
	articles, err := h.Articles.ListByDate(r.Context(), 0, date, filter)
	if err != nil {
		InternalError(w, h.Logger, "feed: list by date", err)
		return
	}

	items := make([]articleItemDTO, 0, len(articles))
	for _, a := range articles {
		items = append(items, toArticleItemDTO(a))
	}
	JSON(w, http.StatusOK, map[string]any{
		"date":  date.Format("2006-01-02"),
		"count": len(items),
		"items": items,
	})
}
