package api

import (
	"log/slog"
	"net/http"

	"github.com/crb2nu/news-analyzer/internal/domain"
	"github.com/crb2nu/news-analyzer/internal/repository"
)

// EventsHandler serves GET /events: future ArticleEvents grouped by local
// date, over the next `days` days.
type EventsHandler struct {
	Events repository.ArticleEventRepository
	Logger *slog.Logger
}

type eventDTO struct {
	ID           int64  `json:"id"`
	ArticleID    int64  `json:"article_id"`
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	StartTime    string `json:"start_time,omitempty"`
	EndTime      string `json:"end_time,omitempty"`
	LocationName string `json:"location_name,omitempty"`
}

func toEventDTO(e *domain.ArticleEvent) eventDTO {
	dto := eventDTO{
		ID:           e.ID,
		ArticleID:    e.ArticleID,
		Title:        e.Title,
		Description:  e.Description,
		LocationName: e.LocationName,
	}
	if e.StartTime != nil {
		dto.StartTime = e.StartTime.Format("2006-01-02T15:04:05Z07:00")
	}
	if e.EndTime != nil {
		dto.EndTime = e.EndTime.Format("2006-01-02T15:04:05Z07:00")
	}
	return dto
}

func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	days := intParam(r, "days", 30, 1, 365)

	grouped, err := h.Events.UpcomingGroupedByDate(r.Context(), days)
	if err != nil {
		InternalError(w, h.Logger, "events: upcoming grouped by date", err)
		return
	}

	out := make(map[string][]eventDTO, len(grouped))
	for date, events := range grouped {
		dtos := make([]eventDTO, 0, len(events))
		for _, e := range events {
			dtos = append(dtos, toEventDTO(e))
		}
		out[date] = dtos
	}
	JSON(w, http.StatusOK, map[string]any{"days": days, "events": out})
}
