package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/crb2nu/news-analyzer/internal/repository"
)

var validTrendingKinds = map[string]bool{
	"section": true,
	"tag":     true,
	"entity":  true,
	"topic":   true,
}

// TrendingHandler serves GET /analytics/trending: the top-scoring keys of
// one kind as of a date, score descending.
type TrendingHandler struct {
	Rollups repository.TrendingRollupRepository
	Logger  *slog.Logger
}

type trendingDTO struct {
	Kind    string            `json:"kind"`
	Key     string            `json:"key"`
	Score   float64           `json:"score"`
	ZScore  float64           `json:"zscore"`
	Details map[string]string `json:"details,omitempty"`
}

func (h *TrendingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	if !validTrendingKinds[kind] {
		Error(w, http.StatusBadRequest, "kind must be one of section, tag, entity, topic")
		return
	}
	limit := intParam(r, "limit", 20, 1, 100)
	date := dateParam(r, "date_str")

	rows, err := h.Rollups.Top(r.Context(), kind, date.Format("2006-01-02"), limit)
	if err != nil {
		InternalError(w, h.Logger, "analytics/trending: top", err)
		return
	}

	dtos := make([]trendingDTO, 0, len(rows))
	for _, t := range rows {
		dtos = append(dtos, trendingDTO{
			Kind:    t.Kind,
			Key:     t.Key,
			Score:   t.Score,
			ZScore:  t.ZScore,
			Details: t.Details,
		})
	}
	JSON(w, http.StatusOK, dtos)
}

// TimelineHandler serves GET /analytics/timeline: a dense, zero-filled
// day-by-day series for one (kind, key): one row per date in range,
// zero-filled.
type TimelineHandler struct {
	Rollups repository.TrendingRollupRepository
	Logger  *slog.Logger
}

type timelinePointDTO struct {
	Date     string  `json:"date"`
	Count    int     `json:"count"`
	SumScore float64 `json:"sum_score"`
}

func (h *TimelineHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	key := r.URL.Query().Get("key")
	if !validTrendingKinds[kind] {
		Error(w, http.StatusBadRequest, "kind must be one of section, tag, entity, topic")
		return
	}
	if key == "" {
		Error(w, http.StatusBadRequest, "key is required")
		return
	}
	days := intParam(r, "days", 30, 1, 365)

	points, err := h.Rollups.Timeline(r.Context(), kind, key, days)
	if err != nil {
		InternalError(w, h.Logger, "analytics/timeline: timeline", err)
		return
	}

	byDate := make(map[string]repository.TimelinePoint, len(points))
	for _, p := range points {
		byDate[p.Date.Format("2006-01-02")] = p
	}

	today := truncateToDate(time.Now().UTC())
	out := make([]timelinePointDTO, 0, days)
	for i := days - 1; i >= 0; i-- {
		d := today.AddDate(0, 0, -i)
		key := d.Format("2006-01-02")
		if p, ok := byDate[key]; ok {
			out = append(out, timelinePointDTO{Date: key, Count: p.Count, SumScore: p.SumScore})
		} else {
			out = append(out, timelinePointDTO{Date: key, Count: 0, SumScore: 0})
		}
	}
	JSON(w, http.StatusOK, out)
}
