package api

import (
	"context"
	"database/sql"
	"net/http"
	"time"
)

// HealthHandler reports DB reachability: 200 {status:"ok"} when the
// database answers a ping, 503 otherwise.
type HealthHandler struct {
	DB *sql.DB
}

// @Summary      Service health
// @Tags         ops
// @Produce      json
// @Success      200 {object} map[string]string
// @Failure      503 {object} map[string]any "database unreachable"
// @Router       /health [get]
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if h.DB == nil || h.DB.PingContext(ctx) != nil {
		JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
