// Package api implements the Summarizer's read-mostly HTTP surface:
// the feed/search/analytics/events endpoints, article source lookup,
// and the precompiled frontend fallback.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// JSON writes a JSON response with the given status code and value.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			slog.Default().Error("api: failed to encode response", slog.Int("status", code), slog.Any("error", err))
		}
	}
}

// errorBody is the JSON error envelope every handler returns: {error, detail?}.
type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// Error writes the JSON error envelope with the given status and message.
func Error(w http.ResponseWriter, code int, message string) {
	JSON(w, code, errorBody{Error: message})
}

// ErrorDetail writes the JSON error envelope with an additional detail field.
func ErrorDetail(w http.ResponseWriter, code int, message, detail string) {
	JSON(w, code, errorBody{Error: message, Detail: detail})
}

// InternalError logs err server-side and returns a generic message to the
// caller, so storage/upstream failures never leak internal detail.
func InternalError(w http.ResponseWriter, logger *slog.Logger, context string, err error) {
	logger.Error(context, slog.Any("error", err))
	Error(w, http.StatusInternalServerError, "internal server error")
}
