package handlers

import (
	"context"
	"net/http"
	"time"
)

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	state := "ok"
	database := "connected"
	if err := h.store.Ping(ctx); err != nil {
		h.log.WithError(err).Warn("Health check database ping failed")
		status = http.StatusServiceUnavailable
		state = "degraded"
		database = "unreachable"
	}

	writeJSON(w, status, map[string]any{
		"status":    state,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "GASHub API",
		"database":  database,
	})
}
