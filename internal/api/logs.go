package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/emRival/GASHub/internal/export"
	"github.com/emRival/GASHub/internal/store"
	"github.com/gorilla/mux"
)

func (h *Handler) ListLogs(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	filter := logFilterFromQuery(r)
	logs, total, err := h.store.ListLogs(r.Context(), userID, filter)
	if err != nil {
		h.log.WithError(err).Error("Log listing failed")
		writeError(w, http.StatusInternalServerError, "Failed to fetch logs")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    logs,
		"total":   total,
	})
}

func (h *Handler) GetLog(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	entry, err := h.store.GetLogByID(r.Context(), mux.Vars(r)["id"], userID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Log entry not found")
		return
	}
	if err != nil {
		h.log.WithError(err).Error("Log fetch failed")
		writeError(w, http.StatusInternalServerError, "Failed to fetch log entry")
		return
	}
	writeData(w, http.StatusOK, entry)
}

// ExportLogs streams the caller's logs as a CSV or JSON download.
func (h *Handler) ExportLogs(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "json" {
		writeError(w, http.StatusBadRequest, "format must be csv or json")
		return
	}

	filter := logFilterFromQuery(r)
	if filter.Limit <= 0 {
		filter.Limit = 500
	}
	logs, _, err := h.store.ListLogs(r.Context(), userID, filter)
	if err != nil {
		h.log.WithError(err).Error("Log export failed")
		writeError(w, http.StatusInternalServerError, "Failed to export logs")
		return
	}

	filename := fmt.Sprintf("logs-%s.%s", time.Now().UTC().Format("20060102-150405"), format)
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)

	if format == "json" {
		w.Header().Set("Content-Type", "application/json")
		if err := export.WriteJSON(w, logs); err != nil {
			h.log.WithError(err).Error("Log export encoding failed")
		}
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	if err := export.WriteCSV(w, logs); err != nil {
		h.log.WithError(err).Error("Log export encoding failed")
	}
}

func logFilterFromQuery(r *http.Request) store.LogFilter {
	query := r.URL.Query()
	filter := store.LogFilter{
		EndpointID: query.Get("endpoint_id"),
	}
	if status, err := strconv.Atoi(query.Get("status")); err == nil {
		filter.Status = status
	}
	if limit, err := strconv.Atoi(query.Get("limit")); err == nil {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(query.Get("offset")); err == nil {
		filter.Offset = offset
	}
	return filter
}
