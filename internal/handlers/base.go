package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/emRival/GASHub/internal/repeater"
	"github.com/emRival/GASHub/internal/store"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	pipeline *repeater.Pipeline
	store    store.Store
	maxBody  int64
	log      *logrus.Entry
}

func New(logger *logrus.Logger, pipeline *repeater.Pipeline, s store.Store, maxBody int64) *Handler {
	return &Handler{
		pipeline: pipeline,
		store:    s,
		maxBody:  maxBody,
		log:      logger.WithField("component", "http_handler"),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"message": message,
	})
}
