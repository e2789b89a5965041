package handlers

import (
	"github.com/emRival/GASHub/internal/api"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(r *mux.Router, h *Handler, apiHandler *api.Handler, repeaterGate *RateLimiter) {
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/health", h.HandleHealth).Methods("GET")

	apiHandler.Register(r.PathPrefix("/api").Subrouter())

	rep := r.PathPrefix("/r").Subrouter()
	rep.Use(repeaterGate.Middleware)
	rep.HandleFunc("/{alias}/info", h.HandleEndpointInfo).Methods("GET")
	rep.HandleFunc("/{alias}", h.HandleRepeat)
	// Trailing subpaths route to the same alias; the pipeline carries
	// them as context only.
	rep.HandleFunc("/{alias}/{rest:.*}", h.HandleRepeat)
}
