// Package api is the owner-facing management surface: endpoints, API
// keys and log access. Authentication itself is an external concern;
// see the identity package.
package api

import (
	"encoding/json"
	"net/http"
	"regexp"

	"github.com/emRival/GASHub/internal/identity"
	"github.com/emRival/GASHub/internal/store"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

var aliasPattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

type Handler struct {
	store    store.Store
	ident    identity.Provider
	validate *validator.Validate
	log      *logrus.Entry
}

func NewHandler(logger *logrus.Logger, s store.Store, ident identity.Provider) *Handler {
	v := validator.New()
	_ = v.RegisterValidation("alias", func(fl validator.FieldLevel) bool {
		return aliasPattern.MatchString(fl.Field().String())
	})
	return &Handler{
		store:    s,
		ident:    ident,
		validate: v,
		log:      logger.WithField("component", "api"),
	}
}

// Register wires the management routes onto r (mounted under /api).
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/endpoints", h.ListEndpoints).Methods("GET")
	r.HandleFunc("/endpoints", h.CreateEndpoint).Methods("POST")
	r.HandleFunc("/endpoints/{id}", h.GetEndpoint).Methods("GET")
	r.HandleFunc("/endpoints/{id}", h.UpdateEndpoint).Methods("PUT")
	r.HandleFunc("/endpoints/{id}", h.DeleteEndpoint).Methods("DELETE")
	r.HandleFunc("/endpoints/{id}/toggle", h.ToggleEndpoint).Methods("PATCH")

	r.HandleFunc("/api-keys", h.ListAPIKeys).Methods("GET")
	r.HandleFunc("/api-keys", h.CreateAPIKey).Methods("POST")
	r.HandleFunc("/api-keys/{id}", h.UpdateAPIKey).Methods("PUT")
	r.HandleFunc("/api-keys/{id}", h.DeleteAPIKey).Methods("DELETE")

	r.HandleFunc("/logs", h.ListLogs).Methods("GET")
	r.HandleFunc("/logs/export", h.ExportLogs).Methods("GET")
	r.HandleFunc("/logs/{id}", h.GetLog).Methods("GET")
}

// currentUser resolves the caller's user id or writes a 401.
func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := h.ident.UserID(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return "", false
	}
	return userID, true
}

func (h *Handler) decodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errBadBody
	}
	return h.validate.Struct(dst)
}

var errBadBody = &requestError{message: "invalid request body"}

type requestError struct {
	message string
}

func (e *requestError) Error() string {
	return e.message
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, map[string]any{
		"success": true,
		"data":    data,
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"message": message,
	})
}

// writeValidationError translates decode/validation failures into a 400
// or a 422 with per-field tags.
func writeValidationError(w http.ResponseWriter, err error) {
	if ve, ok := err.(validator.ValidationErrors); ok {
		fields := make(map[string]string, len(ve))
		for _, fe := range ve {
			fields[fe.Field()] = fe.Tag()
		}
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"success": false,
			"message": "validation failed",
			"errors":  fields,
		})
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}
