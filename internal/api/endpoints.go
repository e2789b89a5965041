package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/emRival/GASHub/internal/models"
	"github.com/emRival/GASHub/internal/store"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"gorm.io/datatypes"
)

type endpointRequest struct {
	Name           string            `json:"name" validate:"required,max=120"`
	Alias          string            `json:"alias" validate:"required,min=2,max=64,alias"`
	TargetURL      string            `json:"target_url" validate:"required,url"`
	Description    string            `json:"description" validate:"max=1000"`
	AllowedMethods []string          `json:"allowed_methods" validate:"omitempty,dive,oneof=GET POST PUT DELETE PATCH"`
	PayloadMapping map[string]string `json:"payload_mapping"`
	RequireAPIKey  bool              `json:"require_api_key"`
	IsActive       *bool             `json:"is_active"`
}

func (h *Handler) ListEndpoints(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	endpoints, err := h.store.ListEndpoints(r.Context(), userID)
	if err != nil {
		h.log.WithError(err).Error("Endpoint listing failed")
		writeError(w, http.StatusInternalServerError, "Failed to fetch endpoints")
		return
	}
	writeData(w, http.StatusOK, endpoints)
}

func (h *Handler) CreateEndpoint(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req endpointRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeValidationError(w, err)
		return
	}

	if _, err := h.store.GetEndpointByAlias(r.Context(), req.Alias); err == nil {
		writeError(w, http.StatusConflict, "Alias already in use")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		h.log.WithError(err).Error("Alias uniqueness check failed")
		writeError(w, http.StatusInternalServerError, "Failed to create endpoint")
		return
	}

	methods := req.AllowedMethods
	if len(methods) == 0 {
		methods = []string{"POST"}
	}

	endpoint := &models.Endpoint{
		ID:             uuid.NewString(),
		OwnerUserID:    userID,
		Name:           req.Name,
		Alias:          req.Alias,
		TargetURL:      req.TargetURL,
		Description:    req.Description,
		AllowedMethods: methods,
		PayloadMapping: mappingToJSON(req.PayloadMapping),
		RequireAPIKey:  req.RequireAPIKey,
		IsActive:       true,
	}
	if req.IsActive != nil {
		endpoint.IsActive = *req.IsActive
	}

	if err := h.store.CreateEndpoint(r.Context(), endpoint); err != nil {
		h.log.WithError(err).Error("Endpoint creation failed")
		writeError(w, http.StatusInternalServerError, "Failed to create endpoint")
		return
	}
	writeData(w, http.StatusCreated, endpoint)
}

func (h *Handler) GetEndpoint(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	endpoint, err := h.store.GetEndpointByID(r.Context(), mux.Vars(r)["id"], userID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Endpoint not found")
		return
	}
	if err != nil {
		h.log.WithError(err).Error("Endpoint fetch failed")
		writeError(w, http.StatusInternalServerError, "Failed to fetch endpoint")
		return
	}
	writeData(w, http.StatusOK, endpoint)
}

// UpdateEndpoint rewrites the owner-editable fields. The alias is the
// endpoint's routing identity and stays as created.
func (h *Handler) UpdateEndpoint(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	endpoint, err := h.store.GetEndpointByID(r.Context(), mux.Vars(r)["id"], userID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Endpoint not found")
		return
	}
	if err != nil {
		h.log.WithError(err).Error("Endpoint fetch failed")
		writeError(w, http.StatusInternalServerError, "Failed to update endpoint")
		return
	}

	var req endpointRequest
	req.Alias = endpoint.Alias
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeValidationError(w, err)
		return
	}
	if req.Alias != endpoint.Alias {
		writeError(w, http.StatusBadRequest, "Alias cannot be changed")
		return
	}

	endpoint.Name = req.Name
	endpoint.TargetURL = req.TargetURL
	endpoint.Description = req.Description
	if len(req.AllowedMethods) > 0 {
		endpoint.AllowedMethods = req.AllowedMethods
	}
	endpoint.PayloadMapping = mappingToJSON(req.PayloadMapping)
	endpoint.RequireAPIKey = req.RequireAPIKey
	if req.IsActive != nil {
		endpoint.IsActive = *req.IsActive
	}
	endpoint.UpdatedAt = time.Now()

	if err := h.store.UpdateEndpoint(r.Context(), endpoint); err != nil {
		h.log.WithError(err).Error("Endpoint update failed")
		writeError(w, http.StatusInternalServerError, "Failed to update endpoint")
		return
	}
	writeData(w, http.StatusOK, endpoint)
}

func (h *Handler) DeleteEndpoint(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	err := h.store.DeleteEndpoint(r.Context(), mux.Vars(r)["id"], userID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Endpoint not found")
		return
	}
	if err != nil {
		h.log.WithError(err).Error("Endpoint deletion failed")
		writeError(w, http.StatusInternalServerError, "Failed to delete endpoint")
		return
	}
	writeData(w, http.StatusOK, map[string]any{"deleted": true})
}

func (h *Handler) ToggleEndpoint(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	endpoint, err := h.store.GetEndpointByID(r.Context(), mux.Vars(r)["id"], userID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Endpoint not found")
		return
	}
	if err != nil {
		h.log.WithError(err).Error("Endpoint fetch failed")
		writeError(w, http.StatusInternalServerError, "Failed to toggle endpoint")
		return
	}

	endpoint.IsActive = !endpoint.IsActive
	endpoint.UpdatedAt = time.Now()
	if err := h.store.UpdateEndpoint(r.Context(), endpoint); err != nil {
		h.log.WithError(err).Error("Endpoint toggle failed")
		writeError(w, http.StatusInternalServerError, "Failed to toggle endpoint")
		return
	}
	writeData(w, http.StatusOK, endpoint)
}

func mappingToJSON(mapping map[string]string) datatypes.JSONMap {
	if len(mapping) == 0 {
		return nil
	}
	out := make(datatypes.JSONMap, len(mapping))
	for source, target := range mapping {
		out[source] = target
	}
	return out
}
