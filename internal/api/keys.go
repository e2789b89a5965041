package api

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"github.com/emRival/GASHub/internal/keyauth"
	"github.com/emRival/GASHub/internal/models"
	"github.com/emRival/GASHub/internal/store"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const keyPrefixLen = 12

type createKeyRequest struct {
	Name               string     `json:"name" validate:"required,max=120"`
	AllowedEndpointIDs []string   `json:"allowed_endpoint_ids" validate:"omitempty,dive,uuid"`
	ExpiresAt          *time.Time `json:"expires_at"`
}

type updateKeyRequest struct {
	Name               string     `json:"name" validate:"required,max=120"`
	AllowedEndpointIDs []string   `json:"allowed_endpoint_ids" validate:"omitempty,dive,uuid"`
	IsActive           *bool      `json:"is_active"`
	ExpiresAt          *time.Time `json:"expires_at"`
}

func (h *Handler) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	keys, err := h.store.ListAPIKeys(r.Context(), userID)
	if err != nil {
		h.log.WithError(err).Error("API key listing failed")
		writeError(w, http.StatusInternalServerError, "Failed to fetch API keys")
		return
	}
	writeData(w, http.StatusOK, keys)
}

// CreateAPIKey mints a new key. The raw secret appears in this response
// and nowhere else; only its hash is stored.
func (h *Handler) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req createKeyRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeValidationError(w, err)
		return
	}

	rawKey, err := generateKey()
	if err != nil {
		h.log.WithError(err).Error("Key generation failed")
		writeError(w, http.StatusInternalServerError, "Failed to create API key")
		return
	}

	key := &models.APIKey{
		ID:                 uuid.NewString(),
		OwnerUserID:        userID,
		Name:               req.Name,
		KeyHash:            keyauth.HashKey(rawKey),
		KeyPrefix:          rawKey[:keyPrefixLen],
		AllowedEndpointIDs: req.AllowedEndpointIDs,
		IsActive:           true,
		ExpiresAt:          req.ExpiresAt,
	}

	if err := h.store.CreateAPIKey(r.Context(), key); err != nil {
		h.log.WithError(err).Error("API key creation failed")
		writeError(w, http.StatusInternalServerError, "Failed to create API key")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"data":    key,
		// Shown once. There is no way to recover it later.
		"key": rawKey,
	})
}

func (h *Handler) UpdateAPIKey(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req updateKeyRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeValidationError(w, err)
		return
	}

	key := &models.APIKey{
		ID:                 mux.Vars(r)["id"],
		OwnerUserID:        userID,
		Name:               req.Name,
		AllowedEndpointIDs: req.AllowedEndpointIDs,
		IsActive:           true,
		ExpiresAt:          req.ExpiresAt,
	}
	if req.IsActive != nil {
		key.IsActive = *req.IsActive
	}

	if err := h.store.UpdateAPIKey(r.Context(), key); err != nil {
		h.log.WithError(err).Error("API key update failed")
		writeError(w, http.StatusInternalServerError, "Failed to update API key")
		return
	}
	writeData(w, http.StatusOK, key)
}

func (h *Handler) DeleteAPIKey(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	err := h.store.DeleteAPIKey(r.Context(), mux.Vars(r)["id"], userID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "API key not found")
		return
	}
	if err != nil {
		h.log.WithError(err).Error("API key deletion failed")
		writeError(w, http.StatusInternalServerError, "Failed to delete API key")
		return
	}
	writeData(w, http.StatusOK, map[string]any{"deleted": true})
}

func generateKey() (string, error) {
	random := make([]byte, 24)
	if _, err := rand.Read(random); err != nil {
		return "", err
	}
	return "sk_live_" + hex.EncodeToString(random), nil
}
