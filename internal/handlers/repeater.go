package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/emRival/GASHub/internal/models"
	"github.com/emRival/GASHub/internal/payload"
	"github.com/emRival/GASHub/internal/repeater"
	"github.com/emRival/GASHub/internal/store"
	"github.com/gorilla/mux"
)

// HandleRepeat reads the inbound call and runs it through the pipeline.
// Only transport-level rejections (oversized or malformed body) happen
// here; everything past this point is the pipeline's business.
func (h *Handler) HandleRepeat(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	body, err := io.ReadAll(io.LimitReader(r.Body, h.maxBody+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}
	if int64(len(body)) > h.maxBody {
		writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	}

	var parsed payload.Object
	if len(bytes.TrimSpace(body)) > 0 {
		parsed, err = payload.Parse(body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Request body must be a JSON object")
			return
		}
	}

	req := &repeater.Request{
		Alias:     vars["alias"],
		Subpath:   vars["rest"],
		Method:    r.Method,
		Headers:   flattenHeaders(r),
		Body:      parsed,
		RawBody:   body,
		IP:        ClientIP(r),
		UserAgent: r.UserAgent(),
	}

	resp := h.pipeline.Execute(r.Context(), req)
	writeJSON(w, resp.Status, resp.Body)
}

// HandleEndpointInfo returns an endpoint's configuration for debugging
// integrations. No auth: anyone who knows the alias may inspect it.
func (h *Handler) HandleEndpointInfo(w http.ResponseWriter, r *http.Request) {
	alias := mux.Vars(r)["alias"]

	endpoint, err := h.store.GetEndpointByAlias(r.Context(), alias)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Endpoint '%s' not found", alias))
		return
	}
	if err != nil {
		h.log.WithError(err).Error("Endpoint info lookup failed")
		writeError(w, http.StatusInternalServerError, "Error fetching endpoint info")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"endpoint": endpointInfo{
			Endpoint: endpoint,
			URL:      "/r/" + alias,
		},
	})
}

type endpointInfo struct {
	*models.Endpoint
	URL string `json:"url"`
}

// flattenHeaders lowercases header names and keeps the first value, the
// shape targets receive under _headers.
func flattenHeaders(r *http.Request) map[string]string {
	headers := make(map[string]string, len(r.Header)+1)
	headers["host"] = r.Host
	for name, values := range r.Header {
		if len(values) > 0 {
			headers[strings.ToLower(name)] = values[0]
		}
	}
	return headers
}
