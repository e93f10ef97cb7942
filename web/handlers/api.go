// Package handlers provides HTTP handlers and middleware for the persona
// REST API.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/scrypster/persona/internal/engine"
	"github.com/scrypster/persona/internal/notify"
	"github.com/scrypster/persona/internal/store"
	"github.com/scrypster/persona/pkg/types"
)

// APIHandlers contains HTTP handlers for the REST API.
type APIHandlers struct {
	profile   *store.ProfileStore
	memories  *store.MemoryStore
	config    *store.ConfigStore
	snapshot  *store.Snapshotter
	assembler *engine.Assembler

	// hub and notifier are optional; when set, mutations are announced to
	// connected WebSocket clients and to other processes respectively.
	hub      *WebSocketHub
	notifier *notify.EventWriter
}

// NewAPIHandlers creates a new APIHandlers instance over the stores.
func NewAPIHandlers(profile *store.ProfileStore, memories *store.MemoryStore, config *store.ConfigStore, assembler *engine.Assembler) *APIHandlers {
	return &APIHandlers{
		profile:   profile,
		memories:  memories,
		config:    config,
		snapshot:  store.NewSnapshotter(profile, memories, config),
		assembler: assembler,
	}
}

// SetHub attaches a WebSocket hub for change broadcasts.
func (h *APIHandlers) SetHub(hub *WebSocketHub) {
	h.hub = hub
}

// SetNotifier attaches a cross-process event writer.
func (h *APIHandlers) SetNotifier(w *notify.EventWriter) {
	h.notifier = w
}

// notifyChange fans a mutation event out to WebSocket clients and the
// event directory. Failures are logged, never surfaced to the API caller.
func (h *APIHandlers) notifyChange(eventType, key string) {
	if h.hub != nil {
		h.hub.Broadcast(map[string]string{"type": eventType, "key": key})
	}
	if h.notifier != nil {
		if err := h.notifier.Notify(eventType, key); err != nil {
			log.Printf("notify: %v", err)
		}
	}
}

// GetProfile handles GET /api/profile.
func (h *APIHandlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.profile.Get())
}

// UpdateProfile handles PUT /api/profile - partial update, nil fields are
// left unchanged.
func (h *APIHandlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var upd types.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse request body", err)
		return
	}

	profile, err := h.profile.Update(upd)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update profile", err)
		return
	}

	h.notifyChange(notify.EventProfileUpdated, "user_profile")
	respondJSON(w, http.StatusOK, profile)
}

// ResetProfile handles POST /api/profile/reset - restore the empty default.
func (h *APIHandlers) ResetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profile.Reset()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to reset profile", err)
		return
	}

	h.notifyChange(notify.EventProfileUpdated, "user_profile")
	respondJSON(w, http.StatusOK, profile)
}

// ListMemories handles GET /api/memories - list all fragments in insertion
// order. With ?q= it switches to a case-insensitive search over content and
// tags (enabled fragments only).
func (h *APIHandlers) ListMemories(w http.ResponseWriter, r *http.Request) {
	if q := r.URL.Query().Get("q"); q != "" {
		respondJSON(w, http.StatusOK, h.memories.Search(q))
		return
	}
	respondJSON(w, http.StatusOK, h.memories.List())
}

// CreateMemoryRequest represents the request body for creating a fragment.
type CreateMemoryRequest struct {
	Content    string         `json:"content"`
	Category   types.Category `json:"category,omitempty"`
	Tags       []string       `json:"tags,omitempty"`
	Importance int            `json:"importance,omitempty"`
}

// CreateMemory handles POST /api/memories.
func (h *APIHandlers) CreateMemory(w http.ResponseWriter, r *http.Request) {
	var req CreateMemoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse request body", err)
		return
	}

	fragment, err := h.memories.Add(types.Fragment{
		Content:    req.Content,
		Category:   req.Category,
		Tags:       req.Tags,
		Importance: req.Importance,
		Enabled:    true,
	})
	if err != nil {
		if errors.Is(err, store.ErrInvalidInput) {
			respondError(w, http.StatusBadRequest, "invalid fragment", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to create memory", err)
		return
	}

	h.notifyChange(notify.EventMemoryChanged, fragment.ID)
	respondJSON(w, http.StatusCreated, fragment)
}

// GetMemory handles GET /api/memories/{id}.
func (h *APIHandlers) GetMemory(w http.ResponseWriter, r *http.Request) {
	id := extractID(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "memory ID is required", nil)
		return
	}

	fragment, err := h.memories.Get(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "memory not found", err)
		return
	}
	respondJSON(w, http.StatusOK, fragment)
}

// UpdateMemory handles PUT /api/memories/{id} - partial update.
func (h *APIHandlers) UpdateMemory(w http.ResponseWriter, r *http.Request) {
	id := extractID(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "memory ID is required", nil)
		return
	}

	var upd types.FragmentUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse request body", err)
		return
	}

	fragment, err := h.memories.Update(id, upd)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			respondError(w, http.StatusNotFound, "memory not found", err)
		case errors.Is(err, store.ErrInvalidInput):
			respondError(w, http.StatusBadRequest, "invalid fragment", err)
		default:
			respondError(w, http.StatusInternalServerError, "failed to update memory", err)
		}
		return
	}

	h.notifyChange(notify.EventMemoryChanged, id)
	respondJSON(w, http.StatusOK, fragment)
}

// DeleteMemory handles DELETE /api/memories/{id}.
func (h *APIHandlers) DeleteMemory(w http.ResponseWriter, r *http.Request) {
	id := extractID(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "memory ID is required", nil)
		return
	}

	if err := h.memories.Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "memory not found", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to delete memory", err)
		return
	}

	h.notifyChange(notify.EventMemoryChanged, id)
	w.WriteHeader(http.StatusNoContent)
}

// ToggleMemory handles POST /api/memories/{id}/toggle - flip enabled state.
func (h *APIHandlers) ToggleMemory(w http.ResponseWriter, r *http.Request) {
	id := extractID(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "memory ID is required", nil)
		return
	}

	fragment, err := h.memories.Toggle(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "memory not found", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to toggle memory", err)
		return
	}

	h.notifyChange(notify.EventMemoryChanged, id)
	respondJSON(w, http.StatusOK, fragment)
}

// GetMemoryStats handles GET /api/memories/stats.
func (h *APIHandlers) GetMemoryStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.memories.Stats())
}

// GetMemoryConfig handles GET /api/config.
func (h *APIHandlers) GetMemoryConfig(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.config.Get())
}

// UpdateMemoryConfig handles PUT /api/config - replace the injection config
// wholesale. Out-of-range values are normalized, not rejected.
func (h *APIHandlers) UpdateMemoryConfig(w http.ResponseWriter, r *http.Request) {
	var cfg types.MemoryConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse request body", err)
		return
	}

	updated, err := h.config.Update(cfg)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update config", err)
		return
	}

	h.notifyChange(notify.EventConfigUpdated, "memory_config")
	respondJSON(w, http.StatusOK, updated)
}

// PreviewSelection handles GET /api/context/preview?message= - returns the
// fragments that would be injected for the message without recording usage.
func (h *APIHandlers) PreviewSelection(w http.ResponseWriter, r *http.Request) {
	message := r.URL.Query().Get("message")
	respondJSON(w, http.StatusOK, h.assembler.Select(message))
}

// BuildContext handles POST /api/context - assemble the personalization
// block for a message. This records usage on every injected fragment, so
// it is a mutation, not a query; clients wanting a dry run use the
// preview endpoint.
func (h *APIHandlers) BuildContext(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse request body", err)
		return
	}

	respondJSON(w, http.StatusOK, ContextResponse{
		Context: h.assembler.BuildAIContext(req.Message),
	})
}

// Helper functions

// extractID extracts a path parameter from the request.
func extractID(r *http.Request, key string) string {
	return r.PathValue(key)
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers already sent; log and move on.
		fmt.Printf("failed to encode JSON response: %v\n", err)
	}
}

// respondError writes an error response with the given status code.
func respondError(w http.ResponseWriter, statusCode int, message string, err error) {
	errResp := ErrorResponse{
		Error: message,
		Code:  http.StatusText(statusCode),
	}

	if err != nil {
		errResp.Details = map[string]interface{}{
			"error": err.Error(),
		}
	}

	respondJSON(w, statusCode, errResp)
}
