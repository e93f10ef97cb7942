package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/scrypster/persona/internal/chat"
	"github.com/scrypster/persona/internal/llm"
)

// ChatHandler handles the /api/chat endpoint.
type ChatHandler struct {
	service *chat.Service
	client  llm.ChatCompleter
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(service *chat.Service, client llm.ChatCompleter) *ChatHandler {
	return &ChatHandler{service: service, client: client}
}

// Chat handles POST /api/chat - send a message to the LLM with the
// personalization context injected into the system prompt.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse request body", err)
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusBadRequest, "message is required", nil)
		return
	}

	reply, err := h.service.Send(r.Context(), req.Message)
	if err != nil {
		if errors.Is(err, llm.ErrCircuitOpen) {
			respondError(w, http.StatusServiceUnavailable, "LLM temporarily unavailable", err)
			return
		}
		respondError(w, http.StatusBadGateway, "chat completion failed", err)
		return
	}

	respondJSON(w, http.StatusOK, ChatResponse{
		Reply: reply,
		Model: h.client.GetModel(),
	})
}
