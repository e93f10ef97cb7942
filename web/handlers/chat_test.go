package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/persona/internal/chat"
	"github.com/scrypster/persona/internal/llm"
)

// fakeCompleter is a canned ChatCompleter for handler tests.
type fakeCompleter struct {
	reply string
	err   error

	lastSystem string
	lastUser   string
}

func (f *fakeCompleter) Chat(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	f.lastSystem = systemPrompt
	f.lastUser = userMessage
	return f.reply, f.err
}

func (f *fakeCompleter) GetModel() string { return "test-model" }

func newChatMux(t *testing.T, client llm.ChatCompleter) *http.ServeMux {
	t.Helper()
	h, _ := newTestHandlers(t)
	service := chat.NewService(h.assembler, client, "")
	ch := NewChatHandler(service, client)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", ch.Chat)
	return mux
}

func TestChat(t *testing.T) {
	client := &fakeCompleter{reply: "你好！"}
	mux := newChatMux(t, client)

	rec := doJSON(t, mux, http.MethodPost, "/api/chat", ChatRequest{Message: "hi"})
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Contains(t, rec.Body.String(), "你好")
	assert.Contains(t, rec.Body.String(), "test-model")
	assert.Equal(t, "hi", client.lastUser)
}

func TestChatEmptyMessage(t *testing.T) {
	mux := newChatMux(t, &fakeCompleter{})

	rec := doJSON(t, mux, http.MethodPost, "/api/chat", ChatRequest{Message: "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatCircuitOpen(t *testing.T) {
	mux := newChatMux(t, &fakeCompleter{err: llm.ErrCircuitOpen})

	rec := doJSON(t, mux, http.MethodPost, "/api/chat", ChatRequest{Message: "hi"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestChatUpstreamError(t *testing.T) {
	mux := newChatMux(t, &fakeCompleter{err: errors.New("boom")})

	rec := doJSON(t, mux, http.MethodPost, "/api/chat", ChatRequest{Message: "hi"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
