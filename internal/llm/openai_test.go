package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestChatSendsSystemAndUserMessages(t *testing.T) {
	var captured chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"好的，收到。"}}]}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient(OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL})
	reply, err := client.Chat(context.Background(), "你是任务助手", "帮我记一条任务")
	if err != nil {
		t.Fatalf("Chat() failed: %v", err)
	}
	if reply != "好的，收到。" {
		t.Errorf("reply = %q", reply)
	}

	if len(captured.Messages) != 2 {
		t.Fatalf("sent %d messages, want 2", len(captured.Messages))
	}
	if captured.Messages[0].Role != "system" || captured.Messages[0].Content != "你是任务助手" {
		t.Errorf("system message = %+v", captured.Messages[0])
	}
	if captured.Messages[1].Role != "user" {
		t.Errorf("user message role = %q", captured.Messages[1].Role)
	}
}

func TestChatOmitsEmptySystemPrompt(t *testing.T) {
	var captured chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient(OpenAIConfig{BaseURL: srv.URL})
	if _, err := client.Chat(context.Background(), "", "hi"); err != nil {
		t.Fatalf("Chat() failed: %v", err)
	}
	if len(captured.Messages) != 1 || captured.Messages[0].Role != "user" {
		t.Errorf("messages = %+v, want single user message", captured.Messages)
	}
}

func TestChatSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewOpenAIClient(OpenAIConfig{BaseURL: srv.URL})
	if _, err := client.Chat(context.Background(), "", "hi"); err == nil {
		t.Error("Chat() should surface non-200 responses")
	}
}

func TestCircuitOpensAfterConsecutiveFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewOpenAIClient(OpenAIConfig{BaseURL: srv.URL})
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, _ = client.Chat(ctx, "", "hi")
	}
	if state := client.circuitBreaker.State(); state != "open" {
		t.Errorf("circuit state = %q, want open after 3 failures", state)
	}
	if _, err := client.Chat(ctx, "", "hi"); err == nil {
		t.Error("Chat() should fail fast while the circuit is open")
	}
}

func TestChatCancelledContext(t *testing.T) {
	client := NewOpenAIClient(OpenAIConfig{BaseURL: "http://127.0.0.1:0"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.Chat(ctx, "", "hi"); err == nil {
		t.Error("Chat() with cancelled context should fail")
	}
}
