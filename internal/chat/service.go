// Package chat orchestrates outbound LLM requests: it asks the engine for
// the personalization context block, substitutes it into the system prompt
// template, and sends the request through the chat-completion client.
package chat

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/time/rate"

	"github.com/scrypster/persona/internal/engine"
	"github.com/scrypster/persona/internal/llm"
)

// contextPlaceholder marks where the personalization block lands in the
// system prompt template.
const contextPlaceholder = "{context}"

// DefaultSystemPrompt is used when no template is configured.
const DefaultSystemPrompt = `你是一个任务管理助手，帮助用户记录和整理任务。

{context}`

// Service sends user messages to the LLM with personalization context.
type Service struct {
	assembler *engine.Assembler
	client    llm.ChatCompleter
	template  string
	limiter   *rate.Limiter
}

// NewService creates a chat service. An empty template falls back to
// DefaultSystemPrompt. Outbound calls are rate limited to one per second
// with a small burst, which is plenty for a single active user.
func NewService(assembler *engine.Assembler, client llm.ChatCompleter, template string) *Service {
	if template == "" {
		template = DefaultSystemPrompt
	}
	return &Service{
		assembler: assembler,
		client:    client,
		template:  template,
		limiter:   rate.NewLimiter(rate.Limit(1), 3),
	}
}

// BuildSystemPrompt renders the system prompt for a user message. When the
// personalization block is empty it is omitted entirely: the placeholder
// is removed rather than replaced with empty wrapper markup.
func (s *Service) BuildSystemPrompt(userMessage string) string {
	contextBlock := s.assembler.BuildAIContext(userMessage)

	if strings.Contains(s.template, contextPlaceholder) {
		prompt := strings.ReplaceAll(s.template, contextPlaceholder, contextBlock)
		return strings.TrimSpace(prompt)
	}
	if contextBlock == "" {
		return strings.TrimSpace(s.template)
	}
	return strings.TrimSpace(s.template) + "\n\n" + contextBlock
}

// Send builds the personalized system prompt and sends the user message to
// the chat API, returning the assistant reply.
func (s *Service) Send(ctx context.Context, userMessage string) (string, error) {
	if strings.TrimSpace(userMessage) == "" {
		return "", fmt.Errorf("chat: message is empty")
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("chat: %w", err)
	}

	systemPrompt := s.BuildSystemPrompt(userMessage)
	reply, err := s.client.Chat(ctx, systemPrompt, userMessage)
	if err != nil {
		return "", fmt.Errorf("chat: completion failed: %w", err)
	}
	return reply, nil
}
