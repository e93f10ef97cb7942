// Package llm provides the outbound chat-completion client used by the
// chat orchestration layer. The personalization engine itself never calls
// the network; it only produces the context text this client embeds.
package llm

import "context"

// ChatCompleter is the interface for chat-style completion with a system
// prompt and a single user message.
type ChatCompleter interface {
	Chat(ctx context.Context, systemPrompt, userMessage string) (string, error)
	GetModel() string
}
