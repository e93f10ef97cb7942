package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/scrypster/persona/internal/store"
	"github.com/scrypster/persona/pkg/types"
)

// Context block markup. Section order (profile, then memory) is significant
// for reproducibility; the wrapper text itself is cosmetic.
const (
	profileHeader  = "## 用户画像"
	memoryHeader   = "## 用户记忆"
	contextHeader  = "# 个性化上下文"
	contextFooter  = "请结合以上个性化上下文理解并回应用户。"
	tagListPrefix  = "标签: "
	importanceStar = "★"
)

// Assembler combines the profile summary and the selected memories into
// the text block injected into outbound LLM prompts.
//
// Building memory context records usage on every rendered fragment, so it
// is deliberately not idempotent: calling it twice for the same message
// counts the fragments as shown twice. Usage is a "was this surfaced to
// the model" counter, not a pure query.
type Assembler struct {
	profile *store.ProfileStore
	memory  *store.MemoryStore
	config  *store.ConfigStore
}

// NewAssembler wires the assembler to the singleton stores.
func NewAssembler(profile *store.ProfileStore, memory *store.MemoryStore, config *store.ConfigStore) *Assembler {
	return &Assembler{profile: profile, memory: memory, config: config}
}

// Select returns the fragments that would be injected for the given user
// message, without recording usage.
func (a *Assembler) Select(userMessage string) []types.Fragment {
	return SelectForPrompt(a.memory.List(), userMessage, a.config.Get(), time.Now())
}

// BuildMemoryContext selects fragments for the message, renders them into
// a numbered section and records usage once per rendered fragment.
// Returns "" when nothing survives selection (including strategy none).
func (a *Assembler) BuildMemoryContext(userMessage string) string {
	selected := a.Select(userMessage)
	if len(selected) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(memoryHeader)
	b.WriteString("\n")

	ids := make([]string, 0, len(selected))
	for i, f := range selected {
		b.WriteString(fmt.Sprintf("%d. [%s] %s", i+1, f.Category.Label(), f.Content))
		if len(f.Tags) > 0 {
			b.WriteString(fmt.Sprintf(" (%s%s)", tagListPrefix, strings.Join(f.Tags, ", ")))
		}
		b.WriteString(" ")
		b.WriteString(strings.Repeat(importanceStar, f.Importance))
		b.WriteString("\n")
		ids = append(ids, f.ID)
	}

	a.memory.RecordUsageBatch(ids)
	return strings.TrimRight(b.String(), "\n")
}

// BuildProfileContext renders the profile summary section. Pure; returns
// "" when the summary is empty so callers omit the section.
func (a *Assembler) BuildProfileContext() string {
	summary := a.profile.BuildSummary()
	if summary == "" {
		return ""
	}
	return profileHeader + "\n" + summary
}

// BuildAIContext produces the full personalization block for the outbound
// prompt: profile section first, then memory section, inside a fixed
// delimiter wrapper. Returns "" when both sections are empty, in which
// case the caller must omit personalization entirely.
func (a *Assembler) BuildAIContext(userMessage string) string {
	profileCtx := a.BuildProfileContext()
	memoryCtx := a.BuildMemoryContext(userMessage)

	if profileCtx == "" && memoryCtx == "" {
		return ""
	}

	var sections []string
	sections = append(sections, "---", contextHeader)
	if profileCtx != "" {
		sections = append(sections, profileCtx)
	}
	if memoryCtx != "" {
		sections = append(sections, memoryCtx)
	}
	sections = append(sections, "---", contextFooter)
	return strings.Join(sections, "\n\n")
}
