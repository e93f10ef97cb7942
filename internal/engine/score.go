// Package engine implements the memory selection heuristic and the prompt
// context assembler. Selection is pure; usage recording is an explicit,
// separate side effect composed by the assembler.
package engine

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/scrypster/persona/pkg/types"
)

// Recency bonus windows for the smart relevance score.
const (
	recentWindow     = 7 * 24 * time.Hour
	lessRecentWindow = 30 * 24 * time.Hour
)

// relevanceScore ranks a fragment against the current user message under
// the smart strategy.
//
// The base score is importance scaled by the category weight; lexical
// overlap with the message, accumulated usage and recent usage add bounded
// bonuses on top. The multiplication happens before any additive bonus.
func relevanceScore(f *types.Fragment, msg string, cfg *types.MemoryConfig, now time.Time) float64 {
	score := float64(f.Importance) * 10
	score *= cfg.CategoryWeight(f.Category)

	loweredMsg := strings.ToLower(msg)
	if strings.Contains(strings.ToLower(f.Content), loweredMsg) {
		score += 50
	}

	for _, tag := range f.Tags {
		if tag != "" && strings.Contains(loweredMsg, strings.ToLower(tag)) {
			score += 20
		}
	}

	usage := f.UsageCount
	if usage > 10 {
		usage = 10
	}
	score += 2 * float64(usage)

	if f.LastUsedAt != nil {
		since := now.Sub(*f.LastUsedAt)
		if since < recentWindow {
			score += 15
		} else if since < lessRecentWindow {
			score += 5
		}
	}

	return score
}

// contextSize is the character-based token estimate for a fragment:
// content length plus joined-tag length, in runes.
func contextSize(f *types.Fragment) int {
	return utf8.RuneCountInString(f.Content) + utf8.RuneCountInString(f.JoinedTags())
}
