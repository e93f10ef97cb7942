package engine

import (
	"sort"
	"time"

	"github.com/scrypster/persona/pkg/types"
)

// SelectForPrompt picks the fragments to inject into an outbound prompt
// for the given user message. It is pure: it never mutates fragments and
// records no usage; see Assembler for the composed side-effecting path.
//
// Disabled fragments are never selected. The candidate set depends on the
// injection strategy; the limit rules then apply identically to every
// strategy, in this fixed order: a stable importance-descending re-sort,
// truncation to MaxMemories, then a greedy character budget of
// MaxTokens*3 that stops at the first fragment that would exceed it.
func SelectForPrompt(fragments []types.Fragment, msg string, cfg types.MemoryConfig, now time.Time) []types.Fragment {
	var enabled []types.Fragment
	for _, f := range fragments {
		if f.Enabled {
			enabled = append(enabled, f)
		}
	}
	if len(enabled) == 0 {
		return nil
	}

	var candidates []types.Fragment
	switch cfg.InjectionStrategy {
	case types.StrategyNone:
		return nil

	case types.StrategyAll:
		candidates = enabled

	case types.StrategyImportant:
		for _, f := range enabled {
			if f.Importance >= cfg.SmartRules.MinImportance {
				candidates = append(candidates, f)
			}
		}

	case types.StrategySmart:
		scores := make([]float64, len(enabled))
		for i := range enabled {
			scores[i] = relevanceScore(&enabled[i], msg, &cfg, now)
		}
		// Sort an index slice so scores stay paired with their fragments.
		// Stable: equal scores keep original collection order.
		order := make([]int, len(enabled))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return scores[order[a]] > scores[order[b]]
		})
		candidates = make([]types.Fragment, 0, len(enabled))
		for _, idx := range order {
			candidates = append(candidates, enabled[idx])
		}

	default:
		candidates = enabled
	}

	return applyLimits(candidates, cfg)
}

// applyLimits enforces MaxMemories and the character budget over an
// already-ordered candidate sequence.
func applyLimits(candidates []types.Fragment, cfg types.MemoryConfig) []types.Fragment {
	// Importance re-sort happens for every strategy, including smart,
	// where it can reorder away from the relevance ranking. Deliberate
	// two-stage ordering; stable so in-strategy order breaks ties.
	ordered := append([]types.Fragment(nil), candidates...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Importance > ordered[j].Importance
	})

	if len(ordered) > cfg.MaxMemories {
		ordered = ordered[:cfg.MaxMemories]
	}

	budget := cfg.MaxTokens * 3
	used := 0
	var out []types.Fragment
	for i := range ordered {
		size := contextSize(&ordered[i])
		if used+size > budget {
			break
		}
		used += size
		out = append(out, ordered[i])
	}
	return out
}
