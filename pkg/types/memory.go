package types

import (
	"strings"
	"time"
)

// Category classifies what kind of fact a memory fragment captures.
type Category string

const (
	CategoryWorkRule   Category = "work_rule"
	CategoryPreference Category = "preference"
	CategoryPerson     Category = "person"
	CategoryTerm       Category = "term"
	CategoryHabit      Category = "habit"
	CategoryKnowledge  Category = "knowledge"
	CategoryOther      Category = "other"
)

// Categories lists every valid category value in display order.
var Categories = []Category{
	CategoryWorkRule,
	CategoryPreference,
	CategoryPerson,
	CategoryTerm,
	CategoryHabit,
	CategoryKnowledge,
	CategoryOther,
}

// categoryLabels maps categories to the labels rendered into prompt context.
var categoryLabels = map[Category]string{
	CategoryWorkRule:   "工作规则",
	CategoryPreference: "偏好",
	CategoryPerson:     "人物",
	CategoryTerm:       "术语",
	CategoryHabit:      "习惯",
	CategoryKnowledge:  "知识",
	CategoryOther:      "其他",
}

// IsValid reports whether c is one of the known category values.
func (c Category) IsValid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label returns the display label for c. Unknown categories fall back to
// the "other" label so rendering never produces an empty bracket.
func (c Category) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return categoryLabels[CategoryOther]
}

// Importance bounds for a fragment. Values outside the range are clamped,
// never rejected (low-stakes personalization knob).
const (
	MinImportance = 1
	MaxImportance = 5

	// DefaultImportance is the importance assigned when none is supplied.
	DefaultImportance = 3
)

// ClampImportance forces v into [MinImportance, MaxImportance].
func ClampImportance(v int) int {
	if v < MinImportance {
		return MinImportance
	}
	if v > MaxImportance {
		return MaxImportance
	}
	return v
}

// Fragment is one discrete remembered fact about the user or their working
// context. Fragments are the atomic units the selection engine ranks and
// injects into outbound LLM prompts.
type Fragment struct {
	ID         string     `json:"id"`
	Content    string     `json:"content"`
	Category   Category   `json:"category"`
	Tags       []string   `json:"tags,omitempty"`
	Importance int        `json:"importance"`
	Enabled    bool       `json:"enabled"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	UsageCount int        `json:"usage_count"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// Normalize applies field defaults and clamps out-of-range values in place.
// It does not touch identity or bookkeeping fields.
func (f *Fragment) Normalize() {
	if f.Category == "" || !f.Category.IsValid() {
		f.Category = CategoryOther
	}
	if f.Importance == 0 {
		f.Importance = DefaultImportance
	}
	f.Importance = ClampImportance(f.Importance)
	if f.UsageCount < 0 {
		f.UsageCount = 0
	}
}

// JoinedTags returns the tags joined for size estimation and display.
func (f *Fragment) JoinedTags() string {
	return strings.Join(f.Tags, ",")
}

// FragmentUpdate carries a partial update for a fragment. Nil fields are
// left unchanged; non-nil fields replace the stored value wholesale.
type FragmentUpdate struct {
	Content    *string   `json:"content,omitempty"`
	Category   *Category `json:"category,omitempty"`
	Tags       *[]string `json:"tags,omitempty"`
	Importance *int      `json:"importance,omitempty"`
	Enabled    *bool     `json:"enabled,omitempty"`
}

// MemoryStats summarizes the fragment collection. Per-category counts,
// average importance and usage totals cover enabled fragments only.
type MemoryStats struct {
	Total         int              `json:"total"`
	Enabled       int              `json:"enabled"`
	Disabled      int              `json:"disabled"`
	ByCategory    map[Category]int `json:"by_category"`
	AvgImportance float64          `json:"avg_importance"`
	TotalUsage    int              `json:"total_usage"`
}
