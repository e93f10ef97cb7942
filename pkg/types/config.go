package types

// InjectionStrategy controls how much memory content is surfaced into an
// outbound prompt.
type InjectionStrategy string

const (
	StrategyAll       InjectionStrategy = "all"
	StrategyImportant InjectionStrategy = "important"
	StrategySmart     InjectionStrategy = "smart"
	StrategyNone      InjectionStrategy = "none"
)

// IsValid reports whether s is a known injection strategy.
func (s InjectionStrategy) IsValid() bool {
	switch s {
	case StrategyAll, StrategyImportant, StrategySmart, StrategyNone:
		return true
	}
	return false
}

// Defaults for MemoryConfig. Out-of-range stored values are clamped back to
// these rather than rejected.
const (
	DefaultMaxTokens     = 1000
	DefaultMaxMemories   = 10
	DefaultMinImportance = 3
	DefaultRecentDays    = 30
)

// defaultCategoryWeights tunes the base relevance score per category.
var defaultCategoryWeights = map[Category]float64{
	CategoryWorkRule:   1.2,
	CategoryPreference: 1.1,
	CategoryHabit:      1.0,
	CategoryKnowledge:  0.9,
	CategoryPerson:     0.8,
	CategoryTerm:       0.7,
	CategoryOther:      0.5,
}

// SmartRules tunes the smart injection strategy.
type SmartRules struct {
	MinImportance int `json:"min_importance"`

	// RecentDays is advisory: it is stored and round-tripped but not
	// consulted by the scoring formula.
	RecentDays int `json:"recent_days"`

	CategoryWeights map[Category]float64 `json:"category_weights"`
}

// MemoryConfig is the singleton controlling prompt selection behavior.
type MemoryConfig struct {
	InjectionStrategy InjectionStrategy `json:"injection_strategy"`
	MaxTokens         int               `json:"max_tokens"`
	MaxMemories       int               `json:"max_memories"`
	SmartRules        SmartRules        `json:"smart_rules"`
}

// DefaultMemoryConfig returns the configuration used on first run.
func DefaultMemoryConfig() MemoryConfig {
	weights := make(map[Category]float64, len(defaultCategoryWeights))
	for cat, w := range defaultCategoryWeights {
		weights[cat] = w
	}
	return MemoryConfig{
		InjectionStrategy: StrategySmart,
		MaxTokens:         DefaultMaxTokens,
		MaxMemories:       DefaultMaxMemories,
		SmartRules: SmartRules{
			MinImportance:   DefaultMinImportance,
			RecentDays:      DefaultRecentDays,
			CategoryWeights: weights,
		},
	}
}

// Normalize clamps out-of-range numeric fields back to defaults and fills
// invalid enum values. Missing category weights are left absent; reads go
// through CategoryWeight, which is total over the category enum.
func (c *MemoryConfig) Normalize() {
	if !c.InjectionStrategy.IsValid() {
		c.InjectionStrategy = StrategySmart
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.MaxMemories <= 0 {
		c.MaxMemories = DefaultMaxMemories
	}
	if c.SmartRules.MinImportance < MinImportance || c.SmartRules.MinImportance > MaxImportance {
		c.SmartRules.MinImportance = DefaultMinImportance
	}
	if c.SmartRules.RecentDays <= 0 {
		c.SmartRules.RecentDays = DefaultRecentDays
	}
	for cat, w := range c.SmartRules.CategoryWeights {
		if w <= 0 {
			delete(c.SmartRules.CategoryWeights, cat)
		}
	}
}

// CategoryWeight returns the configured multiplier for cat. It is total:
// categories without an entry weigh 1.0.
func (c *MemoryConfig) CategoryWeight(cat Category) float64 {
	if w, ok := c.SmartRules.CategoryWeights[cat]; ok {
		return w
	}
	return 1.0
}
