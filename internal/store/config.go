package store

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/scrypster/persona/internal/kv"
	"github.com/scrypster/persona/pkg/types"
)

// ConfigStore holds the singleton memory selection config.
type ConfigStore struct {
	mu  sync.RWMutex
	kv  kv.Store
	cfg types.MemoryConfig
}

// NewConfigStore loads the stored config or starts from defaults. Stored
// values outside sane ranges are clamped back to defaults on load.
func NewConfigStore(store kv.Store) *ConfigStore {
	cs := &ConfigStore{kv: store, cfg: types.DefaultMemoryConfig()}

	data, err := store.Load(keyConfig)
	if err == nil {
		var saved types.MemoryConfig
		if jsonErr := json.Unmarshal(data, &saved); jsonErr != nil {
			log.Printf("store: ignoring corrupt config record: %v", jsonErr)
		} else {
			saved.Normalize()
			cs.cfg = saved
		}
	} else if err != kv.ErrNotFound {
		log.Printf("store: failed to load config, using defaults: %v", err)
	}

	return cs
}

// Get returns the current config. Category weights are copied so callers
// cannot mutate the stored map.
func (s *ConfigStore) Get() types.MemoryConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked()
}

// Update replaces the config wholesale, clamping invalid fields, and
// persists the result.
func (s *ConfigStore) Update(cfg types.MemoryConfig) (types.MemoryConfig, error) {
	cfg.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	return s.copyLocked(), s.persistLocked()
}

// Reload re-reads the config from the backend, discarding in-memory
// state. Used when another process announces a change.
func (s *ConfigStore) Reload() error {
	data, err := s.kv.Load(keyConfig)
	if err == kv.ErrNotFound {
		s.mu.Lock()
		s.cfg = types.DefaultMemoryConfig()
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("store: failed to reload config: %w", err)
	}
	var saved types.MemoryConfig
	if err := json.Unmarshal(data, &saved); err != nil {
		return fmt.Errorf("store: corrupt config record: %w", err)
	}
	saved.Normalize()
	s.mu.Lock()
	s.cfg = saved
	s.mu.Unlock()
	return nil
}

func (s *ConfigStore) copyLocked() types.MemoryConfig {
	out := s.cfg
	if s.cfg.SmartRules.CategoryWeights != nil {
		weights := make(map[types.Category]float64, len(s.cfg.SmartRules.CategoryWeights))
		for cat, w := range s.cfg.SmartRules.CategoryWeights {
			weights[cat] = w
		}
		out.SmartRules.CategoryWeights = weights
	}
	return out
}

func (s *ConfigStore) persistLocked() error {
	data, err := json.Marshal(s.cfg)
	if err != nil {
		return fmt.Errorf("store: failed to marshal config: %w", err)
	}
	if err := s.kv.Save(keyConfig, data); err != nil {
		log.Printf("store: failed to persist config: %v", err)
		return fmt.Errorf("store: failed to persist config: %w", err)
	}
	return nil
}
