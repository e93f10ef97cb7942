package store

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/scrypster/persona/internal/kv"
	"github.com/scrypster/persona/pkg/types"
)

// MemoryStore holds the memory fragment collection in insertion order.
type MemoryStore struct {
	mu        sync.RWMutex
	kv        kv.Store
	fragments []types.Fragment
}

// NewMemoryStore loads the stored fragment collection, normalizing each
// fragment so out-of-range records from older versions are clamped.
func NewMemoryStore(store kv.Store) *MemoryStore {
	ms := &MemoryStore{kv: store}

	data, err := store.Load(keyMemories)
	if err == nil {
		var saved []types.Fragment
		if jsonErr := json.Unmarshal(data, &saved); jsonErr != nil {
			log.Printf("store: ignoring corrupt memories record: %v", jsonErr)
		} else {
			for i := range saved {
				saved[i].Normalize()
			}
			ms.fragments = saved
		}
	} else if err != kv.ErrNotFound {
		log.Printf("store: failed to load memories, starting empty: %v", err)
	}

	return ms
}

// Add creates a new fragment. Content is required; category defaults to
// other, importance to 3, enabled to true.
func (s *MemoryStore) Add(f types.Fragment) (types.Fragment, error) {
	if strings.TrimSpace(f.Content) == "" {
		return types.Fragment{}, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}

	now := time.Now()
	f.ID = uuid.New().String()
	f.Enabled = true
	f.CreatedAt = now
	f.UpdatedAt = now
	f.UsageCount = 0
	f.LastUsedAt = nil
	f.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.fragments = append(s.fragments, f)
	return f, s.persistLocked()
}

// Update merges the supplied fields into the fragment with the given id,
// bumps updatedAt and persists. Returns ErrNotFound when no fragment
// matches; the collection is left untouched in that case.
func (s *MemoryStore) Update(id string, upd types.FragmentUpdate) (types.Fragment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return types.Fragment{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	f := &s.fragments[idx]
	if upd.Content != nil {
		if strings.TrimSpace(*upd.Content) == "" {
			return types.Fragment{}, fmt.Errorf("%w: content is required", ErrInvalidInput)
		}
		f.Content = *upd.Content
	}
	if upd.Category != nil {
		f.Category = *upd.Category
	}
	if upd.Tags != nil {
		f.Tags = append([]string(nil), (*upd.Tags)...)
	}
	if upd.Importance != nil {
		f.Importance = *upd.Importance
	}
	if upd.Enabled != nil {
		f.Enabled = *upd.Enabled
	}
	f.Normalize()
	f.UpdatedAt = time.Now()

	return *f, s.persistLocked()
}

// Delete removes the fragment with the given id. Returns ErrNotFound when
// no fragment matches.
func (s *MemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	s.fragments = append(s.fragments[:idx], s.fragments[idx+1:]...)
	return s.persistLocked()
}

// Toggle flips the enabled flag on the fragment with the given id.
func (s *MemoryStore) Toggle(id string) (types.Fragment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return types.Fragment{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	f := &s.fragments[idx]
	f.Enabled = !f.Enabled
	f.UpdatedAt = time.Now()
	return *f, s.persistLocked()
}

// Get returns the fragment with the given id.
func (s *MemoryStore) Get(id string) (types.Fragment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return types.Fragment{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.fragments[idx], nil
}

// RecordUsage increments usageCount and stamps lastUsedAt for the fragment
// with the given id. Silently a no-op for unknown ids: usage recording is a
// fire-and-forget side effect, not a user-facing operation.
func (s *MemoryStore) RecordUsage(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordUsageLocked(id)
	if err := s.persistLocked(); err != nil {
		log.Printf("store: failed to persist usage for %s: %v", id, err)
	}
}

// RecordUsageBatch records usage for each id in order, persisting once.
func (s *MemoryStore) RecordUsageBatch(ids []string) {
	if len(ids) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.recordUsageLocked(id)
	}
	if err := s.persistLocked(); err != nil {
		log.Printf("store: failed to persist usage batch: %v", err)
	}
}

func (s *MemoryStore) recordUsageLocked(id string) {
	idx := s.indexLocked(id)
	if idx < 0 {
		return
	}
	now := time.Now()
	s.fragments[idx].UsageCount++
	s.fragments[idx].LastUsedAt = &now
}

// List returns a copy of the full collection in insertion order.
func (s *MemoryStore) List() []types.Fragment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.Fragment(nil), s.fragments...)
}

// ListEnabled returns the enabled fragments in insertion order.
func (s *MemoryStore) ListEnabled() []types.Fragment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []types.Fragment
	for _, f := range s.fragments {
		if f.Enabled {
			out = append(out, f)
		}
	}
	return out
}

// Search returns enabled fragments whose content or any tag contains the
// query, case-insensitively.
func (s *MemoryStore) Search(query string) []types.Fragment {
	q := strings.ToLower(query)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []types.Fragment
	for _, f := range s.fragments {
		if !f.Enabled {
			continue
		}
		if strings.Contains(strings.ToLower(f.Content), q) {
			out = append(out, f)
			continue
		}
		for _, tag := range f.Tags {
			if strings.Contains(strings.ToLower(tag), q) {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

// Stats summarizes the collection. Per-category counts, average importance
// and usage totals cover enabled fragments only.
func (s *MemoryStore) Stats() types.MemoryStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := types.MemoryStats{
		Total:      len(s.fragments),
		ByCategory: make(map[types.Category]int),
	}

	importanceSum := 0
	for _, f := range s.fragments {
		if !f.Enabled {
			continue
		}
		stats.Enabled++
		stats.ByCategory[f.Category]++
		importanceSum += f.Importance
		stats.TotalUsage += f.UsageCount
	}
	stats.Disabled = stats.Total - stats.Enabled
	if stats.Enabled > 0 {
		stats.AvgImportance = float64(importanceSum) / float64(stats.Enabled)
	}
	return stats
}

// Reload re-reads the collection from the backend, discarding in-memory
// state. Used when another process announces a change.
func (s *MemoryStore) Reload() error {
	data, err := s.kv.Load(keyMemories)
	if err == kv.ErrNotFound {
		s.mu.Lock()
		s.fragments = nil
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("store: failed to reload memories: %w", err)
	}
	var saved []types.Fragment
	if err := json.Unmarshal(data, &saved); err != nil {
		return fmt.Errorf("store: corrupt memories record: %w", err)
	}
	for i := range saved {
		saved[i].Normalize()
	}
	s.mu.Lock()
	s.fragments = saved
	s.mu.Unlock()
	return nil
}

// replace overwrites the collection wholesale. Used by snapshot import.
func (s *MemoryStore) replace(fragments []types.Fragment) error {
	normalized := make([]types.Fragment, len(fragments))
	copy(normalized, fragments)
	for i := range normalized {
		normalized[i].Normalize()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.fragments = normalized
	return s.persistLocked()
}

// indexLocked returns the position of id in the collection, or -1.
func (s *MemoryStore) indexLocked(id string) int {
	for i := range s.fragments {
		if s.fragments[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *MemoryStore) persistLocked() error {
	data, err := json.Marshal(s.fragments)
	if err != nil {
		return fmt.Errorf("store: failed to marshal memories: %w", err)
	}
	if err := s.kv.Save(keyMemories, data); err != nil {
		log.Printf("store: failed to persist memories: %v", err)
		return fmt.Errorf("store: failed to persist memories: %w", err)
	}
	return nil
}
