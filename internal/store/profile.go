package store

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/scrypster/persona/internal/kv"
	"github.com/scrypster/persona/pkg/types"
)

// ProfileStore holds the singleton user profile.
type ProfileStore struct {
	mu      sync.RWMutex
	kv      kv.Store
	profile types.UserProfile
}

// NewProfileStore loads the stored profile (migrating it to the current
// schema) or starts from defaults when none exists.
func NewProfileStore(store kv.Store) *ProfileStore {
	ps := &ProfileStore{kv: store, profile: types.DefaultProfile()}

	data, err := store.Load(keyProfile)
	if err == nil {
		var saved types.UserProfile
		if jsonErr := json.Unmarshal(data, &saved); jsonErr != nil {
			log.Printf("store: ignoring corrupt profile record: %v", jsonErr)
		} else {
			ps.profile = types.MigrateProfile(saved)
		}
	} else if err != kv.ErrNotFound {
		log.Printf("store: failed to load profile, using defaults: %v", err)
	}

	return ps
}

// Get returns the current profile.
func (s *ProfileStore) Get() types.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// Update shallow-merges the supplied fields into the profile, bumps
// updatedAt and persists. The returned profile reflects the merge even when
// persistence fails; the error reports the save failure, if any.
func (s *ProfileStore) Update(upd types.ProfileUpdate) (types.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	apply := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	apply(&s.profile.Profession, upd.Profession)
	apply(&s.profile.Role, upd.Role)
	apply(&s.profile.Responsibilities, upd.Responsibilities)
	apply(&s.profile.CommunicationStyle, upd.CommunicationStyle)
	apply(&s.profile.TonePreference, upd.TonePreference)
	apply(&s.profile.WorkHours, upd.WorkHours)
	apply(&s.profile.Timezone, upd.Timezone)
	apply(&s.profile.Goals, upd.Goals)
	apply(&s.profile.Constraints, upd.Constraints)
	s.profile.UpdatedAt = time.Now()

	return s.profile, s.persistLocked()
}

// Reset restores the profile to defaults. The profile is never deleted.
func (s *ProfileStore) Reset() (types.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = types.DefaultProfile()
	return s.profile, s.persistLocked()
}

// BuildSummary renders a line-oriented block listing every non-empty
// descriptive field, in the fixed label order. Returns "" when every field
// is empty; callers must then omit the profile section entirely.
func (s *ProfileStore) BuildSummary() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var lines []string
	for _, field := range types.ProfileFields {
		if value := field.Value(&s.profile); value != "" {
			lines = append(lines, fmt.Sprintf("- %s: %s", field.Label, value))
		}
	}
	return strings.Join(lines, "\n")
}

// Reload re-reads the profile from the backend, discarding in-memory
// state. Used when another process announces a change.
func (s *ProfileStore) Reload() error {
	data, err := s.kv.Load(keyProfile)
	if err == kv.ErrNotFound {
		s.mu.Lock()
		s.profile = types.DefaultProfile()
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("store: failed to reload profile: %w", err)
	}
	var saved types.UserProfile
	if err := json.Unmarshal(data, &saved); err != nil {
		return fmt.Errorf("store: corrupt profile record: %w", err)
	}
	s.mu.Lock()
	s.profile = types.MigrateProfile(saved)
	s.mu.Unlock()
	return nil
}

// replace overwrites the profile wholesale. Used by snapshot import.
func (s *ProfileStore) replace(p types.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = types.MigrateProfile(p)
	return s.persistLocked()
}

func (s *ProfileStore) persistLocked() error {
	data, err := json.Marshal(s.profile)
	if err != nil {
		return fmt.Errorf("store: failed to marshal profile: %w", err)
	}
	if err := s.kv.Save(keyProfile, data); err != nil {
		log.Printf("store: failed to persist profile: %v", err)
		return fmt.Errorf("store: failed to persist profile: %w", err)
	}
	return nil
}
