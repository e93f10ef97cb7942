package store

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/scrypster/persona/pkg/types"
)

// Snapshotter exports and imports the full persistent state of the three
// personalization stores.
type Snapshotter struct {
	profile *ProfileStore
	memory  *MemoryStore
	config  *ConfigStore
}

// NewSnapshotter wires the snapshot operations to the given stores.
func NewSnapshotter(profile *ProfileStore, memory *MemoryStore, config *ConfigStore) *Snapshotter {
	return &Snapshotter{profile: profile, memory: memory, config: config}
}

// ExportAll returns a full snapshot of the current state. Pure read.
func (s *Snapshotter) ExportAll() types.Snapshot {
	profile := s.profile.Get()
	memories := s.memory.List()
	cfg := s.config.Get()

	return types.Snapshot{
		UserProfile: &profile,
		Memories:    &memories,
		Config:      &cfg,
		Version:     types.SnapshotVersion,
		Timestamp:   time.Now(),
	}
}

// ImportAll replaces the state of every store whose key is present in the
// snapshot. Partial snapshots are allowed. The snapshot is validated in
// full before anything is applied, so a malformed key leaves every store
// in its pre-import state.
func (s *Snapshotter) ImportAll(snap types.Snapshot) error {
	if err := validateSnapshot(snap); err != nil {
		return err
	}

	if snap.UserProfile != nil {
		if err := s.profile.replace(*snap.UserProfile); err != nil {
			return err
		}
	}
	if snap.Memories != nil {
		if err := s.memory.replace(*snap.Memories); err != nil {
			return err
		}
	}
	if snap.Config != nil {
		cfg := *snap.Config
		if _, err := s.config.Update(cfg); err != nil {
			return err
		}
	}
	return nil
}

// ImportJSON parses raw snapshot JSON and applies it. A payload that does
// not parse as the expected shape (for example "memories" present but not
// a sequence) fails with a descriptive error and no state change.
func (s *Snapshotter) ImportJSON(data []byte) error {
	var snap types.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("%w: snapshot does not match the expected shape: %v", ErrInvalidInput, err)
	}
	return s.ImportAll(snap)
}

// validateSnapshot checks the shape of every present key before import.
func validateSnapshot(snap types.Snapshot) error {
	if snap.UserProfile == nil && snap.Memories == nil && snap.Config == nil {
		return fmt.Errorf("%w: snapshot contains no importable keys", ErrInvalidInput)
	}
	if snap.Memories != nil {
		seen := make(map[string]bool, len(*snap.Memories))
		for i, f := range *snap.Memories {
			if f.ID == "" {
				return fmt.Errorf("%w: memories[%d] has no id", ErrInvalidInput, i)
			}
			if seen[f.ID] {
				return fmt.Errorf("%w: memories[%d] duplicates id %s", ErrInvalidInput, i, f.ID)
			}
			seen[f.ID] = true
			if strings.TrimSpace(f.Content) == "" {
				return fmt.Errorf("%w: memories[%d] has empty content", ErrInvalidInput, i)
			}
		}
	}
	return nil
}
