package types

import "time"

// SnapshotVersion is the format version stamped on exported snapshots.
const SnapshotVersion = "1.0"

// Snapshot is a full export of the engine's persistent state. Pointer
// fields distinguish "absent from snapshot" from "present but empty":
// importing a partial snapshot only replaces the keys it carries.
type Snapshot struct {
	UserProfile *UserProfile  `json:"user_profile,omitempty"`
	Memories    *[]Fragment   `json:"memories,omitempty"`
	Config      *MemoryConfig `json:"config,omitempty"`
	Version     string        `json:"version"`
	Timestamp   time.Time     `json:"timestamp"`
}
