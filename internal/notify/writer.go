// Package notify provides cross-process change notification between the
// persona-web server and the persona-snapshot CLI using filesystem events.
// A process that mutates the record store emits an event file; other
// processes watching the directory reload their in-memory state.
package notify

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Event types emitted by the stores' callers.
const (
	EventProfileUpdated = "profile_updated"
	EventMemoryChanged  = "memory_changed"
	EventConfigUpdated  = "config_updated"
	EventImported       = "imported"
)

// Event is the payload written to an event file.
type Event struct {
	Type string `json:"type"`
	Key  string `json:"key"`
	Time int64  `json:"time"`
}

// EventWriter writes notification event files to a shared directory.
type EventWriter struct {
	dir string
}

// NewEventWriter creates a writer that emits events to {dataPath}/events/.
func NewEventWriter(dataPath string) *EventWriter {
	return &EventWriter{dir: filepath.Join(dataPath, "events")}
}

// Notify writes an event file with the given type and subject key.
// Safe to call concurrently. Errors are returned but not fatal.
func (w *EventWriter) Notify(eventType, key string) error {
	if err := os.MkdirAll(w.dir, 0o700); err != nil {
		return fmt.Errorf("notify: mkdir %s: %w", w.dir, err)
	}
	evt := Event{
		Type: eventType,
		Key:  key,
		Time: time.Now().UnixNano(),
	}
	data, _ := json.Marshal(evt)
	filename := fmt.Sprintf("%d-%s.event", evt.Time, sanitizeKey(key))
	path := filepath.Join(w.dir, filename)
	return os.WriteFile(path, data, 0o600)
}

// sanitizeKey replaces characters unsafe for filenames.
func sanitizeKey(key string) string {
	out := make([]byte, len(key))
	for i := 0; i < len(key); i++ {
		if key[i] == '/' || key[i] == ':' {
			out[i] = '_'
		} else {
			out[i] = key[i]
		}
	}
	return string(out)
}
