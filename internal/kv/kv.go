// Package kv provides the keyed, whole-value persistence layer backing the
// personalization stores. Records are JSON blobs stored under fixed keys;
// there are no partial-field updates at this layer.
package kv

import "errors"

var (
	// ErrNotFound indicates that no record exists under the requested key.
	ErrNotFound = errors.New("record not found")
)

// Store is the minimal persistence contract the personalization stores
// depend on. Implementations must be safe for concurrent use.
type Store interface {
	// Load returns the raw JSON stored under key, or ErrNotFound.
	Load(key string) ([]byte, error)

	// Save writes value under key, replacing any previous record.
	Save(key string, value []byte) error

	// Close releases any resources held by the store.
	Close() error
}
