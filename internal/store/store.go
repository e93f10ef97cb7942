// Package store provides the singleton personalization stores: the user
// profile, the memory fragment collection, and the selection config.
//
// Stores keep their state in memory and write through to a keyed kv.Store.
// When a save fails the in-memory state stays authoritative for the rest of
// the session: the mutation is applied, the error is returned so callers
// can warn the user that changes may not persist, and the operation never
// crashes. The stores are safe for concurrent use.
package store

import "errors"

var (
	// ErrNotFound indicates that no fragment exists with the requested id.
	ErrNotFound = errors.New("fragment not found")

	// ErrInvalidInput indicates that the input failed validation.
	ErrInvalidInput = errors.New("invalid input")
)

// Storage keys used by the stores. The kv layer persists whole JSON
// documents under these names.
const (
	keyProfile  = "user_profile"
	keyMemories = "memories"
	keyConfig   = "memory_config"
)
