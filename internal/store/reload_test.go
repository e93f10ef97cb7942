package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/persona/internal/kv"
	"github.com/scrypster/persona/pkg/types"
)

func TestMemoryStoreReloadPicksUpExternalWrite(t *testing.T) {
	backend := kv.NewMemStore()
	ms := NewMemoryStore(backend)
	require.Empty(t, ms.List())

	// Another process writes through its own store over the same backend.
	other := NewMemoryStore(backend)
	_, err := other.Add(types.Fragment{Content: "written elsewhere"})
	require.NoError(t, err)

	// Stale until reloaded.
	assert.Empty(t, ms.List())
	require.NoError(t, ms.Reload())
	require.Len(t, ms.List(), 1)
	assert.Equal(t, "written elsewhere", ms.List()[0].Content)
}

func TestMemoryStoreReloadMissingKeyClears(t *testing.T) {
	ms := NewMemoryStore(kv.NewMemStore())
	_, err := ms.Add(types.Fragment{Content: "ephemeral"})
	require.NoError(t, err)

	// Swap-in state: nothing under the key means an empty collection.
	ms.kv = kv.NewMemStore()
	require.NoError(t, ms.Reload())
	assert.Empty(t, ms.List())
}

func TestProfileStoreReload(t *testing.T) {
	backend := kv.NewMemStore()
	ps := NewProfileStore(backend)

	other := NewProfileStore(backend)
	role := "tech lead"
	_, err := other.Update(types.ProfileUpdate{Role: &role})
	require.NoError(t, err)

	assert.Empty(t, ps.Get().Role)
	require.NoError(t, ps.Reload())
	assert.Equal(t, "tech lead", ps.Get().Role)
}

func TestConfigStoreReload(t *testing.T) {
	backend := kv.NewMemStore()
	cs := NewConfigStore(backend)

	other := NewConfigStore(backend)
	cfg := types.DefaultMemoryConfig()
	cfg.InjectionStrategy = types.StrategyImportant
	cfg.MaxMemories = 3
	_, err := other.Update(cfg)
	require.NoError(t, err)

	require.NoError(t, cs.Reload())
	got := cs.Get()
	assert.Equal(t, types.StrategyImportant, got.InjectionStrategy)
	assert.Equal(t, 3, got.MaxMemories)
}
