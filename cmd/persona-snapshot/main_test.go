package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/persona/internal/config"
	"github.com/scrypster/persona/internal/kv"
	"github.com/scrypster/persona/internal/notify"
	"github.com/scrypster/persona/internal/store"
	"github.com/scrypster/persona/pkg/types"
)

func TestExportImportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot.json")

	source := kv.NewMemStore()
	memories := store.NewMemoryStore(source)
	_, err := memories.Add(types.Fragment{Content: "exported fact", Importance: 4})
	require.NoError(t, err)

	snapshotter := store.NewSnapshotter(
		store.NewProfileStore(source), memories, store.NewConfigStore(source))
	handleExport(snapshotter, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "exported fact")

	// Import into a fresh backend.
	dest := kv.NewMemStore()
	destMemories := store.NewMemoryStore(dest)
	destSnapshotter := store.NewSnapshotter(
		store.NewProfileStore(dest), destMemories, store.NewConfigStore(dest))
	handleImport(destSnapshotter, notify.NewEventWriter(dir), path)

	assert.Len(t, destMemories.List(), 1)
}

func TestHandleImportDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "note.md"),
		[]byte("---\ncategory: habit\n---\nLikes short meetings."), 0o644))

	backend := kv.NewMemStore()
	memories := store.NewMemoryStore(backend)
	handleImportDir(memories, notify.NewEventWriter(t.TempDir()), dir)

	require.Len(t, memories.List(), 1)
	assert.Equal(t, types.CategoryHabit, memories.List()[0].Category)
}

func TestOpenBackendSQLiteDefault(t *testing.T) {
	cfg := &config.Config{}
	cfg.Storage.Engine = "sqlite"
	cfg.Storage.DataPath = t.TempDir()

	backend, err := openBackend(cfg)
	require.NoError(t, err)
	defer backend.Close()

	require.NoError(t, backend.Save("k", []byte("v")))
	data, err := backend.Load("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), data)
}

func TestOpenBackendRejectsMemory(t *testing.T) {
	cfg := &config.Config{}
	cfg.Storage.Engine = "memory"
	cfg.Storage.DataPath = t.TempDir()

	_, err := openBackend(cfg)
	assert.Error(t, err)
}
