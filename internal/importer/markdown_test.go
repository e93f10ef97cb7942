package importer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/persona/internal/kv"
	"github.com/scrypster/persona/internal/store"
	"github.com/scrypster/persona/pkg/types"
)

func TestParseMarkdownFrontmatter(t *testing.T) {
	src := `---
category: work_rule
tags:
  - deploy
  - process
importance: 5
---
Always run migrations before deploying.`

	pf, err := ParseMarkdown([]byte(src), "rules/deploy.md")
	require.NoError(t, err)

	assert.Equal(t, "Always run migrations before deploying.", pf.Content)
	assert.Equal(t, types.CategoryWorkRule, pf.Category)
	assert.Equal(t, []string{"deploy", "process"}, pf.Tags)
	assert.Equal(t, 5, pf.Importance)
}

func TestParseMarkdownNoFrontmatter(t *testing.T) {
	pf, err := ParseMarkdown([]byte("Prefers dark mode everywhere."), "note.md")
	require.NoError(t, err)

	assert.Equal(t, "Prefers dark mode everywhere.", pf.Content)
	assert.Equal(t, types.CategoryOther, pf.Category)
	assert.Equal(t, types.DefaultImportance, pf.Importance)
	assert.Empty(t, pf.Tags)
}

func TestParseMarkdownUnknownCategoryFallsBack(t *testing.T) {
	src := "---\ncategory: nonsense\n---\nbody"
	pf, err := ParseMarkdown([]byte(src), "note.md")
	require.NoError(t, err)
	assert.Equal(t, types.CategoryOther, pf.Category)
}

func TestParseMarkdownClampsImportance(t *testing.T) {
	src := "---\nimportance: 99\n---\nbody"
	pf, err := ParseMarkdown([]byte(src), "note.md")
	require.NoError(t, err)
	assert.Equal(t, types.MaxImportance, pf.Importance)
}

func TestParseMarkdownStringTags(t *testing.T) {
	src := "---\ntags: sre, oncall\n---\nbody"
	pf, err := ParseMarkdown([]byte(src), "note.md")
	require.NoError(t, err)
	assert.Equal(t, []string{"sre", "oncall"}, pf.Tags)
}

func TestParseMarkdownInlineTagsMerged(t *testing.T) {
	src := `---
tags: [sre]
---
Covers #oncall and #SRE rotation habits.`

	pf, err := ParseMarkdown([]byte(src), "note.md")
	require.NoError(t, err)

	// Inline tags merge in; "SRE" dedupes against "sre" case-insensitively.
	assert.Equal(t, []string{"sre", "oncall"}, pf.Tags)
}

func TestParseMarkdownInvalidYAML(t *testing.T) {
	src := "---\ntags: [unclosed\n---\nbody"
	_, err := ParseMarkdown([]byte(src), "bad.md")
	assert.Error(t, err)
}

func TestImportDir(t *testing.T) {
	dir := t.TempDir()

	write := func(rel, content string) {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	write("habits/standup.md", "---\ncategory: habit\nimportance: 4\n---\nPrefers async standups.")
	write("terms/slo.md", "---\ncategory: term\ntags: [sre]\n---\nSLO means service level objective.")
	write("empty.md", "   \n")
	write("readme.txt", "not markdown, ignored")
	write("broken.md", "---\ntags: [unclosed\n---\nbody")

	memories := store.NewMemoryStore(kv.NewMemStore())
	imp := NewDirImporter(memories)

	result, err := imp.ImportDir(dir)
	require.NoError(t, err)

	assert.Equal(t, 4, result.FilesFound) // .txt not counted
	assert.Equal(t, 2, result.FilesProcessed)
	assert.Equal(t, 2, result.FragmentsCreated)
	assert.Equal(t, 1, result.FilesSkipped)
	assert.Equal(t, 1, result.FilesFailed)

	stored := memories.List()
	require.Len(t, stored, 2)
	for _, f := range stored {
		assert.True(t, f.Enabled)
		assert.NotEmpty(t, f.ID)
	}
}

func TestImportDirNotADirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "f.md")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	imp := NewDirImporter(store.NewMemoryStore(kv.NewMemStore()))
	_, err := imp.ImportDir(file)
	assert.Error(t, err)
}
