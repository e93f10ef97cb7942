package importer

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/scrypster/persona/internal/store"
)

// Result is the summary produced by a completed directory import.
type Result struct {
	FilesFound       int           `json:"files_found"`
	FilesProcessed   int           `json:"files_processed"`
	FilesSkipped     int           `json:"files_skipped"`
	FilesFailed      int           `json:"files_failed"`
	FragmentsCreated int           `json:"fragments_created"`
	Errors           []string      `json:"errors,omitempty"`
	Duration         time.Duration `json:"duration_ms"`
}

// DirImporter walks a directory of Markdown notes and creates one memory
// fragment per file.
type DirImporter struct {
	memories *store.MemoryStore
}

// NewDirImporter creates an importer that stores fragments in memories.
func NewDirImporter(memories *store.MemoryStore) *DirImporter {
	return &DirImporter{memories: memories}
}

// ImportDir parses every .md file under dirPath and stores the resulting
// fragments. Unreadable or malformed files are skipped and reported in the
// result rather than aborting the run.
func (imp *DirImporter) ImportDir(dirPath string) (*Result, error) {
	info, err := os.Stat(dirPath)
	if err != nil {
		return nil, fmt.Errorf("cannot access directory %q: %w", dirPath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%q is not a directory", dirPath)
	}

	start := time.Now()
	result := &Result{}

	files, err := collectMarkdownFiles(dirPath)
	if err != nil {
		return nil, fmt.Errorf("walk %q: %w", dirPath, err)
	}
	result.FilesFound = len(files)

	for _, absPath := range files {
		rel, _ := filepath.Rel(dirPath, absPath)

		data, err := os.ReadFile(absPath)
		if err != nil {
			log.Printf("import: skip %s: read error: %v", rel, err)
			result.FilesSkipped++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: read error: %v", rel, err))
			continue
		}

		if len(strings.TrimSpace(string(data))) == 0 {
			result.FilesSkipped++
			continue
		}

		parsed, err := ParseMarkdown(data, rel)
		if err != nil {
			log.Printf("import: skip %s: parse error: %v", rel, err)
			result.FilesFailed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: parse error: %v", rel, err))
			continue
		}

		if parsed.Content == "" {
			// Frontmatter-only files carry no memory worth keeping.
			result.FilesSkipped++
			continue
		}

		if _, err := imp.memories.Add(parsed.Fragment()); err != nil {
			log.Printf("import: failed to store %s: %v", rel, err)
			result.FilesFailed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: store error: %v", rel, err))
			continue
		}

		result.FilesProcessed++
		result.FragmentsCreated++
	}

	result.Duration = time.Since(start)
	return result, nil
}

// collectMarkdownFiles returns all .md files under root, skipping hidden
// directories (dotfiles) the way note-taking apps stash their own state.
func collectMarkdownFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(d.Name()), ".md") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
