// Command persona-snapshot exports and imports personalization state
// (profile, memory fragments, injection config) as a JSON snapshot file.
// It operates on the same record store as persona-web and emits change
// events so a running server reloads after an import.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/scrypster/persona/internal/config"
	"github.com/scrypster/persona/internal/importer"
	"github.com/scrypster/persona/internal/kv"
	"github.com/scrypster/persona/internal/notify"
	"github.com/scrypster/persona/internal/store"
)

var (
	configPath = flag.String("config", "", "Path to YAML config file (optional)")
	exportPath = flag.String("export", "", "Write a snapshot to this file and exit")
	importPath = flag.String("import", "", "Restore state from this snapshot file and exit")
	importDir  = flag.String("import-dir", "", "Bulk-create fragments from Markdown files in this directory and exit")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	backend, err := openBackend(cfg)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer backend.Close()

	profile := store.NewProfileStore(backend)
	memories := store.NewMemoryStore(backend)
	memCfg := store.NewConfigStore(backend)
	snapshotter := store.NewSnapshotter(profile, memories, memCfg)
	notifier := notify.NewEventWriter(cfg.Storage.DataPath)

	switch {
	case *exportPath != "":
		handleExport(snapshotter, *exportPath)
	case *importPath != "":
		handleImport(snapshotter, notifier, *importPath)
	case *importDir != "":
		handleImportDir(memories, notifier, *importDir)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func handleExport(snapshotter *store.Snapshotter, path string) {
	snap := snapshotter.ExportAll()
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal snapshot: %v", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		log.Fatalf("Failed to write snapshot: %v", err)
	}
	log.Printf("Snapshot written to %s", path)
}

func handleImport(snapshotter *store.Snapshotter, notifier *notify.EventWriter, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Failed to read snapshot: %v", err)
	}
	if err := snapshotter.ImportJSON(data); err != nil {
		log.Fatalf("Import failed: %v", err)
	}
	if err := notifier.Notify(notify.EventImported, "snapshot"); err != nil {
		log.Printf("Warning: failed to emit change event: %v", err)
	}
	log.Printf("Snapshot imported from %s", path)
}

func handleImportDir(memories *store.MemoryStore, notifier *notify.EventWriter, dir string) {
	imp := importer.NewDirImporter(memories)
	result, err := imp.ImportDir(dir)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	if result.FragmentsCreated > 0 {
		if err := notifier.Notify(notify.EventMemoryChanged, "bulk_import"); err != nil {
			log.Printf("Warning: failed to emit change event: %v", err)
		}
	}

	fmt.Printf("Files found:      %d\n", result.FilesFound)
	fmt.Printf("Fragments created: %d\n", result.FragmentsCreated)
	fmt.Printf("Skipped:          %d\n", result.FilesSkipped)
	fmt.Printf("Failed:           %d\n", result.FilesFailed)
	for _, msg := range result.Errors {
		fmt.Printf("  - %s\n", msg)
	}
	if result.FilesFailed > 0 {
		os.Exit(1)
	}
}

// openBackend selects the record store backend from configuration. The
// memory engine is rejected here: a process-local store cannot be shared
// with the server.
func openBackend(cfg *config.Config) (kv.Store, error) {
	switch cfg.Storage.Engine {
	case "sqlite", "":
		if err := os.MkdirAll(cfg.Storage.DataPath, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		return kv.NewSQLiteStore(filepath.Join(cfg.Storage.DataPath, "persona.db"))
	case "postgres":
		return kv.NewPostgresStore(cfg.Storage.PostgresDSN)
	default:
		return nil, fmt.Errorf("storage engine %q not usable from the CLI", cfg.Storage.Engine)
	}
}
