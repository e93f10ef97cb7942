package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/scrypster/persona/internal/chat"
	"github.com/scrypster/persona/internal/config"
	"github.com/scrypster/persona/internal/engine"
	"github.com/scrypster/persona/internal/kv"
	"github.com/scrypster/persona/internal/llm"
	"github.com/scrypster/persona/internal/notify"
	"github.com/scrypster/persona/internal/server"
	"github.com/scrypster/persona/internal/store"
	"github.com/scrypster/persona/web/handlers"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (optional)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	backend, err := openBackend(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer backend.Close()

	profile := store.NewProfileStore(backend)
	memories := store.NewMemoryStore(backend)
	memCfg := store.NewConfigStore(backend)
	assembler := engine.NewAssembler(profile, memories, memCfg)

	api := handlers.NewAPIHandlers(profile, memories, memCfg, assembler)
	api.SetNotifier(notify.NewEventWriter(cfg.Storage.DataPath))

	// The chat endpoint only exists when an API key is configured.
	var chatHandler *handlers.ChatHandler
	if cfg.LLM.APIKey != "" {
		client := llm.NewOpenAIClient(llm.OpenAIConfig{
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.LLM.Model,
			BaseURL: cfg.LLM.BaseURL,
			Timeout: cfg.LLM.TimeoutDuration(),
		})
		service := chat.NewService(assembler, client, cfg.LLM.SystemPrompt)
		chatHandler = handlers.NewChatHandler(service, client)
	} else {
		log.Println("No LLM API key configured; /api/chat disabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Reload store state when another process announces a change.
	watcher := notify.NewEventWatcher(cfg.Storage.DataPath, func(eventType, key string) {
		log.Printf("external change: %s (%s)", eventType, key)
		if err := profile.Reload(); err != nil {
			log.Printf("reload profile: %v", err)
		}
		if err := memories.Reload(); err != nil {
			log.Printf("reload memories: %v", err)
		}
		if err := memCfg.Reload(); err != nil {
			log.Printf("reload config: %v", err)
		}
	})
	if err := watcher.Start(); err != nil {
		log.Printf("Warning: change watcher disabled: %v", err)
	} else {
		defer watcher.Stop()
	}

	addr, _ := server.Start(ctx, cfg, api, chatHandler)
	log.Printf("persona API running at http://%s", addr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")
	cancel()
	time.Sleep(1 * time.Second) // Give time for connections to close
}

// openBackend selects the record store backend from configuration.
func openBackend(cfg *config.Config) (kv.Store, error) {
	switch cfg.Storage.Engine {
	case "sqlite", "":
		if err := os.MkdirAll(cfg.Storage.DataPath, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		return kv.NewSQLiteStore(filepath.Join(cfg.Storage.DataPath, "persona.db"))
	case "postgres":
		return kv.NewPostgresStore(cfg.Storage.PostgresDSN)
	case "memory":
		return kv.NewMemStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage engine %q", cfg.Storage.Engine)
	}
}
