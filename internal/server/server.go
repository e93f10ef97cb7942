// Package server provides HTTP server initialization and lifecycle
// management for the persona REST API.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/scrypster/persona/internal/config"
	"github.com/scrypster/persona/web/handlers"
)

// securityHeadersMiddleware adds security headers to all HTTP responses.
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// Start initializes and starts the HTTP server. It returns the actual
// address being listened on (useful for testing with port 0) and the
// WebSocketHub so callers can wire additional broadcasts.
//
// chatHandler may be nil when no LLM client is configured; the chat
// endpoint is then not registered.
func Start(ctx context.Context, cfg *config.Config, api *handlers.APIHandlers, chatHandler *handlers.ChatHandler) (string, *handlers.WebSocketHub) {
	mux := http.NewServeMux()

	hostPort := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	wsHub := handlers.NewWebSocketHub([]string{
		hostPort,
		fmt.Sprintf("localhost:%d", cfg.Server.Port),
	})
	go wsHub.Run()
	api.SetHub(wsHub)

	// 10 req/sec sustained, burst of 20.
	rateLimiter := handlers.NewRateLimiter(10.0, 20)

	// API routes (require auth in production mode).
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("GET /api/profile", api.GetProfile)
	apiMux.HandleFunc("PUT /api/profile", api.UpdateProfile)
	apiMux.HandleFunc("POST /api/profile/reset", api.ResetProfile)

	apiMux.HandleFunc("GET /api/memories", api.ListMemories)
	apiMux.HandleFunc("POST /api/memories", api.CreateMemory)
	apiMux.HandleFunc("GET /api/memories/stats", api.GetMemoryStats)
	apiMux.HandleFunc("GET /api/memories/{id}", api.GetMemory)
	apiMux.HandleFunc("PUT /api/memories/{id}", api.UpdateMemory)
	apiMux.HandleFunc("DELETE /api/memories/{id}", api.DeleteMemory)
	apiMux.HandleFunc("POST /api/memories/{id}/toggle", api.ToggleMemory)

	apiMux.HandleFunc("GET /api/config", api.GetMemoryConfig)
	apiMux.HandleFunc("PUT /api/config", api.UpdateMemoryConfig)

	apiMux.HandleFunc("GET /api/context/preview", api.PreviewSelection)
	apiMux.HandleFunc("POST /api/context", api.BuildContext)

	apiMux.HandleFunc("GET /api/snapshot/export", api.ExportSnapshot)
	apiMux.HandleFunc("POST /api/snapshot/import", api.ImportSnapshot)

	if chatHandler != nil {
		apiMux.HandleFunc("POST /api/chat", chatHandler.Chat)
	}

	// Health endpoint - no auth required, used by monitoring.
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","version":"1.0.0"}`))
	})

	mux.Handle("/api/", handlers.RequireAuth(apiMux, cfg))

	// WebSocket endpoint (no auth required - origin validation handles security).
	mux.Handle("/ws", wsHub)

	// Wrap entire server with rate limiting, then security headers.
	handler := handlers.RateLimitMiddleware(mux, rateLimiter)
	handler = securityHeadersMiddleware(handler)

	server := &http.Server{
		Addr:         hostPort,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	listener, err := net.Listen("tcp", hostPort)
	if err != nil {
		log.Fatalf("Failed to listen on %s: %v", hostPort, err)
	}

	actualAddr := listener.Addr().String()

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
		wsHub.Stop()
	}()

	return actualAddr, wsHub
}
