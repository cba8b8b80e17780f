// Package main provides the PromptCraft proxy: an HTTP server that holds
// the Google credentials server-side and serves the prompt and image
// actions to clients that have no key of their own.
//
// Configuration is via environment variables (a .env file is loaded if present):
//
//	PROMPTCRAFT_PORT          - Server port (default: 8000)
//	PROMPTCRAFT_LOG_LEVEL     - debug, info, warn or error (default: info)
//	MASTER_API_KEY            - Client key required on every request (optional)
//	PROMPTCRAFT_BACKEND       - google or vertex (default: vertex when Vertex settings are present)
//	API_KEY / GEMINI_API_KEY  - Google AI key for the google backend
//	GOOGLE_SERVICE_ACCOUNT    - Service account JSON for the vertex backend
//	VERTEX_PROJECT_ID         - Vertex project (default: project_id of the service account)
//	VERTEX_LOCATION           - Vertex location (default: us-central1)
//	VERTEX_MODEL              - Prompt model override
//	PROMPTCRAFT_IMAGE_MODEL   - Image model override
//	PROMPTCRAFT_MAX_IMAGE_MB  - Largest accepted image (default: 10)
//	PROMPTCRAFT_TIMEOUT       - Upstream timeout per request (default: 2m)
//
// Usage:
//
//	GEMINI_API_KEY=... go run ./cmd/serve
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spetersoncode/promptcraft"
	"github.com/spetersoncode/promptcraft/client"
	"github.com/spetersoncode/promptcraft/internal/provider/proxy"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	level, _ := parseLevel(cfg.LogLevel)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	handler := NewGenerateHandler(createClient(cfg), cfg)

	mux := http.NewServeMux()
	mux.Handle(proxy.Path, corsMiddleware(handler))
	mux.HandleFunc("/healthz", healthHandler)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.Timeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("proxy starting",
		"port", cfg.Port,
		"backend", cfg.Backend,
		"client_key_required", cfg.MasterKey != "",
		"endpoint", "POST http://localhost:"+cfg.Port+proxy.Path,
	)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	slog.Info("server stopped")
}

func createClient(cfg *Config) *client.Client {
	provider := promptcraft.ProviderGoogle
	if cfg.Backend == "vertex" {
		provider = promptcraft.ProviderVertex
	}
	return client.New(client.Config{
		Provider: provider,
		APIKeys: client.APIKeys{
			Google: cfg.GoogleKey,
		},
		Vertex: client.VertexConfig{
			Project:         cfg.VertexProject,
			Location:        cfg.VertexLocation,
			CredentialsJSON: cfg.ServiceAccount,
		},
		Models: client.Models{
			Prompt: cfg.PromptModel,
			Image:  cfg.ImageModel,
		},
		Logger: slog.Default(),
	})
}
