// Command mcp serves PromptCraft as an MCP server over stdio.
//
// Usage:
//
//	GEMINI_API_KEY=... go run ./cmd/mcp
//
// Configuration for Claude Desktop (~/Library/Application Support/Claude/claude_desktop_config.json):
//
//	{
//	    "mcpServers": {
//	        "promptcraft": {
//	            "command": "go",
//	            "args": ["run", "./cmd/mcp"],
//	            "cwd": "/path/to/promptcraft",
//	            "env": {"GEMINI_API_KEY": "..."}
//	        }
//	    }
//	}
//
// The server has no interactive key entry, so the key must come from the
// environment, from a key saved by the studio, or from a proxy.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/spetersoncode/promptcraft/apikey"
	"github.com/spetersoncode/promptcraft/client"
	"github.com/spetersoncode/promptcraft/internal/config"
	"github.com/spetersoncode/promptcraft/mcp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// stdout carries the protocol; logs go to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)

	ctx := context.Background()
	storage, err := cfg.OpenStorage()
	if err != nil {
		log.Fatalf("Storage error: %v", err)
	}

	keys := apikey.NewManager(cfg.KeyStrategy(storage), apikey.WithLogger(logger))
	if _, err := keys.Init(ctx); err != nil {
		log.Fatalf("Failed to load API key: %v", err)
	}
	key, err := keys.Key()
	if err != nil {
		log.Fatalf("No API key available: set %s or save a key with the studio", cfg.KeyEnv())
	}

	repo, closeHistory, err := cfg.OpenHistory(ctx, storage, logger)
	if err != nil {
		log.Fatalf("History error: %v", err)
	}
	defer closeHistory()

	c := client.New(cfg.ClientConfig(key, logger))
	if err := mcp.ServeStdio(c, repo,
		mcp.WithName("promptcraft"),
		mcp.WithVersion("1.0.0"),
		mcp.WithLogger(logger),
	); err != nil {
		log.Fatal(err)
	}
}
