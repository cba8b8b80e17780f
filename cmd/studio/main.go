// Command studio is an interactive terminal version of PromptCraft: upload
// an image, turn it into an editable prompt, pick an art style and
// generate new images from it.
//
// Configuration is via environment variables (a .env file is loaded if
// present) and an optional YAML preset file named by PROMPTCRAFT_CONFIG:
//
//	default_style: Photorealistic
//	image_count: 2
//	preserve_identity: false
//	history_cap: 50
//	output_dir: ./promptcraft_images
//	models:
//	  prompt: gemini-2.5-pro
//	  image: gemini-2.5-flash-image
//
// Usage:
//
//	go run ./cmd/studio
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spetersoncode/promptcraft"
	"github.com/spetersoncode/promptcraft/apikey"
	"github.com/spetersoncode/promptcraft/client"
	"github.com/spetersoncode/promptcraft/internal/config"
	"github.com/spetersoncode/promptcraft/studio"
)

var reader = bufio.NewReader(os.Stdin)

// app bundles what the menu actions need.
type app struct {
	cfg     *config.Config
	preset  studio.Preset
	keys    *apikey.Manager
	session *studio.Session
	output  *studio.Output
	logger  *slog.Logger
}

func main() {
	ctx := context.Background()

	fmt.Println("╔════════════════════════════════════════╗")
	fmt.Println("║          PromptCraft Studio            ║")
	fmt.Println("╚════════════════════════════════════════╝")
	fmt.Println()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	preset, err := studio.LoadPreset(cfg.PresetPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Preset error: %v\n", err)
		os.Exit(1)
	}
	if preset.HistoryCap > 0 && os.Getenv("PROMPTCRAFT_HISTORY_CAP") == "" {
		cfg.HistoryCap = preset.HistoryCap
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))

	storage, err := cfg.OpenStorage()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Storage error: %v\n", err)
		os.Exit(1)
	}
	repo, closeHistory, err := cfg.OpenHistory(ctx, storage, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "History error: %v\n", err)
		os.Exit(1)
	}
	defer closeHistory()

	keys := apikey.NewManager(cfg.KeyStrategy(storage), apikey.WithLogger(logger))
	if _, err := keys.Init(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load API key: %v\n", err)
		os.Exit(1)
	}

	events := make(chan client.Event, 32)
	go watchEvents(events, logger)

	newProvider := func(key string) (promptcraft.FullProvider, error) {
		cc := cfg.ClientConfig(key, logger)
		cc.Models = client.Models{Prompt: preset.Models.Prompt, Image: preset.Models.Image}
		cc.Events = events
		return client.New(cc), nil
	}

	a := &app{
		cfg:    cfg,
		preset: preset,
		keys:   keys,
		session: studio.NewSession(keys, newProvider, repo,
			studio.WithDefaultStyle(preset.DefaultStyle),
			studio.WithLogger(logger),
		),
		output: studio.NewOutput(preset.OutputDir),
		logger: logger,
	}

	fmt.Printf("Provider: %s", cfg.Provider)
	if cfg.PromptProvider != "" && cfg.PromptProvider != cfg.Provider {
		fmt.Printf(" (prompts: %s)", cfg.PromptProvider)
	}
	fmt.Printf("\nKey:      %s (%s)\n\n", keys.State(), keys.Strategy().Name())

	for {
		a.showStatus()
		action := showMenu()
		if action == nil {
			break
		}
		if action.NeedsKey && !a.ensureKey(ctx) {
			continue
		}
		action.Run(ctx, a)
		fmt.Println()
	}

	fmt.Println("\n✨ Goodbye!")
}

// watchEvents reports retries to the user and request timings to the log.
func watchEvents(events <-chan client.Event, logger *slog.Logger) {
	for e := range events {
		switch e.Type {
		case client.EventRetry:
			if d := e.RetryDelay(); d > 0 {
				fmt.Printf("  ... %s request failed, retrying in %s\n", e.Operation, d.Round(time.Second))
			}
		case client.EventRequestComplete:
			logger.Debug("request complete", "operation", e.Operation, "provider", e.Provider,
				"duration_ms", e.Duration.Milliseconds())
		case client.EventRequestError:
			logger.Debug("request failed", "operation", e.Operation, "provider", e.Provider,
				"duration_ms", e.Duration.Milliseconds(), "error", e.Error)
		}
	}
}

// ensureKey asks for an API key until the manager is Ready or the user
// gives up.
func (a *app) ensureKey(ctx context.Context) bool {
	for a.keys.State() != apikey.Ready {
		if _, ok := a.keys.Strategy().(*apikey.EnvStrategy); ok {
			fmt.Printf("✗ No API key found. Set %s and restart.\n", a.cfg.KeyEnv())
			return false
		}
		key := ask("Enter your API key (empty to cancel): ")
		if key == "" {
			return false
		}
		if err := a.keys.Submit(ctx, key); err != nil {
			fmt.Printf("✗ %s\n", promptcraft.UserMessage(err))
		}
	}
	return true
}
