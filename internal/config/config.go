// Package config loads the settings shared by the studio and MCP commands
// and wires them into clients, key strategies and history repositories.
package config

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/spetersoncode/promptcraft"
	"github.com/spetersoncode/promptcraft/apikey"
	"github.com/spetersoncode/promptcraft/client"
	"github.com/spetersoncode/promptcraft/history"
	"github.com/spetersoncode/promptcraft/internal/retry"
	"github.com/spetersoncode/promptcraft/store"
)

// Key modes.
const (
	KeyModeEnv        = "env"
	KeyModeSession    = "session"
	KeyModePersistent = "persistent"
)

// StorageFile is the name of the JSON file inside DataDir.
const StorageFile = "promptcraft.json"

// Config holds the settings read from the environment.
type Config struct {
	Provider       promptcraft.Provider
	PromptProvider promptcraft.Provider

	GoogleKey    string
	OpenAIKey    string
	AnthropicKey string

	VertexProject  string
	VertexLocation string
	ServiceAccount []byte

	ProxyURL  string
	ClientKey string

	KeyMode       string
	DataDir       string
	DatabaseURL   string
	HistoryCap    int
	RetryAttempts int
	PresetPath    string
	LogLevel      string
}

// Load reads the configuration from environment variables.
// It loads a .env file if present (silent fail if not found).
func Load() (*Config, error) {
	godotenv.Load() // Load .env file if present

	cfg := &Config{
		Provider:       promptcraft.Provider(getEnvOrDefault("PROMPTCRAFT_PROVIDER", string(promptcraft.ProviderGoogle))),
		PromptProvider: promptcraft.Provider(os.Getenv("PROMPTCRAFT_PROMPT_PROVIDER")),
		GoogleKey:      os.Getenv("GEMINI_API_KEY"),
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		AnthropicKey:   os.Getenv("ANTHROPIC_API_KEY"),
		VertexProject:  os.Getenv("VERTEX_PROJECT_ID"),
		VertexLocation: getEnvOrDefault("VERTEX_LOCATION", "us-central1"),
		ProxyURL:       os.Getenv("PROMPTCRAFT_PROXY_URL"),
		ClientKey:      os.Getenv("PROMPTCRAFT_CLIENT_KEY"),
		KeyMode:        os.Getenv("PROMPTCRAFT_KEY_MODE"),
		DataDir:        getEnvOrDefault("PROMPTCRAFT_DATA_DIR", defaultDataDir()),
		DatabaseURL:    os.Getenv("PROMPTCRAFT_DATABASE_URL"),
		HistoryCap:     getEnvIntOrDefault("PROMPTCRAFT_HISTORY_CAP", history.DefaultCap),
		RetryAttempts:  getEnvIntOrDefault("PROMPTCRAFT_RETRY_ATTEMPTS", 1),
		PresetPath:     os.Getenv("PROMPTCRAFT_CONFIG"),
		LogLevel:       getEnvOrDefault("PROMPTCRAFT_LOG_LEVEL", "info"),
	}
	if sa := os.Getenv("GOOGLE_SERVICE_ACCOUNT"); sa != "" {
		cfg.ServiceAccount = []byte(sa)
	}
	if cfg.KeyMode == "" {
		cfg.KeyMode = KeyModePersistent
		if cfg.KeyEnv() != "" && os.Getenv(cfg.KeyEnv()) != "" {
			cfg.KeyMode = KeyModeEnv
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Provider {
	case promptcraft.ProviderGoogle, promptcraft.ProviderOpenAI:
	case promptcraft.ProviderVertex:
		if c.VertexProject == "" {
			return fmt.Errorf("VERTEX_PROJECT_ID is required for the vertex provider")
		}
	case promptcraft.ProviderProxy:
		if c.ProxyURL == "" {
			return fmt.Errorf("PROMPTCRAFT_PROXY_URL is required for the proxy provider")
		}
	default:
		return fmt.Errorf("unknown provider: %s (must be google, vertex, openai, or proxy)", c.Provider)
	}

	switch c.PromptProvider {
	case "", c.Provider:
	case promptcraft.ProviderGoogle, promptcraft.ProviderOpenAI, promptcraft.ProviderAnthropic:
		if c.secondaryKey() == "" {
			return fmt.Errorf("an API key for prompt provider %s is required", c.PromptProvider)
		}
	default:
		return fmt.Errorf("unknown prompt provider: %s", c.PromptProvider)
	}

	switch c.KeyMode {
	case KeyModeEnv, KeyModeSession, KeyModePersistent:
	default:
		return fmt.Errorf("unknown PROMPTCRAFT_KEY_MODE %q (must be env, session, or persistent)", c.KeyMode)
	}

	if c.HistoryCap < 0 {
		return fmt.Errorf("PROMPTCRAFT_HISTORY_CAP must not be negative")
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid PROMPTCRAFT_LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return nil
}

// Level returns the configured log level.
func (c *Config) Level() slog.Level {
	var level slog.Level
	level.UnmarshalText([]byte(c.LogLevel))
	return level
}

// KeyEnv returns the environment variable holding the key of the primary
// provider, or "" when the provider does not use one.
func (c *Config) KeyEnv() string {
	switch c.Provider {
	case promptcraft.ProviderGoogle:
		return "GEMINI_API_KEY"
	case promptcraft.ProviderOpenAI:
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}

// secondaryKey returns the key configured for a separate prompt provider.
func (c *Config) secondaryKey() string {
	switch c.PromptProvider {
	case promptcraft.ProviderGoogle:
		return c.GoogleKey
	case promptcraft.ProviderOpenAI:
		return c.OpenAIKey
	case promptcraft.ProviderAnthropic:
		return c.AnthropicKey
	default:
		return ""
	}
}

// KeyStrategy returns the key strategy for the configured provider and
// mode. Vertex and proxy credentials are held elsewhere, so the manager is
// always Ready for them.
func (c *Config) KeyStrategy(storage store.Storage) apikey.Strategy {
	switch c.Provider {
	case promptcraft.ProviderProxy:
		return &apikey.ProxyStrategy{ClientKey: c.ClientKey}
	case promptcraft.ProviderVertex:
		return &apikey.ProxyStrategy{}
	}
	switch c.KeyMode {
	case KeyModeEnv:
		return apikey.NewEnvStrategy(c.KeyEnv())
	case KeyModeSession:
		return apikey.NewSessionStrategy()
	default:
		return apikey.NewPersistentStrategy(storage)
	}
}

// ClientConfig builds the client configuration with key assigned to the
// primary provider.
func (c *Config) ClientConfig(key string, logger *slog.Logger) client.Config {
	cfg := client.Config{
		Provider:       c.Provider,
		PromptProvider: c.PromptProvider,
		APIKeys: client.APIKeys{
			Google:    c.GoogleKey,
			OpenAI:    c.OpenAIKey,
			Anthropic: c.AnthropicKey,
		},
		Vertex: client.VertexConfig{
			Project:         c.VertexProject,
			Location:        c.VertexLocation,
			CredentialsJSON: c.ServiceAccount,
		},
		Proxy: client.ProxyConfig{
			URL:       c.ProxyURL,
			ClientKey: c.ClientKey,
		},
		Logger: logger,
	}
	if c.RetryAttempts > 1 {
		rc := retry.WithAttempts(c.RetryAttempts)
		cfg.RetryConfig = &rc
	}
	return cfg.WithKey(key)
}

// OpenStorage opens the JSON file storage inside DataDir.
func (c *Config) OpenStorage() (*store.FileStorage, error) {
	if err := os.MkdirAll(c.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return store.NewFileStorage(filepath.Join(c.DataDir, StorageFile))
}

// OpenHistory returns the Postgres repository when PROMPTCRAFT_DATABASE_URL
// is set and the storage-backed repository otherwise. The returned close
// function releases the database handle.
func (c *Config) OpenHistory(ctx context.Context, storage store.Storage, logger *slog.Logger) (history.Repository, func() error, error) {
	opts := []history.Option{history.WithCap(c.HistoryCap)}
	if c.DatabaseURL == "" {
		return history.NewStorageRepository(storage, logger, opts...), func() error { return nil }, nil
	}

	db, err := sql.Open("postgres", c.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	repo := history.NewPostgresRepository(db, opts...)
	if err := repo.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return repo, db.Close, nil
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "promptcraft")
	}
	return ".promptcraft"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
