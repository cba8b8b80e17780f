package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the proxy configuration loaded from environment variables.
type Config struct {
	// Server
	Port       string
	LogLevel   string // debug, info, warn, error
	MasterKey  string
	MaxImageMB int
	Timeout    time.Duration

	// Backend selection: google or vertex
	Backend string

	// Google AI key (API_KEY or GEMINI_API_KEY)
	GoogleKey string

	// Vertex AI
	ServiceAccount []byte
	VertexProject  string
	VertexLocation string

	// Model overrides
	PromptModel string
	ImageModel  string
}

// LoadConfig loads configuration from environment variables.
// It loads a .env file if present (silent fail if not found).
func LoadConfig() (*Config, error) {
	godotenv.Load() // Load .env file if present

	cfg := &Config{
		Port:           getEnvOrDefault("PROMPTCRAFT_PORT", "8000"),
		LogLevel:       getEnvOrDefault("PROMPTCRAFT_LOG_LEVEL", "info"),
		MasterKey:      os.Getenv("MASTER_API_KEY"),
		MaxImageMB:     getEnvIntOrDefault("PROMPTCRAFT_MAX_IMAGE_MB", 10),
		Timeout:        getEnvDurationOrDefault("PROMPTCRAFT_TIMEOUT", 2*time.Minute),
		Backend:        os.Getenv("PROMPTCRAFT_BACKEND"),
		GoogleKey:      getEnvOrDefault("API_KEY", os.Getenv("GEMINI_API_KEY")),
		VertexProject:  os.Getenv("VERTEX_PROJECT_ID"),
		VertexLocation: getEnvOrDefault("VERTEX_LOCATION", "us-central1"),
		PromptModel:    os.Getenv("VERTEX_MODEL"),
		ImageModel:     os.Getenv("PROMPTCRAFT_IMAGE_MODEL"),
	}
	if sa := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT")); sa != "" {
		cfg.ServiceAccount = []byte(sa)
	}

	if cfg.Backend == "" {
		cfg.Backend = "google"
		if cfg.ServiceAccount != nil || cfg.VertexProject != "" {
			cfg.Backend = "vertex"
		}
	}
	if cfg.Backend == "vertex" && cfg.VertexProject == "" && cfg.ServiceAccount != nil {
		cfg.VertexProject = projectFromServiceAccount(cfg.ServiceAccount)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	switch c.Backend {
	case "google":
		if c.GoogleKey == "" {
			return fmt.Errorf("API_KEY or GEMINI_API_KEY is required for the google backend")
		}
	case "vertex":
		if c.VertexProject == "" {
			return fmt.Errorf("VERTEX_PROJECT_ID is required for the vertex backend (or a GOOGLE_SERVICE_ACCOUNT with project_id)")
		}
		if c.ServiceAccount != nil && !json.Valid(c.ServiceAccount) {
			return fmt.Errorf("GOOGLE_SERVICE_ACCOUNT is not valid JSON")
		}
	default:
		return fmt.Errorf("unknown backend: %s (must be google or vertex)", c.Backend)
	}

	if c.MaxImageMB <= 0 {
		return fmt.Errorf("PROMPTCRAFT_MAX_IMAGE_MB must be positive")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// MaxBodyBytes bounds a request body: the base64 image plus some slack for
// the prompt and JSON framing.
func (c *Config) MaxBodyBytes() int64 {
	return int64(c.MaxImageMB)<<20*4/3 + 64<<10
}

func projectFromServiceAccount(data []byte) string {
	var sa struct {
		ProjectID string `json:"project_id"`
	}
	if err := json.Unmarshal(data, &sa); err != nil {
		return ""
	}
	return sa.ProjectID
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return level, fmt.Errorf("invalid PROMPTCRAFT_LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
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

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
