package client

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/spetersoncode/promptcraft"
	"github.com/spetersoncode/promptcraft/internal/provider/anthropic"
	"github.com/spetersoncode/promptcraft/internal/provider/google"
	"github.com/spetersoncode/promptcraft/internal/provider/openai"
	"github.com/spetersoncode/promptcraft/internal/provider/proxy"
	"github.com/spetersoncode/promptcraft/internal/provider/vertex"
	"github.com/spetersoncode/promptcraft/internal/retry"
)

// Feature represents a capability that a provider may support.
type Feature string

const (
	FeaturePrompt Feature = "prompt"
	FeatureImage  Feature = "image"
)

// providerCapabilities defines which features each provider supports.
var providerCapabilities = map[promptcraft.Provider]map[Feature]bool{
	promptcraft.ProviderGoogle:    {FeaturePrompt: true, FeatureImage: true},
	promptcraft.ProviderVertex:    {FeaturePrompt: true, FeatureImage: true},
	promptcraft.ProviderOpenAI:    {FeaturePrompt: true, FeatureImage: true},
	promptcraft.ProviderAnthropic: {FeaturePrompt: true, FeatureImage: false},
	promptcraft.ProviderProxy:     {FeaturePrompt: true, FeatureImage: true},
}

// Supports reports whether provider offers feature.
func Supports(provider promptcraft.Provider, feature Feature) bool {
	return providerCapabilities[provider][feature]
}

// APIKeys holds API keys for different providers.
// Only configure keys for providers you intend to use.
type APIKeys struct {
	Google    string
	OpenAI    string
	Anthropic string
}

// VertexConfig configures the Vertex AI backend.
type VertexConfig struct {
	Project         string
	Location        string
	CredentialsJSON []byte
}

// ProxyConfig configures the proxy backend.
type ProxyConfig struct {
	URL       string
	ClientKey string
}

// Models overrides the default model of the selected providers.
type Models struct {
	Prompt string
	Image  string
}

// Config holds configuration for creating a client.
type Config struct {
	// Provider serves image generation and, unless PromptProvider is set,
	// prompt generation.
	Provider promptcraft.Provider

	// PromptProvider optionally routes prompt generation elsewhere.
	PromptProvider promptcraft.Provider

	APIKeys APIKeys
	Vertex  VertexConfig
	Proxy   ProxyConfig
	Models  Models

	// RetryConfig configures retry behavior for transient errors.
	// If nil, retries are disabled so that rate limits reach the user.
	RetryConfig *retry.Config

	// Events is an optional channel for receiving client operation events.
	// Events are sent non-blocking; if the channel is full, events are dropped.
	Events chan<- Event

	Logger *slog.Logger
}

// WithKey returns a copy of the configuration with key assigned to the
// primary provider. Vertex authenticates with credentials and ignores it.
func (cfg Config) WithKey(key string) Config {
	switch cfg.Provider {
	case promptcraft.ProviderGoogle, "":
		cfg.APIKeys.Google = key
	case promptcraft.ProviderOpenAI:
		cfg.APIKeys.OpenAI = key
	case promptcraft.ProviderAnthropic:
		cfg.APIKeys.Anthropic = key
	case promptcraft.ProviderProxy:
		cfg.Proxy.ClientKey = key
	}
	return cfg
}

// ErrFeatureNotSupported is returned when a feature is unavailable for the provider.
type ErrFeatureNotSupported struct {
	Provider string
	Feature  string
}

func (e *ErrFeatureNotSupported) Error() string {
	return fmt.Sprintf("%s provider does not support %s", e.Provider, e.Feature)
}

// ErrMissingAPIKey is returned when a provider is used but no key is configured.
type ErrMissingAPIKey struct {
	Provider string
}

func (e *ErrMissingAPIKey) Error() string {
	return fmt.Sprintf("no API key configured for %s", e.Provider)
}

// missingKey wraps ErrMissingAPIKey as an invalid-key error so the key
// manager treats it like a rejected key.
func missingKey(provider promptcraft.Provider) error {
	cause := &ErrMissingAPIKey{Provider: provider.String()}
	return promptcraft.NewError(promptcraft.KindInvalidKey, cause.Error(), 0, cause)
}

// Client routes prompt and image requests to the configured providers.
// Provider clients are lazily initialized when first needed.
type Client struct {
	cfg         Config
	retryConfig retry.Config
	logger      *slog.Logger

	mu        sync.Mutex
	providers map[promptcraft.Provider]promptcraft.PromptProvider
}

// New creates a client with the given configuration.
func New(cfg Config) *Client {
	if cfg.Provider == "" {
		cfg.Provider = promptcraft.ProviderGoogle
	}
	retryConfig := retry.Disabled()
	if cfg.RetryConfig != nil {
		retryConfig = *cfg.RetryConfig
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:         cfg,
		retryConfig: retryConfig,
		logger:      logger,
		providers:   make(map[promptcraft.Provider]promptcraft.PromptProvider),
	}
}

// Provider returns the primary provider.
func (c *Client) Provider() promptcraft.Provider {
	return c.cfg.Provider
}

// promptProviderName returns the provider serving prompt requests.
func (c *Client) promptProviderName() promptcraft.Provider {
	if c.cfg.PromptProvider != "" {
		return c.cfg.PromptProvider
	}
	return c.cfg.Provider
}

// get returns the provider client, initializing it if needed.
func (c *Client) get(ctx context.Context, name promptcraft.Provider) (promptcraft.PromptProvider, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.providers[name]; ok {
		return p, nil
	}
	p, err := c.build(ctx, name)
	if err != nil {
		return nil, err
	}
	c.providers[name] = p
	return p, nil
}

func (c *Client) build(ctx context.Context, name promptcraft.Provider) (promptcraft.PromptProvider, error) {
	cfg := c.cfg
	switch name {
	case promptcraft.ProviderGoogle:
		if cfg.APIKeys.Google == "" {
			return nil, missingKey(name)
		}
		return google.New(ctx, cfg.APIKeys.Google, c.googleOptions()...)
	case promptcraft.ProviderVertex:
		opts := []vertex.ClientOption{vertex.WithGoogleOptions(c.googleOptions()...)}
		if len(cfg.Vertex.CredentialsJSON) > 0 {
			opts = append(opts, vertex.WithCredentialsJSON(cfg.Vertex.CredentialsJSON))
		}
		return vertex.New(ctx, cfg.Vertex.Project, cfg.Vertex.Location, opts...)
	case promptcraft.ProviderOpenAI:
		if cfg.APIKeys.OpenAI == "" {
			return nil, missingKey(name)
		}
		opts := []openai.ClientOption{openai.WithLogger(c.logger)}
		if cfg.Models.Prompt != "" && c.promptProviderName() == name {
			opts = append(opts, openai.WithModel(openai.ChatModel(cfg.Models.Prompt)))
		}
		if cfg.Models.Image != "" {
			opts = append(opts, openai.WithImageModel(openai.ImageModel(cfg.Models.Image)))
		}
		return openai.New(cfg.APIKeys.OpenAI, opts...), nil
	case promptcraft.ProviderAnthropic:
		if cfg.APIKeys.Anthropic == "" {
			return nil, missingKey(name)
		}
		opts := []anthropic.ClientOption{anthropic.WithLogger(c.logger)}
		if cfg.Models.Prompt != "" {
			opts = append(opts, anthropic.WithModel(anthropic.ChatModel(cfg.Models.Prompt)))
		}
		return anthropic.New(cfg.APIKeys.Anthropic, opts...), nil
	case promptcraft.ProviderProxy:
		if cfg.Proxy.URL == "" {
			return nil, promptcraft.NewError(promptcraft.KindInvalidInput, "no proxy URL configured", 0, nil)
		}
		return proxy.New(cfg.Proxy.URL, proxy.WithClientKey(cfg.Proxy.ClientKey), proxy.WithLogger(c.logger)), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", name)
	}
}

func (c *Client) googleOptions() []google.ClientOption {
	opts := []google.ClientOption{google.WithLogger(c.logger)}
	if m := c.cfg.Models.Prompt; m != "" {
		opts = append(opts, google.WithPromptModel(google.ChatModel(m)))
	}
	if m := c.cfg.Models.Image; m != "" {
		opts = append(opts, google.WithImageModel(google.ImageModel(m)))
	}
	return opts
}

// promptProvider returns the provider for prompt requests.
func (c *Client) promptProvider(ctx context.Context) (promptcraft.PromptProvider, promptcraft.Provider, error) {
	name := c.promptProviderName()
	p, err := c.get(ctx, name)
	return p, name, err
}

// imageProvider returns the provider for image requests.
func (c *Client) imageProvider(ctx context.Context) (promptcraft.ImageProvider, promptcraft.Provider, error) {
	name := c.cfg.Provider
	if !Supports(name, FeatureImage) {
		return nil, name, &ErrFeatureNotSupported{Provider: name.String(), Feature: string(FeatureImage)}
	}
	p, err := c.get(ctx, name)
	if err != nil {
		return nil, name, err
	}
	ip, ok := p.(promptcraft.ImageProvider)
	if !ok {
		return nil, name, &ErrFeatureNotSupported{Provider: name.String(), Feature: string(FeatureImage)}
	}
	return ip, name, nil
}

// GeneratePrompt describes an image as a structured prompt.
func (c *Client) GeneratePrompt(ctx context.Context, img promptcraft.Image) (*promptcraft.StructuredPrompt, error) {
	p, name, err := c.promptProvider(ctx)
	if err != nil {
		return nil, err
	}
	return run(ctx, c, OpPrompt, name, func() (*promptcraft.StructuredPrompt, error) {
		return p.GeneratePrompt(ctx, img)
	})
}

// GeneratePromptText describes an image as a single plain-text prompt.
func (c *Client) GeneratePromptText(ctx context.Context, img promptcraft.Image) (string, error) {
	p, name, err := c.promptProvider(ctx)
	if err != nil {
		return "", err
	}
	return run(ctx, c, OpPromptText, name, func() (string, error) {
		return p.GeneratePromptText(ctx, img)
	})
}

// GenerateInspiration returns three alternative prompts for an image.
func (c *Client) GenerateInspiration(ctx context.Context, img promptcraft.Image) ([]string, error) {
	p, name, err := c.promptProvider(ctx)
	if err != nil {
		return nil, err
	}
	return run(ctx, c, OpInspiration, name, func() ([]string, error) {
		return p.GenerateInspiration(ctx, img)
	})
}

// GenerateImage produces one image.
func (c *Client) GenerateImage(ctx context.Context, prompt string, ref *promptcraft.Image, opts ...promptcraft.ImageOption) (*promptcraft.Image, error) {
	p, name, err := c.imageProvider(ctx)
	if err != nil {
		return nil, err
	}
	return run(ctx, c, OpImage, name, func() (*promptcraft.Image, error) {
		return p.GenerateImage(ctx, prompt, ref, opts...)
	})
}

// run executes fn with the client's retry policy and emits events around it.
func run[T any](ctx context.Context, c *Client, operation Operation, provider promptcraft.Provider, fn func() (T, error)) (T, error) {
	start := time.Now()
	emit(c.cfg.Events, Event{Type: EventRequestStart, Operation: operation, Provider: provider})

	notify := func(e retry.Event) {
		ev := e
		emit(c.cfg.Events, Event{Type: EventRetry, Operation: operation, Provider: provider, RetryEvent: &ev})
		if e.Type == retry.EventRetrying {
			c.logger.Warn("retrying request", "operation", operation, "provider", provider,
				"attempt", e.Attempt, "max_attempts", e.MaxAttempts, "delay", e.Delay)
		}
	}

	result, err := retry.DoNotify(ctx, c.retryConfig, notify, fn)
	if err != nil {
		emit(c.cfg.Events, Event{
			Type:      EventRequestError,
			Operation: operation,
			Provider:  provider,
			Duration:  time.Since(start),
			Error:     err,
		})
		return result, err
	}

	emit(c.cfg.Events, Event{
		Type:      EventRequestComplete,
		Operation: operation,
		Provider:  provider,
		Duration:  time.Since(start),
	})
	return result, nil
}

var _ promptcraft.FullProvider = (*Client)(nil)
