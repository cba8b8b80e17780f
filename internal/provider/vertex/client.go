package vertex

import (
	"context"
	"fmt"

	"cloud.google.com/go/auth/credentials"
	"github.com/spetersoncode/promptcraft"
	"github.com/spetersoncode/promptcraft/internal/provider/google"
	"google.golang.org/genai"
)

// DefaultLocation is used when no location is configured.
const DefaultLocation = "us-central1"

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// Client wraps the Google GenAI SDK configured for the Vertex AI backend.
// Request handling is shared with the Gemini API client.
type Client struct {
	*google.Client
	project  string
	location string
}

// ClientOption configures the Vertex AI client.
type ClientOption func(*clientConfig)

type clientConfig struct {
	credentialsJSON []byte
	googleOpts      []google.ClientOption
}

// WithCredentialsJSON authenticates with a service account key instead of
// Application Default Credentials.
func WithCredentialsJSON(b []byte) ClientOption {
	return func(c *clientConfig) {
		c.credentialsJSON = b
	}
}

// WithGoogleOptions passes model and logging options to the shared client.
func WithGoogleOptions(opts ...google.ClientOption) ClientOption {
	return func(c *clientConfig) {
		c.googleOpts = append(c.googleOpts, opts...)
	}
}

// New creates a new Vertex AI client with the given project and location.
func New(ctx context.Context, project, location string, opts ...ClientOption) (*Client, error) {
	if project == "" {
		return nil, promptcraft.NewError(promptcraft.KindInvalidKey, "a Vertex AI project ID is required", 0, promptcraft.ErrEmptyInput)
	}
	if location == "" {
		location = DefaultLocation
	}
	cfg := &clientConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	cc := &genai.ClientConfig{
		Backend:  genai.BackendVertexAI,
		Project:  project,
		Location: location,
	}
	if len(cfg.credentialsJSON) > 0 {
		creds, err := credentials.DetectDefault(&credentials.DetectOptions{
			CredentialsJSON: cfg.credentialsJSON,
			Scopes:          []string{cloudPlatformScope},
		})
		if err != nil {
			return nil, promptcraft.NewError(promptcraft.KindInvalidKey,
				fmt.Sprintf("invalid service account credentials for project %s", project), 0, err)
		}
		cc.Credentials = creds
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	return &Client{
		Client:   google.NewFromGenAI(client, cfg.googleOpts...),
		project:  project,
		location: location,
	}, nil
}

// Project returns the Google Cloud project the client bills against.
func (c *Client) Project() string { return c.project }

// Location returns the Vertex AI region.
func (c *Client) Location() string { return c.location }

var _ promptcraft.FullProvider = (*Client)(nil)
