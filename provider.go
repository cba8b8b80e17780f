package promptcraft

import "context"

// Provider identifies a generative-AI backend.
type Provider string

// String returns the provider identifier.
func (p Provider) String() string { return string(p) }

// Supported providers.
const (
	ProviderGoogle    Provider = "google"
	ProviderVertex    Provider = "vertex"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderProxy     Provider = "proxy"
)

// PromptProvider turns an image into prompt text.
type PromptProvider interface {
	// GeneratePrompt describes the image as a StructuredPrompt.
	GeneratePrompt(ctx context.Context, img Image) (*StructuredPrompt, error)

	// GeneratePromptText describes the image as a single free-text prompt.
	GeneratePromptText(ctx context.Context, img Image) (string, error)

	// GenerateInspiration returns creative prompt ideas based on the image.
	GenerateInspiration(ctx context.Context, img Image) ([]string, error)
}

// ImageProvider generates images from text.
type ImageProvider interface {
	// GenerateImage generates one image. ref, when non-nil, is sent along
	// with the prompt as the base image.
	GenerateImage(ctx context.Context, prompt string, ref *Image, opts ...ImageOption) (*Image, error)
}

// FullProvider implements both halves of the service contract.
type FullProvider interface {
	PromptProvider
	ImageProvider
}
