package google

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"

	"github.com/spetersoncode/promptcraft"
	"google.golang.org/genai"
)

// Client wraps the Google GenAI SDK to implement promptcraft.FullProvider.
type Client struct {
	client      *genai.Client
	promptModel ChatModel
	imageModel  ImageModel
	logger      *slog.Logger
}

// ClientOption configures the Google client.
type ClientOption func(*clientConfig)

type clientConfig struct {
	promptModel ChatModel
	imageModel  ImageModel
	baseURL     string
	httpClient  *http.Client
	logger      *slog.Logger
}

// WithPromptModel sets the model used to describe images.
func WithPromptModel(model ChatModel) ClientOption {
	return func(c *clientConfig) {
		c.promptModel = model
	}
}

// WithImageModel sets the model used to generate images.
func WithImageModel(model ImageModel) ClientOption {
	return func(c *clientConfig) {
		c.imageModel = model
	}
}

// WithBaseURL overrides the API endpoint.
func WithBaseURL(url string) ClientOption {
	return func(c *clientConfig) {
		c.baseURL = url
	}
}

// WithHTTPClient sets the HTTP client used by the SDK.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *clientConfig) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

func applyOptions(opts []ClientOption) *clientConfig {
	cfg := &clientConfig{
		promptModel: DefaultChatModel,
		imageModel:  DefaultImageModel,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	return cfg
}

// New creates a new Gemini API client with the given API key.
// The key is passed explicitly; nothing is read from the environment.
func New(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, promptcraft.NewError(promptcraft.KindInvalidKey, "an API key is required", 0, promptcraft.ErrEmptyInput)
	}
	cfg := applyOptions(opts)
	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.httpClient,
	}
	if cfg.baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	return newClient(client, cfg), nil
}

// NewFromGenAI wraps an already configured genai client.
// The Vertex AI backend uses this to share the request logic.
func NewFromGenAI(client *genai.Client, opts ...ClientOption) *Client {
	return newClient(client, applyOptions(opts))
}

func newClient(client *genai.Client, cfg *clientConfig) *Client {
	return &Client{
		client:      client,
		promptModel: cfg.promptModel,
		imageModel:  cfg.imageModel,
		logger:      cfg.logger,
	}
}

// GeneratePrompt describes an image as a structured prompt.
func (c *Client) GeneratePrompt(ctx context.Context, img promptcraft.Image) (*promptcraft.StructuredPrompt, error) {
	text, err := c.describe(ctx, img, promptcraft.DescribeInstruction, promptcraft.DescribeRequest,
		promptcraft.DescribeTemperature, &promptcraft.PromptSchema)
	if err != nil {
		return nil, err
	}
	return promptcraft.DecodeStructuredPrompt(text)
}

// GeneratePromptText describes an image as a single plain-text prompt.
func (c *Client) GeneratePromptText(ctx context.Context, img promptcraft.Image) (string, error) {
	text, err := c.describe(ctx, img, promptcraft.DescribeTextInstruction, promptcraft.DescribeRequest,
		promptcraft.DescribeTemperature, nil)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", promptcraft.NewError(promptcraft.KindMalformedResponse, "the AI model returned an empty text response", 0, nil)
	}
	return text, nil
}

// GenerateInspiration returns three alternative prompts for an image.
func (c *Client) GenerateInspiration(ctx context.Context, img promptcraft.Image) ([]string, error) {
	text, err := c.describe(ctx, img, promptcraft.InspirationInstruction, promptcraft.InspirationRequest,
		promptcraft.InspirationTemperature, &promptcraft.InspirationSchema)
	if err != nil {
		return nil, err
	}
	return promptcraft.DecodeInspiration(text)
}

func (c *Client) describe(ctx context.Context, img promptcraft.Image, instruction, request string, temperature float32, schema *promptcraft.ResponseSchema) (string, error) {
	part, err := imagePart(img)
	if err != nil {
		return "", err
	}
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{part, genai.NewPartFromText(request)}, genai.RoleUser),
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(instruction, genai.RoleUser),
		Temperature:       &temperature,
	}
	if schema != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = responseSchema(schema)
	}

	c.logger.Debug("describing image", "model", c.promptModel, "mime_type", img.MimeType, "structured", schema != nil)
	resp, err := c.client.Models.GenerateContent(ctx, c.promptModel.String(), contents, config)
	if err != nil {
		return "", WrapError(err)
	}
	candidate, err := validateResponse(resp)
	if err != nil {
		return "", err
	}
	return candidateText(candidate), nil
}

// GenerateImage produces one image from a prompt and an optional reference image.
func (c *Client) GenerateImage(ctx context.Context, prompt string, ref *promptcraft.Image, opts ...promptcraft.ImageOption) (*promptcraft.Image, error) {
	options := promptcraft.ApplyImageOptions(opts...)
	model := c.imageModel
	if options.Model != "" {
		model = ImageModel(options.Model)
	}

	var parts []*genai.Part
	hasRef := ref != nil && !ref.IsZero()
	if hasRef {
		part, err := imagePart(*ref)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	parts = append(parts, genai.NewPartFromText(promptcraft.BuildImagePrompt(prompt, hasRef, options.PreserveIdentity)))

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}
	if options.AspectRatio != "" {
		config.ImageConfig = &genai.ImageConfig{AspectRatio: options.AspectRatio}
	}

	c.logger.Debug("generating image", "model", model, "reference", hasRef, "preserve_identity", options.PreserveIdentity)
	resp, err := c.client.Models.GenerateContent(ctx, model.String(),
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, config)
	if err != nil {
		return nil, WrapError(err)
	}
	candidate, err := validateResponse(resp)
	if err != nil {
		return nil, err
	}
	blob := candidateImage(candidate)
	if blob == nil {
		return nil, promptcraft.NewNoImageError(candidateText(candidate))
	}
	mimeType := blob.MIMEType
	if mimeType == "" {
		mimeType = "image/png"
	}
	return &promptcraft.Image{
		Data:     base64.StdEncoding.EncodeToString(blob.Data),
		MimeType: mimeType,
	}, nil
}

// imagePart converts an image into an inline data part.
func imagePart(img promptcraft.Image) (*genai.Part, error) {
	data, err := img.Bytes()
	if err != nil {
		return nil, err
	}
	return &genai.Part{InlineData: &genai.Blob{MIMEType: img.MimeType, Data: data}}, nil
}

var _ promptcraft.FullProvider = (*Client)(nil)
