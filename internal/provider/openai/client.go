package openai

import (
	"context"
	"log/slog"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/spetersoncode/promptcraft"
)

// Client wraps the OpenAI SDK to implement promptcraft.FullProvider.
// Prompts come from a vision chat model; images from the Images API.
type Client struct {
	client     *openai.Client
	model      ChatModel
	imageModel ImageModel
	logger     *slog.Logger
}

// ClientOption configures the OpenAI client.
type ClientOption func(*clientConfig)

type clientConfig struct {
	model      ChatModel
	imageModel ImageModel
	reqOpts    []option.RequestOption
	logger     *slog.Logger
}

// WithModel sets the vision model used to describe images.
func WithModel(model ChatModel) ClientOption {
	return func(c *clientConfig) {
		c.model = model
	}
}

// WithImageModel sets the image generation model.
func WithImageModel(model ImageModel) ClientOption {
	return func(c *clientConfig) {
		c.imageModel = model
	}
}

// WithBaseURL overrides the API endpoint.
func WithBaseURL(url string) ClientOption {
	return func(c *clientConfig) {
		c.reqOpts = append(c.reqOpts, option.WithBaseURL(url))
	}
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// New creates a new OpenAI client with the given API key.
func New(apiKey string, opts ...ClientOption) *Client {
	cfg := &clientConfig{
		model:      DefaultChatModel,
		imageModel: DefaultImageModel,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	// Retries are owned by the caller's retry policy.
	reqOpts := append([]option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}, cfg.reqOpts...)
	client := openai.NewClient(reqOpts...)
	return &Client{
		client:     &client,
		model:      cfg.model,
		imageModel: cfg.imageModel,
		logger:     cfg.logger,
	}
}

// GeneratePrompt describes an image as a structured prompt.
func (c *Client) GeneratePrompt(ctx context.Context, img promptcraft.Image) (*promptcraft.StructuredPrompt, error) {
	text, err := c.describe(ctx, img, promptcraft.DescribeInstruction, promptcraft.DescribeRequest, promptcraft.DescribeTemperature, &promptcraft.PromptSchema)
	if err != nil {
		return nil, err
	}
	return promptcraft.DecodeStructuredPrompt(text)
}

// GeneratePromptText describes an image as a single plain-text prompt.
func (c *Client) GeneratePromptText(ctx context.Context, img promptcraft.Image) (string, error) {
	text, err := c.describe(ctx, img, promptcraft.DescribeTextInstruction, promptcraft.DescribeRequest, promptcraft.DescribeTemperature, nil)
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
	text, err := c.describe(ctx, img, promptcraft.InspirationInstruction, promptcraft.InspirationRequest, promptcraft.InspirationTemperature, &promptcraft.InspirationSchema)
	if err != nil {
		return nil, err
	}
	return promptcraft.DecodeInspiration(text)
}

func (c *Client) describe(ctx context.Context, img promptcraft.Image, instruction, request string, temperature float64, schema *promptcraft.ResponseSchema) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: c.model.String(),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(instruction),
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: img.DataURL()}),
				openai.TextContentPart(request),
			}),
		},
		Temperature: openai.Float(temperature),
	}
	if schema != nil {
		format, err := responseFormat(schema)
		if err != nil {
			return "", err
		}
		params.ResponseFormat = format
	}

	c.logger.Debug("describing image", "model", c.model, "mime_type", img.MimeType, "structured", schema != nil)
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return "", promptcraft.NewError(promptcraft.KindMalformedResponse, "the model did not provide a valid response", 0, nil)
	}

	choice := resp.Choices[0]
	switch choice.FinishReason {
	case "content_filter":
		return "", promptcraft.NewSafetyError(nil)
	case "length":
		return "", promptcraft.NewError(promptcraft.KindTruncated, "the response reached the maximum length", 0, nil)
	}
	if choice.Message.Refusal != "" {
		return "", promptcraft.NewSafetyError(nil)
	}
	return strings.TrimSpace(choice.Message.Content), nil
}

var _ promptcraft.FullProvider = (*Client)(nil)
