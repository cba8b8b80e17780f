package anthropic

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/spetersoncode/promptcraft"
)

const (
	jsonResponseToolName = "json_response"
	defaultMaxTokens     = 2048
)

// Client wraps the Anthropic SDK to implement promptcraft.PromptProvider.
// Claude does not generate images, so it only covers the describe half.
type Client struct {
	client *anthropic.Client
	model  ChatModel
	logger *slog.Logger
}

// ClientOption configures the Anthropic client.
type ClientOption func(*clientConfig)

type clientConfig struct {
	model   ChatModel
	reqOpts []option.RequestOption
	logger  *slog.Logger
}

// WithModel sets the model for requests.
func WithModel(model ChatModel) ClientOption {
	return func(c *clientConfig) {
		c.model = model
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

// New creates a new Anthropic client with the given API key.
func New(apiKey string, opts ...ClientOption) *Client {
	cfg := &clientConfig{model: DefaultChatModel, logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}
	reqOpts := append([]option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}, cfg.reqOpts...)
	client := anthropic.NewClient(reqOpts...)
	return &Client{
		client: &client,
		model:  cfg.model,
		logger: cfg.logger,
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

func (c *Client) describe(ctx context.Context, img promptcraft.Image, instruction, request string, temperature float64, schema *promptcraft.ResponseSchema) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model.String()),
		MaxTokens: defaultMaxTokens,
		System:    []anthropic.TextBlockParam{{Text: instruction}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewImageBlockBase64(img.MimeType, img.Data),
				anthropic.NewTextBlock(request),
			),
		},
		Temperature: anthropic.Float(temperature),
	}
	if schema != nil {
		tool, choice := buildJSONTool(schema)
		params.Tools = []anthropic.ToolUnionParam{tool}
		params.ToolChoice = choice
	}

	c.logger.Debug("describing image", "model", c.model, "mime_type", img.MimeType, "structured", schema != nil)
	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", wrapError(err)
	}

	switch resp.StopReason {
	case "max_tokens":
		return "", promptcraft.NewError(promptcraft.KindTruncated, "the response reached the maximum length", 0, nil)
	case "refusal":
		return "", promptcraft.NewSafetyError(nil)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			if block.Name == jsonResponseToolName {
				return string(block.Input), nil
			}
		}
	}
	return strings.TrimSpace(text.String()), nil
}

// buildJSONTool forces the model to answer through a tool whose input
// schema is the requested response schema.
func buildJSONTool(schema *promptcraft.ResponseSchema) (anthropic.ToolUnionParam, anthropic.ToolChoiceUnionParam) {
	var schemaMap map[string]any
	json.Unmarshal(schema.Schema, &schemaMap)

	var required []string
	if reqVal, ok := schemaMap["required"].([]any); ok {
		for _, r := range reqVal {
			if s, ok := r.(string); ok {
				required = append(required, s)
			}
		}
	}

	tool := anthropic.ToolUnionParam{
		OfTool: &anthropic.ToolParam{
			Name:        jsonResponseToolName,
			Description: anthropic.String(schema.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: schemaMap["properties"],
				Required:   required,
			},
		},
	}
	choice := anthropic.ToolChoiceUnionParam{
		OfTool: &anthropic.ToolChoiceToolParam{Name: jsonResponseToolName},
	}
	return tool, choice
}

var _ promptcraft.PromptProvider = (*Client)(nil)
