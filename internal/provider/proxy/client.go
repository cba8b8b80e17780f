package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spetersoncode/promptcraft"
	"github.com/spetersoncode/promptcraft/internal/retry"
)

// Client calls a PromptCraft proxy, which holds the service key server-side.
type Client struct {
	endpoint   string
	clientKey  string
	httpClient *http.Client
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithClientKey sets the key sent as x-api-key when the proxy requires one.
func WithClientKey(key string) ClientOption {
	return func(client *Client) {
		client.clientKey = key
	}
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(client *Client) {
		client.logger = logger
	}
}

// New creates a proxy client for the given base URL.
func New(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:   strings.TrimSuffix(baseURL, "/") + Path,
		httpClient: http.DefaultClient,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GeneratePrompt describes an image as a structured prompt.
func (c *Client) GeneratePrompt(ctx context.Context, img promptcraft.Image) (*promptcraft.StructuredPrompt, error) {
	var p promptcraft.StructuredPrompt
	if err := c.call(ctx, Request{Action: ActionGeneratePrompt, Image: &img}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GeneratePromptText describes an image as a single plain-text prompt.
func (c *Client) GeneratePromptText(ctx context.Context, img promptcraft.Image) (string, error) {
	var text string
	if err := c.call(ctx, Request{Action: ActionGeneratePromptText, Image: &img}, &text); err != nil {
		return "", err
	}
	return text, nil
}

// GenerateInspiration returns three alternative prompts for an image.
func (c *Client) GenerateInspiration(ctx context.Context, img promptcraft.Image) ([]string, error) {
	var prompts []string
	if err := c.call(ctx, Request{Action: ActionGenerateInspiration, Image: &img}, &prompts); err != nil {
		return nil, err
	}
	if len(prompts) == 0 {
		return nil, promptcraft.NewError(promptcraft.KindMalformedResponse, "inspiration response contained no prompts", 0, nil)
	}
	return prompts, nil
}

// GenerateImage produces one image. The model is chosen by the proxy.
func (c *Client) GenerateImage(ctx context.Context, prompt string, ref *promptcraft.Image, opts ...promptcraft.ImageOption) (*promptcraft.Image, error) {
	options := promptcraft.ApplyImageOptions(opts...)
	req := Request{Action: ActionGenerateImage, Prompt: prompt, PreserveIdentity: options.PreserveIdentity}
	if ref != nil && !ref.IsZero() {
		req.Image = ref
	}
	var img promptcraft.Image
	if err := c.call(ctx, req, &img); err != nil {
		return nil, err
	}
	if img.IsZero() {
		return nil, promptcraft.NewNoImageError("")
	}
	return &img, nil
}

func (c *Client) call(ctx context.Context, req Request, result any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.clientKey != "" {
		httpReq.Header.Set("x-api-key", c.clientKey)
	}

	c.logger.Debug("proxy request", "action", req.Action, "endpoint", c.endpoint)
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return retry.ClassifyTransport(fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return retry.ClassifyTransport(fmt.Errorf("failed to read response: %w", err))
	}

	var out Response
	if err := json.Unmarshal(respBody, &out); err != nil {
		if resp.StatusCode >= 400 {
			return statusError(resp, Response{})
		}
		return promptcraft.NewError(promptcraft.KindMalformedResponse, "proxy response is not valid JSON", resp.StatusCode, err)
	}
	if resp.StatusCode >= 400 || out.Error != "" {
		return statusError(resp, out)
	}

	if err := json.Unmarshal(out.Result, result); err != nil {
		return promptcraft.NewError(promptcraft.KindMalformedResponse, "proxy result has an unexpected shape", resp.StatusCode, err)
	}
	return nil
}

// statusError rebuilds a classified error from a failed proxy reply.
// The kind reported by the proxy wins over the status code.
func statusError(resp *http.Response, out Response) error {
	k := promptcraft.ParseErrorKind(out.Kind)
	if k == promptcraft.KindUnknown {
		k = retry.ClassifyStatus(resp.StatusCode)
	}
	msg := out.Error
	if msg == "" {
		msg = fmt.Sprintf("proxy returned %s", resp.Status)
	}

	var e *promptcraft.Error
	switch k {
	case promptcraft.KindRateLimit:
		e = promptcraft.NewRateLimitError(msg, resp.StatusCode, parseRetryAfter(resp.Header.Get("Retry-After")), nil)
	case promptcraft.KindSafetyBlock:
		e = promptcraft.NewSafetyError(out.Categories)
	case promptcraft.KindNoImage:
		e = promptcraft.NewNoImageError(out.Explanation)
	default:
		e = promptcraft.NewError(k, msg, resp.StatusCode, nil)
	}
	e.Code = resp.StatusCode
	return e
}

func parseRetryAfter(header string) time.Duration {
	if seconds, err := strconv.Atoi(header); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return 0
}

var _ promptcraft.FullProvider = (*Client)(nil)
