package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/spetersoncode/promptcraft"
	"github.com/spetersoncode/promptcraft/internal/provider/proxy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testImage = promptcraft.Image{Data: "aW1hZ2U=", MimeType: "image/png"}

type fakeProvider struct {
	err      error
	preserve bool
	ref      *promptcraft.Image
}

func (f *fakeProvider) GeneratePrompt(ctx context.Context, img promptcraft.Image) (*promptcraft.StructuredPrompt, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &promptcraft.StructuredPrompt{Subject: "a heron", Setting: "a marsh"}, nil
}

func (f *fakeProvider) GeneratePromptText(ctx context.Context, img promptcraft.Image) (string, error) {
	return "a heron in a marsh", f.err
}

func (f *fakeProvider) GenerateInspiration(ctx context.Context, img promptcraft.Image) ([]string, error) {
	return []string{"a", "b", "c"}, f.err
}

func (f *fakeProvider) GenerateImage(ctx context.Context, prompt string, ref *promptcraft.Image, opts ...promptcraft.ImageOption) (*promptcraft.Image, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.preserve = promptcraft.ApplyImageOptions(opts...).PreserveIdentity
	f.ref = ref
	return &promptcraft.Image{Data: "b3V0", MimeType: "image/png"}, nil
}

func testConfig() *Config {
	return &Config{MaxImageMB: 1, Timeout: 5 * time.Second, LogLevel: "info"}
}

func newTestServer(t *testing.T, p promptcraft.FullProvider, cfg *Config) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.Handle(proxy.Path, corsMiddleware(NewGenerateHandler(p, cfg)))
	mux.HandleFunc("/healthz", healthHandler)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHandler_Actions(t *testing.T) {
	fake := &fakeProvider{}
	srv := newTestServer(t, fake, testConfig())
	c := proxy.New(srv.URL)
	ctx := context.Background()

	sp, err := c.GeneratePrompt(ctx, testImage)
	require.NoError(t, err)
	assert.Equal(t, "a heron", sp.Subject)

	text, err := c.GeneratePromptText(ctx, testImage)
	require.NoError(t, err)
	assert.Equal(t, "a heron in a marsh", text)

	ideas, err := c.GenerateInspiration(ctx, testImage)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ideas)

	img, err := c.GenerateImage(ctx, "a heron", &testImage, promptcraft.WithPreserveIdentity(true))
	require.NoError(t, err)
	assert.Equal(t, "b3V0", img.Data)
	assert.True(t, fake.preserve)
	require.NotNil(t, fake.ref)
	assert.Equal(t, testImage, *fake.ref)
}

func TestHandler_ErrorStatus(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   promptcraft.ErrorKind
	}{
		{"invalid key", promptcraft.NewError(promptcraft.KindInvalidKey, "bad key", 400, nil), http.StatusUnauthorized, promptcraft.KindInvalidKey},
		{"permission", promptcraft.NewError(promptcraft.KindInvalidKey, "denied", 403, nil), http.StatusForbidden, promptcraft.KindInvalidKey},
		{"rate limit", promptcraft.NewRateLimitError("quota", 429, 20*time.Second, nil), http.StatusTooManyRequests, promptcraft.KindRateLimit},
		{"safety", promptcraft.NewSafetyError([]string{"HATE_SPEECH"}), http.StatusUnprocessableEntity, promptcraft.KindSafetyBlock},
		{"no image", promptcraft.NewNoImageError("sorry"), http.StatusBadGateway, promptcraft.KindNoImage},
		{"malformed", promptcraft.NewError(promptcraft.KindMalformedResponse, "bad json", 0, nil), http.StatusBadGateway, promptcraft.KindMalformedResponse},
		{"upstream", promptcraft.NewError(promptcraft.KindUpstream, "down", 503, nil), http.StatusBadGateway, promptcraft.KindUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &fakeProvider{err: tt.err}, testConfig())

			resp, err := http.Post(srv.URL+proxy.Path, "application/json",
				strings.NewReader(`{"action":"generateImage","prompt":"a heron"}`))
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantKind == promptcraft.KindRateLimit {
				assert.Equal(t, "20", resp.Header.Get("Retry-After"))
			}

			_, err = proxy.New(srv.URL).GenerateImage(context.Background(), "a heron", nil)
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, promptcraft.KindOf(err))
		})
	}
}

func TestHandler_ErrorDetailsSurviveProxy(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"safety block", promptcraft.NewSafetyError([]string{"HATE_SPEECH", "HARASSMENT"})},
		{"no image", promptcraft.NewNoImageError("I cannot draw that person.")},
		{"rate limit", promptcraft.NewRateLimitError("quota", 429, 7*time.Second, nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &fakeProvider{err: tt.err}, testConfig())

			_, err := proxy.New(srv.URL).GenerateImage(context.Background(), "a heron", nil)
			require.Error(t, err)
			assert.Equal(t, promptcraft.KindOf(tt.err), promptcraft.KindOf(err))
			assert.Equal(t, promptcraft.UserMessage(tt.err), promptcraft.UserMessage(err))
		})
	}
}

func TestHandler_ErrorDetailsInBody(t *testing.T) {
	srv := newTestServer(t, &fakeProvider{err: promptcraft.NewSafetyError([]string{"DANGEROUS_CONTENT"})}, testConfig())

	body := `{"action":"generateImage","prompt":"a heron"}`
	resp, err := http.Post(srv.URL+proxy.Path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out proxy.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "safety_block", out.Kind)
	assert.Equal(t, []string{"DANGEROUS_CONTENT"}, out.Categories)
	assert.Contains(t, out.Error, "DANGEROUS_CONTENT")
}

func TestHandler_ClientKey(t *testing.T) {
	cfg := testConfig()
	cfg.MasterKey = "s3cret"
	srv := newTestServer(t, &fakeProvider{}, cfg)
	ctx := context.Background()

	_, err := proxy.New(srv.URL).GeneratePromptText(ctx, testImage)
	assert.True(t, promptcraft.IsInvalidKey(err))

	_, err = proxy.New(srv.URL, proxy.WithClientKey("wrong")).GeneratePromptText(ctx, testImage)
	assert.True(t, promptcraft.IsInvalidKey(err))

	_, err = proxy.New(srv.URL, proxy.WithClientKey("s3cret")).GeneratePromptText(ctx, testImage)
	assert.NoError(t, err)

	for _, header := range []string{"Bearer s3cret", "s3cret"} {
		req, err := http.NewRequest(http.MethodPost, srv.URL+proxy.Path,
			strings.NewReader(`{"action":"generatePromptText","image":{"data":"aW1hZ2U=","mimeType":"image/png"}}`))
		require.NoError(t, err)
		req.Header.Set("Authorization", header)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, header)
	}
}

func TestHandler_RejectsBadRequests(t *testing.T) {
	srv := newTestServer(t, &fakeProvider{}, testConfig())

	tests := []struct {
		name string
		body string
	}{
		{"not json", `{`},
		{"no action", `{}`},
		{"unknown action", `{"action":"paint"}`},
		{"missing image", `{"action":"generatePrompt"}`},
		{"missing prompt", `{"action":"generateImage","prompt":"  "}`},
		{"prompt too long", `{"action":"generateImage","prompt":"` + strings.Repeat("x", MaxPromptLength+1) + `"}`},
		{"bad mime type", `{"action":"generatePrompt","image":{"data":"aW1hZ2U=","mimeType":"application/pdf"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+proxy.Path, "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestHandler_MethodsAndHealth(t *testing.T) {
	srv := newTestServer(t, &fakeProvider{}, testConfig())

	resp, err := http.Get(srv.URL + proxy.Path)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+proxy.Path, nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestConfig_Validate(t *testing.T) {
	t.Run("google needs a key", func(t *testing.T) {
		cfg := &Config{Backend: "google", MaxImageMB: 10, LogLevel: "info"}
		assert.Error(t, cfg.Validate())
		cfg.GoogleKey = "k"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("vertex needs a project", func(t *testing.T) {
		cfg := &Config{Backend: "vertex", MaxImageMB: 10, LogLevel: "info"}
		assert.Error(t, cfg.Validate())
		cfg.VertexProject = "p"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := &Config{Backend: "azure", MaxImageMB: 10, LogLevel: "info"}
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad log level", func(t *testing.T) {
		cfg := &Config{Backend: "google", GoogleKey: "k", MaxImageMB: 10, LogLevel: "loud"}
		assert.Error(t, cfg.Validate())
	})
}

func TestLoadConfig_ProjectFromServiceAccount(t *testing.T) {
	t.Setenv("PROMPTCRAFT_BACKEND", "")
	t.Setenv("VERTEX_PROJECT_ID", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT", `{"type":"service_account","project_id":"my-project"}`)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "vertex", cfg.Backend)
	assert.Equal(t, "my-project", cfg.VertexProject)
	assert.Equal(t, "us-central1", cfg.VertexLocation)
}
