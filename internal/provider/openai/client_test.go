package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/spetersoncode/promptcraft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testImage = promptcraft.Image{Data: base64.StdEncoding.EncodeToString([]byte("fake-png")), MimeType: "image/png"}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New("sk-test", WithBaseURL(server.URL+"/"))
}

func chatResponse(content, finish string) string {
	b, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 0,
		"model":   "gpt-4o",
		"choices": []any{map[string]any{
			"index":         0,
			"finish_reason": finish,
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	})
	return string(b)
}

func TestClient_GeneratePrompt(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		format, _ := body["response_format"].(map[string]any)
		assert.Equal(t, "json_schema", format["type"])

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, chatResponse(`{"subject":"a dog","setting":"a park","style":"Anime","lighting":"noon","colors":"green","composition":"wide","mood":"happy"}`, "stop"))
	})

	p, err := c.GeneratePrompt(context.Background(), testImage)
	require.NoError(t, err)
	assert.Equal(t, "a dog", p.Subject)
	assert.Equal(t, "happy", p.Mood)
}

func TestClient_FinishReasons(t *testing.T) {
	t.Run("content filter", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, chatResponse("", "content_filter"))
		})
		_, err := c.GeneratePromptText(context.Background(), testImage)
		assert.Equal(t, promptcraft.KindSafetyBlock, promptcraft.KindOf(err))
	})

	t.Run("length", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, chatResponse("a dog in a", "length"))
		})
		_, err := c.GeneratePromptText(context.Background(), testImage)
		assert.Equal(t, promptcraft.KindTruncated, promptcraft.KindOf(err))
	})
}

func TestClient_GenerateImage(t *testing.T) {
	out := base64.StdEncoding.EncodeToString([]byte("generated"))
	var paths []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"created":0,"data":[{"b64_json":"`+out+`"}]}`)
	})

	img, err := c.GenerateImage(context.Background(), "a dog", nil)
	require.NoError(t, err)
	assert.Equal(t, out, img.Data)

	_, err = c.GenerateImage(context.Background(), "a dog", &testImage)
	require.NoError(t, err)

	require.Len(t, paths, 2)
	assert.True(t, strings.HasSuffix(paths[0], "/images/generations"))
	assert.True(t, strings.HasSuffix(paths[1], "/images/edits"))
}

func TestClient_Errors(t *testing.T) {
	t.Run("invalid key", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`)
		})
		_, err := c.GeneratePrompt(context.Background(), testImage)
		assert.True(t, promptcraft.IsInvalidKey(err))
		assert.Equal(t, 401, promptcraft.StatusCodeOf(err))
	})

	t.Run("rate limit with retry-after", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(http.StatusTooManyRequests)
			io.WriteString(w, `{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`)
		})
		_, err := c.GenerateImage(context.Background(), "a dog", nil)
		assert.Equal(t, promptcraft.KindRateLimit, promptcraft.KindOf(err))
		assert.Equal(t, 7*time.Second, promptcraft.RetryAfterOf(err))
	})

	t.Run("content policy", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"error":{"message":"Your request was rejected","type":"invalid_request_error","code":"content_policy_violation"}}`)
		})
		_, err := c.GenerateImage(context.Background(), "a dog", nil)
		assert.Equal(t, promptcraft.KindSafetyBlock, promptcraft.KindOf(err))
	})
}

func TestResponseFormat(t *testing.T) {
	format, err := responseFormat(&promptcraft.PromptSchema)
	require.NoError(t, err)
	require.NotNil(t, format.OfJSONSchema)
	js := format.OfJSONSchema.JSONSchema
	assert.Equal(t, "structured_prompt", js.Name)

	schema, ok := js.Schema.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, schema["additionalProperties"])

	_, err = responseFormat(&promptcraft.ResponseSchema{Name: "broken", Schema: []byte("{")})
	assert.Equal(t, promptcraft.KindInvalidInput, promptcraft.KindOf(err))
}

func TestCloseObjects(t *testing.T) {
	var schema map[string]any
	require.NoError(t, json.Unmarshal(promptcraft.InspirationSchema.Schema, &schema))
	closeObjects(schema)
	assert.Equal(t, false, schema["additionalProperties"])

	items := schema["properties"].(map[string]any)["prompts"].(map[string]any)["items"].(map[string]any)
	_, set := items["additionalProperties"]
	assert.False(t, set)
}
