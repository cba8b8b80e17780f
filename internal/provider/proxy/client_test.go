package proxy

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spetersoncode/promptcraft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testImage = promptcraft.Image{Data: base64.StdEncoding.EncodeToString([]byte("fake-png")), MimeType: "image/png"}

func serve(t *testing.T, fn func(w http.ResponseWriter, req Request)) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, Path, r.URL.Path)
		assert.Equal(t, "client-secret", r.Header.Get("x-api-key"))
		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		fn(w, req)
	}))
	t.Cleanup(server.Close)
	return New(server.URL+"/", WithClientKey("client-secret"))
}

func writeResult(w http.ResponseWriter, v any) {
	raw, _ := json.Marshal(v)
	json.NewEncoder(w).Encode(Response{Result: raw})
}

func writeError(w http.ResponseWriter, status int, kind promptcraft.ErrorKind, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{Error: msg, Kind: string(kind)})
}

func TestClient_Success(t *testing.T) {
	c := serve(t, func(w http.ResponseWriter, req Request) {
		switch req.Action {
		case ActionGeneratePrompt:
			require.NotNil(t, req.Image)
			writeResult(w, promptcraft.StructuredPrompt{Subject: "a cat", Mood: "calm"})
		case ActionGeneratePromptText:
			writeResult(w, "a cat on a sofa")
		case ActionGenerateInspiration:
			writeResult(w, []string{"a", "b", "c"})
		case ActionGenerateImage:
			assert.Equal(t, "a cat", req.Prompt)
			assert.True(t, req.PreserveIdentity)
			writeResult(w, promptcraft.Image{Data: "aGk=", MimeType: "image/png"})
		}
	})
	ctx := context.Background()

	p, err := c.GeneratePrompt(ctx, testImage)
	require.NoError(t, err)
	assert.Equal(t, "a cat, calm", p.Combine())

	text, err := c.GeneratePromptText(ctx, testImage)
	require.NoError(t, err)
	assert.Equal(t, "a cat on a sofa", text)

	prompts, err := c.GenerateInspiration(ctx, testImage)
	require.NoError(t, err)
	assert.Len(t, prompts, 3)

	img, err := c.GenerateImage(ctx, "a cat", &testImage, promptcraft.WithPreserveIdentity(true))
	require.NoError(t, err)
	assert.Equal(t, "aGk=", img.Data)
}

func TestClient_Errors(t *testing.T) {
	t.Run("kind from body", func(t *testing.T) {
		c := serve(t, func(w http.ResponseWriter, req Request) {
			writeError(w, http.StatusUnprocessableEntity, promptcraft.KindSafetyBlock, "blocked")
		})
		_, err := c.GeneratePrompt(context.Background(), testImage)
		assert.Equal(t, promptcraft.KindSafetyBlock, promptcraft.KindOf(err))
		assert.Equal(t, http.StatusUnprocessableEntity, promptcraft.StatusCodeOf(err))
	})

	t.Run("rate limit reads Retry-After", func(t *testing.T) {
		c := serve(t, func(w http.ResponseWriter, req Request) {
			w.Header().Set("Retry-After", "12")
			writeError(w, http.StatusTooManyRequests, promptcraft.KindRateLimit, "quota")
		})
		_, err := c.GenerateImage(context.Background(), "a cat", nil)
		assert.Equal(t, promptcraft.KindRateLimit, promptcraft.KindOf(err))
		assert.Equal(t, 12*time.Second, promptcraft.RetryAfterOf(err))
	})

	t.Run("status when kind is missing", func(t *testing.T) {
		c := serve(t, func(w http.ResponseWriter, req Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("unauthorized"))
		})
		_, err := c.GeneratePromptText(context.Background(), testImage)
		assert.True(t, promptcraft.IsInvalidKey(err))
	})

	t.Run("empty image result", func(t *testing.T) {
		c := serve(t, func(w http.ResponseWriter, req Request) {
			writeResult(w, promptcraft.Image{})
		})
		_, err := c.GenerateImage(context.Background(), "a cat", nil)
		assert.Equal(t, promptcraft.KindNoImage, promptcraft.KindOf(err))
	})
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{promptcraft.NewError(promptcraft.KindInvalidInput, "bad", 0, nil), 400},
		{promptcraft.NewError(promptcraft.KindInvalidKey, "bad key", 401, nil), 401},
		{promptcraft.NewError(promptcraft.KindInvalidKey, "denied", 403, nil), 403},
		{promptcraft.NewRateLimitError("quota", 429, time.Second, nil), 429},
		{promptcraft.NewSafetyError(nil), 422},
		{promptcraft.NewNoImageError(""), 502},
		{promptcraft.NewError(promptcraft.KindMalformedResponse, "bad json", 0, nil), 502},
		{promptcraft.NewError(promptcraft.KindUpstream, "down", 503, nil), 502},
		{assert.AnError, 500},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}
