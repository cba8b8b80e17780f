package main

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spetersoncode/promptcraft"
	"github.com/spetersoncode/promptcraft/internal/provider/proxy"
)

// MaxPromptLength is the longest prompt the proxy accepts, in characters.
const MaxPromptLength = 2000

// GenerateHandler serves proxy requests against a provider that holds the
// service credentials.
type GenerateHandler struct {
	provider promptcraft.FullProvider
	config   *Config
}

// NewGenerateHandler creates a handler for the given provider.
func NewGenerateHandler(p promptcraft.FullProvider, cfg *Config) *GenerateHandler {
	return &GenerateHandler{provider: p, config: cfg}
}

// ServeHTTP handles POST requests for one of the proxy actions.
func (h *GenerateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		slog.Warn("method not allowed", "method", r.Method, "path", r.URL.Path)
		writeError(w, http.StatusMethodNotAllowed, promptcraft.KindInvalidInput, "Method not allowed")
		return
	}

	if !h.authorized(r) {
		slog.Warn("client key rejected", "remote", r.RemoteAddr)
		writeError(w, http.StatusUnauthorized, promptcraft.KindInvalidKey, "Invalid or missing API key")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxBodyBytes())
	var req proxy.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("invalid request body", "error", err)
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, promptcraft.KindInvalidInput, "Request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, promptcraft.KindInvalidInput, "Invalid request body: "+err.Error())
		return
	}

	log := slog.With("action", req.Action)

	if err := h.validate(req); err != nil {
		log.Warn("invalid input", "error", err)
		writeError(w, http.StatusBadRequest, promptcraft.KindInvalidInput, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.config.Timeout)
	defer cancel()

	result, err := h.dispatch(ctx, req)
	duration := time.Since(start)
	if err != nil {
		status := proxy.StatusFor(err)
		log.Error("request failed",
			"duration_ms", duration.Milliseconds(),
			"status", status,
			"kind", promptcraft.KindOf(err),
			"error", err,
		)
		if d := promptcraft.RetryAfterOf(err); d > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(d.Round(time.Second).Seconds())))
		}
		writeJSON(w, status, proxy.ErrorResponse(err))
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		log.Error("failed to encode result", "error", err)
		writeError(w, http.StatusInternalServerError, promptcraft.KindUnknown, "Failed to encode result")
		return
	}
	writeJSON(w, http.StatusOK, proxy.Response{Result: data})
	log.Info("request completed", "duration_ms", duration.Milliseconds())
}

// authorized checks the client key when MASTER_API_KEY is configured. The
// key is read from x-api-key or from Authorization, with or without a
// Bearer prefix.
func (h *GenerateHandler) authorized(r *http.Request) bool {
	if h.config.MasterKey == "" {
		return true
	}
	key := r.Header.Get("x-api-key")
	if key == "" {
		key = strings.TrimSpace(r.Header.Get("Authorization"))
		if rest, ok := strings.CutPrefix(key, "Bearer "); ok {
			key = strings.TrimSpace(rest)
		}
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(h.config.MasterKey)) == 1
}

func (h *GenerateHandler) validate(req proxy.Request) error {
	switch req.Action {
	case proxy.ActionGeneratePrompt, proxy.ActionGeneratePromptText, proxy.ActionGenerateInspiration:
		if req.Image == nil || req.Image.IsZero() {
			return fmt.Errorf("an image is required for %s", req.Action)
		}
	case proxy.ActionGenerateImage:
		if strings.TrimSpace(req.Prompt) == "" {
			return fmt.Errorf("a prompt is required for %s", req.Action)
		}
		if utf8.RuneCountInString(req.Prompt) > MaxPromptLength {
			return fmt.Errorf("prompt exceeds %d characters", MaxPromptLength)
		}
	case "":
		return fmt.Errorf("action is required")
	default:
		return fmt.Errorf("unknown action %q", req.Action)
	}

	if req.Image != nil && !req.Image.IsZero() {
		if !promptcraft.IsAllowedMIMEType(req.Image.MimeType) {
			return fmt.Errorf("unsupported image type %q", req.Image.MimeType)
		}
		if base64.StdEncoding.DecodedLen(len(req.Image.Data)) > h.config.MaxImageMB<<20 {
			return fmt.Errorf("image exceeds %d MB", h.config.MaxImageMB)
		}
	}
	return nil
}

func (h *GenerateHandler) dispatch(ctx context.Context, req proxy.Request) (any, error) {
	switch req.Action {
	case proxy.ActionGeneratePrompt:
		return h.provider.GeneratePrompt(ctx, *req.Image)
	case proxy.ActionGeneratePromptText:
		return h.provider.GeneratePromptText(ctx, *req.Image)
	case proxy.ActionGenerateInspiration:
		return h.provider.GenerateInspiration(ctx, *req.Image)
	default:
		var ref *promptcraft.Image
		if req.Image != nil && !req.Image.IsZero() {
			ref = req.Image
		}
		return h.provider.GenerateImage(ctx, req.Prompt, ref, promptcraft.WithPreserveIdentity(req.PreserveIdentity))
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, kind promptcraft.ErrorKind, msg string) {
	writeJSON(w, status, proxy.Response{Error: msg, Kind: string(kind)})
}

// corsMiddleware adds CORS headers for cross-origin frontend requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, x-api-key")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// healthHandler returns a simple health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
