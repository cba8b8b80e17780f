package proxy

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/spetersoncode/promptcraft"
)

// Path is the route served by the proxy.
const Path = "/api/generate"

// Action selects the operation a proxy request performs.
type Action string

const (
	ActionGeneratePrompt      Action = "generatePrompt"
	ActionGeneratePromptText  Action = "generatePromptText"
	ActionGenerateInspiration Action = "generateInspiration"
	ActionGenerateImage       Action = "generateImage"
)

// Request is the body of a proxy call.
type Request struct {
	Action           Action             `json:"action"`
	Image            *promptcraft.Image `json:"image,omitempty"`
	Prompt           string             `json:"prompt,omitempty"`
	PreserveIdentity bool               `json:"preserveIdentity,omitempty"`
}

// Response is the body of a proxy reply. Exactly one of Result and Error is set.
type Response struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
	Kind   string          `json:"kind,omitempty"`

	// Categories and Explanation carry the safety categories and the
	// model's text reply of safety_block and no_image errors.
	Categories  []string `json:"categories,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
}

// ErrorResponse renders a provider error as a proxy reply.
func ErrorResponse(err error) Response {
	resp := Response{
		Error: promptcraft.UserMessage(err),
		Kind:  string(promptcraft.KindOf(err)),
	}
	var e *promptcraft.Error
	if errors.As(err, &e) {
		resp.Categories = e.Categories
		resp.Explanation = e.Explanation
	}
	return resp
}

// StatusFor maps an error to the HTTP status the proxy replies with.
func StatusFor(err error) int {
	var ce promptcraft.CategorizedError
	if !errors.As(err, &ce) {
		return http.StatusInternalServerError
	}
	switch promptcraft.KindOf(err) {
	case promptcraft.KindInvalidInput:
		return http.StatusBadRequest
	case promptcraft.KindInvalidKey:
		if ce.StatusCode() == http.StatusForbidden {
			return http.StatusForbidden
		}
		return http.StatusUnauthorized
	case promptcraft.KindRateLimit:
		return http.StatusTooManyRequests
	case promptcraft.KindSafetyBlock, promptcraft.KindRecitation, promptcraft.KindTruncated:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}
