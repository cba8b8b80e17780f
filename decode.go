package promptcraft

import (
	"encoding/json"
	"strings"
)

// DecodeStructuredPrompt parses a JSON structured prompt returned by a model.
func DecodeStructuredPrompt(text string) (*StructuredPrompt, error) {
	text = stripCodeFence(text)
	if text == "" {
		return nil, NewError(KindMalformedResponse, "the AI model returned an empty text response", 0, nil)
	}
	var p StructuredPrompt
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		return nil, NewError(KindMalformedResponse, "structured prompt is not valid JSON", 0, err)
	}
	return &p, nil
}

// DecodeInspiration parses a JSON inspiration response. An empty list is malformed.
func DecodeInspiration(text string) ([]string, error) {
	text = stripCodeFence(text)
	if text == "" {
		return nil, NewError(KindMalformedResponse, "the AI model returned an empty text response", 0, nil)
	}
	var insp Inspiration
	if err := json.Unmarshal([]byte(text), &insp); err != nil {
		return nil, NewError(KindMalformedResponse, "inspiration response is not valid JSON", 0, err)
	}
	if len(insp.Prompts) == 0 {
		return nil, NewError(KindMalformedResponse, "inspiration response contained no prompts", 0, nil)
	}
	return insp.Prompts, nil
}

// stripCodeFence removes a markdown code fence some models wrap JSON in.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
