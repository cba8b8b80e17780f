package openai

import (
	"encoding/json"

	"github.com/openai/openai-go"
	"github.com/spetersoncode/promptcraft"
)

// responseFormat requests strict JSON output matching the schema.
func responseFormat(rs *promptcraft.ResponseSchema) (openai.ChatCompletionNewParamsResponseFormatUnion, error) {
	var schema map[string]any
	if err := json.Unmarshal(rs.Schema, &schema); err != nil {
		return openai.ChatCompletionNewParamsResponseFormatUnion{}, promptcraft.NewError(
			promptcraft.KindInvalidInput, "invalid response schema "+rs.Name, 0, err)
	}
	closeObjects(schema)

	return openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
			Type: "json_schema",
			JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
				Name:        rs.Name,
				Description: openai.String(rs.Description),
				Schema:      schema,
				Strict:      openai.Bool(true),
			},
		},
	}, nil
}

// closeObjects sets additionalProperties to false on every object schema,
// which strict mode requires.
func closeObjects(schema map[string]any) {
	if schema["type"] == "object" {
		schema["additionalProperties"] = false
	}
	if props, ok := schema["properties"].(map[string]any); ok {
		for _, p := range props {
			if m, ok := p.(map[string]any); ok {
				closeObjects(m)
			}
		}
	}
	if items, ok := schema["items"].(map[string]any); ok {
		closeObjects(items)
	}
}
