package google

import (
	"encoding/json"

	"github.com/spetersoncode/promptcraft"
	"google.golang.org/genai"
)

// jsonSchema is the subset of JSON Schema emitted by promptcraft.SchemaBuilder.
type jsonSchema struct {
	Type        string                 `json:"type"`
	Description string                 `json:"description"`
	Properties  map[string]*jsonSchema `json:"properties"`
	Required    []string               `json:"required"`
	Items       *jsonSchema            `json:"items"`
}

var genaiTypes = map[string]genai.Type{
	"string":  genai.TypeString,
	"number":  genai.TypeNumber,
	"integer": genai.TypeInteger,
	"boolean": genai.TypeBoolean,
	"array":   genai.TypeArray,
	"object":  genai.TypeObject,
}

// responseSchema converts a response schema into the genai form. It returns
// nil when there is no schema or it cannot be parsed, in which case the
// request falls back to plain JSON output.
func responseSchema(rs *promptcraft.ResponseSchema) *genai.Schema {
	if rs == nil || len(rs.Schema) == 0 {
		return nil
	}
	var s jsonSchema
	if err := json.Unmarshal(rs.Schema, &s); err != nil {
		return nil
	}
	return s.toGenai()
}

func (s *jsonSchema) toGenai() *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        genaiTypes[s.Type],
		Description: s.Description,
		Required:    s.Required,
		Items:       s.Items.toGenai(),
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = prop.toGenai()
		}
	}
	// JSON objects lose field order; every field of a promptcraft schema is
	// required, so the required list carries the display order.
	if len(s.Required) > 0 && len(s.Required) == len(s.Properties) {
		out.PropertyOrdering = append([]string(nil), s.Required...)
	}
	return out
}
