package promptcraft

import (
	"encoding/json"
	"reflect"
	"strings"
)

// ResponseSchema describes the JSON document a provider must return.
type ResponseSchema struct {
	Name        string
	Description string
	Schema      json.RawMessage
}

// SchemaBuilder constructs JSON Schema objects from Go structs.
// Field names come from json tags, descriptions from desc tags, and
// required:"true" marks a field as required.
type SchemaBuilder struct {
	properties    map[string]*propertyDef
	required      []string
	propertyOrder []string
}

type propertyDef struct {
	Type        string
	Description string
	Items       *propertyDef
	Properties  map[string]any
	Required    []string
}

// SchemaFrom creates a SchemaBuilder by reflecting on the given struct type.
func SchemaFrom[T any]() *SchemaBuilder {
	var zero T
	t := reflect.TypeOf(zero)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return &SchemaBuilder{properties: make(map[string]*propertyDef)}
	}
	return buildFromStruct(t)
}

func buildFromStruct(t reflect.Type) *SchemaBuilder {
	sb := &SchemaBuilder{properties: make(map[string]*propertyDef)}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}
		name := strings.Split(jsonTag, ",")[0]
		if name == "" {
			name = field.Name
		}

		prop := typeToPropertyDef(field.Type)
		prop.Description = field.Tag.Get("desc")
		sb.properties[name] = prop
		sb.propertyOrder = append(sb.propertyOrder, name)
		if field.Tag.Get("required") == "true" {
			sb.required = append(sb.required, name)
		}
	}
	return sb
}

func typeToPropertyDef(t reflect.Type) *propertyDef {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.String:
		return &propertyDef{Type: "string"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &propertyDef{Type: "integer"}
	case reflect.Float32, reflect.Float64:
		return &propertyDef{Type: "number"}
	case reflect.Bool:
		return &propertyDef{Type: "boolean"}
	case reflect.Slice, reflect.Array:
		return &propertyDef{Type: "array", Items: typeToPropertyDef(t.Elem())}
	case reflect.Struct:
		nested := buildFromStruct(t)
		return &propertyDef{Type: "object", Properties: nested.propertiesMap(), Required: nested.required}
	default:
		return &propertyDef{Type: "string"}
	}
}

// Desc sets the description for a field.
func (s *SchemaBuilder) Desc(field, description string) *SchemaBuilder {
	if prop, ok := s.properties[field]; ok {
		prop.Description = description
	}
	return s
}

// Build generates the JSON Schema.
func (s *SchemaBuilder) Build() json.RawMessage {
	schema := map[string]any{
		"type":       "object",
		"properties": s.propertiesMap(),
	}
	if len(s.required) > 0 {
		schema["required"] = s.required
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return json.RawMessage(`{"type":"object","properties":{}}`)
	}
	return data
}

func (s *SchemaBuilder) propertiesMap() map[string]any {
	props := make(map[string]any, len(s.properties))
	for _, name := range s.propertyOrder {
		props[name] = s.properties[name].toMap()
	}
	return props
}

func (p *propertyDef) toMap() map[string]any {
	result := map[string]any{"type": p.Type}
	if p.Description != "" {
		result["description"] = p.Description
	}
	if p.Items != nil {
		result["items"] = p.Items.toMap()
	}
	if p.Properties != nil {
		result["properties"] = p.Properties
	}
	if len(p.Required) > 0 {
		result["required"] = p.Required
	}
	return result
}

// Inspiration is the structured response for inspiration prompts.
type Inspiration struct {
	Prompts []string `json:"prompts" desc:"An array of three distinct, creative prompts." required:"true"`
}

// PromptSchema constrains the structured image description.
var PromptSchema = ResponseSchema{
	Name:        "structured_prompt",
	Description: "A structured description of an image for a text-to-image model",
	Schema:      SchemaFrom[StructuredPrompt]().Build(),
}

// InspirationSchema constrains the inspiration prompt list.
var InspirationSchema = ResponseSchema{
	Name:        "inspiration",
	Description: "Three creative prompts based on an image",
	Schema:      SchemaFrom[Inspiration]().Build(),
}

// Instructions shared by every provider.
const (
	DescribeInstruction = "You are an expert at analyzing images and creating descriptive prompts for AI image generation. " +
		"Analyze the provided image and describe it in vivid detail by filling out the JSON schema. Be descriptive and creative."

	DescribeTextInstruction = "You are an expert at analyzing images and creating descriptive prompts for AI image generation. " +
		"Describe the provided image in a single vivid paragraph that a text-to-image model can use to recreate it. " +
		"Return only the prompt text."

	InspirationInstruction = "You are a creative assistant for an AI artist. Your task is to look at an image and generate three distinct, " +
		"creative, and inspiring prompts for a text-to-image model. Each prompt should offer a unique artistic direction, " +
		"re-imagining the image's subject in a different style, context, or mood. The prompts should be concise but evocative. " +
		"Return the three prompts as a JSON object with a key 'prompts' containing an array of strings."

	DescribeRequest    = "Describe this image for a text-to-image AI model."
	InspirationRequest = "Give me three creative prompts based on this image."
)

// Sampling temperatures used for each request type.
const (
	DescribeTemperature    = 0.5
	InspirationTemperature = 0.8
)
