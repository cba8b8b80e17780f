package promptcraft

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type schemaDoc struct {
	Type       string                    `json:"type"`
	Properties map[string]map[string]any `json:"properties"`
	Required   []string                  `json:"required"`
}

func TestPromptSchema(t *testing.T) {
	var doc schemaDoc
	require.NoError(t, json.Unmarshal(PromptSchema.Schema, &doc))

	assert.Equal(t, "object", doc.Type)
	want := make([]string, len(PromptFields))
	for i, f := range PromptFields {
		want[i] = string(f)
	}
	assert.Equal(t, want, doc.Required)
	for _, name := range want {
		prop, ok := doc.Properties[name]
		require.True(t, ok, name)
		assert.Equal(t, "string", prop["type"])
		assert.NotEmpty(t, prop["description"])
	}
}

func TestInspirationSchema(t *testing.T) {
	var doc schemaDoc
	require.NoError(t, json.Unmarshal(InspirationSchema.Schema, &doc))

	assert.Equal(t, []string{"prompts"}, doc.Required)
	prompts := doc.Properties["prompts"]
	assert.Equal(t, "array", prompts["type"])
	assert.Equal(t, map[string]any{"type": "string"}, prompts["items"])
}

func TestSchemaFrom(t *testing.T) {
	type nested struct {
		Label string `json:"label" required:"true"`
	}
	type sample struct {
		Name    string   `json:"name" desc:"The name" required:"true"`
		Count   int      `json:"count,omitempty"`
		Ratio   float64  `json:"ratio"`
		Enabled bool     `json:"enabled"`
		Tags    []string `json:"tags"`
		Inner   nested   `json:"inner"`
		Skipped string   `json:"-"`
		hidden  string
	}

	var doc schemaDoc
	require.NoError(t, json.Unmarshal(SchemaFrom[sample]().Desc("count", "How many").Build(), &doc))

	assert.Equal(t, []string{"name"}, doc.Required)
	assert.Len(t, doc.Properties, 6)
	assert.Equal(t, "The name", doc.Properties["name"]["description"])
	assert.Equal(t, "integer", doc.Properties["count"]["type"])
	assert.Equal(t, "How many", doc.Properties["count"]["description"])
	assert.Equal(t, "number", doc.Properties["ratio"]["type"])
	assert.Equal(t, "boolean", doc.Properties["enabled"]["type"])
	assert.Equal(t, "array", doc.Properties["tags"]["type"])
	assert.Equal(t, "object", doc.Properties["inner"]["type"])
	assert.Equal(t, []any{"label"}, doc.Properties["inner"]["required"])
}

func TestSchemaFrom_NonStruct(t *testing.T) {
	var doc schemaDoc
	require.NoError(t, json.Unmarshal(SchemaFrom[string]().Build(), &doc))
	assert.Equal(t, "object", doc.Type)
	assert.Empty(t, doc.Properties)
}
