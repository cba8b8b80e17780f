package studio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spetersoncode/promptcraft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutput_Save(t *testing.T) {
	out := NewOutput(t.TempDir())
	images := []promptcraft.Image{
		{Data: "aW1nMQ==", MimeType: "image/png"},
		{Data: "aW1nMg==", MimeType: "image/jpeg"},
	}

	dir, err := out.Save(images, Metadata{Prompt: "a fox", Style: "Anime", HasReference: true})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "image-1.png"))
	require.NoError(t, err)
	assert.Equal(t, "img1", string(data))
	data, err = os.ReadFile(filepath.Join(dir, "image-2.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "img2", string(data))

	meta, err := out.LoadMetadata(filepath.Base(dir))
	require.NoError(t, err)
	assert.Equal(t, "1.0", meta.Version)
	assert.Equal(t, "a fox", meta.Prompt)
	assert.Equal(t, "Anime", meta.Style)
	assert.True(t, meta.HasReference)
	assert.Equal(t, []string{"image-1.png", "image-2.jpg"}, meta.Files)
	assert.False(t, meta.Timestamp.IsZero())
}

func TestOutput_SaveRejectsEmpty(t *testing.T) {
	out := NewOutput(t.TempDir())
	_, err := out.Save(nil, Metadata{})
	assert.Equal(t, promptcraft.KindInvalidInput, promptcraft.KindOf(err))
}

func TestLoadPreset(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		p, err := LoadPreset("")
		require.NoError(t, err)
		assert.Equal(t, DefaultPreset(), p)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "preset.yaml")
		require.NoError(t, os.WriteFile(path, []byte("default_style: Anime\nimage_count: 3\nmodels:\n  image: gpt-image-1\n"), 0o644))

		p, err := LoadPreset(path)
		require.NoError(t, err)
		assert.Equal(t, "Anime", p.DefaultStyle)
		assert.Equal(t, 3, p.ImageCount)
		assert.Equal(t, "gpt-image-1", p.Models.Image)
		assert.Equal(t, 50, p.HistoryCap)
	})

	t.Run("invalid", func(t *testing.T) {
		tests := []struct {
			name string
			body string
		}{
			{"unknown style", "default_style: Cubism\n"},
			{"too many images", "image_count: 9\n"},
			{"not yaml", "default_style: [\n"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				path := filepath.Join(t.TempDir(), "preset.yaml")
				require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o644))
				_, err := LoadPreset(path)
				assert.Error(t, err)
			})
		}
	})
}
