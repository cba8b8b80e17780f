package studio

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spetersoncode/promptcraft"
	"gopkg.in/yaml.v3"
)

// MetadataFile is the name of the sidecar written next to saved images.
const MetadataFile = "metadata.yaml"

// Metadata describes a saved generation.
type Metadata struct {
	Version          string    `yaml:"version"`
	ID               string    `yaml:"id"`
	Timestamp        time.Time `yaml:"timestamp"`
	Provider         string    `yaml:"provider,omitempty"`
	Prompt           string    `yaml:"prompt"`
	Style            string    `yaml:"style,omitempty"`
	PreserveIdentity bool      `yaml:"preserve_identity"`
	HasReference     bool      `yaml:"has_reference"`
	Files            []string  `yaml:"files"`
}

// Output writes generated images to a directory, one subdirectory per
// generation.
type Output struct {
	root string
	now  func() time.Time
}

// NewOutput creates an Output rooted at dir.
func NewOutput(dir string) *Output {
	return &Output{root: dir, now: time.Now}
}

// Root returns the output directory.
func (o *Output) Root() string {
	return o.root
}

// Save writes images and a metadata sidecar and returns the directory they
// were written to. Empty Version, ID and Timestamp fields are filled in.
func (o *Output) Save(images []promptcraft.Image, meta Metadata) (string, error) {
	if len(images) == 0 {
		return "", promptcraft.NewError(promptcraft.KindInvalidInput, "no images to save", 0, promptcraft.ErrEmptyInput)
	}
	if meta.Version == "" {
		meta.Version = "1.0"
	}
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = o.now()
	}

	dir := filepath.Join(o.root, meta.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	meta.Files = meta.Files[:0]
	for i, img := range images {
		data, err := img.Bytes()
		if err != nil {
			return "", err
		}
		name := fmt.Sprintf("image-%d%s", i+1, img.Extension())
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return "", fmt.Errorf("failed to save image: %w", err)
		}
		meta.Files = append(meta.Files, name)
	}

	data, err := yaml.Marshal(&meta)
	if err != nil {
		return "", fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, MetadataFile), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to save metadata: %w", err)
	}
	return dir, nil
}

// LoadMetadata reads the sidecar of a saved generation.
func (o *Output) LoadMetadata(id string) (*Metadata, error) {
	data, err := os.ReadFile(filepath.Join(o.root, id, MetadataFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}
	var meta Metadata
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return &meta, nil
}
