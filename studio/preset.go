package studio

import (
	"fmt"
	"os"

	"github.com/spetersoncode/promptcraft"
	"gopkg.in/yaml.v3"
)

// Preset holds the user-editable studio settings.
type Preset struct {
	DefaultStyle     string `yaml:"default_style"`
	ImageCount       int    `yaml:"image_count"`
	PreserveIdentity bool   `yaml:"preserve_identity"`
	HistoryCap       int    `yaml:"history_cap"`
	OutputDir        string `yaml:"output_dir"`
	Models           struct {
		Prompt string `yaml:"prompt"`
		Image  string `yaml:"image"`
	} `yaml:"models"`
}

// DefaultPreset returns the built-in settings.
func DefaultPreset() Preset {
	return Preset{
		DefaultStyle: promptcraft.DefaultStyle,
		ImageCount:   1,
		HistoryCap:   50,
		OutputDir:    "./promptcraft_images",
	}
}

// LoadPreset reads a YAML preset file on top of the defaults. An empty path
// returns the defaults.
func LoadPreset(path string) (Preset, error) {
	p := DefaultPreset()
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("failed to read preset: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("failed to parse preset %s: %w", path, err)
	}
	return p, p.Validate()
}

// Validate checks the preset values.
func (p Preset) Validate() error {
	if !isArtStyle(p.DefaultStyle) {
		return fmt.Errorf("default_style %q is not one of %v", p.DefaultStyle, promptcraft.ArtStyles)
	}
	if p.ImageCount < 1 || p.ImageCount > promptcraft.MaxImageCount {
		return fmt.Errorf("image_count must be between 1 and %d", promptcraft.MaxImageCount)
	}
	if p.HistoryCap < 0 {
		return fmt.Errorf("history_cap must not be negative")
	}
	return nil
}
