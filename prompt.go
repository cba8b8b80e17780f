package promptcraft

import (
	"fmt"
	"strings"
)

// PromptField names one field of a StructuredPrompt.
type PromptField string

const (
	FieldSubject     PromptField = "subject"
	FieldSetting     PromptField = "setting"
	FieldStyle       PromptField = "style"
	FieldLighting    PromptField = "lighting"
	FieldColors      PromptField = "colors"
	FieldComposition PromptField = "composition"
	FieldMood        PromptField = "mood"
)

// PromptFields lists the structured prompt fields in display order.
var PromptFields = []PromptField{
	FieldSubject,
	FieldSetting,
	FieldStyle,
	FieldLighting,
	FieldColors,
	FieldComposition,
	FieldMood,
}

// StructuredPrompt is an image description decomposed into named fields.
type StructuredPrompt struct {
	Subject     string `json:"subject" desc:"A detailed description of the main subject(s) of the image." required:"true"`
	Setting     string `json:"setting" desc:"A description of the background, environment, or setting." required:"true"`
	Style       string `json:"style" desc:"The artistic style of the image (e.g., Photorealistic, Illustration, Anime, Oil Painting)." required:"true"`
	Lighting    string `json:"lighting" desc:"A description of the lighting, such as \"soft morning light\" or \"dramatic studio lighting\"." required:"true"`
	Colors      string `json:"colors" desc:"A description of the color palette, such as \"vibrant and saturated\" or \"monochromatic and muted\"." required:"true"`
	Composition string `json:"composition" desc:"A description of the composition, such as \"centered close-up\" or \"wide-angle shot\"." required:"true"`
	Mood        string `json:"mood" desc:"The overall mood or feeling of the image, such as \"peaceful and serene\" or \"chaotic and energetic\"." required:"true"`
}

// Get returns the value of a field.
func (p *StructuredPrompt) Get(field PromptField) string {
	switch field {
	case FieldSubject:
		return p.Subject
	case FieldSetting:
		return p.Setting
	case FieldStyle:
		return p.Style
	case FieldLighting:
		return p.Lighting
	case FieldColors:
		return p.Colors
	case FieldComposition:
		return p.Composition
	case FieldMood:
		return p.Mood
	}
	return ""
}

// Set replaces the value of a field.
func (p *StructuredPrompt) Set(field PromptField, value string) error {
	switch field {
	case FieldSubject:
		p.Subject = value
	case FieldSetting:
		p.Setting = value
	case FieldStyle:
		p.Style = value
	case FieldLighting:
		p.Lighting = value
	case FieldColors:
		p.Colors = value
	case FieldComposition:
		p.Composition = value
	case FieldMood:
		p.Mood = value
	default:
		return NewError(KindInvalidInput, fmt.Sprintf("unknown prompt field %q", field), 0, nil)
	}
	return nil
}

// Combine joins the non-empty fields into a single prompt, in field order.
func (p *StructuredPrompt) Combine() string {
	if p == nil {
		return ""
	}
	parts := make([]string, 0, len(PromptFields))
	for _, f := range PromptFields {
		if v := strings.TrimSpace(p.Get(f)); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ", ")
}

// StyleNone disables the style suffix.
const StyleNone = "None"

// ArtStyles are the style presets offered for the suffix.
var ArtStyles = []string{"Photorealistic", "Illustration", "Anime", "Oil Painting", "Pixel Art", StyleNone}

// DefaultStyle is the style applied to a freshly generated prompt.
const DefaultStyle = "Photorealistic"

// StyleSuffix returns the text appended to a prompt for the given style.
func StyleSuffix(style string) string {
	if style == "" || style == StyleNone {
		return ""
	}
	return ", in the style of " + strings.ToLower(style)
}

// ApplyStyle swaps the suffix of oldStyle for the suffix of newStyle.
// A prompt the user edited so that it no longer ends with the old suffix
// keeps its text and only gains the new suffix.
func ApplyStyle(prompt, oldStyle, newStyle string) string {
	return StripStyle(prompt, oldStyle) + StyleSuffix(newStyle)
}

// StripStyle removes the style suffix from the end of prompt, if present.
func StripStyle(prompt, style string) string {
	suffix := StyleSuffix(style)
	if suffix != "" && strings.HasSuffix(prompt, suffix) {
		return prompt[:len(prompt)-len(suffix)]
	}
	return prompt
}

// BuildImagePrompt phrases the final text sent to the image model.
func BuildImagePrompt(prompt string, hasReference, preserveIdentity bool) string {
	switch {
	case !hasReference:
		return prompt
	case preserveIdentity:
		return "Using the person in the provided image as the reference, generate a new image. " +
			"Keep their facial features, face shape, skin tone, hair and body proportions exactly the same so they remain clearly recognizable. " +
			"Follow this description for the scene, clothing, pose and artistic style: " + prompt
	default:
		return "Using the provided image as a base, generate a new image that incorporates the following changes or description: " + prompt
	}
}
