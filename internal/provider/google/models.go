package google

// ChatModel represents a Gemini model used to describe images.
type ChatModel string

const (
	Gemini25Pro       ChatModel = "gemini-2.5-pro"
	Gemini25Flash     ChatModel = "gemini-2.5-flash"
	Gemini25FlashLite ChatModel = "gemini-2.5-flash-lite"

	// DefaultChatModel is the model used for prompt generation.
	DefaultChatModel ChatModel = Gemini25Flash
)

// String returns the model identifier string.
func (m ChatModel) String() string { return string(m) }

// ImageModel represents a Gemini model able to return inline images.
type ImageModel string

const (
	Gemini25FlashImage ImageModel = "gemini-2.5-flash-image"
	Gemini3ProImage    ImageModel = "gemini-3-pro-image-preview"

	// DefaultImageModel is the model used for image generation.
	DefaultImageModel ImageModel = Gemini25FlashImage
)

// String returns the model identifier string.
func (m ImageModel) String() string { return string(m) }
