package openai

// ChatModel represents an OpenAI vision-capable chat model.
type ChatModel string

const (
	GPT4o     ChatModel = "gpt-4o"
	GPT4oMini ChatModel = "gpt-4o-mini"
	GPT41     ChatModel = "gpt-4.1"

	// DefaultChatModel describes images.
	DefaultChatModel ChatModel = GPT4o
)

// String returns the model identifier string.
func (m ChatModel) String() string { return string(m) }

// ImageModel represents an OpenAI image generation model.
type ImageModel string

const (
	GPTImage1     ImageModel = "gpt-image-1"
	GPTImage1Mini ImageModel = "gpt-image-1-mini"

	// DefaultImageModel generates and edits images.
	DefaultImageModel ImageModel = GPTImage1
)

// String returns the model identifier string.
func (m ImageModel) String() string { return string(m) }
