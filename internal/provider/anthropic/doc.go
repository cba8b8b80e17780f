// Package anthropic describes images with Claude.
//
// It implements promptcraft.PromptProvider only: Claude reads images but
// does not generate them, so a Claude prompt provider is paired with a
// Gemini or OpenAI image provider.
//
// Structured prompts are requested by forcing a single tool call whose
// input schema is the prompt schema; the tool input is the JSON answer.
//
//	client := anthropic.New(apiKey, anthropic.WithModel(anthropic.ClaudeHaiku45))
//	prompt, err := client.GeneratePrompt(ctx, img)
package anthropic
