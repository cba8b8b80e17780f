// Package client routes PromptCraft requests to a configured backend.
//
// The Client wraps the provider-specific implementations and provides:
//
//   - Backend selection: Gemini API, Vertex AI, OpenAI or a PromptCraft proxy
//     for images, optionally with a different backend (such as Anthropic)
//     for prompts
//   - Lazy initialization: provider clients are created on first use
//   - Retries: exponential backoff for transient errors, off by default
//   - Event emission: observable operations via channel
//
// Keys are explicit configuration. A key obtained at runtime is applied
// with Config.WithKey:
//
//	c := client.New(cfg.WithKey(key))
//	prompt, err := c.GeneratePrompt(ctx, img)
package client
