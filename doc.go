// Package promptcraft turns images into prompts and prompts into images.
//
// An uploaded image is described by a multimodal model as a
// [StructuredPrompt], a set of named fields (subject, setting, style,
// lighting, colors, composition, mood) that the user can edit one at a time.
// The fields are joined into a single prompt, an art-style suffix is appended,
// and an image model renders one or more new images from it, optionally
// using the uploaded image as a reference.
//
// # Core Interfaces
//
// The package defines two provider interfaces:
//
//   - [PromptProvider]: describe an image as a structured prompt, a free-text
//     prompt, or a list of creative inspiration prompts
//   - [ImageProvider]: generate an image from a prompt and an optional
//     reference image
//
// [FullProvider] combines both. Use the
// [github.com/spetersoncode/promptcraft/client] package to obtain one for a
// configured backend.
//
// # Basic Usage
//
//	c := client.New(client.Config{
//	    Provider: promptcraft.ProviderGoogle,
//	    APIKeys:  client.APIKeys{Google: os.Getenv("GEMINI_API_KEY")},
//	})
//
//	img, err := promptcraft.ReadImageFile("photo.jpg")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	sp, err := c.GeneratePrompt(ctx, img)
//	if err != nil {
//	    log.Fatal(promptcraft.UserMessage(err))
//	}
//
//	prompt := sp.Combine() + promptcraft.StyleSuffix("Anime")
//	images, err := promptcraft.GenerateImages(ctx, c, prompt, &img,
//	    promptcraft.WithImageCount(2),
//	    promptcraft.WithPreserveIdentity(true),
//	)
//
// # Styles
//
// [ApplyStyle] swaps one style suffix for another without touching the rest
// of the prompt, so switching styles back and forth is lossless.
// [StyleNone] removes the suffix entirely.
//
// # Errors
//
// Every provider failure is returned as an [*Error] carrying an [ErrorKind].
// Callers decide how to react with [KindOf], [IsInvalidKey] or [IsTransient]
// and render a banner with [UserMessage].
//
// # Related Packages
//
//   - [github.com/spetersoncode/promptcraft/studio]: Session state machine for interactive front ends
//   - [github.com/spetersoncode/promptcraft/history]: Bounded generation history
//   - [github.com/spetersoncode/promptcraft/apikey]: API key provisioning strategies
//   - [github.com/spetersoncode/promptcraft/mcp]: MCP server exposing the operations as tools
package promptcraft
