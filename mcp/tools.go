package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spetersoncode/promptcraft"
	"github.com/spetersoncode/promptcraft/history"
)

const (
	formatStructured = "structured"
	formatText       = "text"
)

func imageArgs() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("image_path", mcp.Description("Path to a local image file")),
		mcp.WithString("image_data", mcp.Description("Base64 image data or a data URL, used when image_path is empty")),
		mcp.WithString("mime_type", mcp.Description("MIME type of image_data when it is plain base64")),
	}
}

func describeTool() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Describe an image as a prompt for a text-to-image model"),
		mcp.WithString("format",
			mcp.Description("structured returns the prompt fields as JSON, text returns one paragraph"),
			mcp.Enum(formatStructured, formatText),
		),
	}, imageArgs()...)
	return mcp.NewTool("describe_image", opts...)
}

func inspireTool() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Suggest three creative prompts that re-imagine an image"),
	}, imageArgs()...)
	return mcp.NewTool("inspire", opts...)
}

func generateTool() mcp.Tool {
	return mcp.NewTool("generate_image",
		mcp.WithDescription("Generate images from a prompt, optionally using a reference image as the base"),
		mcp.WithString("prompt", mcp.Required(), mcp.Description("The image prompt")),
		mcp.WithString("style",
			mcp.Description("Art style appended to the prompt"),
			mcp.Enum(promptcraft.ArtStyles...),
		),
		mcp.WithNumber("count", mcp.Description("Number of images to generate"), mcp.Min(1), mcp.Max(promptcraft.MaxImageCount)),
		mcp.WithBoolean("preserve_identity", mcp.Description("Keep the identity of the person in the reference image")),
		mcp.WithString("aspect_ratio",
			mcp.Description("Aspect ratio of the generated image"),
			mcp.Enum("1:1", "3:4", "4:3", "9:16", "16:9"),
		),
		mcp.WithString("reference_path", mcp.Description("Path to a reference image")),
		mcp.WithString("reference_data", mcp.Description("Base64 reference image data or a data URL")),
		mcp.WithString("reference_mime_type", mcp.Description("MIME type of reference_data when it is plain base64")),
	)
}

func listHistoryTool() mcp.Tool {
	return mcp.NewTool("list_history",
		mcp.WithDescription("List recent generations, newest first"),
		mcp.WithNumber("limit", mcp.Description("Maximum number of entries to return"), mcp.Min(1)),
	)
}

func clearHistoryTool() mcp.Tool {
	return mcp.NewTool("clear_history",
		mcp.WithDescription("Delete every stored generation"),
	)
}

// loadImage reads an image from a path argument, falling back to a data
// argument. It returns nil when neither is set.
func loadImage(req mcp.CallToolRequest, pathArg, dataArg, mimeArg string) (*promptcraft.Image, error) {
	if path := req.GetString(pathArg, ""); path != "" {
		img, err := promptcraft.ReadImageFile(path)
		if err != nil {
			return nil, err
		}
		return &img, nil
	}
	data := strings.TrimSpace(req.GetString(dataArg, ""))
	if data == "" {
		return nil, nil
	}
	if strings.HasPrefix(data, "data:") {
		img, err := promptcraft.ParseDataURL(data)
		if err != nil {
			return nil, err
		}
		return &img, nil
	}
	img := promptcraft.Image{Data: data, MimeType: req.GetString(mimeArg, "")}
	raw, err := img.Bytes()
	if err != nil {
		return nil, err
	}
	img, err = promptcraft.NewImage(raw, img.MimeType)
	if err != nil {
		return nil, err
	}
	return &img, nil
}

func requireImage(req mcp.CallToolRequest) (promptcraft.Image, error) {
	img, err := loadImage(req, "image_path", "image_data", "mime_type")
	if err != nil {
		return promptcraft.Image{}, err
	}
	if img == nil {
		return promptcraft.Image{}, promptcraft.NewError(promptcraft.KindInvalidInput, "image_path or image_data is required", 0, promptcraft.ErrEmptyInput)
	}
	return *img, nil
}

func (h *handlers) describe(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	img, err := requireImage(req)
	if err != nil {
		return h.toolError("describe_image", err), nil
	}

	switch format := req.GetString("format", formatStructured); format {
	case formatText:
		text, err := h.provider.GeneratePromptText(ctx, img)
		if err != nil {
			return h.toolError("describe_image", err), nil
		}
		return mcp.NewToolResultText(text), nil
	case formatStructured:
		sp, err := h.provider.GeneratePrompt(ctx, img)
		if err != nil {
			return h.toolError("describe_image", err), nil
		}
		data, err := json.Marshal(struct {
			*promptcraft.StructuredPrompt
			Prompt string `json:"prompt"`
		}{sp, sp.Combine()})
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(string(data)), nil
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown format %q", format)), nil
	}
}

func (h *handlers) inspire(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	img, err := requireImage(req)
	if err != nil {
		return h.toolError("inspire", err), nil
	}
	ideas, err := h.provider.GenerateInspiration(ctx, img)
	if err != nil {
		return h.toolError("inspire", err), nil
	}
	data, err := json.Marshal(promptcraft.Inspiration{Prompts: ideas})
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (h *handlers) generate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	base, err := req.RequireString("prompt")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	style := req.GetString("style", promptcraft.StyleNone)
	prompt := promptcraft.StripStyle(strings.TrimSpace(base), style) + promptcraft.StyleSuffix(style)

	ref, err := loadImage(req, "reference_path", "reference_data", "reference_mime_type")
	if err != nil {
		return h.toolError("generate_image", err), nil
	}

	images, err := promptcraft.GenerateImages(ctx, h.provider, prompt, ref,
		promptcraft.WithImageCount(req.GetInt("count", 1)),
		promptcraft.WithPreserveIdentity(req.GetBool("preserve_identity", false)),
		promptcraft.WithAspectRatio(req.GetString("aspect_ratio", "")),
	)
	if err != nil {
		return h.toolError("generate_image", err), nil
	}

	for _, img := range images {
		if _, err := h.history.Add(ctx, history.NewItem{
			Prompt:      prompt,
			BasePrompt:  promptcraft.StripStyle(prompt, style),
			Style:       style,
			Image:       img,
			SourceImage: ref,
		}); err != nil {
			h.logger.Warn("failed to record history", "error", err)
		}
	}

	content := []mcp.Content{mcp.NewTextContent(fmt.Sprintf("Generated %d image(s) for: %s", len(images), prompt))}
	for _, img := range images {
		content = append(content, mcp.NewImageContent(img.Data, img.MimeType))
	}
	return &mcp.CallToolResult{Content: content}, nil
}

// historyEntry is the listing form of a history item, without image data.
type historyEntry struct {
	ID        string `json:"id"`
	Prompt    string `json:"prompt"`
	Style     string `json:"style,omitempty"`
	CreatedAt string `json:"created_at"`
}

func (h *handlers) listHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := h.history.List(ctx)
	if err != nil {
		return h.toolError("list_history", err), nil
	}
	if limit := req.GetInt("limit", 0); limit > 0 && limit < len(items) {
		items = items[:limit]
	}

	entries := make([]historyEntry, len(items))
	for i, it := range items {
		entries[i] = historyEntry{
			ID:        it.ID,
			Prompt:    it.Prompt,
			Style:     it.Style,
			CreatedAt: it.Time().UTC().Format(time.RFC3339),
		}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (h *handlers) clearHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.history.Clear(ctx); err != nil {
		return h.toolError("clear_history", err), nil
	}
	return mcp.NewToolResultText("History cleared."), nil
}
