package openai

import (
	"bytes"
	"context"

	"github.com/openai/openai-go"
	"github.com/spetersoncode/promptcraft"
)

// GenerateImage produces one image. Without a reference image the prompt
// goes to the generation endpoint; with one it goes to the edit endpoint.
func (c *Client) GenerateImage(ctx context.Context, prompt string, ref *promptcraft.Image, opts ...promptcraft.ImageOption) (*promptcraft.Image, error) {
	options := promptcraft.ApplyImageOptions(opts...)
	model := c.imageModel
	if options.Model != "" {
		model = ImageModel(options.Model)
	}
	hasRef := ref != nil && !ref.IsZero()
	text := promptcraft.BuildImagePrompt(prompt, hasRef, options.PreserveIdentity)

	c.logger.Debug("generating image", "model", model, "reference", hasRef, "preserve_identity", options.PreserveIdentity)

	var resp *openai.ImagesResponse
	var err error
	if hasRef {
		data, derr := ref.Bytes()
		if derr != nil {
			return nil, derr
		}
		resp, err = c.client.Images.Edit(ctx, openai.ImageEditParams{
			Model:  openai.ImageModel(model.String()),
			Prompt: text,
			N:      openai.Int(1),
			Image: openai.ImageEditParamsImageUnion{
				OfFile: openai.File(bytes.NewReader(data), "reference"+ref.Extension(), ref.MimeType),
			},
		})
	} else {
		resp, err = c.client.Images.Generate(ctx, openai.ImageGenerateParams{
			Model:  openai.ImageModel(model.String()),
			Prompt: text,
			N:      openai.Int(1),
		})
	}
	if err != nil {
		return nil, wrapError(err)
	}

	for _, img := range resp.Data {
		if img.B64JSON != "" {
			return &promptcraft.Image{Data: img.B64JSON, MimeType: "image/png"}, nil
		}
	}
	return nil, promptcraft.NewNoImageError("")
}
