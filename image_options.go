package promptcraft

// MaxImageCount is the largest fan-out accepted by GenerateImages.
const MaxImageCount = 4

// ImageOptions contains configuration for an image generation request.
type ImageOptions struct {
	Model            string
	Count            int
	PreserveIdentity bool
	AspectRatio      string
}

// ImageOption is a functional option for configuring image generation requests.
type ImageOption func(*ImageOptions)

// WithImageModel sets the model to use for image generation.
func WithImageModel(model string) ImageOption {
	return func(o *ImageOptions) {
		o.Model = model
	}
}

// WithImageCount sets the number of images to generate.
// Each image is requested with its own call.
func WithImageCount(n int) ImageOption {
	return func(o *ImageOptions) {
		o.Count = n
	}
}

// WithPreserveIdentity asks the model to keep the identity of the person in
// the reference image. It only changes how the prompt is phrased.
func WithPreserveIdentity(preserve bool) ImageOption {
	return func(o *ImageOptions) {
		o.PreserveIdentity = preserve
	}
}

// WithAspectRatio sets the aspect ratio (for example "1:1" or "16:9").
func WithAspectRatio(ratio string) ImageOption {
	return func(o *ImageOptions) {
		o.AspectRatio = ratio
	}
}

// ApplyImageOptions applies functional options to an ImageOptions struct.
func ApplyImageOptions(opts ...ImageOption) *ImageOptions {
	o := &ImageOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ImageCount returns the requested count clamped to [1, MaxImageCount].
func (o *ImageOptions) ImageCount() int {
	switch {
	case o.Count <= 0:
		return 1
	case o.Count > MaxImageCount:
		return MaxImageCount
	default:
		return o.Count
	}
}
