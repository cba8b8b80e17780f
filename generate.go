package promptcraft

import (
	"context"
	"strings"
	"sync"
)

// GenerateImages requests the configured number of images with parallel,
// independent calls and waits for all of them. If any call fails the whole
// batch fails and the first error in request order is returned.
func GenerateImages(ctx context.Context, p ImageProvider, prompt string, ref *Image, opts ...ImageOption) ([]Image, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, NewError(KindInvalidInput, "a prompt is required to generate an image", 0, ErrEmptyInput)
	}
	n := ApplyImageOptions(opts...).ImageCount()

	images := make([]Image, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			img, err := p.GenerateImage(ctx, prompt, ref, opts...)
			if err != nil {
				errs[i] = err
				return
			}
			images[i] = *img
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return images, nil
}
