package promptcraft

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// MaxImageBytes bounds the size of an uploaded image.
const MaxImageBytes = 20 << 20

// AllowedMIMETypes lists the image types accepted for upload.
var AllowedMIMETypes = []string{
	"image/png",
	"image/jpeg",
	"image/webp",
	"image/heic",
	"image/heif",
	"image/gif",
}

// Image is an uploaded or generated image held as base64 text.
type Image struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

// IsAllowedMIMEType reports whether the MIME type is accepted for upload.
func IsAllowedMIMEType(mimeType string) bool {
	mimeType = normalizeMIME(mimeType)
	for _, m := range AllowedMIMETypes {
		if m == mimeType {
			return true
		}
	}
	return false
}

// NewImage encodes raw bytes into an Image after checking the MIME type.
// An empty mimeType is sniffed from the content.
func NewImage(data []byte, mimeType string) (Image, error) {
	if len(data) == 0 {
		return Image{}, &ImageError{Op: "read", Source: "bytes", Err: ErrEmptyInput}
	}
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	mimeType = normalizeMIME(mimeType)
	if !IsAllowedMIMEType(mimeType) {
		return Image{}, &ImageError{
			Op:     "type",
			Source: "bytes",
			Err:    fmt.Errorf("unsupported image type %q", mimeType),
		}
	}
	return Image{
		Data:     base64.StdEncoding.EncodeToString(data),
		MimeType: mimeType,
	}, nil
}

// ReadImage reads an image from r, refusing anything larger than MaxImageBytes.
func ReadImage(r io.Reader, mimeType string) (Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageBytes+1))
	if err != nil {
		return Image{}, &ImageError{Op: "read", Source: "reader", Err: err}
	}
	if len(data) > MaxImageBytes {
		return Image{}, &ImageError{Op: "read", Source: "reader", Err: fmt.Errorf("image exceeds %d bytes", MaxImageBytes)}
	}
	return NewImage(data, mimeType)
}

// ReadImageFile reads an image from disk. The MIME type comes from the file
// extension, falling back to content sniffing.
func ReadImageFile(path string) (Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return Image{}, &ImageError{Op: "read", Source: path, Err: err}
	}
	defer f.Close()

	img, err := ReadImage(f, mimeFromExtension(path))
	if err != nil {
		var imgErr *ImageError
		if errors.As(err, &imgErr) {
			imgErr.Source = path
		}
		return Image{}, err
	}
	return img, nil
}

// ParseDataURL builds an Image from a data URL such as those produced by a
// browser FileReader ("data:image/png;base64,....").
func ParseDataURL(s string) (Image, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return Image{}, &ImageError{Op: "decode", Source: "data-url", Err: fmt.Errorf("missing data: prefix")}
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return Image{}, &ImageError{Op: "decode", Source: "data-url", Err: fmt.Errorf("not a base64 data URL")}
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, &ImageError{Op: "decode", Source: "data-url", Err: err}
	}
	return NewImage(data, strings.TrimSuffix(meta, ";base64"))
}

// Bytes decodes the image data.
func (img Image) Bytes() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(img.Data)
	if err != nil {
		return nil, &ImageError{Op: "decode", Source: "base64", Err: err}
	}
	return data, nil
}

// DataURL renders the image as a data URL.
func (img Image) DataURL() string {
	return "data:" + img.MimeType + ";base64," + img.Data
}

// IsZero reports whether the image holds no data.
func (img Image) IsZero() bool {
	return img.Data == ""
}

// Extension returns a file extension matching the MIME type.
func (img Image) Extension() string {
	switch normalizeMIME(img.MimeType) {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	case "image/heic":
		return ".heic"
	case "image/heif":
		return ".heif"
	default:
		return ".png"
	}
}

func mimeFromExtension(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return ""
	}
}

func normalizeMIME(m string) string {
	m, _, _ = strings.Cut(m, ";")
	m = strings.ToLower(strings.TrimSpace(m))
	if m == "image/jpg" {
		return "image/jpeg"
	}
	return m
}
