// Package image provides source image loading for the digitizer.
package image

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrImageLoad is returned when a source image cannot be read or decoded.
var ErrImageLoad = errors.New("image load failed")

// Source is a decoded page image. It is never modified after loading.
type Source struct {
	Path   string      // Original file path, empty for in-memory sources
	Format string      // Decoder name reported by image.Decode, or "pdf"
	Image  image.Image // Decoded pixels, origin top-left
}

// Load reads and decodes the image at path. A PDF is rendered from its first
// page at PDFDPI.
func Load(path string) (*Source, error) {
	if !IsSupportedFormat(path) {
		return nil, fmt.Errorf("%w: unsupported format %q", ErrImageLoad, filepath.Ext(path))
	}
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return loadPDF(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrImageLoad, err)
	}

	src, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	src.Path = path
	return src, nil
}

// Decode decodes an image from r.
func Decode(r io.Reader) (*Source, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode image: %w", ErrImageLoad, err)
	}

	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: empty image %dx%d", ErrImageLoad, b.Dx(), b.Dy())
	}

	return &Source{Format: format, Image: img}, nil
}

// Width returns the image width in pixels.
func (s *Source) Width() int {
	if s.Image == nil {
		return 0
	}
	return s.Image.Bounds().Dx()
}

// Height returns the image height in pixels.
func (s *Source) Height() int {
	if s.Image == nil {
		return 0
	}
	return s.Image.Bounds().Dy()
}

// SupportedFormats returns the list of supported image file extensions.
func SupportedFormats() []string {
	return []string{".png", ".jpg", ".jpeg", ".tiff", ".tif", ".bmp", ".webp", ".pdf"}
}

// IsSupportedFormat checks if the given path has a supported image format.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}
