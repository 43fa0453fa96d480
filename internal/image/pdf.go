package image

import (
	"fmt"

	"github.com/gen2brain/go-fitz"
)

// PDFDPI is the resolution PDF pages are rendered at.
const PDFDPI = 200

// loadPDF renders the first page of the PDF at path. Later pages are ignored.
func loadPDF(path string) (*Source, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open pdf: %w", ErrImageLoad, err)
	}
	defer doc.Close()

	if doc.NumPage() < 1 {
		return nil, fmt.Errorf("%w: pdf has no pages", ErrImageLoad)
	}

	img, err := doc.ImageDPI(0, PDFDPI)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to render pdf page: %w", ErrImageLoad, err)
	}

	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: empty pdf page %dx%d", ErrImageLoad, b.Dx(), b.Dy())
	}
	return &Source{Path: path, Format: "pdf", Image: img}, nil
}
