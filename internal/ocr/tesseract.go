// Package ocr reads the lead names printed on an ECG page so regions can be
// labelled without typing them in.
package ocr

import (
	"fmt"
	"image"
	"strings"

	pageimage "ecg-digitizer/internal/image"
	"ecg-digitizer/pkg/geometry"

	"github.com/otiai10/gosseract/v2"
	"gocv.io/x/gocv"
)

// LabelChars is the character set of the twelve lead names, plus the glyphs
// Tesseract commonly confuses with I.
const LabelChars = "IVaRLFl123456|"

// Reader recognizes lead labels using Tesseract. It is not safe for
// concurrent use.
type Reader struct {
	client *gosseract.Client
}

// NewReader creates a label reader.
func NewReader() (*Reader, error) {
	client := gosseract.NewClient()

	if err := client.SetLanguage("eng"); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}

	// Lead names are not dictionary words.
	_ = client.SetVariable("load_system_dawg", "false")
	_ = client.SetVariable("load_freq_dawg", "false")

	return &Reader{client: client}, nil
}

// Close releases OCR resources.
func (r *Reader) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// ReadText performs OCR on bounds of page and returns the cleaned text. To read
// several regions of one page, use Suggest, which converts the page once.
func (r *Reader) ReadText(page image.Image, bounds geometry.RectInt) (string, error) {
	if _, err := matWindow(page.Bounds(), bounds); err != nil {
		return "", err
	}

	mat, err := pageimage.ToMat(page)
	if err != nil {
		return "", err
	}
	defer mat.Close()

	return r.readRegion(mat, page.Bounds(), bounds)
}

// matWindow clips bounds to the page and returns it in the coordinates of a
// Mat converted from that page.
func matWindow(page image.Rectangle, bounds geometry.RectInt) (image.Rectangle, error) {
	clipped := bounds.Clip(page)
	if clipped.Empty() {
		return image.Rectangle{}, fmt.Errorf("invalid label bounds %v", bounds.Rectangle())
	}
	return clipped.Sub(page.Min), nil
}

// readRegion recognizes bounds of a page already converted to mat.
func (r *Reader) readRegion(mat gocv.Mat, page image.Rectangle, bounds geometry.RectInt) (string, error) {
	window, err := matWindow(page, bounds)
	if err != nil {
		return "", err
	}
	region := mat.Region(window)
	defer region.Close()

	processed := preprocessForOCR(region)
	defer processed.Close()

	buf, err := gocv.IMEncode(gocv.PNGFileExt, processed)
	if err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	defer buf.Close()

	// A label is a single short word.
	if err := r.client.SetPageSegMode(gosseract.PSM_SINGLE_WORD); err != nil {
		return "", fmt.Errorf("failed to set PSM: %w", err)
	}
	if err := r.client.SetWhitelist(LabelChars); err != nil {
		return "", fmt.Errorf("failed to set whitelist: %w", err)
	}
	if err := r.client.SetImageFromBytes(buf.GetBytes()); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := r.client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return strings.Join(strings.Fields(text), " "), nil
}

// preprocessForOCR upscales a label crop and binarizes it to dark text on a
// light background.
func preprocessForOCR(region gocv.Mat) gocv.Mat {
	h, w := region.Rows(), region.Cols()

	// Tesseract wants glyphs at least ~30 px tall; labels are often 10.
	scaled := gocv.NewMat()
	if minDim := min(h, w); minDim < 100 {
		scale := 100.0 / float64(minDim)
		gocv.Resize(region, &scaled, image.Point{}, scale, scale, gocv.InterpolationCubic)
	} else {
		region.CopyTo(&scaled)
	}
	defer scaled.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(scaled, &gray, gocv.ColorBGRToGray)

	binary := gocv.NewMat()
	gocv.Threshold(gray, &binary, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)

	// Light text on a dark print: invert.
	if float64(gocv.CountNonZero(binary)) < 0.5*float64(binary.Rows()*binary.Cols()) {
		gocv.BitwiseNot(binary, &binary)
	}

	result := gocv.NewMat()
	gocv.CvtColor(binary, &result, gocv.ColorGrayToBGR)
	binary.Close()
	return result
}
