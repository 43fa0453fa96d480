// Package grid isolates the printed calibration grid of an ECG page and
// estimates its spacing in pixels.
package grid

import (
	"errors"
	"fmt"
	"image"

	pageimage "ecg-digitizer/internal/image"
	"ecg-digitizer/pkg/raster"

	"gocv.io/x/gocv"
)

// ErrGridNotFound is returned when no periodic grid structure is present.
var ErrGridNotFound = errors.New("grid not found")

// Grid is the detected grid geometry. It is read-only once returned and may
// be shared between lead workers.
type Grid struct {
	// HorizontalSpacing is the pixel distance between vertical grid lines,
	// i.e. the width of one grid box.
	HorizontalSpacing float64
	// VerticalSpacing is the pixel distance between horizontal grid lines,
	// i.e. the height of one grid box.
	VerticalSpacing float64
	// Mask marks grid pixels in the frame the grid was detected in.
	Mask *raster.Mask
}

// Detect isolates the grid in a greyscale page and estimates its spacing.
func Detect(gray *image.Gray, params Params) (*Grid, error) {
	src, err := pageimage.GrayToMat(gray)
	if err != nil {
		return nil, fmt.Errorf("grid: %w", err)
	}
	defer src.Close()

	maskMat := ExtractMask(src, params)
	defer maskMat.Close()

	mask := pageimage.MaskFromMat(maskMat)
	return FromMask(mask, params)
}

// FromMask estimates grid spacing from an already isolated grid mask.
func FromMask(mask *raster.Mask, params Params) (*Grid, error) {
	if mask.Count() == 0 {
		return nil, fmt.Errorf("%w: grid mask is empty", ErrGridNotFound)
	}

	h, ok := EstimateSpacing(mask.ColumnCounts(), params)
	if !ok {
		return nil, fmt.Errorf("%w: no periodic vertical lines", ErrGridNotFound)
	}
	v, ok := EstimateSpacing(mask.RowCounts(), params)
	if !ok {
		return nil, fmt.Errorf("%w: no periodic horizontal lines", ErrGridNotFound)
	}

	return &Grid{HorizontalSpacing: h, VerticalSpacing: v, Mask: mask}, nil
}

// ExtractMask returns a binary Mat (255 = grid) of the thin printed lines in
// a greyscale page. Ink strokes are thicker than the grid, so they survive an
// opening; subtracting the opened image leaves mostly grid.
func ExtractMask(gray gocv.Mat, params Params) gocv.Mat {
	if gray.Empty() {
		return gocv.NewMat()
	}

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(gray, &binary, float32(params.BinaryThreshold), 255, gocv.ThresholdBinaryInv)

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(params.KernelSize, params.KernelSize))
	defer kernel.Close()

	opened := binary.Clone()
	defer opened.Close()
	for i := 0; i < params.OpenIterations; i++ {
		gocv.MorphologyEx(opened, &opened, gocv.MorphOpen, kernel)
	}

	subtracted := gocv.NewMat()
	defer subtracted.Close()
	gocv.Subtract(binary, opened, &subtracted)

	// Small cross removes isolated pixels left along stroke edges.
	cross := gocv.GetStructuringElement(gocv.MorphCross, image.Pt(2, 2))
	defer cross.Close()

	final := gocv.NewMat()
	gocv.Erode(subtracted, &final, cross)

	return final
}
