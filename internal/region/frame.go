// Package region rotates a page into the frame lead rectangles are drawn in
// and crops the pixel window of each lead.
package region

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	pageimage "ecg-digitizer/internal/image"
	"ecg-digitizer/pkg/colorutil"
	"ecg-digitizer/pkg/geometry"
	"ecg-digitizer/pkg/raster"

	"gocv.io/x/gocv"
)

// ErrInvalidRegion is returned for a rectangle with zero area or one that lies
// entirely outside the rotated page.
var ErrInvalidRegion = errors.New("invalid region")

// Frame is a page rotated into the coordinate frame lead rectangles refer to.
// Its images are read-only after NewFrame returns.
type Frame struct {
	Gray  *image.Gray
	Color *image.RGBA

	// Transform maps source pixel coordinates into the frame.
	Transform geometry.AffineTransform
	Degrees   float64
}

// NewFrame rotates img by degrees (positive = clockwise) about its center
// using bilinear interpolation. Uncovered areas are filled white. When expand
// is set the canvas grows to hold the whole rotated page; otherwise it keeps
// the source size.
func NewFrame(img image.Image, degrees float64, expand bool) (*Frame, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: empty page", ErrInvalidRegion)
	}
	if math.IsNaN(degrees) || math.IsInf(degrees, 0) {
		return nil, fmt.Errorf("rotation %v is not finite", degrees)
	}

	if math.Mod(degrees, 360) == 0 {
		return &Frame{
			Gray:      raster.ToGray(img),
			Color:     raster.ToRGBA(img),
			Transform: geometry.Identity(),
		}, nil
	}

	outW, outH := w, h
	if expand {
		outW, outH = RotatedSize(w, h, degrees)
	}
	center := geometry.Point2D{X: float64(w-1) / 2, Y: float64(h-1) / 2}
	newCenter := geometry.Point2D{X: float64(outW-1) / 2, Y: float64(outH-1) / 2}
	transform := geometry.RotationAbout(center, newCenter, degrees)

	src, err := pageimage.ToMat(img)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	rotated := WarpAffine(src, transform, outW, outH, colorutil.White)
	defer rotated.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(rotated, &gray, gocv.ColorBGRToGray)

	grayImg, err := pageimage.MatToGray(gray)
	if err != nil {
		return nil, err
	}
	colorImg, err := pageimage.MatToRGBA(rotated)
	if err != nil {
		return nil, err
	}

	return &Frame{
		Gray:      grayImg,
		Color:     colorImg,
		Transform: transform,
		Degrees:   degrees,
	}, nil
}

// Bounds returns the frame rectangle.
func (f *Frame) Bounds() image.Rectangle {
	return f.Gray.Bounds()
}

// Window is the pixel data of one lead region.
type Window struct {
	// Bounds is the clipped rectangle in frame coordinates.
	Bounds image.Rectangle
	// Source is the bounding box of Bounds on the unrotated page.
	Source geometry.Rect
	Gray   *image.Gray
	Color  *image.RGBA
}

// Crop clips rect to the frame and copies out the covered pixels.
func (f *Frame) Crop(rect geometry.RectInt) (*Window, error) {
	if rect.Empty() {
		return nil, fmt.Errorf("%w: %dx%d has no area", ErrInvalidRegion, rect.Width, rect.Height)
	}
	clipped := rect.Clip(f.Bounds())
	if clipped.Empty() {
		return nil, fmt.Errorf("%w: %v lies outside the %dx%d page",
			ErrInvalidRegion, rect.Rectangle(), f.Bounds().Dx(), f.Bounds().Dy())
	}

	return &Window{
		Bounds: clipped,
		Source: f.SourceRect(clipped),
		Gray:   raster.CropGray(f.Gray, clipped),
		Color:  raster.CropRGBA(f.Color, clipped),
	}, nil
}

// SourceRect maps a frame rectangle back onto the unrotated page and returns
// its bounding box.
func (f *Frame) SourceRect(r image.Rectangle) geometry.Rect {
	inv, ok := f.Transform.Inverse()
	if !ok {
		return geometry.FromRectangle(r).ToFloat()
	}
	return inv.ApplyRect(geometry.FromRectangle(r).ToFloat())
}

// Extract rotates img and crops rect out of the rotated page in one step.
func Extract(img image.Image, degrees float64, rect geometry.RectInt, expand bool) (*Window, error) {
	frame, err := NewFrame(img, degrees, expand)
	if err != nil {
		return nil, err
	}
	return frame.Crop(rect)
}

// RotatedSize returns the canvas size that holds a w x h image rotated by degrees.
func RotatedSize(w, h int, degrees float64) (int, int) {
	box := geometry.Rotation(degrees * math.Pi / 180).ApplyRect(geometry.Rect{Width: float64(w), Height: float64(h)})
	return int(math.Ceil(box.Width - 1e-9)), int(math.Ceil(box.Height - 1e-9))
}

// WarpAffine applies an affine transform to an image with bilinear
// interpolation, filling uncovered pixels with border.
func WarpAffine(src gocv.Mat, transform geometry.AffineTransform, width, height int, border color.RGBA) gocv.Mat {
	transformMat := gocv.NewMatWithSize(2, 3, gocv.MatTypeCV64F)
	transformMat.SetDoubleAt(0, 0, transform.A)
	transformMat.SetDoubleAt(0, 1, transform.B)
	transformMat.SetDoubleAt(0, 2, transform.TX)
	transformMat.SetDoubleAt(1, 0, transform.C)
	transformMat.SetDoubleAt(1, 1, transform.D)
	transformMat.SetDoubleAt(1, 2, transform.TY)
	defer transformMat.Close()

	dst := gocv.NewMat()
	gocv.WarpAffineWithParams(src, &dst, transformMat, image.Point{width, height},
		gocv.InterpolationLinear, gocv.BorderConstant, border)

	return dst
}
