package image

import (
	"fmt"
	"image"

	"ecg-digitizer/pkg/raster"

	"gocv.io/x/gocv"
)

// ToMat converts a Go image to a gocv.Mat in BGR format.
func ToMat(img image.Image) (gocv.Mat, error) {
	rgba := raster.ToRGBA(img)
	w, h := rgba.Rect.Dx(), rgba.Rect.Dy()
	if w == 0 || h == 0 {
		return gocv.NewMat(), fmt.Errorf("%w: empty image", ErrImageLoad)
	}

	data := make([]byte, 0, w*h*3)
	for y := 0; y < h; y++ {
		row := rgba.Pix[y*rgba.Stride : y*rgba.Stride+w*4]
		for x := 0; x < w; x++ {
			px := row[x*4 : x*4+4]
			data = append(data, px[2], px[1], px[0])
		}
	}

	return gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC3, data)
}

// GrayToMat converts a greyscale image to a single channel gocv.Mat.
func GrayToMat(gray *image.Gray) (gocv.Mat, error) {
	w, h := gray.Rect.Dx(), gray.Rect.Dy()
	data := make([]byte, 0, w*h)
	for y := 0; y < h; y++ {
		data = append(data, gray.Pix[y*gray.Stride:y*gray.Stride+w]...)
	}
	return gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8U, data)
}

// MatToGray copies a single channel 8-bit Mat into an image.Gray.
func MatToGray(m gocv.Mat) (*image.Gray, error) {
	if m.Channels() != 1 {
		return nil, fmt.Errorf("expected 1 channel, got %d", m.Channels())
	}
	w, h := m.Cols(), m.Rows()
	gray := image.NewGray(image.Rect(0, 0, w, h))
	copy(gray.Pix, m.ToBytes())
	return gray, nil
}

// MatToRGBA copies a 3 channel BGR Mat into an image.RGBA.
func MatToRGBA(m gocv.Mat) (*image.RGBA, error) {
	if m.Channels() != 3 {
		return nil, fmt.Errorf("expected 3 channels, got %d", m.Channels())
	}
	w, h := m.Cols(), m.Rows()
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	data := m.ToBytes()
	for i := 0; i < w*h; i++ {
		rgba.Pix[i*4+0] = data[i*3+2]
		rgba.Pix[i*4+1] = data[i*3+1]
		rgba.Pix[i*4+2] = data[i*3+0]
		rgba.Pix[i*4+3] = 255
	}
	return rgba, nil
}

// MaskFromMat converts a single channel 8-bit Mat into a binary mask.
func MaskFromMat(m gocv.Mat) *raster.Mask {
	return raster.MaskFromBytes(m.Cols(), m.Rows(), m.ToBytes())
}
