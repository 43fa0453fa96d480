// Package raster provides pixel containers shared by the digitization stages.
package raster

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// Mask is a binary image. Bits are stored row-major.
// A Mask is not mutated after the stage that builds it returns, so it may be
// read from several goroutines.
type Mask struct {
	Width  int
	Height int
	Bits   []bool
}

// NewMask creates an all-false mask.
func NewMask(width, height int) *Mask {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Mask{Width: width, Height: height, Bits: make([]bool, width*height)}
}

// MaskFromBytes builds a mask from an 8-bit buffer where any non-zero byte is set.
func MaskFromBytes(width, height int, data []byte) *Mask {
	m := NewMask(width, height)
	n := min(len(data), len(m.Bits))
	for i := 0; i < n; i++ {
		m.Bits[i] = data[i] != 0
	}
	return m
}

// Bounds returns the mask rectangle anchored at the origin.
func (m *Mask) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.Width, m.Height)
}

// At reports whether (x, y) is set. Coordinates outside the mask are unset.
func (m *Mask) At(x, y int) bool {
	if m == nil || x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Bits[y*m.Width+x]
}

// Set sets or clears (x, y). Coordinates outside the mask are ignored.
func (m *Mask) Set(x, y int, v bool) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	m.Bits[y*m.Width+x] = v
}

// Near reports whether any set pixel lies within the square of the given
// radius around (x, y).
func (m *Mask) Near(x, y, radius int) bool {
	if m == nil {
		return false
	}
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if m.At(x+dx, y+dy) {
				return true
			}
		}
	}
	return false
}

// Count returns the number of set pixels.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}

// Window copies the part of the mask covered by r into a new mask anchored at
// the origin. Parts of r outside the mask read as unset.
func (m *Mask) Window(r image.Rectangle) *Mask {
	w := NewMask(r.Dx(), r.Dy())
	for y := 0; y < w.Height; y++ {
		for x := 0; x < w.Width; x++ {
			w.Bits[y*w.Width+x] = m.At(r.Min.X+x, r.Min.Y+y)
		}
	}
	return w
}

// ColumnCounts projects the mask onto the horizontal axis: the number of set
// pixels in each column.
func (m *Mask) ColumnCounts() []float64 {
	counts := make([]float64, m.Width)
	for y := 0; y < m.Height; y++ {
		row := m.Bits[y*m.Width : (y+1)*m.Width]
		for x, b := range row {
			if b {
				counts[x]++
			}
		}
	}
	return counts
}

// RowCounts projects the mask onto the vertical axis: the number of set
// pixels in each row.
func (m *Mask) RowCounts() []float64 {
	counts := make([]float64, m.Height)
	for y := 0; y < m.Height; y++ {
		row := m.Bits[y*m.Width : (y+1)*m.Width]
		for _, b := range row {
			if b {
				counts[y]++
			}
		}
	}
	return counts
}

// ToGray converts any image to an 8-bit greyscale image anchored at the origin.
func ToGray(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(gray, gray.Bounds(), img, b.Min, xdraw.Src)
	return gray
}

// ToRGBA converts any image to RGBA anchored at the origin.
func ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(rgba, rgba.Bounds(), img, b.Min, xdraw.Src)
	return rgba
}

// CropGray copies r out of gray into a new image anchored at the origin.
func CropGray(gray *image.Gray, r image.Rectangle) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, r.Dx(), r.Dy()))
	xdraw.Draw(out, out.Bounds(), gray, r.Min, xdraw.Src)
	return out
}

// CropRGBA copies r out of rgba into a new image anchored at the origin.
func CropRGBA(rgba *image.RGBA, r image.Rectangle) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	xdraw.Draw(out, out.Bounds(), rgba, r.Min, xdraw.Src)
	return out
}
