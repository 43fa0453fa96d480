package raster

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskProjections(t *testing.T) {
	m := NewMask(4, 3)
	m.Set(1, 0, true)
	m.Set(1, 1, true)
	m.Set(3, 2, true)
	m.Set(9, 9, true) // ignored

	assert.Equal(t, []float64{0, 2, 0, 1}, m.ColumnCounts())
	assert.Equal(t, []float64{1, 1, 1}, m.RowCounts())
	assert.Equal(t, 3, m.Count())
}

func TestMaskWindowOutsideReadsUnset(t *testing.T) {
	m := NewMask(5, 5)
	m.Set(4, 4, true)

	w := m.Window(image.Rect(3, 3, 8, 8))
	require.Equal(t, 5, w.Width)
	require.Equal(t, 5, w.Height)
	assert.True(t, w.At(1, 1))
	assert.Equal(t, 1, w.Count())
}

func TestMaskNear(t *testing.T) {
	m := NewMask(10, 10)
	m.Set(5, 5, true)

	assert.True(t, m.Near(5, 5, 0))
	assert.True(t, m.Near(6, 4, 1))
	assert.False(t, m.Near(7, 5, 1))

	var nilMask *Mask
	assert.False(t, nilMask.Near(0, 0, 3))
	assert.False(t, nilMask.At(0, 0))
}

func TestMaskFromBytes(t *testing.T) {
	m := MaskFromBytes(3, 1, []byte{0, 255, 1})
	assert.Equal(t, []bool{false, true, true}, m.Bits)
}

func TestCropGrayAnchorsAtOrigin(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 10, 10))
	src.SetGray(6, 7, color.Gray{Y: 42})

	out := CropGray(src, image.Rect(5, 5, 8, 9))
	assert.Equal(t, image.Rect(0, 0, 3, 4), out.Bounds())
	assert.Equal(t, uint8(42), out.GrayAt(1, 2).Y)
}
