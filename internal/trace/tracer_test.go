package trace

import (
	"image"
	"image/color"
	"math"
	"testing"

	"ecg-digitizer/pkg/raster"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blankRegion(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	return img
}

// drawCurve inks every pixel within stroke/2 rows of f(x).
func drawCurve(img *image.Gray, f func(x int) float64, stroke float64) {
	b := img.Bounds()
	for x := b.Min.X; x < b.Max.X; x++ {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			if math.Abs(float64(y)-f(x)) <= stroke/2 {
				img.SetGray(x, y, color.Gray{Y: 20})
			}
		}
	}
}

func TestTraceRecoversSinusoid(t *testing.T) {
	const (
		width     = 270
		height    = 90
		amplitude = 25.0
		period    = 90.0
		stroke    = 3.0
	)
	f := func(x int) float64 {
		return 45 + amplitude*math.Sin(2*math.Pi*float64(x)/period)
	}
	region := blankRegion(width, height)
	drawCurve(region, f, stroke)

	res, err := Trace(region, nil, DefaultParams())
	require.NoError(t, err)
	require.Len(t, res.Rows, width)
	assert.False(t, res.Blank)

	for x, y := range res.Rows {
		assert.InDelta(t, f(x), y, stroke/2, "column %d", x)
	}
}

func TestTraceIgnoresMaskedGridLines(t *testing.T) {
	region := blankRegion(120, 60)
	mask := raster.NewMask(120, 60)

	// Grey horizontal grid lines, darker than the ink threshold.
	for _, gy := range []int{10, 20, 40, 50} {
		for x := 0; x < 120; x++ {
			region.SetGray(x, gy, color.Gray{Y: 150})
			region.SetGray(x, gy+1, color.Gray{Y: 150})
			mask.Set(x, gy+1, true)
		}
	}
	drawCurve(region, func(int) float64 { return 30 }, 4)

	res, err := Trace(region, mask, DefaultParams())
	require.NoError(t, err)
	for x, y := range res.Rows {
		assert.InDelta(t, 30, y, 0.5, "column %d", x)
	}
}

func TestTraceContinuityRejectsNoiseBlob(t *testing.T) {
	region := blankRegion(100, 80)
	drawCurve(region, func(x int) float64 { return 20 + 0.1*float64(x) }, 3)

	// A heavy blob far from the trace in a few columns.
	for x := 50; x < 55; x++ {
		for y := 60; y < 75; y++ {
			region.SetGray(x, y, color.Gray{Y: 0})
		}
	}

	res, err := Trace(region, nil, DefaultParams())
	require.NoError(t, err)
	for x := 50; x < 55; x++ {
		assert.InDelta(t, 20+0.1*float64(x), res.Rows[x], 1.5)
	}
}

func TestTraceInterpolatesGaps(t *testing.T) {
	region := blankRegion(60, 50)
	f := func(x int) float64 { return 10 + 0.5*float64(x) }
	drawCurve(region, f, 1)

	// Erase columns 20-29 and the last five columns.
	for x := 20; x < 30; x++ {
		for y := 0; y < 50; y++ {
			region.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	for x := 55; x < 60; x++ {
		for y := 0; y < 50; y++ {
			region.SetGray(x, y, color.Gray{Y: 255})
		}
	}

	res, err := Trace(region, nil, DefaultParams())
	require.NoError(t, err)

	for x := 20; x < 30; x++ {
		assert.False(t, res.Resolved[x])
		assert.InDelta(t, f(x), res.Rows[x], 0.75)
	}
	for x := 55; x < 60; x++ {
		assert.Equal(t, res.Rows[54], res.Rows[x])
	}
	assert.True(t, res.Resolved[0])
}

func TestTraceBlankRegionIsFlatAtCenter(t *testing.T) {
	res, err := Trace(blankRegion(40, 21), nil, DefaultParams())
	require.NoError(t, err)
	assert.True(t, res.Blank)
	for _, y := range res.Rows {
		assert.Equal(t, 10.0, y)
		assert.False(t, math.IsNaN(y))
	}
}

func TestTraceEmptyRegion(t *testing.T) {
	_, err := Trace(image.NewGray(image.Rect(0, 0, 0, 10)), nil, DefaultParams())
	assert.ErrorIs(t, err, ErrEmptyRegion)
}

func TestTraceCentroidIsWeighted(t *testing.T) {
	region := blankRegion(1, 10)
	region.SetGray(0, 4, color.Gray{Y: 0})
	region.SetGray(0, 5, color.Gray{Y: 155})

	res, err := Trace(region, nil, DefaultParams())
	require.NoError(t, err)
	// Darkness 255 at row 4 and 100 at row 5.
	assert.InDelta(t, (4*255.0+5*100.0)/355.0, res.Rows[0], 1e-9)
}
