// Package preview renders the traced signal over its lead region so a user
// can confirm the extraction before exporting it.
package preview

import (
	"image"
	"image/color"
	"math"

	"ecg-digitizer/internal/lead"
	"ecg-digitizer/pkg/colorutil"
	"ecg-digitizer/pkg/raster"

	xdraw "golang.org/x/image/draw"
)

// Options configures how a preview is drawn.
type Options struct {
	TraceColor color.RGBA
	LineWidth  int // trace thickness in pixels

	// Baseline, when set, draws the zero-voltage row.
	Baseline      *float64
	BaselineColor color.RGBA

	// GridMask tints detected grid pixels so the user can see what the
	// tracer ignored. It must have the same size as the region.
	GridMask *raster.Mask

	// MaxWidth downscales wider previews, keeping the aspect ratio.
	// 0 keeps the native size.
	MaxWidth int
}

// DefaultOptions returns default rendering options.
func DefaultOptions() Options {
	return Options{
		TraceColor:    colorutil.Red,
		LineWidth:     1,
		BaselineColor: colorutil.Blue,
	}
}

// WithMaxWidth returns a copy of opts with a different maximum width.
func (o Options) WithMaxWidth(width int) Options {
	o.MaxWidth = max(0, width)
	return o
}

// WithLineWidth returns a copy of opts with a different trace thickness.
func (o Options) WithLineWidth(width int) Options {
	o.LineWidth = max(1, width)
	return o
}

// Preview is the rendered confirmation image of one lead.
type Preview struct {
	Lead  lead.ID
	Image *image.RGBA
}

// Render draws rows (one trace position per column) over a copy of region.
func Render(region *image.RGBA, rows []float64, opts Options) *image.RGBA {
	img := raster.ToRGBA(region)
	b := img.Bounds()

	if opts.GridMask != nil {
		tint(img, opts.GridMask, colorutil.GridPink)
	}
	if opts.Baseline != nil {
		y := int(math.Round(*opts.Baseline))
		drawDashedRow(img, y, 6, 4, opts.BaselineColor)
	}

	switch len(rows) {
	case 0:
	case 1:
		fillDot(img, 0, rows[0], opts.LineWidth, opts.TraceColor)
	default:
		for x := 1; x < len(rows) && x < b.Dx(); x++ {
			drawThickLine(img, float64(x-1), rows[x-1], float64(x), rows[x], opts.LineWidth, opts.TraceColor)
		}
	}

	if opts.MaxWidth > 0 && b.Dx() > opts.MaxWidth {
		return downscale(img, opts.MaxWidth)
	}
	return img
}

// downscale resizes img to width pixels wide with Catmull-Rom resampling.
func downscale(img *image.RGBA, width int) *image.RGBA {
	b := img.Bounds()
	height := max(1, int(math.Round(float64(b.Dy())*float64(width)/float64(b.Dx()))))
	out := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(out, out.Bounds(), img, b, xdraw.Src, nil)
	return out
}

// tint blends c into every masked pixel.
func tint(img *image.RGBA, mask *raster.Mask, c color.RGBA) {
	b := img.Bounds()
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			if !mask.At(x, y) {
				continue
			}
			p := img.RGBAAt(b.Min.X+x, b.Min.Y+y)
			img.SetRGBA(b.Min.X+x, b.Min.Y+y, color.RGBA{
				R: uint8((uint16(p.R) + uint16(c.R)) / 2),
				G: uint8((uint16(p.G) + uint16(c.G)) / 2),
				B: uint8((uint16(p.B) + uint16(c.B)) / 2),
				A: 255,
			})
		}
	}
}

// drawDashedRow draws a horizontal dashed line across the image at row y.
func drawDashedRow(img *image.RGBA, y, dash, gap int, c color.RGBA) {
	b := img.Bounds()
	if y < 0 || y >= b.Dy() {
		return
	}
	for x := 0; x < b.Dx(); x++ {
		if x%(dash+gap) < dash {
			img.SetRGBA(b.Min.X+x, b.Min.Y+y, c)
		}
	}
}

// fillDot draws a square of the given thickness centered on (x, y).
func fillDot(img *image.RGBA, x, y float64, thickness int, c color.RGBA) {
	half := thickness / 2
	cx, cy := int(math.Round(x)), int(math.Round(y))
	for dy := -half; dy <= half; dy++ {
		for dx := -half; dx <= half; dx++ {
			setClipped(img, cx+dx, cy+dy, c)
		}
	}
}

// drawThickLine draws a line with given thickness.
func drawThickLine(img *image.RGBA, x1, y1, x2, y2 float64, thickness int, c color.RGBA) {
	dx := x2 - x1
	dy := y2 - y1
	length := math.Sqrt(dx*dx + dy*dy)
	if length == 0 {
		fillDot(img, x1, y1, thickness, c)
		return
	}

	// Perpendicular unit vector
	px := -dy / length
	py := dx / length

	if thickness <= 1 {
		drawLine(img, round(x1), round(y1), round(x2), round(y2), c)
		return
	}

	halfThick := float64(thickness-1) / 2
	for t := -halfThick; t <= halfThick; t += 0.5 {
		drawLine(img, round(x1+px*t), round(y1+py*t), round(x2+px*t), round(y2+py*t), c)
	}
}

// drawLine draws a line using Bresenham's algorithm. Coordinates are relative
// to the image origin.
func drawLine(img *image.RGBA, x1, y1, x2, y2 int, c color.RGBA) {
	dx := abs(x2 - x1)
	dy := abs(y2 - y1)

	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}

	err := dx - dy
	for {
		setClipped(img, x1, y1, c)
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func setClipped(img *image.RGBA, x, y int, c color.RGBA) {
	b := img.Bounds()
	x, y = b.Min.X+x, b.Min.Y+y
	if x >= b.Min.X && x < b.Max.X && y >= b.Min.Y && y < b.Max.Y {
		img.SetRGBA(x, y, c)
	}
}

func round(v float64) int {
	return int(math.Round(v))
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
