package trace

// Params configures ink detection.
type Params struct {
	// InkContrast is how much darker than the column's paper background
	// (its median grey level) a pixel must be to count as ink.
	InkContrast float64
	// MaxInkLevel caps the ink threshold so faint paper texture in a dark
	// scan is not taken for ink.
	MaxInkLevel uint8
	// GridMaskRadius excludes pixels within this many pixels of a grid-mask
	// pixel. The mask is eroded, so it is thinner than the printed line.
	GridMaskRadius int
}

// DefaultParams returns default tracing parameters.
func DefaultParams() Params {
	return Params{
		InkContrast:    60,
		MaxInkLevel:    200,
		GridMaskRadius: 1,
	}
}

// WithInkContrast returns a copy of params with a different ink contrast.
func (p Params) WithInkContrast(contrast float64) Params {
	p.InkContrast = contrast
	return p
}

// WithGridMaskRadius returns a copy of params with a different exclusion radius.
func (p Params) WithGridMaskRadius(radius int) Params {
	p.GridMaskRadius = max(0, radius)
	return p
}
