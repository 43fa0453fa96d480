package grid

// Params configures grid isolation and spacing estimation.
type Params struct {
	// Pixels at or below this grey level count as printed (grid or ink).
	BinaryThreshold uint8

	// Opening removes structures thinner than KernelSize; it runs
	// OpenIterations times.
	KernelSize     int
	OpenIterations int

	// Spacing search range in pixels.
	MinSpacing int
	MaxSpacing int

	// Normalized autocorrelation a lag must reach to count as periodic.
	MinCorrelation float64
}

// DefaultParams returns parameters tuned for 150-300 dpi scans of standard
// ECG paper.
func DefaultParams() Params {
	return Params{
		BinaryThreshold: 240,
		KernelSize:      3,
		OpenIterations:  2,
		MinSpacing:      4,
		MaxSpacing:      100,
		MinCorrelation:  0.3,
	}
}

// WithSpacingRange returns a copy of params searching [minPx, maxPx].
func (p Params) WithSpacingRange(minPx, maxPx int) Params {
	p.MinSpacing = max(2, minPx)
	p.MaxSpacing = max(p.MinSpacing, maxPx)
	return p
}

// WithThreshold returns a copy of params with a different binarization level.
func (p Params) WithThreshold(level uint8) Params {
	p.BinaryThreshold = level
	return p
}
