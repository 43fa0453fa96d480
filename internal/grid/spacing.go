package grid

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// fundamentalRatio is how close (relative to the strongest lag) a shorter lag
// must correlate to be taken as the fundamental period rather than a harmonic.
const fundamentalRatio = 0.8

// EstimateSpacing finds the dominant period of a mask projection.
// The period is the median distance between projection peaks, confirmed by
// the autocorrelation at that lag. When the peaks are too few or disagree
// with the autocorrelation, the strongest short autocorrelation lag is used.
// It returns false when the projection has no periodic structure in the
// configured range.
func EstimateSpacing(projection []float64, params Params) (float64, bool) {
	n := len(projection)
	maxLag := min(params.MaxSpacing, n/2)
	if params.MinSpacing < 1 || maxLag <= params.MinSpacing {
		return 0, false
	}

	ac := autocorrelation(projection)
	if ac == nil {
		return 0, false
	}

	if d := peakDistances(projection, params.MinSpacing, maxLag); len(d) >= 2 {
		sort.Float64s(d)
		median := stat.Quantile(0.5, stat.Empirical, d, nil)
		if correlationNear(ac, median) >= params.MinCorrelation {
			return median, true
		}
	}

	lag, ok := strongestLag(ac, params.MinSpacing, maxLag, params.MinCorrelation)
	if !ok {
		return 0, false
	}
	return refineLag(ac, lag), true
}

// autocorrelation returns the normalized autocorrelation of the mean-removed
// sequence for lags 0..len(x)-1, computed through a zero-padded FFT.
// It returns nil for a constant sequence.
func autocorrelation(x []float64) []float64 {
	n := len(x)
	if n < 3 {
		return nil
	}

	size := 1
	for size < 2*n {
		size <<= 1
	}
	padded := make([]float64, size)
	copy(padded, x)
	floats.AddConst(-stat.Mean(x, nil), padded[:n])

	fft := fourier.NewFFT(size)
	coeff := fft.Coefficients(nil, padded)
	for i, c := range coeff {
		coeff[i] = complex(real(c)*real(c)+imag(c)*imag(c), 0)
	}
	seq := fft.Sequence(nil, coeff)

	if seq[0] <= 1e-9 {
		return nil
	}
	ac := make([]float64, n)
	for k := range ac {
		ac[k] = seq[k] / seq[0]
	}
	return ac
}

// correlationNear returns the highest autocorrelation within one pixel of lag.
func correlationNear(ac []float64, lag float64) float64 {
	k := int(math.Round(lag))
	best := math.Inf(-1)
	for i := k - 1; i <= k+1; i++ {
		if i > 0 && i < len(ac) {
			best = math.Max(best, ac[i])
		}
	}
	return best
}

// strongestLag picks the fundamental among autocorrelation local maxima in
// [minLag, maxLag]: the shortest one correlating within fundamentalRatio of
// the best, so harmonics at multiples of the period are skipped.
func strongestLag(ac []float64, minLag, maxLag int, minCorr float64) (int, bool) {
	var candidates []int
	best := 0.0
	for k := minLag; k <= maxLag && k+1 < len(ac); k++ {
		if ac[k] < minCorr {
			continue
		}
		if ac[k] > ac[k-1] && ac[k] >= ac[k+1] {
			candidates = append(candidates, k)
			best = math.Max(best, ac[k])
		}
	}
	if len(candidates) == 0 {
		return 0, false
	}
	for _, k := range candidates {
		if ac[k] >= fundamentalRatio*best {
			return k, true
		}
	}
	return candidates[0], true
}

// peakDistances returns distances between consecutive strong local maxima of
// the projection, keeping those within [minDist, maxDist].
func peakDistances(x []float64, minDist, maxDist int) []float64 {
	mean, std := stat.MeanStdDev(x, nil)
	level := mean + std

	var peaks []int
	for i := 1; i < len(x)-1; i++ {
		if x[i] < level || x[i] < x[i-1] || x[i] <= x[i+1] {
			continue
		}
		if len(peaks) > 0 && i-peaks[len(peaks)-1] < minDist {
			if x[i] > x[peaks[len(peaks)-1]] {
				peaks[len(peaks)-1] = i
			}
			continue
		}
		peaks = append(peaks, i)
	}

	var d []float64
	for i := 1; i < len(peaks); i++ {
		dist := peaks[i] - peaks[i-1]
		if dist >= minDist && dist <= maxDist {
			d = append(d, float64(dist))
		}
	}
	return d
}

// refineLag fits a parabola through the autocorrelation peak and its
// neighbours for a sub-pixel period.
func refineLag(ac []float64, k int) float64 {
	if k <= 0 || k >= len(ac)-1 {
		return float64(k)
	}
	a, b, c := ac[k-1], ac[k], ac[k+1]
	denom := a - 2*b + c
	if math.Abs(denom) < 1e-12 {
		return float64(k)
	}
	offset := 0.5 * (a - c) / denom
	if math.Abs(offset) > 0.5 {
		return float64(k)
	}
	return float64(k) + offset
}
