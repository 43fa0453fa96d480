// Package trace recovers the vertical position of an ECG ink trace in each
// pixel column of a lead region.
package trace

import (
	"errors"
	"image"
	"math"
	"sort"

	"ecg-digitizer/pkg/raster"

	"gonum.org/v1/gonum/stat"
)

// ErrEmptyRegion is returned when the region has no pixels to trace.
var ErrEmptyRegion = errors.New("empty trace region")

// Result holds one trace position per column of the region.
type Result struct {
	// Rows is the sub-pixel row of the trace in each column, measured from
	// the top of the region.
	Rows []float64
	// Resolved marks columns where ink was found; the others were
	// interpolated from their neighbours.
	Resolved []bool
	// Blank is set when no column contained ink. Rows then sit on the
	// region's vertical center.
	Blank bool
}

// run is a contiguous vertical stretch of ink pixels in one column.
type run struct {
	start, end int     // inclusive rows
	centroid   float64 // darkness-weighted mean row
	mass       float64 // summed darkness
}

// Trace scans region column by column. gridMask, if non-nil, has the same size
// as region and marks grid pixels that must never be taken for ink.
func Trace(region *image.Gray, gridMask *raster.Mask, params Params) (*Result, error) {
	b := region.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, ErrEmptyRegion
	}

	res := &Result{
		Rows:     make([]float64, w),
		Resolved: make([]bool, w),
	}

	column := make([]float64, h)
	sorted := make([]float64, h)
	prev := math.NaN()

	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			column[y] = float64(region.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
		}
		copy(sorted, column)
		sort.Float64s(sorted)
		background := stat.Quantile(0.5, stat.Empirical, sorted, nil)
		level := math.Min(background-params.InkContrast, float64(params.MaxInkLevel))

		runs := findRuns(column, background, level, func(y int) bool {
			return gridMask.Near(x, y, params.GridMaskRadius)
		})
		if len(runs) == 0 {
			continue
		}

		chosen := pickRun(runs, prev)
		res.Rows[x] = chosen.centroid
		res.Resolved[x] = true
		prev = chosen.centroid
	}

	if math.IsNaN(prev) {
		res.Blank = true
		center := float64(h-1) / 2
		for x := range res.Rows {
			res.Rows[x] = center
		}
		return res, nil
	}

	interpolateGaps(res.Rows, res.Resolved)
	return res, nil
}

// findRuns groups ink pixels of one column into contiguous runs. A pixel is ink
// when it is darker than level and not excluded.
func findRuns(column []float64, background, level float64, excluded func(y int) bool) []run {
	var runs []run
	var cur *run
	var weighted float64

	closeRun := func() {
		if cur != nil {
			cur.centroid = weighted / cur.mass
			runs = append(runs, *cur)
			cur = nil
		}
	}

	for y, v := range column {
		if v >= level || excluded(y) {
			closeRun()
			continue
		}
		darkness := background - v
		if cur == nil {
			cur = &run{start: y}
			weighted = 0
		}
		cur.end = y
		cur.mass += darkness
		weighted += darkness * float64(y)
	}
	closeRun()

	return runs
}

// pickRun selects the run closest to the previous column's position, or the
// heaviest run when there is no previous position.
func pickRun(runs []run, prev float64) run {
	best := runs[0]
	for _, r := range runs[1:] {
		if math.IsNaN(prev) {
			if r.mass > best.mass {
				best = r
			}
			continue
		}
		d, bd := math.Abs(r.centroid-prev), math.Abs(best.centroid-prev)
		if d < bd || (d == bd && r.mass > best.mass) {
			best = r
		}
	}
	return best
}

// interpolateGaps fills unresolved columns linearly between the nearest
// resolved neighbours. Leading and trailing gaps copy the nearest resolved
// value. At least one column must be resolved.
func interpolateGaps(rows []float64, resolved []bool) {
	last := -1
	for x := 0; x < len(rows); x++ {
		if !resolved[x] {
			continue
		}
		switch {
		case last == -1:
			for i := 0; i < x; i++ {
				rows[i] = rows[x]
			}
		case x-last > 1:
			span := float64(x - last)
			for i := last + 1; i < x; i++ {
				t := float64(i-last) / span
				rows[i] = rows[last] + t*(rows[x]-rows[last])
			}
		}
		last = x
	}
	for i := last + 1; i < len(rows); i++ {
		rows[i] = rows[last]
	}
}
