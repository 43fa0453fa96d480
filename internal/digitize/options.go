package digitize

import (
	"runtime"

	"ecg-digitizer/internal/grid"
	"ecg-digitizer/internal/preview"
	"ecg-digitizer/internal/trace"
)

// Options configures a Pipeline.
type Options struct {
	Grid    grid.Params
	Trace   trace.Params
	Preview preview.Options

	// FallbackSpacing, when positive, is used as the grid box size (pixels)
	// on both axes if grid detection fails. Zero aborts instead.
	FallbackSpacing float64

	// ExpandCanvas grows the rotated page to hold all source pixels.
	ExpandCanvas bool

	// Workers bounds the number of leads processed concurrently.
	Workers int

	// RejectBlankLeads fails the request when a lead region holds no ink.
	RejectBlankLeads bool
}

// DefaultOptions returns default pipeline options.
func DefaultOptions() Options {
	return Options{
		Grid:    grid.DefaultParams(),
		Trace:   trace.DefaultParams(),
		Preview: preview.DefaultOptions(),
		Workers: runtime.NumCPU(),
	}
}

// WithFallbackSpacing returns a copy of opts that continues with spacing
// pixels per box when no grid is found.
func (o Options) WithFallbackSpacing(spacing float64) Options {
	o.FallbackSpacing = max(0, spacing)
	return o
}

// WithWorkers returns a copy of opts with a different worker count.
func (o Options) WithWorkers(n int) Options {
	o.Workers = max(1, n)
	return o
}

// WithRejectBlankLeads returns a copy of opts with blank-lead rejection set.
func (o Options) WithRejectBlankLeads(reject bool) Options {
	o.RejectBlankLeads = reject
	return o
}
