// Package calibrate converts pixel-space trace positions into physical
// time and voltage samples.
package calibrate

import (
	"errors"
	"fmt"
	"math"

	"ecg-digitizer/internal/lead"
)

var (
	// ErrUncalibrated is returned when no grid spacing is available, so
	// pixels cannot be turned into seconds and millivolts.
	ErrUncalibrated = errors.New("no grid calibration available")
	// ErrInvalidScale is returned for non-positive scale factors.
	ErrInvalidScale = errors.New("invalid calibration scale")
)

// Spacing is the size of one grid box in pixels.
type Spacing struct {
	Horizontal float64 // box width
	Vertical   float64 // box height
}

// Sample is one calibrated point of a lead signal.
type Sample struct {
	Time    float64 `json:"time"`    // seconds
	Voltage float64 `json:"voltage"` // millivolts
}

// Signal is the calibrated output for one lead.
type Signal struct {
	Lead    lead.ID  `json:"lead"`
	Samples []Sample `json:"samples"`
}

// Calibrator maps trace rows to samples for one page.
type Calibrator struct {
	spacing   Spacing
	timeScale float64
	voltScale float64
}

// New returns a Calibrator for a detected grid spacing and user scales
// (seconds per box, millivolts per box). A nil spacing yields ErrUncalibrated.
func New(spacing *Spacing, timeScale, voltScale float64) (*Calibrator, error) {
	if spacing == nil {
		return nil, ErrUncalibrated
	}
	if !(spacing.Horizontal > 0) || !(spacing.Vertical > 0) {
		return nil, fmt.Errorf("%w: grid spacing %.3fx%.3f px", ErrUncalibrated, spacing.Horizontal, spacing.Vertical)
	}
	if !(timeScale > 0) || !(voltScale > 0) || math.IsInf(timeScale, 0) || math.IsInf(voltScale, 0) {
		return nil, fmt.Errorf("%w: time %v s/box, voltage %v mV/box", ErrInvalidScale, timeScale, voltScale)
	}
	return &Calibrator{spacing: *spacing, timeScale: timeScale, voltScale: voltScale}, nil
}

// Time returns the time of pixel column i.
func (c *Calibrator) Time(startTime float64, i int) float64 {
	return startTime + float64(i)/c.spacing.Horizontal*c.timeScale
}

// Voltage returns the voltage of pixel row y relative to baseline. Image
// rows grow downward, voltage grows upward.
func (c *Calibrator) Voltage(baseline, y float64) float64 {
	return (baseline - y) / c.spacing.Vertical * c.voltScale
}

// Signal calibrates one trace. rows holds one position per pixel column.
func (c *Calibrator) Signal(id lead.ID, rows []float64, baseline, startTime float64) Signal {
	samples := make([]Sample, len(rows))
	for i, y := range rows {
		samples[i] = Sample{
			Time:    c.Time(startTime, i),
			Voltage: c.Voltage(baseline, y),
		}
	}
	return Signal{Lead: id, Samples: samples}
}

// CenterBaseline returns the zero-voltage row of a region height pixels tall
// when no baseline is configured.
func CenterBaseline(height int) float64 {
	return float64(height-1) / 2
}

// Baseline resolves the zero-voltage row for a lead region.
func Baseline(spec lead.Spec, height int) float64 {
	if spec.Baseline != nil {
		return *spec.Baseline
	}
	return CenterBaseline(height)
}
