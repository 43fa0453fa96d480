// Package lead defines the twelve standard ECG leads and the immutable
// request that tells the pipeline where each lead is printed.
package lead

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"ecg-digitizer/pkg/geometry"
)

var (
	// ErrUnknownLead is returned when a name does not match any standard lead.
	ErrUnknownLead = errors.New("unknown lead")
	// ErrInvalidRequest is returned when a digitization request fails validation.
	ErrInvalidRequest = errors.New("invalid digitization request")
)

// ID identifies one of the 12 standard ECG leads.
type ID int

const (
	I ID = iota
	II
	III
	AVR
	AVL
	AVF
	V1
	V2
	V3
	V4
	V5
	V6
	count
)

var names = [count]string{"I", "II", "III", "aVR", "aVL", "aVF", "V1", "V2", "V3", "V4", "V5", "V6"}

// All returns every lead in standard order.
func All() []ID {
	ids := make([]ID, count)
	for i := range ids {
		ids[i] = ID(i)
	}
	return ids
}

// Valid reports whether id is one of the 12 standard leads.
func (id ID) Valid() bool {
	return id >= I && id < count
}

func (id ID) String() string {
	if !id.Valid() {
		return fmt.Sprintf("ID(%d)", int(id))
	}
	return names[id]
}

// Parse converts a lead name such as "aVR" or "v4" to an ID. Matching is
// case-insensitive.
func Parse(s string) (ID, error) {
	s = strings.TrimSpace(s)
	for i, n := range names {
		if strings.EqualFold(n, s) {
			return ID(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLead, s)
}

// MarshalText lets IDs be used as JSON object keys.
func (id ID) MarshalText() ([]byte, error) {
	if !id.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownLead, int(id))
	}
	return []byte(names[id]), nil
}

// UnmarshalText parses a lead name.
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Spec is the user configuration for one lead.
type Spec struct {
	// Region is the lead's rectangle in the rotated page frame.
	Region geometry.RectInt
	// StartTime is the time offset (seconds) of the region's left edge.
	StartTime float64
	// Baseline optionally fixes the zero-voltage row, relative to the top of
	// the cropped region. Nil means the region's vertical center.
	Baseline *float64
}

// Request is the full, validated input to one digitization run.
// It is immutable; construct it with NewRequest.
type Request struct {
	rotation  float64
	timeScale float64
	voltScale float64
	leads     map[ID]Spec
}

// NewRequest validates its arguments and returns a Request holding its own
// copy of leads.
//
// timeScale is seconds per grid box, voltScale millivolts per grid box.
func NewRequest(rotation, timeScale, voltScale float64, leads map[ID]Spec) (Request, error) {
	if math.IsNaN(rotation) || math.IsInf(rotation, 0) {
		return Request{}, fmt.Errorf("%w: rotation %v is not finite", ErrInvalidRequest, rotation)
	}
	if !(timeScale > 0) || math.IsInf(timeScale, 0) {
		return Request{}, fmt.Errorf("%w: time scale must be positive, got %v", ErrInvalidRequest, timeScale)
	}
	if !(voltScale > 0) || math.IsInf(voltScale, 0) {
		return Request{}, fmt.Errorf("%w: voltage scale must be positive, got %v", ErrInvalidRequest, voltScale)
	}
	if len(leads) == 0 {
		return Request{}, fmt.Errorf("%w: no leads configured", ErrInvalidRequest)
	}

	copied := make(map[ID]Spec, len(leads))
	for id, spec := range leads {
		if !id.Valid() {
			return Request{}, fmt.Errorf("%w: %w: %d", ErrInvalidRequest, ErrUnknownLead, int(id))
		}
		if math.IsNaN(spec.StartTime) || math.IsInf(spec.StartTime, 0) {
			return Request{}, fmt.Errorf("%w: lead %s start time is not finite", ErrInvalidRequest, id)
		}
		if spec.Baseline != nil {
			b := *spec.Baseline
			spec.Baseline = &b
		}
		copied[id] = spec
	}

	return Request{
		rotation:  rotation,
		timeScale: timeScale,
		voltScale: voltScale,
		leads:     copied,
	}, nil
}

// Rotation returns the page rotation in degrees (positive = clockwise).
func (r Request) Rotation() float64 { return r.rotation }

// TimeScale returns seconds per grid box.
func (r Request) TimeScale() float64 { return r.timeScale }

// VoltScale returns millivolts per grid box.
func (r Request) VoltScale() float64 { return r.voltScale }

// Leads returns the configured lead IDs in standard order.
func (r Request) Leads() []ID {
	ids := make([]ID, 0, len(r.leads))
	for id := range r.leads {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Lead returns the spec for id.
func (r Request) Lead(id ID) (Spec, bool) {
	spec, ok := r.leads[id]
	if ok && spec.Baseline != nil {
		b := *spec.Baseline
		spec.Baseline = &b
	}
	return spec, ok
}
