package digitize

import (
	"errors"
	"fmt"

	"ecg-digitizer/internal/lead"
)

var (
	// ErrSignalProcessing is returned when any lead of a request cannot be
	// digitized. No signals are returned with it.
	ErrSignalProcessing = errors.New("signal processing failed")
	// ErrBlankRegion is the cause reported for a lead with no ink when blank
	// leads are rejected.
	ErrBlankRegion = errors.New("region contains no trace")
)

// LeadError identifies the lead that failed a request and why.
type LeadError struct {
	Lead lead.ID
	Err  error
}

func (e *LeadError) Error() string {
	return fmt.Sprintf("%v: lead %s: %v", ErrSignalProcessing, e.Lead, e.Err)
}

// Is makes every LeadError match ErrSignalProcessing.
func (e *LeadError) Is(target error) bool {
	return target == ErrSignalProcessing
}

func (e *LeadError) Unwrap() error {
	return e.Err
}
