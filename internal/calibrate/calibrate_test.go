package calibrate

import (
	"testing"

	"ecg-digitizer/internal/lead"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalClosedForm(t *testing.T) {
	spacing := &Spacing{Horizontal: 12.5, Vertical: 10}
	c, err := New(spacing, 0.04, 0.1)
	require.NoError(t, err)

	rows := []float64{50, 40, 65.5, 50}
	sig := c.Signal(lead.V3, rows, 50, 1.25)

	require.Len(t, sig.Samples, len(rows))
	assert.Equal(t, lead.V3, sig.Lead)
	for i, y := range rows {
		wantT := 1.25 + float64(i)/12.5*0.04
		wantV := (50 - y) / 10 * 0.1
		assert.InDelta(t, wantT, sig.Samples[i].Time, 1e-12)
		assert.InDelta(t, wantV, sig.Samples[i].Voltage, 1e-12)
	}

	// Ten pixels above the baseline is one box up.
	assert.InDelta(t, 0.1, sig.Samples[1].Voltage, 1e-12)
	assert.InDelta(t, -0.155, sig.Samples[2].Voltage, 1e-12)
}

func TestSampleTimesStrictlyIncrease(t *testing.T) {
	c, err := New(&Spacing{Horizontal: 7.3, Vertical: 7.3}, 0.2, 0.5)
	require.NoError(t, err)

	sig := c.Signal(lead.I, make([]float64, 500), 0, 0)
	for i := 1; i < len(sig.Samples); i++ {
		assert.Greater(t, sig.Samples[i].Time, sig.Samples[i-1].Time)
	}
}

func TestNewRequiresCalibration(t *testing.T) {
	_, err := New(nil, 0.2, 0.5)
	assert.ErrorIs(t, err, ErrUncalibrated)

	_, err = New(&Spacing{Horizontal: 0, Vertical: 10}, 0.2, 0.5)
	assert.ErrorIs(t, err, ErrUncalibrated)

	_, err = New(&Spacing{Horizontal: 10, Vertical: 10}, 0, 0.5)
	assert.ErrorIs(t, err, ErrInvalidScale)
}

func TestBaseline(t *testing.T) {
	assert.Equal(t, 49.5, Baseline(lead.Spec{}, 100))

	fixed := 12.0
	assert.Equal(t, 12.0, Baseline(lead.Spec{Baseline: &fixed}, 100))
}
