package digitize

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"ecg-digitizer/internal/grid"
	"ecg-digitizer/internal/lead"
	"ecg-digitizer/internal/region"
	"ecg-digitizer/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	pageW  = 400
	pageH  = 300
	period = 10
)

var leadIRegion = geometry.RectInt{X: 20, Y: 20, Width: 200, Height: 100}

// traceRow is the page row of the synthetic lead I trace at page column x.
func traceRow(x int) float64 {
	return 70 + 20*math.Sin(2*math.Pi*float64(x)/100)
}

// page draws light grid lines every period pixels and a 7 px black trace
// across lead I.
func page(withGrid, withTrace bool) *image.RGBA {
	var grey uint8
	if withGrid {
		grey = 215
	}
	return pageWithGrid(grey, withTrace)
}

// pageWithGrid draws grid lines of the given grey level, or none when grey is
// zero.
func pageWithGrid(grey uint8, withTrace bool) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, pageW, pageH))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	if grey > 0 {
		gridColor := color.RGBA{R: grey, G: grey, B: grey, A: 255}
		for y := 0; y < pageH; y++ {
			for x := 0; x < pageW; x++ {
				if x%period < 2 || y%period < 2 {
					img.SetRGBA(x, y, gridColor)
				}
			}
		}
	}
	if !withTrace {
		return img
	}
	for x := leadIRegion.X; x < leadIRegion.X+leadIRegion.Width; x++ {
		cy := traceRow(x)
		for y := 0; y < pageH; y++ {
			if math.Abs(float64(y)-cy) <= 3.5 {
				img.SetRGBA(x, y, color.RGBA{A: 255})
			}
		}
	}
	return img
}

func request(t *testing.T, leads map[lead.ID]lead.Spec) lead.Request {
	t.Helper()
	req, err := lead.NewRequest(0, 0.04, 0.1, leads)
	require.NoError(t, err)
	return req
}

func twoLeads() map[lead.ID]lead.Spec {
	return map[lead.ID]lead.Spec{
		lead.I:  {Region: leadIRegion, StartTime: 0.5},
		lead.II: {Region: geometry.RectInt{X: 230, Y: 150, Width: 150, Height: 100}},
	}
}

func TestDigitizeExtractsEveryLead(t *testing.T) {
	p := New(DefaultOptions().WithWorkers(2))
	res, err := p.Digitize(context.Background(), page(true, true), request(t, twoLeads()))
	require.NoError(t, err)

	assert.False(t, res.GridFallback)
	assert.InDelta(t, period, res.Grid.HorizontalSpacing, 1.0)
	assert.InDelta(t, period, res.Grid.VerticalSpacing, 1.0)
	require.Len(t, res.Signals, 2)
	require.Len(t, res.Previews, 2)
	assert.Equal(t, []lead.ID{lead.II}, res.Blank)

	sig := res.Signals[lead.I]
	assert.Equal(t, lead.I, sig.Lead)
	require.Len(t, sig.Samples, leadIRegion.Width)
	assert.Equal(t, 0.5, sig.Samples[0].Time)

	baseline := float64(leadIRegion.Height-1) / 2
	for i, s := range sig.Samples {
		row := traceRow(leadIRegion.X+i) - float64(leadIRegion.Y)
		want := (baseline - row) / period * 0.1
		assert.InDelta(t, want, s.Voltage, 0.03, "sample %d", i)
	}
	last := sig.Samples[len(sig.Samples)-1].Time
	assert.InDelta(t, 0.5+float64(leadIRegion.Width-1)/period*0.04, last, 0.05)

	blank := res.Signals[lead.II]
	require.Len(t, blank.Samples, 150)
	for _, s := range blank.Samples {
		assert.Equal(t, 0.0, s.Voltage)
	}

	pv := res.Previews[lead.I]
	assert.Equal(t, lead.I, pv.Lead)
	assert.Equal(t, image.Rect(0, 0, 200, 100), pv.Image.Bounds())
}

func TestDigitizeIgnoresDarkGrid(t *testing.T) {
	// Grey 170 is darker than the ink cut-off, so only the grid mask keeps
	// the lines out of the trace.
	req := request(t, map[lead.ID]lead.Spec{lead.I: {Region: leadIRegion}})
	res, err := New(DefaultOptions()).Digitize(context.Background(), pageWithGrid(170, true), req)
	require.NoError(t, err)
	require.NotNil(t, res.Grid.Mask)
	assert.InDelta(t, period, res.Grid.VerticalSpacing, 1.0)

	sig := res.Signals[lead.I]
	require.Len(t, sig.Samples, leadIRegion.Width)
	baseline := float64(leadIRegion.Height-1) / 2
	for i, s := range sig.Samples {
		row := traceRow(leadIRegion.X+i) - float64(leadIRegion.Y)
		want := (baseline - row) / period * 0.1
		assert.InDelta(t, want, s.Voltage, 0.03, "column %d", i)
	}
}

func TestDigitizeIsAllOrNothing(t *testing.T) {
	leads := twoLeads()
	leads[lead.V1] = lead.Spec{Region: geometry.RectInt{X: 1000, Y: 1000, Width: 50, Height: 50}}

	res, err := New(DefaultOptions()).Digitize(context.Background(), page(true, true), request(t, leads))
	assert.Nil(t, res)
	require.ErrorIs(t, err, ErrSignalProcessing)
	assert.ErrorIs(t, err, region.ErrInvalidRegion)

	var leadErr *LeadError
	require.True(t, errors.As(err, &leadErr))
	assert.Equal(t, lead.V1, leadErr.Lead)
	assert.Contains(t, err.Error(), "V1")
}

func TestDigitizeRejectsZeroAreaRegion(t *testing.T) {
	leads := map[lead.ID]lead.Spec{
		lead.AVR: {Region: geometry.RectInt{X: 10, Y: 10, Width: 0, Height: 40}},
	}
	_, err := New(DefaultOptions()).Digitize(context.Background(), page(true, true), request(t, leads))
	assert.ErrorIs(t, err, ErrSignalProcessing)
	assert.ErrorIs(t, err, region.ErrInvalidRegion)
}

func TestDigitizeRejectBlankLeads(t *testing.T) {
	p := New(DefaultOptions().WithRejectBlankLeads(true))
	_, err := p.Digitize(context.Background(), page(true, true), request(t, twoLeads()))
	require.ErrorIs(t, err, ErrSignalProcessing)
	assert.ErrorIs(t, err, ErrBlankRegion)

	var leadErr *LeadError
	require.True(t, errors.As(err, &leadErr))
	assert.Equal(t, lead.II, leadErr.Lead)
}

func TestDigitizeIsIdempotent(t *testing.T) {
	p := New(DefaultOptions())
	img := page(true, true)
	req := request(t, twoLeads())

	first, err := p.Digitize(context.Background(), img, req)
	require.NoError(t, err)
	second, err := p.Digitize(context.Background(), img, req)
	require.NoError(t, err)

	assert.Equal(t, first.Signals, second.Signals)
}

func TestDigitizeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := New(DefaultOptions()).Digitize(ctx, page(true, true), request(t, twoLeads()))
	assert.Nil(t, res)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDigitizeGridFallback(t *testing.T) {
	req := request(t, map[lead.ID]lead.Spec{lead.I: {Region: leadIRegion}})

	_, err := New(DefaultOptions()).Digitize(context.Background(), page(false, false), req)
	require.ErrorIs(t, err, grid.ErrGridNotFound)

	res, err := New(DefaultOptions().WithFallbackSpacing(8)).Digitize(context.Background(), page(false, false), req)
	require.NoError(t, err)
	assert.True(t, res.GridFallback)
	assert.Equal(t, 8.0, res.Grid.HorizontalSpacing)
	assert.Nil(t, res.Grid.Mask)

	samples := res.Signals[lead.I].Samples
	assert.InDelta(t, 1/8.0*0.04, samples[1].Time-samples[0].Time, 1e-12)
}
