package ocr

import (
	"image"
	"testing"

	"ecg-digitizer/internal/lead"
	"ecg-digitizer/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLabel(t *testing.T) {
	for text, want := range map[string]lead.ID{
		"I":    lead.I,
		"II":   lead.II,
		"ll":   lead.II,
		"1|1":  lead.III,
		"aVR":  lead.AVR,
		"AVL":  lead.AVL,
		"a VF": lead.AVF,
		"V1":   lead.V1,
		"Vl":   lead.V1,
		"v5":   lead.V5,
		" V6\n": lead.V6,
	} {
		got, ok := ParseLabel(text)
		assert.True(t, ok, "%q", text)
		assert.Equal(t, want, got, "%q", text)
	}

	for _, text := range []string{"", "V7", "X", "IIII", "aVX"} {
		_, ok := ParseLabel(text)
		assert.False(t, ok, "%q", text)
	}
}

func TestLabelRegion(t *testing.T) {
	r := LabelRegion(geometry.RectInt{X: 100, Y: 50, Width: 600, Height: 150})
	assert.Equal(t, geometry.RectInt{X: 100, Y: 50, Width: 100, Height: 50}, r)

	small := LabelRegion(geometry.RectInt{X: 0, Y: 0, Width: 30, Height: 20})
	assert.Equal(t, geometry.RectInt{Width: 30, Height: 20}, small)
}

func TestMatWindow(t *testing.T) {
	page := image.Rect(10, 20, 110, 80)

	got, err := matWindow(page, geometry.RectInt{X: 100, Y: 30, Width: 40, Height: 10})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(90, 10, 100, 20), got)

	got, err = matWindow(page, geometry.RectInt{X: 10, Y: 20, Width: 5, Height: 5})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 5, 5), got)

	_, err = matWindow(page, geometry.RectInt{X: 200, Y: 30, Width: 40, Height: 10})
	assert.Error(t, err)
}
