// Package colorutil provides the overlay colors used by preview rendering.
package colorutil

import "image/color"

// Overlay colors.
var (
	White    = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Red      = color.RGBA{R: 220, G: 20, B: 20, A: 255}
	Blue     = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	GridPink = color.RGBA{R: 240, G: 160, B: 170, A: 255}
)
