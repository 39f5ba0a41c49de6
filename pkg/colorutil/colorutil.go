// Package colorutil provides the color palettes and overlay colors used to
// draw displacement maps.
package colorutil

import (
	"image/color"
	"math"
	"sort"
)

// Overlay colors used for selection markers.
var (
	Black  = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Red    = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	Green  = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	Yellow = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	Cyan   = color.RGBA{R: 0, G: 255, B: 255, A: 255}
	// Transparent is drawn for nodata texels.
	Transparent = color.RGBA{}
)

// Stop is one color of a gradient at position Pos in [0, 1].
type Stop struct {
	Pos   float64
	Color color.RGBA
}

// Palette is a piecewise-linear color gradient. Stops must be sorted by Pos.
type Palette struct {
	Name  string
	Stops []Stop
}

// At returns the color at t, clamped to [0, 1]. NaN maps to the first stop.
func (p Palette) At(t float64) color.RGBA {
	if len(p.Stops) == 0 {
		return Black
	}
	if math.IsNaN(t) || t <= p.Stops[0].Pos {
		return p.Stops[0].Color
	}
	last := p.Stops[len(p.Stops)-1]
	if t >= last.Pos {
		return last.Color
	}
	i := sort.Search(len(p.Stops), func(i int) bool { return p.Stops[i].Pos >= t })
	a, b := p.Stops[i-1], p.Stops[i]
	f := (t - a.Pos) / (b.Pos - a.Pos)
	return Lerp(a.Color, b.Color, f)
}

// Table samples the palette into n colors, as a lookup table for rendering.
func (p Palette) Table(n int) []color.RGBA {
	out := make([]color.RGBA, n)
	for i := range out {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		out[i] = p.At(t)
	}
	return out
}

// Lerp mixes a and b; f=0 gives a, f=1 gives b.
func Lerp(a, b color.RGBA, f float64) color.RGBA {
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*f))
	}
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}

// Built-in palettes.
var (
	Grey = Palette{Name: "grey", Stops: []Stop{
		{0, Black},
		{1, White},
	}}
	// RedBlue is diverging: subsidence red, uplift blue.
	RedBlue = Palette{Name: "redblue", Stops: []Stop{
		{0, color.RGBA{R: 103, G: 0, B: 31, A: 255}},
		{0.25, color.RGBA{R: 214, G: 96, B: 77, A: 255}},
		{0.5, color.RGBA{R: 247, G: 247, B: 247, A: 255}},
		{0.75, color.RGBA{R: 67, G: 147, B: 195, A: 255}},
		{1, color.RGBA{R: 5, G: 48, B: 97, A: 255}},
	}}
	Viridis = Palette{Name: "viridis", Stops: []Stop{
		{0, color.RGBA{R: 68, G: 1, B: 84, A: 255}},
		{0.25, color.RGBA{R: 59, G: 82, B: 139, A: 255}},
		{0.5, color.RGBA{R: 33, G: 145, B: 140, A: 255}},
		{0.75, color.RGBA{R: 94, G: 201, B: 98, A: 255}},
		{1, color.RGBA{R: 253, G: 231, B: 37, A: 255}},
	}}
)

// Palettes lists the built-in palettes in menu order.
func Palettes() []Palette { return []Palette{RedBlue, Viridis, Grey} }

// ByName returns the built-in palette called name, or RedBlue.
func ByName(name string) Palette {
	for _, p := range Palettes() {
		if p.Name == name {
			return p
		}
	}
	return RedBlue
}
