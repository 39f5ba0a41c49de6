// Package render turns a normalized band, the selection layer and the camera
// into RGBA images for the map, the minimap and snapshot export.
package render

import (
	"image"
	"image/color"
	"io"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"

	"insar-viewer/internal/bandcache"
	"insar-viewer/internal/camera"
	"insar-viewer/internal/selection"
	"insar-viewer/pkg/colorutil"
	"insar-viewer/pkg/geometry"
)

// Style controls how raw values map to colors.
type Style struct {
	Palette colorutil.Palette
	// Low and High are the raw values mapped to the ends of the palette.
	Low, High  float64
	Background color.RGBA
}

const tableSize = 256

// MarkerColor returns the overlay color of m; ok is false for None.
func MarkerColor(m selection.Marker) (c color.RGBA, ok bool) {
	switch m {
	case selection.Point:
		return colorutil.Red, true
	case selection.Highlight:
		return colorutil.White, true
	case selection.Reference:
		return colorutil.Green, true
	case selection.SubsamplePoint:
		return colorutil.Yellow, true
	default:
		return color.RGBA{}, false
	}
}

type shader struct {
	band    *bandcache.NormalizedBand
	markers []selection.Marker
	table   []color.RGBA
	low     float64
	scale   float64
	bg      color.RGBA
}

func newShader(b *bandcache.NormalizedBand, markers []selection.Marker, st Style) *shader {
	s := &shader{band: b, markers: markers, table: st.Palette.Table(tableSize), low: st.Low, bg: st.Background}
	if st.High > st.Low {
		s.scale = 1 / (st.High - st.Low)
	}
	if len(markers) != b.Width*b.Height {
		s.markers = nil
	}
	return s
}

// texel returns the color of data texel (x, y), which must be in bounds.
func (s *shader) texel(x, y int) color.RGBA {
	i := y*s.band.Width + x
	if s.markers != nil {
		if c, ok := MarkerColor(s.markers[i]); ok {
			return c
		}
	}
	if !s.band.Valid[i] {
		return s.bg
	}
	t := (float64(s.band.Raw[i]) - s.low) * s.scale
	k := int(math.Round(math.Min(1, math.Max(0, t)) * (tableSize - 1)))
	return s.table[k]
}

// Map draws the view seen by cam into dst, whose bounds are the viewport.
// markers may be nil or a selection.Layer snapshot of the band's size.
func Map(dst *image.RGBA, b *bandcache.NormalizedBand, markers []selection.Marker, v camera.View, st Style) {
	bounds := dst.Bounds()
	if b == nil {
		draw.Draw(dst, bounds, image.NewUniform(st.Background), image.Point{}, draw.Src)
		return
	}
	s := newShader(b, markers, st)
	halfW, halfH := float64(v.Width)/2, float64(v.Height)/2

	for sy := bounds.Min.Y; sy < bounds.Max.Y; sy++ {
		y := int(math.Floor(v.CY - (float64(sy)+0.5-halfH)/v.Zoom))
		for sx := bounds.Min.X; sx < bounds.Max.X; sx++ {
			x := int(math.Floor(v.CX + (float64(sx)+0.5-halfW)/v.Zoom))
			c := st.Background
			if x >= 0 && x < b.Width && y >= 0 && y < b.Height {
				c = s.texel(x, y)
			}
			dst.SetRGBA(sx, sy, c)
		}
	}
}

// Band draws the whole band at one pixel per texel, north up.
func Band(b *bandcache.NormalizedBand, markers []selection.Marker, st Style) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, b.Width, b.Height))
	s := newShader(b, markers, st)
	for y := 0; y < b.Height; y++ {
		row := b.Height - 1 - y
		for x := 0; x < b.Width; x++ {
			img.SetRGBA(x, row, s.texel(x, y))
		}
	}
	return img
}

// Minimap draws the band scaled to fit inside size, without markers, and
// outlines the data rectangle visible in the map.
func Minimap(b *bandcache.NormalizedBand, size image.Point, visible geometry.Rect, st Style) *image.RGBA {
	dst := image.NewRGBA(image.Rectangle{Max: size})
	draw.Draw(dst, dst.Bounds(), image.NewUniform(st.Background), image.Point{}, draw.Src)
	if b == nil || size.X <= 0 || size.Y <= 0 {
		return dst
	}

	full := Band(b, nil, st)
	fit := FitRect(b.Width, b.Height, size)
	draw.ApproxBiLinear.Scale(dst, fit, full, full.Bounds(), draw.Over, nil)

	box := ViewportBox(b.Width, b.Height, fit, visible)
	strokeRect(dst, box, colorutil.Cyan)
	return dst
}

// FitRect returns the largest rectangle with the band's aspect ratio centered
// in a box of the given size.
func FitRect(width, height int, size image.Point) image.Rectangle {
	if width <= 0 || height <= 0 {
		return image.Rectangle{}
	}
	scale := math.Min(float64(size.X)/float64(width), float64(size.Y)/float64(height))
	w := int(math.Round(float64(width) * scale))
	h := int(math.Round(float64(height) * scale))
	x0 := (size.X - w) / 2
	y0 := (size.Y - h) / 2
	return image.Rect(x0, y0, x0+w, y0+h)
}

// ViewportBox maps a data-space rectangle onto the minimap rectangle fit.
func ViewportBox(width, height int, fit image.Rectangle, visible geometry.Rect) image.Rectangle {
	sx := float64(fit.Dx()) / float64(width)
	sy := float64(fit.Dy()) / float64(height)
	x0 := float64(fit.Min.X) + visible.X*sx
	x1 := float64(fit.Min.X) + (visible.X+visible.Width)*sx
	// Data y grows north, image y grows down.
	y0 := float64(fit.Min.Y) + (float64(height)-(visible.Y+visible.Height))*sy
	y1 := float64(fit.Min.Y) + (float64(height)-visible.Y)*sy
	return image.Rect(int(math.Floor(x0)), int(math.Floor(y0)), int(math.Ceil(x1)), int(math.Ceil(y1)))
}

func strokeRect(dst *image.RGBA, r image.Rectangle, c color.RGBA) {
	r = r.Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		dst.SetRGBA(x, r.Min.Y, c)
		dst.SetRGBA(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		dst.SetRGBA(r.Min.X, y, c)
		dst.SetRGBA(r.Max.X-1, y, c)
	}
}

// WriteTIFF encodes img as a deflate-compressed TIFF.
func WriteTIFF(w io.Writer, img image.Image) error {
	return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
}
