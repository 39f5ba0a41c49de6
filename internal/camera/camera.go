// Package camera maps between data (texel) space and screen space.
//
// Data space has its origin at the bottom-left texel with y growing north.
// Screen space has its origin at the top-left of the viewport with y growing
// down. A data point (cx, cy) is drawn at the viewport center, and one texel
// spans Zoom screen pixels.
package camera

import (
	"math"

	"insar-viewer/pkg/geometry"
)

// View is a snapshot of the camera state.
type View struct {
	CX, CY float64
	Zoom   float64
	Width  int
	Height int
}

// Options configures zoom behaviour. Zero limits disable clamping.
type Options struct {
	// ZoomRate is k in zoom' = zoom * exp(delta * k).
	ZoomRate float64
	MinZoom  float64
	MaxZoom  float64
}

// DefaultOptions returns the wheel-degree zoom rate and no limits.
func DefaultOptions() Options {
	return Options{ZoomRate: 0.01}
}

// Camera is owned by the UI goroutine and is not safe for concurrent use.
type Camera struct {
	opts      Options
	view      View
	listeners []func(View)
}

// New returns a camera at the origin with zoom 1 and an empty viewport.
func New(opts Options) *Camera {
	if opts.ZoomRate == 0 {
		opts.ZoomRate = DefaultOptions().ZoomRate
	}
	return &Camera{opts: opts, view: View{Zoom: 1}}
}

// Subscribe registers fn to be called after every change.
func (c *Camera) Subscribe(fn func(View)) {
	c.listeners = append(c.listeners, fn)
}

func (c *Camera) notify() {
	for _, fn := range c.listeners {
		fn(c.view)
	}
}

// View returns the current state.
func (c *Camera) View() View { return c.view }

// Zoom returns screen pixels per texel.
func (c *Camera) Zoom() float64 { return c.view.Zoom }

// Center returns the data point shown at the viewport center.
func (c *Camera) Center() geometry.Point2D {
	return geometry.Point2D{X: c.view.CX, Y: c.view.CY}
}

// Reset centers the camera on a width x height dataset at zoom 1.
func (c *Camera) Reset(width, height int) {
	c.view.CX = float64(width / 2)
	c.view.CY = float64(height / 2)
	c.view.Zoom = 1
	c.notify()
}

// Resize sets the viewport size in screen pixels.
func (c *Camera) Resize(width, height int) {
	if width == c.view.Width && height == c.view.Height {
		return
	}
	c.view.Width, c.view.Height = width, height
	c.notify()
}

// Pan moves the view by a screen-space drag delta so that the content follows
// the pointer 1:1.
func (c *Camera) Pan(dx, dy float64) {
	if dx == 0 && dy == 0 {
		return
	}
	c.view.CX -= dx / c.view.Zoom
	c.view.CY += dy / c.view.Zoom
	c.notify()
}

// ZoomBy scales about the viewport center.
func (c *Camera) ZoomBy(delta float64) {
	c.ZoomAt(delta, float64(c.view.Width)/2, float64(c.view.Height)/2)
}

// ZoomAt scales by exp(delta*ZoomRate), keeping the data point under screen
// position (sx, sy) fixed.
func (c *Camera) ZoomAt(delta, sx, sy float64) {
	z := c.view.Zoom
	nz := c.clamp(z * math.Exp(delta*c.opts.ZoomRate))
	if nz == z {
		return
	}
	shift := 1/z - 1/nz
	c.view.CX += (sx - float64(c.view.Width)/2) * shift
	c.view.CY += (float64(c.view.Height)/2 - sy) * shift
	c.view.Zoom = nz
	c.notify()
}

func (c *Camera) clamp(z float64) float64 {
	if c.opts.MinZoom > 0 && z < c.opts.MinZoom {
		z = c.opts.MinZoom
	}
	if c.opts.MaxZoom > 0 && z > c.opts.MaxZoom {
		z = c.opts.MaxZoom
	}
	return z
}

// Transform returns the data-to-screen affine transform.
func (c *Camera) Transform() geometry.AffineTransform {
	v := c.view
	return geometry.Translation(float64(v.Width)/2, float64(v.Height)/2).
		Compose(geometry.Scale(v.Zoom, -v.Zoom)).
		Compose(geometry.Translation(-v.CX, -v.CY))
}

// DataToScreen maps a data point to screen pixels.
func (c *Camera) DataToScreen(x, y float64) (sx, sy float64) {
	v := c.view
	sx = float64(v.Width)/2 + (x-v.CX)*v.Zoom
	sy = float64(v.Height)/2 - (y-v.CY)*v.Zoom
	return sx, sy
}

// ScreenToData maps screen pixels to a data point.
func (c *Camera) ScreenToData(sx, sy float64) (x, y float64) {
	v := c.view
	x = v.CX + (sx-float64(v.Width)/2)/v.Zoom
	y = v.CY - (sy-float64(v.Height)/2)/v.Zoom
	return x, y
}

// Texel returns the integer data coordinate under a screen position. Texel
// (i, j) covers [i, i+1) x [j, j+1) in data space.
func (c *Camera) Texel(sx, sy float64) geometry.PointInt {
	x, y := c.ScreenToData(sx, sy)
	return geometry.Pt(int(math.Floor(x)), int(math.Floor(y)))
}

// Bounds returns the data-space rectangle covered by the viewport.
func (c *Camera) Bounds() geometry.Rect {
	v := c.view
	w := float64(v.Width) / v.Zoom
	h := float64(v.Height) / v.Zoom
	return geometry.Rect{X: v.CX - w/2, Y: v.CY - h/2, Width: w, Height: h}
}
