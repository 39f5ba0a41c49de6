package camera

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insar-viewer/pkg/geometry"
)

func newCamera() *Camera {
	c := New(DefaultOptions())
	c.Resize(800, 600)
	c.Reset(600, 600)
	return c
}

func TestReset(t *testing.T) {
	c := New(DefaultOptions())
	c.Reset(601, 17)
	v := c.View()
	assert.Equal(t, 300.0, v.CX)
	assert.Equal(t, 8.0, v.CY)
	assert.Equal(t, 1.0, v.Zoom)
}

func TestRoundTrip(t *testing.T) {
	c := newCamera()
	c.ZoomAt(73, 120, 455)
	c.Pan(-31, 12.5)

	for _, p := range [][2]float64{{0, 0}, {300, 300}, {599.5, 12.25}, {-40, 1e3}} {
		sx, sy := c.DataToScreen(p[0], p[1])
		x, y := c.ScreenToData(sx, sy)
		assert.InDelta(t, p[0], x, 1e-9)
		assert.InDelta(t, p[1], y, 1e-9)

		tp := c.Transform().Apply(geometry.NewPoint2D(p[0], p[1]))
		assert.InDelta(t, sx, tp.X, 1e-9)
		assert.InDelta(t, sy, tp.Y, 1e-9)
	}
}

func TestScreenYIsFlipped(t *testing.T) {
	c := newCamera()
	_, top := c.DataToScreen(300, 310)
	_, bottom := c.DataToScreen(300, 290)
	assert.Less(t, top, bottom, "north is up on screen")

	sx, sy := c.DataToScreen(300, 300)
	assert.Equal(t, 400.0, sx)
	assert.Equal(t, 300.0, sy)
}

func TestZoomAtCenterKeepsCenter(t *testing.T) {
	c := newCamera()
	before := c.Center()
	c.ZoomAt(120, 400, 300)
	assert.InDelta(t, before.X, c.Center().X, 1e-12)
	assert.InDelta(t, before.Y, c.Center().Y, 1e-12)
	assert.InDelta(t, math.Exp(1.2), c.Zoom(), 1e-12)
}

func TestZoomAtKeepsFocalFixed(t *testing.T) {
	c := newCamera()
	fx, fy := 100.0, 520.0
	dx, dy := c.ScreenToData(fx, fy)

	for _, delta := range []float64{50, -80, 300, -15} {
		c.ZoomAt(delta, fx, fy)
		sx, sy := c.DataToScreen(dx, dy)
		assert.InDelta(t, fx, sx, 1e-9)
		assert.InDelta(t, fy, sy, 1e-9)
	}
	assert.Greater(t, c.Zoom(), 0.0)
}

func TestPanIsOneToOne(t *testing.T) {
	c := newCamera()
	c.ZoomBy(200)
	x, y := 250.0, 333.0
	sx, sy := c.DataToScreen(x, y)
	c.Pan(17, -9)
	nx, ny := c.DataToScreen(x, y)
	assert.InDelta(t, sx+17, nx, 1e-9)
	assert.InDelta(t, sy-9, ny, 1e-9)
}

func TestZoomClamp(t *testing.T) {
	c := New(Options{ZoomRate: 0.01, MinZoom: 0.5, MaxZoom: 4})
	c.Resize(100, 100)
	c.ZoomBy(1e4)
	assert.Equal(t, 4.0, c.Zoom())
	c.ZoomBy(-1e4)
	assert.Equal(t, 0.5, c.Zoom())
}

func TestTexelFloors(t *testing.T) {
	c := newCamera()
	// Screen (400,300) is data (300,300), the bottom-left corner of texel (300,300).
	assert.Equal(t, geometry.Pt(300, 300), c.Texel(400, 300))
	assert.Equal(t, geometry.Pt(299, 300), c.Texel(399.5, 299.5))
	assert.Equal(t, geometry.Pt(300, 299), c.Texel(400.5, 300.5))
}

func TestBounds(t *testing.T) {
	c := newCamera()
	c.ZoomAt(math.Log(2)*100, 400, 300)
	b := c.Bounds()
	assert.InDelta(t, 400, b.Width, 1e-9)
	assert.InDelta(t, 300, b.Height, 1e-9)
	assert.InDelta(t, 100, b.X, 1e-9)
	assert.InDelta(t, 150, b.Y, 1e-9)
}

func TestNotifications(t *testing.T) {
	c := New(DefaultOptions())
	var got []View
	c.Subscribe(func(v View) { got = append(got, v) })

	c.Resize(10, 10)
	c.Resize(10, 10)
	c.Reset(4, 4)
	c.Pan(1, 1)
	c.Pan(0, 0)
	c.ZoomBy(10)
	require.Len(t, got, 4)
	assert.Equal(t, 10, got[0].Width)
	assert.Equal(t, c.View(), got[3])
}
