package interaction

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insar-viewer/internal/camera"
	"insar-viewer/internal/selection"
	"insar-viewer/internal/series"
	"insar-viewer/pkg/geometry"
)

// fakeProfiles returns {x, y, x+y} for every texel.
type fakeProfiles struct{ reads int }

func (f *fakeProfiles) At(p geometry.PointInt) ([]float64, error) {
	f.reads++
	return []float64{float64(p.X), float64(p.Y), float64(p.X + p.Y)}, nil
}

type fakeAux struct{ err error }

func (a fakeAux) Series() (*series.AuxSeries, error) {
	if a.err != nil {
		return nil, a.err
	}
	return &series.AuxSeries{Name: "GNSS01", Up: []float64{1, 2, 3}}, nil
}

type fixture struct {
	cam   *camera.Camera
	layer *selection.Layer
	ctl   *Controller
	prof  *fakeProfiles
	plots []PlotData
}

func newFixture(t *testing.T, maxPoints int, aux series.AuxSource) *fixture {
	t.Helper()
	cam := camera.New(camera.DefaultOptions())
	cam.Resize(100, 100)
	cam.Reset(10, 10)
	layer := selection.NewLayer(10, 10)
	prof := &fakeProfiles{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &fixture{cam: cam, layer: layer, prof: prof}
	f.ctl = New(cam, layer, prof, aux, Options{MaxPoints: maxPoints, WheelDivisor: 8}, logger)
	f.ctl.OnSelectionChanged(func(d PlotData) { f.plots = append(f.plots, d) })
	f.ctl.Activate(nil)
	return f
}

// screen returns the screen position of the center of texel p.
func (f *fixture) screen(p geometry.PointInt) (float64, float64) {
	return f.cam.DataToScreen(float64(p.X)+0.5, float64(p.Y)+0.5)
}

func (f *fixture) click(p geometry.PointInt) {
	sx, sy := f.screen(p)
	f.ctl.Press(sx, sy, ButtonLeft)
	f.ctl.Release(sx, sy, ButtonLeft)
}

func TestInertBeforeActivate(t *testing.T) {
	f := newFixture(t, 30, nil)
	ctl := New(f.cam, f.layer, f.prof, nil, Options{}, nil)
	ctl.SetTool(Points)
	sx, sy := f.screen(geometry.Pt(1, 1))
	ctl.Press(sx, sy, ButtonLeft)
	ctl.Move(sx+3, sy)
	ctl.Wheel(sx, sy, 120)
	assert.Empty(t, ctl.Points())
	assert.Equal(t, Idle, ctl.State())
	assert.Equal(t, 1.0, f.cam.Zoom())
	assert.Equal(t, 0, f.prof.reads)
}

func TestPointsSlidingWindow(t *testing.T) {
	f := newFixture(t, 3, nil)
	f.ctl.SetTool(Points)

	for i := 0; i < 5; i++ {
		f.click(geometry.Pt(i, i))
	}
	assert.Equal(t, []geometry.PointInt{geometry.Pt(2, 2), geometry.Pt(3, 3), geometry.Pt(4, 4)}, f.ctl.Points())
	assert.Equal(t, selection.None, f.layer.At(0, 0))
	assert.Equal(t, selection.None, f.layer.At(1, 1))
	assert.Equal(t, selection.Point, f.layer.At(4, 4))
	assert.Equal(t, 3, f.layer.Count(selection.Point))

	require.Len(t, f.plots, 5)
	last := f.plots[4]
	assert.Equal(t, KindPoints, last.Kind)
	require.Len(t, last.Curves, 3)
	assert.Equal(t, []float64{4, 4, 8}, last.Curves[2].Values)
	assert.Len(t, last.Distances, 3)
	assert.InDelta(t, math.Sqrt2, last.Distances[1], 1e-12)
}

func TestPointsDuplicateIsNoop(t *testing.T) {
	f := newFixture(t, 3, nil)
	f.ctl.SetTool(Points)
	f.click(geometry.Pt(2, 2))
	f.click(geometry.Pt(2, 2))
	assert.Len(t, f.ctl.Points(), 1)
	assert.Len(t, f.plots, 1)
}

func TestPointsDragPaints(t *testing.T) {
	f := newFixture(t, 30, nil)
	f.ctl.SetTool(Points)
	sx, sy := f.screen(geometry.Pt(1, 1))
	f.ctl.Press(sx, sy, ButtonLeft)
	assert.Equal(t, Painting, f.ctl.State())
	for x := 2; x <= 4; x++ {
		mx, my := f.screen(geometry.Pt(x, 1))
		f.ctl.Move(mx, my)
	}
	f.ctl.Release(sx, sy, ButtonLeft)
	assert.Equal(t, Idle, f.ctl.State())
	assert.Len(t, f.ctl.Points(), 4)

	mx, my := f.screen(geometry.Pt(8, 8))
	f.ctl.Move(mx, my)
	assert.Len(t, f.ctl.Points(), 4, "hover after release does not paint")
}

func TestOutOfBoundsIgnored(t *testing.T) {
	f := newFixture(t, 30, nil)
	f.ctl.SetTool(Points)
	f.click(geometry.Pt(-1, 3))
	f.click(geometry.Pt(3, 10))
	assert.Empty(t, f.ctl.Points())
	assert.Empty(t, f.plots)

	f.ctl.SetTool(Navigate)
	f.ctl.Press(1, 1, ButtonLeft)
	assert.Equal(t, Idle, f.ctl.State())
}

func TestReferenceReplaceRule(t *testing.T) {
	f := newFixture(t, 30, nil)
	f.ctl.SetTool(Reference)

	f.click(geometry.Pt(2, 2))
	assert.Equal(t, []geometry.PointInt{geometry.Pt(2, 2)}, f.ctl.Reference())

	f.click(geometry.Pt(2, 2))
	assert.Equal(t, []geometry.PointInt{geometry.Pt(2, 2)}, f.ctl.Reference())
	assert.Len(t, f.plots, 1, "repeat click is a no-op")

	f.click(geometry.Pt(4, 5))
	ref := f.ctl.Reference()
	assert.Len(t, ref, 12)
	assert.Equal(t, geometry.RectFromCorners(geometry.Pt(2, 2), geometry.Pt(4, 5)).Points(), ref)
	assert.Equal(t, 12, f.layer.Count(selection.Reference))

	// The next rectangle spans the last rectangle point and the click.
	f.click(geometry.Pt(6, 6))
	assert.Len(t, f.ctl.Reference(), 6)
	assert.Equal(t, 6, f.layer.Count(selection.Reference))
}

func TestReferenceKeepsPoints(t *testing.T) {
	f := newFixture(t, 30, nil)
	f.ctl.SetTool(Points)
	f.click(geometry.Pt(7, 7))
	f.ctl.SetTool(Reference)
	f.click(geometry.Pt(1, 1))
	f.click(geometry.Pt(2, 2))
	assert.Equal(t, selection.Point, f.layer.At(7, 7))
	assert.Equal(t, 4, f.layer.Count(selection.Reference))
}

func TestReferenceValuesAndSubtraction(t *testing.T) {
	f := newFixture(t, 30, nil)
	f.ctl.SetTool(Reference)
	f.click(geometry.Pt(2, 2))
	f.click(geometry.Pt(4, 4))
	assert.Equal(t, []float64{3, 3, 6}, f.ctl.ReferenceValues())

	f.ctl.SetTool(Points)
	f.click(geometry.Pt(8, 1))
	f.ctl.SetReferenceEnabled(true)

	last := f.plots[len(f.plots)-1]
	assert.True(t, last.Referenced)
	assert.Equal(t, []float64{5, -2, 3}, last.Curves[0].Values)

	f.ctl.SetReferenceEnabled(false)
	last = f.plots[len(f.plots)-1]
	assert.False(t, last.Referenced)
	assert.Equal(t, []float64{8, 1, 9}, last.Curves[0].Values)
}

func TestProfileTrace(t *testing.T) {
	f := newFixture(t, 5, nil)
	f.ctl.SetTool(Profile)

	f.click(geometry.Pt(0, 0))
	assert.Equal(t, []geometry.PointInt{geometry.Pt(0, 0)}, f.ctl.Trace())

	f.click(geometry.Pt(4, 3))
	assert.Equal(t, geometry.Line(0, 0, 4, 3), f.ctl.Trace())
	assert.Empty(t, f.ctl.Subsample())
	assert.Equal(t, 5, f.layer.Count(selection.Point))

	f.click(geometry.Pt(4, 3))
	assert.Len(t, f.ctl.Trace(), 5, "repeated vertex adds nothing")

	f.click(geometry.Pt(9, 3))
	trace := f.ctl.Trace()
	require.Len(t, trace, 10)
	assert.Equal(t, geometry.Pt(5, 3), trace[5])

	sub := f.ctl.Subsample()
	require.Len(t, sub, 5)
	assert.Equal(t, trace[0], sub[0])
	assert.Equal(t, trace[9], sub[4])

	distinct := map[geometry.PointInt]bool{}
	for _, p := range sub {
		distinct[p] = true
	}
	assert.Equal(t, len(distinct), f.layer.Count(selection.SubsamplePoint))
	assert.Equal(t, 10, f.layer.Count(selection.Point)+f.layer.Count(selection.SubsamplePoint))

	last := f.plots[len(f.plots)-1]
	assert.Equal(t, KindProfile, last.Kind)
	assert.Len(t, last.Curves, 5)
}

func TestNavigateDragPans(t *testing.T) {
	f := newFixture(t, 30, nil)
	before := f.cam.Center()
	f.ctl.Press(50, 50, ButtonLeft)
	assert.Equal(t, Drag, f.ctl.State())
	f.ctl.Move(60, 45)
	f.ctl.Move(70, 40)
	f.ctl.Release(70, 40, ButtonLeft)

	after := f.cam.Center()
	assert.InDelta(t, before.X-20, after.X, 1e-9)
	assert.InDelta(t, before.Y-10, after.Y, 1e-9)
	assert.Equal(t, 0, f.layer.Count(selection.Point))
}

func TestZoomDragAnchoredAtPress(t *testing.T) {
	f := newFixture(t, 30, nil)
	f.ctl.SetTool(Points)
	px, py := 47.0, 52.0
	dx, dy := f.cam.ScreenToData(px, py)

	f.ctl.Press(px, py, ButtonRight)
	assert.Equal(t, ZoomDrag, f.ctl.State())
	f.ctl.Move(px+30, py+20)
	f.ctl.Move(px+35, py+40)
	f.ctl.Release(px+35, py+40, ButtonRight)

	assert.InDelta(t, math.Exp(0.75), f.cam.Zoom(), 1e-9)
	sx, sy := f.cam.DataToScreen(dx, dy)
	assert.InDelta(t, px, sx, 1e-9)
	assert.InDelta(t, py, sy, 1e-9)
	assert.Empty(t, f.ctl.Points(), "right drag never selects")
}

func TestWheel(t *testing.T) {
	f := newFixture(t, 30, nil)
	f.ctl.Wheel(30, 30, 800)
	assert.InDelta(t, math.Exp(1), f.cam.Zoom(), 1e-12)
}

func TestHoverDoesNotMutateLayer(t *testing.T) {
	f := newFixture(t, 30, nil)
	var hovers []Hover
	f.ctl.OnHover(func(h Hover) { hovers = append(hovers, h) })
	f.ctl.SetBand(2)

	sx, sy := f.screen(geometry.Pt(3, 6))
	f.ctl.Move(sx, sy)
	require.Len(t, hovers, 1)
	assert.Equal(t, geometry.Pt(3, 6), hovers[0].Texel)
	assert.Equal(t, 9.0, hovers[0].Value)
	assert.Equal(t, "x:3\ny:6\ndisp:9.000", hovers[0].Tooltip())
	assert.Equal(t, 0, f.layer.Count(selection.Point))
	assert.Empty(t, f.plots)

	f.ctl.Move(-100, -100)
	assert.Len(t, hovers, 1)
	h, ok := f.ctl.LastHover()
	require.True(t, ok)
	assert.Equal(t, geometry.Pt(3, 6), h.Texel)
}

func TestHighlightCurve(t *testing.T) {
	f := newFixture(t, 30, nil)
	f.ctl.SetTool(Points)
	f.click(geometry.Pt(1, 1))
	f.click(geometry.Pt(2, 2))

	require.True(t, f.ctl.HighlightCurve(0))
	require.True(t, f.ctl.HighlightCurve(1))
	assert.False(t, f.ctl.HighlightCurve(5))
	assert.Equal(t, 1, f.layer.Count(selection.Highlight))
	assert.Equal(t, selection.Point, f.layer.At(1, 1), "previous highlight falls back to its point marker")
	assert.Equal(t, selection.Highlight, f.layer.At(2, 2))
	assert.Equal(t, 1, f.ctl.PlotData().Highlight)
}

func TestEvictedHighlightIsCleared(t *testing.T) {
	f := newFixture(t, 2, nil)
	f.ctl.SetTool(Points)
	f.click(geometry.Pt(1, 1))
	f.click(geometry.Pt(2, 2))
	require.True(t, f.ctl.HighlightCurve(0))
	require.Equal(t, selection.Highlight, f.layer.At(1, 1))

	f.click(geometry.Pt(3, 3))

	assert.Equal(t, selection.None, f.layer.At(1, 1))
	assert.Zero(t, f.layer.Count(selection.Highlight))
	assert.Equal(t, -1, f.ctl.PlotData().Highlight)

	f.click(geometry.Pt(4, 4))
	assert.Equal(t, 2, f.layer.Count(selection.Point))
}

func TestReferenceOutranksPointOnEveryPath(t *testing.T) {
	f := newFixture(t, 2, nil)
	f.ctl.SetTool(Reference)
	f.click(geometry.Pt(1, 1))
	f.click(geometry.Pt(2, 2))
	require.Equal(t, 4, f.layer.Count(selection.Reference))

	f.ctl.SetTool(Points)
	f.click(geometry.Pt(1, 1))
	assert.Equal(t, selection.Reference, f.layer.At(1, 1), "incremental add")
	f.click(geometry.Pt(5, 5))
	f.click(geometry.Pt(6, 6))
	assert.Equal(t, selection.Reference, f.layer.At(1, 1), "eviction keeps the reference")

	require.True(t, f.ctl.HighlightCurve(0))
	require.True(t, f.ctl.HighlightCurve(1))
	assert.Equal(t, selection.Point, f.layer.At(5, 5), "full repaint")
	assert.Equal(t, 4, f.layer.Count(selection.Reference))
}

func TestClearAll(t *testing.T) {
	f := newFixture(t, 5, nil)
	f.ctl.SetTool(Points)
	f.click(geometry.Pt(1, 1))
	f.ctl.SetTool(Reference)
	f.click(geometry.Pt(3, 3))
	f.ctl.SetTool(Profile)
	f.click(geometry.Pt(0, 0))
	f.click(geometry.Pt(9, 9))

	f.ctl.ClearAll()
	assert.Empty(t, f.ctl.Points())
	assert.Empty(t, f.ctl.Trace())
	assert.Empty(t, f.ctl.Subsample())
	assert.Empty(t, f.ctl.Reference())
	assert.Nil(t, f.ctl.ReferenceValues())
	assert.Equal(t, 100, f.layer.Count(selection.None))

	last := f.plots[len(f.plots)-1]
	assert.Equal(t, KindNone, last.Kind)
	assert.Empty(t, last.Curves)
}

func TestAuxSeries(t *testing.T) {
	f := newFixture(t, 30, fakeAux{})
	f.ctl.SetTool(Points)
	f.click(geometry.Pt(1, 1))
	last := f.plots[len(f.plots)-1]
	require.NotNil(t, last.Aux)
	assert.Equal(t, "GNSS01", last.Aux.Name)

	f = newFixture(t, 30, fakeAux{err: errors.New("station offline")})
	f.ctl.SetTool(Points)
	f.click(geometry.Pt(1, 1))
	assert.Nil(t, f.plots[len(f.plots)-1].Aux)
}

func TestToolString(t *testing.T) {
	assert.Equal(t, "profile", Profile.String())
	assert.Equal(t, "tool(9)", Tool(9).String())
}
