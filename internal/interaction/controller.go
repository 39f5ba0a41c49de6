// Package interaction turns pointer events and the selected tool into camera
// moves and selection-layer edits, and assembles the data shown in the plots.
package interaction

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"insar-viewer/internal/camera"
	"insar-viewer/internal/profile"
	"insar-viewer/internal/selection"
	"insar-viewer/internal/series"
	"insar-viewer/pkg/geometry"
)

// Tool is the mode chosen in the toolbar.
type Tool int

const (
	Navigate Tool = iota
	Points
	Profile
	Reference
)

func (t Tool) String() string {
	switch t {
	case Navigate:
		return "navigate"
	case Points:
		return "points"
	case Profile:
		return "profile"
	case Reference:
		return "reference"
	default:
		return fmt.Sprintf("tool(%d)", int(t))
	}
}

// State is the pointer sub-state of the map.
type State int

const (
	Idle State = iota
	Drag
	ZoomDrag
	// Painting adds the texel under the pointer on every move (Points tool).
	Painting
)

// Button identifies a pointer button.
type Button int

const (
	ButtonLeft Button = iota
	ButtonRight
)

// Profiles returns per-date values at a texel, NaN where invalid.
type Profiles interface {
	At(p geometry.PointInt) ([]float64, error)
}

// Options configures a Controller.
type Options struct {
	// MaxPoints bounds the point sequence and the resampled profile.
	MaxPoints int
	// WheelDivisor converts raw wheel deltas to zoom degrees.
	WheelDivisor float64
}

// Hover describes the texel under the pointer.
type Hover struct {
	Texel  geometry.PointInt
	Values []float64
	// Value is the displacement at the current band, NaN if unknown.
	Value float64
}

// Tooltip renders the hover text shown over the map.
func (h Hover) Tooltip() string {
	return fmt.Sprintf("x:%d\ny:%d\ndisp:%.3f", h.Texel.X, h.Texel.Y, h.Value)
}

// Controller is owned by the UI goroutine.
type Controller struct {
	cam      *camera.Camera
	layer    *selection.Layer
	profiles Profiles
	aux      series.AuxSource
	opts     Options
	logger   *slog.Logger

	ready bool
	band  int
	dates []time.Time

	tool   Tool
	state  State
	last   geometry.Point2D
	anchor geometry.Point2D

	kind      Kind
	points    *selection.Sequence
	vertices  []geometry.PointInt
	trace     []geometry.PointInt
	subsample []geometry.PointInt
	reference []geometry.PointInt
	highlight *geometry.PointInt
	refOn     bool

	hover *Hover

	onSelection []func(PlotData)
	onHover     []func(Hover)
}

// New returns an inert controller; it starts reacting once Activate is called.
func New(cam *camera.Camera, layer *selection.Layer, profiles Profiles, aux series.AuxSource, opts Options, logger *slog.Logger) *Controller {
	if opts.MaxPoints < 1 {
		opts.MaxPoints = 30
	}
	if opts.WheelDivisor == 0 {
		opts.WheelDivisor = 8
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		cam:      cam,
		layer:    layer,
		profiles: profiles,
		aux:      aux,
		opts:     opts,
		logger:   logger,
		points:   selection.NewSequence(opts.MaxPoints),
	}
}

// Activate makes the controller react to events. It is called once the
// first band has loaded.
func (c *Controller) Activate(dates []time.Time) {
	c.ready = true
	c.dates = dates
}

// Ready reports whether a band has loaded.
func (c *Controller) Ready() bool { return c.ready }

// SetProfiles swaps the texel profile reader.
func (c *Controller) SetProfiles(p Profiles) { c.profiles = p }

// SetBand records the band shown on the map, used for hover values.
func (c *Controller) SetBand(index int) { c.band = index }

// OnSelectionChanged registers fn for selection and reference changes.
func (c *Controller) OnSelectionChanged(fn func(PlotData)) {
	c.onSelection = append(c.onSelection, fn)
}

// OnHover registers fn for pointer moves over the raster.
func (c *Controller) OnHover(fn func(Hover)) {
	c.onHover = append(c.onHover, fn)
}

// Tool returns the active tool.
func (c *Controller) Tool() Tool { return c.tool }

// State returns the pointer sub-state.
func (c *Controller) State() State { return c.state }

// SetTool switches tools and abandons any drag in progress.
func (c *Controller) SetTool(t Tool) {
	c.tool = t
	c.state = Idle
}

// Points returns the picked points, oldest first.
func (c *Controller) Points() []geometry.PointInt { return c.points.Points() }

// Trace returns every pixel of the traced profile.
func (c *Controller) Trace() []geometry.PointInt { return clonePoints(c.trace) }

// Subsample returns the resampled profile, empty while the trace is short.
func (c *Controller) Subsample() []geometry.PointInt { return clonePoints(c.subsample) }

// Reference returns the reference texels.
func (c *Controller) Reference() []geometry.PointInt { return clonePoints(c.reference) }

// LastHover returns the most recent hover, if any.
func (c *Controller) LastHover() (Hover, bool) {
	if c.hover == nil {
		return Hover{}, false
	}
	return *c.hover, true
}

func (c *Controller) inBounds(p geometry.PointInt) bool {
	return c.layer.Contains(p)
}

// Press handles a button going down at screen position (sx, sy).
func (c *Controller) Press(sx, sy float64, b Button) {
	if !c.ready || c.state != Idle {
		return
	}
	p := c.cam.Texel(sx, sy)
	if !c.inBounds(p) {
		return
	}
	pos := geometry.NewPoint2D(sx, sy)
	c.last, c.anchor = pos, pos
	c.updateHover(p)

	if b == ButtonRight {
		c.state = ZoomDrag
		return
	}

	switch c.tool {
	case Navigate:
		c.state = Drag
	case Points:
		c.state = Painting
		c.addPoint(p)
	case Profile:
		c.addVertex(p)
	case Reference:
		c.setReference(p)
	}
}

// Move handles pointer motion, with or without a button held.
func (c *Controller) Move(sx, sy float64) {
	if !c.ready {
		return
	}
	pos := geometry.NewPoint2D(sx, sy)
	delta := pos.Sub(c.last)
	c.last = pos

	switch c.state {
	case Drag:
		c.cam.Pan(delta.X, delta.Y)
		return
	case ZoomDrag:
		// Dragging right or down zooms in.
		c.cam.ZoomAt(delta.X+delta.Y, c.anchor.X, c.anchor.Y)
		return
	}

	p := c.cam.Texel(sx, sy)
	if !c.inBounds(p) {
		return
	}
	c.updateHover(p)
	if c.state == Painting {
		c.addPoint(p)
	}
}

// Release ends any drag.
func (c *Controller) Release(sx, sy float64, _ Button) {
	if !c.ready {
		return
	}
	c.last = geometry.NewPoint2D(sx, sy)
	c.state = Idle
}

// Wheel zooms about the pointer. delta is the raw wheel delta.
func (c *Controller) Wheel(sx, sy, delta float64) {
	if !c.ready || delta == 0 {
		return
	}
	c.cam.ZoomAt(delta/c.opts.WheelDivisor, sx, sy)
}

// ClearAll drops every selection and reference.
func (c *Controller) ClearAll() {
	c.points.Clear()
	c.vertices = nil
	c.trace = nil
	c.subsample = nil
	c.reference = nil
	c.highlight = nil
	c.kind = KindNone
	c.layer.Clear()
	c.emitSelection()
}

// SetReferenceEnabled toggles subtracting the reference from plotted curves.
func (c *Controller) SetReferenceEnabled(on bool) {
	if c.refOn == on {
		return
	}
	c.refOn = on
	c.emitSelection()
}

// HighlightCurve marks the i-th plotted point as highlighted. It reports
// false when i is out of range.
func (c *Controller) HighlightCurve(i int) bool {
	pts := c.plotted()
	if i < 0 || i >= len(pts) {
		return false
	}
	p := pts[i]
	c.highlight = &p
	c.repaint()
	return true
}

func (c *Controller) addPoint(p geometry.PointInt) {
	added, dropped, evicted := c.points.Add(p)
	if !added {
		return
	}
	c.kind = KindPoints
	if evicted {
		if c.highlight != nil && *c.highlight == dropped {
			c.highlight = nil
		}
		c.layer.Mark(dropped, c.markerAt(dropped))
	}
	c.layer.Mark(p, c.markerAt(p))
	if _, err := c.valuesAt(p); err != nil {
		c.logger.Warn("Interaction: profile read failed", "x", p.X, "y", p.Y, "error", err)
	}
	c.emitSelection()
}

// markerAt returns the marker p gets from the current selections. Priority
// from highest: Highlight, Reference, SubsamplePoint, Point. repaint applies
// the same order.
func (c *Controller) markerAt(p geometry.PointInt) selection.Marker {
	switch {
	case c.highlight != nil && *c.highlight == p:
		return selection.Highlight
	case slices.Contains(c.reference, p):
		return selection.Reference
	case slices.Contains(c.subsample, p):
		return selection.SubsamplePoint
	case c.points.Contains(p) || slices.Contains(c.trace, p):
		return selection.Point
	default:
		return selection.None
	}
}

func (c *Controller) addVertex(p geometry.PointInt) {
	c.kind = KindProfile
	if len(c.vertices) == 0 {
		c.vertices = []geometry.PointInt{p}
		c.trace = []geometry.PointInt{p}
		c.subsample = nil
		c.layer.Mark(p, c.markerAt(p))
		c.emitSelection()
		return
	}

	prev := c.vertices[len(c.vertices)-1]
	if prev == p {
		return
	}
	c.vertices = append(c.vertices, p)
	seg := geometry.Line(prev.X, prev.Y, p.X, p.Y)
	c.trace = append(c.trace, seg[1:]...)

	c.layer.ClearMarker(selection.SubsamplePoint)
	c.subsample = nil
	if len(c.trace) > c.opts.MaxPoints {
		c.subsample = profile.Resample(c.trace, c.opts.MaxPoints)
	}
	c.repaint()
	c.emitSelection()
}

func (c *Controller) setReference(p geometry.PointInt) {
	switch {
	case len(c.reference) == 0:
		c.reference = []geometry.PointInt{p}
	case c.reference[len(c.reference)-1] == p:
		return
	default:
		corner := c.reference[len(c.reference)-1]
		c.reference = geometry.RectFromCorners(corner, p).Points()
	}
	c.repaint()
	c.emitSelection()
}

// repaint rebuilds the layer from the selections, lowest priority first
// (see markerAt).
func (c *Controller) repaint() {
	c.layer.Clear()
	c.layer.MarkAll(c.trace, selection.Point)
	c.layer.MarkAll(c.points.Points(), selection.Point)
	c.layer.MarkAll(c.subsample, selection.SubsamplePoint)
	c.layer.MarkReference(c.reference)
	if c.highlight != nil {
		c.layer.SetHighlight(*c.highlight)
	}
}

func (c *Controller) updateHover(p geometry.PointInt) {
	h := Hover{Texel: p, Value: math.NaN()}
	values, err := c.valuesAt(p)
	if err != nil {
		c.logger.Debug("Interaction: hover read failed", "x", p.X, "y", p.Y, "error", err)
	} else {
		h.Values = values
		if c.band >= 0 && c.band < len(values) {
			h.Value = values[c.band]
		}
	}
	c.hover = &h
	for _, fn := range c.onHover {
		fn(h)
	}
}

func (c *Controller) valuesAt(p geometry.PointInt) ([]float64, error) {
	if c.profiles == nil {
		return nil, fmt.Errorf("no profile reader")
	}
	return c.profiles.At(p)
}

func (c *Controller) emitSelection() {
	if len(c.onSelection) == 0 {
		return
	}
	data := c.PlotData()
	for _, fn := range c.onSelection {
		fn(data)
	}
}

func clonePoints(pts []geometry.PointInt) []geometry.PointInt {
	if len(pts) == 0 {
		return nil
	}
	out := make([]geometry.PointInt, len(pts))
	copy(out, pts)
	return out
}
