// Package mapview provides the interactive displacement map widget.
package mapview

import (
	"image"
	"sync"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"insar-viewer/internal/app"
	"insar-viewer/internal/camera"
	"insar-viewer/internal/interaction"
	"insar-viewer/internal/selection"
	"insar-viewer/ui/render"
)

// fyne reports roughly 10 units per wheel notch; the controller expects
// eighths of a degree (120 per notch).
const wheelScale = 12

// MapView draws the current band with its selection overlay and forwards
// pointer events to the session controller. Positions are converted to
// device pixels so one texel at zoom 1 is one screen pixel.
type MapView struct {
	widget.BaseWidget

	state  *app.State
	raster *fynecanvas.Raster

	mu    sync.Mutex
	style render.Style
	buf   *image.RGBA

	onLeave func()
}

var (
	_ desktop.Mouseable = (*MapView)(nil)
	_ desktop.Hoverable = (*MapView)(nil)
	_ fyne.Scrollable   = (*MapView)(nil)
)

// New creates a map view bound to state.
func New(state *app.State, style render.Style) *MapView {
	mv := &MapView{state: state, style: style}
	mv.raster = fynecanvas.NewRaster(mv.draw)
	mv.raster.ScaleMode = fynecanvas.ImageScalePixels
	mv.raster.SetMinSize(fyne.NewSize(400, 300))

	for _, ev := range []app.EventType{app.EventBandChanged, app.EventViewChanged, app.EventViewReset, app.EventLayerChanged} {
		state.On(ev, func(interface{}) { mv.raster.Refresh() })
	}
	mv.ExtendBaseWidget(mv)
	return mv
}

// SetStyle changes palette or levels and redraws.
func (mv *MapView) SetStyle(st render.Style) {
	mv.mu.Lock()
	mv.style = st
	mv.mu.Unlock()
	mv.raster.Refresh()
}

// Style returns the current style.
func (mv *MapView) Style() render.Style {
	mv.mu.Lock()
	defer mv.mu.Unlock()
	return mv.style
}

// OnLeave sets a callback for the pointer leaving the map.
func (mv *MapView) OnLeave(fn func()) { mv.onLeave = fn }

// Snapshot renders the current view at its on-screen size.
func (mv *MapView) Snapshot() *image.RGBA {
	var (
		v       camera.View
		markers []selection.Marker
	)
	mv.state.Do(func() {
		v = mv.state.Camera().View()
		markers = mv.state.Selection().Snapshot()
	})
	dst := image.NewRGBA(image.Rect(0, 0, v.Width, v.Height))
	render.Map(dst, mv.state.CurrentBand(), markers, v, mv.Style())
	return dst
}

func (mv *MapView) draw(w, h int) image.Image {
	var (
		v       camera.View
		markers []selection.Marker
	)
	mv.state.Do(func() {
		mv.state.Camera().Resize(w, h)
		v = mv.state.Camera().View()
		markers = mv.state.Selection().Snapshot()
	})

	mv.mu.Lock()
	defer mv.mu.Unlock()
	if mv.buf == nil || mv.buf.Bounds().Dx() != w || mv.buf.Bounds().Dy() != h {
		mv.buf = image.NewRGBA(image.Rect(0, 0, w, h))
	}
	render.Map(mv.buf, mv.state.CurrentBand(), markers, v, mv.style)
	return mv.buf
}

// pixels converts a widget position to device pixels.
func (mv *MapView) pixels(pos fyne.Position) (float64, float64) {
	scale := float32(1)
	if c := fyne.CurrentApp().Driver().CanvasForObject(mv); c != nil {
		scale = c.Scale()
	}
	return float64(pos.X * scale), float64(pos.Y * scale)
}

func button(b desktop.MouseButton) (interaction.Button, bool) {
	switch b {
	case desktop.MouseButtonPrimary:
		return interaction.ButtonLeft, true
	case desktop.MouseButtonSecondary:
		return interaction.ButtonRight, true
	default:
		return 0, false
	}
}

func (mv *MapView) MouseDown(ev *desktop.MouseEvent) {
	b, ok := button(ev.Button)
	if !ok {
		return
	}
	x, y := mv.pixels(ev.Position)
	mv.state.Do(func() { mv.state.Controller().Press(x, y, b) })
}

func (mv *MapView) MouseUp(ev *desktop.MouseEvent) {
	b, ok := button(ev.Button)
	if !ok {
		return
	}
	x, y := mv.pixels(ev.Position)
	mv.state.Do(func() { mv.state.Controller().Release(x, y, b) })
}

func (mv *MapView) MouseIn(ev *desktop.MouseEvent) {
	mv.MouseMoved(ev)
}

// MouseMoved is also delivered while a button is held, since MapView does
// not implement fyne.Draggable.
func (mv *MapView) MouseMoved(ev *desktop.MouseEvent) {
	x, y := mv.pixels(ev.Position)
	mv.state.Do(func() { mv.state.Controller().Move(x, y) })
}

func (mv *MapView) MouseOut() {
	mv.state.Do(func() {
		ctl := mv.state.Controller()
		if ctl.State() != interaction.Idle {
			ctl.Release(0, 0, interaction.ButtonLeft)
		}
	})
	if mv.onLeave != nil {
		mv.onLeave()
	}
}

func (mv *MapView) Scrolled(ev *fyne.ScrollEvent) {
	x, y := mv.pixels(ev.Position)
	mv.state.Do(func() { mv.state.Controller().Wheel(x, y, float64(ev.Scrolled.DY)*wheelScale) })
}

func (mv *MapView) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(mv.raster)
}
