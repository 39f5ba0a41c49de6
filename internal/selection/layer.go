// Package selection holds the per-texel annotation grid drawn over the map
// and the bounded point sequence used by point picking.
package selection

import "insar-viewer/pkg/geometry"

// Marker is the annotation state of one texel.
type Marker uint8

const (
	None Marker = iota
	Point
	Highlight
	Reference
	SubsamplePoint
)

func (m Marker) String() string {
	switch m {
	case None:
		return "none"
	case Point:
		return "point"
	case Highlight:
		return "highlight"
	case Reference:
		return "reference"
	case SubsamplePoint:
		return "subsample"
	default:
		return "unknown"
	}
}

// Layer is a dense width x height grid of markers indexed in data
// coordinates (row 0 is the southernmost row). It is owned by the UI
// goroutine.
type Layer struct {
	width, height int
	cells         []Marker
	listeners     []func()
}

// NewLayer returns an all-None layer.
func NewLayer(width, height int) *Layer {
	return &Layer{width: width, height: height, cells: make([]Marker, width*height)}
}

// Subscribe registers fn to be called after every change.
func (l *Layer) Subscribe(fn func()) {
	l.listeners = append(l.listeners, fn)
}

func (l *Layer) changed() {
	for _, fn := range l.listeners {
		fn()
	}
}

func (l *Layer) Width() int  { return l.width }
func (l *Layer) Height() int { return l.height }

// Contains reports whether p is inside the grid.
func (l *Layer) Contains(p geometry.PointInt) bool {
	return p.In(l.width, l.height)
}

// Reset re-creates the grid with new dimensions, all None.
func (l *Layer) Reset(width, height int) {
	l.width, l.height = width, height
	l.cells = make([]Marker, width*height)
	l.changed()
}

// Clear sets every cell to None without changing dimensions.
func (l *Layer) Clear() {
	clear(l.cells)
	l.changed()
}

// At returns the marker at (x, y), or None outside the grid.
func (l *Layer) At(x, y int) Marker {
	if x < 0 || x >= l.width || y < 0 || y >= l.height {
		return None
	}
	return l.cells[y*l.width+x]
}

// Mark sets a single cell. Points outside the grid are ignored.
func (l *Layer) Mark(p geometry.PointInt, m Marker) {
	if l.set(p, m) {
		l.changed()
	}
}

// MarkAll sets m on every point inside the grid.
func (l *Layer) MarkAll(points []geometry.PointInt, m Marker) {
	changed := false
	for _, p := range points {
		changed = l.set(p, m) || changed
	}
	if changed {
		l.changed()
	}
}

// MarkReference marks points as Reference. Other markers are left alone
// except where a reference point overwrites them.
func (l *Layer) MarkReference(points []geometry.PointInt) {
	l.MarkAll(points, Reference)
}

// SetHighlight moves the single Highlight marker to p.
func (l *Layer) SetHighlight(p geometry.PointInt) {
	l.clearMarker(Highlight)
	l.set(p, Highlight)
	l.changed()
}

// ClearMarker sets every cell holding m back to None and returns how many
// cells changed.
func (l *Layer) ClearMarker(m Marker) int {
	n := l.clearMarker(m)
	if n > 0 {
		l.changed()
	}
	return n
}

func (l *Layer) clearMarker(m Marker) int {
	n := 0
	for i, c := range l.cells {
		if c == m {
			l.cells[i] = None
			n++
		}
	}
	return n
}

func (l *Layer) set(p geometry.PointInt, m Marker) bool {
	if !l.Contains(p) {
		return false
	}
	i := p.Y*l.width + p.X
	if l.cells[i] == m {
		return false
	}
	l.cells[i] = m
	return true
}

// Count returns how many cells hold m.
func (l *Layer) Count(m Marker) int {
	n := 0
	for _, c := range l.cells {
		if c == m {
			n++
		}
	}
	return n
}

// Snapshot returns a copy of the grid, row-major in data orientation.
func (l *Layer) Snapshot() []Marker {
	out := make([]Marker, len(l.cells))
	copy(out, l.cells)
	return out
}
