package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insar-viewer/pkg/geometry"
)

func TestLayerMarkAndClear(t *testing.T) {
	l := NewLayer(4, 3)
	changes := 0
	l.Subscribe(func() { changes++ })

	l.Mark(geometry.Pt(1, 2), Point)
	l.Mark(geometry.Pt(1, 2), Point)
	l.Mark(geometry.Pt(9, 9), Point)
	assert.Equal(t, Point, l.At(1, 2))
	assert.Equal(t, None, l.At(9, 9))
	assert.Equal(t, 1, changes, "no-op and out-of-bounds marks do not notify")

	l.MarkAll([]geometry.PointInt{geometry.Pt(0, 0), geometry.Pt(3, 2)}, SubsamplePoint)
	assert.Equal(t, 2, l.ClearMarker(SubsamplePoint))
	assert.Equal(t, Point, l.At(1, 2))
	assert.Equal(t, 0, l.ClearMarker(SubsamplePoint))
}

func TestHighlightIsExclusive(t *testing.T) {
	l := NewLayer(5, 5)
	l.SetHighlight(geometry.Pt(1, 1))
	l.SetHighlight(geometry.Pt(3, 4))
	assert.Equal(t, 1, l.Count(Highlight))
	assert.Equal(t, Highlight, l.At(3, 4))
	assert.Equal(t, None, l.At(1, 1))
}

func TestReferenceKeepsPoints(t *testing.T) {
	l := NewLayer(5, 5)
	l.Mark(geometry.Pt(0, 0), Point)
	l.SetHighlight(geometry.Pt(4, 4))
	l.MarkReference(geometry.RectFromCorners(geometry.Pt(1, 1), geometry.Pt(2, 2)).Points())

	assert.Equal(t, 4, l.Count(Reference))
	assert.Equal(t, Point, l.At(0, 0))
	assert.Equal(t, Highlight, l.At(4, 4))
}

func TestLayerReset(t *testing.T) {
	l := NewLayer(2, 2)
	l.Mark(geometry.Pt(1, 1), Reference)
	l.Reset(600, 600)
	assert.Equal(t, 600, l.Width())
	assert.Equal(t, 600, l.Height())
	snap := l.Snapshot()
	require.Len(t, snap, 360000)
	assert.Equal(t, 360000, l.Count(None))

	l.Mark(geometry.Pt(5, 5), Point)
	snap[5*600+5] = Reference
	assert.Equal(t, Point, l.At(5, 5), "snapshot is a copy")

	l.Clear()
	assert.Equal(t, 0, l.Count(Point))
}

func TestSequenceFIFO(t *testing.T) {
	s := NewSequence(3)
	for i := 0; i < 3; i++ {
		added, _, evicted := s.Add(geometry.Pt(i, 0))
		assert.True(t, added)
		assert.False(t, evicted)
	}

	added, _, _ := s.Add(geometry.Pt(1, 0))
	assert.False(t, added, "duplicates are ignored")
	assert.Equal(t, 3, s.Len())

	added, dropped, evicted := s.Add(geometry.Pt(7, 7))
	assert.True(t, added)
	assert.True(t, evicted)
	assert.Equal(t, geometry.Pt(0, 0), dropped)
	assert.Equal(t, []geometry.PointInt{geometry.Pt(1, 0), geometry.Pt(2, 0), geometry.Pt(7, 7)}, s.Points())

	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 3, s.Cap())
}

func TestSequenceSlidingWindow(t *testing.T) {
	s := NewSequence(30)
	for i := 0; i < 45; i++ {
		s.Add(geometry.Pt(i, i))
		assert.LessOrEqual(t, s.Len(), 30)
	}
	pts := s.Points()
	require.Len(t, pts, 30)
	assert.Equal(t, geometry.Pt(15, 15), pts[0])
	assert.Equal(t, geometry.Pt(44, 44), pts[29])
}

func TestMarkerString(t *testing.T) {
	assert.Equal(t, "reference", Reference.String())
	assert.Equal(t, "unknown", Marker(42).String())
}
