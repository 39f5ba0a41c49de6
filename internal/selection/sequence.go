package selection

import (
	"slices"

	"insar-viewer/pkg/geometry"
)

// Sequence is a bounded FIFO of distinct texels: once full, adding a new
// point drops the oldest one.
type Sequence struct {
	capacity int
	points   []geometry.PointInt
}

// NewSequence returns an empty sequence holding at most capacity points.
func NewSequence(capacity int) *Sequence {
	if capacity < 1 {
		capacity = 1
	}
	return &Sequence{capacity: capacity, points: make([]geometry.PointInt, 0, capacity)}
}

// Add appends p. It reports false when p is already present. When the
// sequence was full, the dropped point is returned with evicted set.
func (s *Sequence) Add(p geometry.PointInt) (added bool, dropped geometry.PointInt, evicted bool) {
	if s.Contains(p) {
		return false, geometry.PointInt{}, false
	}
	if len(s.points) == s.capacity {
		dropped = s.points[0]
		s.points = append(s.points[:0], s.points[1:]...)
		evicted = true
	}
	s.points = append(s.points, p)
	return true, dropped, evicted
}

// Contains reports whether p is in the sequence.
func (s *Sequence) Contains(p geometry.PointInt) bool {
	return slices.Contains(s.points, p)
}

// Points returns a copy, oldest first.
func (s *Sequence) Points() []geometry.PointInt {
	return slices.Clone(s.points)
}

func (s *Sequence) Len() int { return len(s.points) }
func (s *Sequence) Cap() int { return s.capacity }

// Clear removes every point.
func (s *Sequence) Clear() { s.points = s.points[:0] }
