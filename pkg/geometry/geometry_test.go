package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineKnownOctant(t *testing.T) {
	got := Line(0, 0, 4, 3)
	want := []PointInt{{0, 0}, {1, 1}, {2, 2}, {3, 2}, {4, 3}}
	assert.Equal(t, want, got)
}

func TestLineSinglePoint(t *testing.T) {
	assert.Equal(t, []PointInt{{7, -2}}, Line(7, -2, 7, -2))
}

func TestLineAxisAligned(t *testing.T) {
	assert.Equal(t, []PointInt{{2, 5}, {2, 4}, {2, 3}}, Line(2, 5, 2, 3))
	assert.Equal(t, []PointInt{{0, 1}, {1, 1}, {2, 1}, {3, 1}}, Line(0, 1, 3, 1))
}

func TestLineProperties(t *testing.T) {
	ends := [][4]int{
		{0, 0, 4, 3}, {0, 0, 3, 4}, {0, 0, -4, 3}, {0, 0, -3, 4},
		{0, 0, -4, -3}, {0, 0, -3, -4}, {0, 0, 4, -3}, {0, 0, 3, -4},
		{5, 9, 17, 2}, {-6, 3, 11, 20}, {8, 8, 8, 0}, {1, 1, 6, 6},
		{3, -7, -12, 5}, {0, 0, 1, 10}, {0, 0, 10, 1},
	}
	for _, e := range ends {
		x0, y0, x1, y1 := e[0], e[1], e[2], e[3]
		fwd := Line(x0, y0, x1, y1)
		rev := Line(x1, y1, x0, y0)

		require.Len(t, fwd, max(abs(x1-x0), abs(y1-y0))+1, "endpoints %v", e)
		assert.Equal(t, PointInt{x0, y0}, fwd[0])
		assert.Equal(t, PointInt{x1, y1}, fwd[len(fwd)-1])

		for i := 1; i < len(fwd); i++ {
			assert.LessOrEqual(t, abs(fwd[i].X-fwd[i-1].X), 1, "endpoints %v", e)
			assert.LessOrEqual(t, abs(fwd[i].Y-fwd[i-1].Y), 1, "endpoints %v", e)
		}

		for i := range fwd {
			assert.Equal(t, fwd[i], rev[len(rev)-1-i], "endpoints %v index %d", e, i)
		}
	}
}

func TestRectFromCornersPoints(t *testing.T) {
	r := RectFromCorners(Pt(4, 5), Pt(2, 2))
	assert.Equal(t, RectInt{X: 2, Y: 2, Width: 3, Height: 4}, r)

	pts := r.Points()
	require.Len(t, pts, 12)
	assert.Equal(t, Pt(2, 2), pts[0])
	assert.Equal(t, Pt(2, 5), pts[3])
	assert.Equal(t, Pt(3, 2), pts[4])
	assert.Equal(t, Pt(4, 5), pts[11])

	assert.Equal(t, []PointInt{{2, 3}}, RectFromCorners(Pt(2, 3), Pt(2, 3)).Points())
}

func TestAffineInverseRoundTrip(t *testing.T) {
	tr := Translation(320, 240).Compose(Scale(2.5, -2.5)).Compose(Translation(-100, -50))
	inv, ok := tr.Inverse()
	require.True(t, ok)

	p := Point2D{X: 12.25, Y: -3.5}
	back := inv.Apply(tr.Apply(p))
	assert.InDelta(t, p.X, back.X, 1e-9)
	assert.InDelta(t, p.Y, back.Y, 1e-9)

	_, ok = Scale(0, 1).Inverse()
	assert.False(t, ok)
}
