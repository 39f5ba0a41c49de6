package geometry

// Line returns the texels of the discrete line from (x0, y0) to (x1, y1) using
// Bresenham's algorithm. Both ends are included and there is exactly one texel
// per step along the dominant axis, so len(result) == max(|dx|, |dy|) + 1.
//
// The line is always traced in the increasing direction of its dominant axis
// and reversed afterwards when needed, which makes Line(a, b) the exact
// reverse of Line(b, a).
func Line(x0, y0, x1, y1 int) []PointInt {
	dx, dy := x1-x0, y1-y0
	adx, ady := abs(dx), abs(dy)

	if (adx > ady && dx < 0) || (adx <= ady && dy < 0) {
		pts := Line(x1, y1, x0, y0)
		for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
			pts[i], pts[j] = pts[j], pts[i]
		}
		return pts
	}

	xsign, ysign := 1, 1
	if dx < 0 {
		xsign = -1
	}
	if dy < 0 {
		ysign = -1
	}

	// (xx, xy) is the unit step along the dominant axis, (yx, yy) along the other.
	var xx, xy, yx, yy int
	major, minor := adx, ady
	if adx > ady {
		xx, yy = xsign, ysign
	} else {
		major, minor = ady, adx
		xy, yx = ysign, xsign
	}

	pts := make([]PointInt, 0, major+1)
	d := 2*minor - major
	m := 0
	for s := 0; s <= major; s++ {
		pts = append(pts, PointInt{X: x0 + s*xx + m*yx, Y: y0 + s*xy + m*yy})
		if d >= 0 {
			m++
			d -= 2 * major
		}
		d += 2 * minor
	}
	return pts
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
