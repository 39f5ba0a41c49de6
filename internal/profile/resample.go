// Package profile resamples traced pixel paths by arc length.
package profile

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"

	"insar-viewer/pkg/geometry"
)

// CumulativeDistances returns the Euclidean distance travelled along points
// up to each point; the first entry is 0.
func CumulativeDistances(points []geometry.PointInt) []float64 {
	if len(points) == 0 {
		return nil
	}
	steps := make([]float64, len(points))
	for i := 1; i < len(points); i++ {
		steps[i] = points[i].Distance(points[i-1])
	}
	return floats.CumSum(steps, steps)
}

// Resample returns n points equally spaced by arc length along the polyline,
// endpoints included. x and y are interpolated linearly against normalized
// distance and rounded half to even. A path of zero length yields its first
// point n times.
func Resample(points []geometry.PointInt, n int) []geometry.PointInt {
	if n <= 0 || len(points) == 0 {
		return nil
	}

	dist := CumulativeDistances(points)
	total := dist[len(dist)-1]
	if total == 0 {
		out := make([]geometry.PointInt, n)
		for i := range out {
			out[i] = points[0]
		}
		return out
	}

	// The interpolator needs strictly increasing abscissae; repeated points
	// add no length and are dropped.
	ts := make([]float64, 0, len(points))
	xs := make([]float64, 0, len(points))
	ys := make([]float64, 0, len(points))
	for i, p := range points {
		t := dist[i] / total
		if len(ts) > 0 && t <= ts[len(ts)-1] {
			continue
		}
		ts = append(ts, t)
		xs = append(xs, float64(p.X))
		ys = append(ys, float64(p.Y))
	}

	var fx, fy interp.PiecewiseLinear
	if err := fx.Fit(ts, xs); err != nil {
		return nil
	}
	if err := fy.Fit(ts, ys); err != nil {
		return nil
	}

	samples := []float64{0}
	if n > 1 {
		samples = floats.Span(make([]float64, n), 0, 1)
	}
	out := make([]geometry.PointInt, n)
	for i, t := range samples {
		out[i] = geometry.Pt(
			int(math.RoundToEven(fx.Predict(t))),
			int(math.RoundToEven(fy.Predict(t))),
		)
	}
	return out
}
