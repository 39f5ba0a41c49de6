// Package series reads per-date displacement vectors for single texels and
// combines them into reference baselines.
package series

import (
	"fmt"
	"math"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"gonum.org/v1/gonum/floats"

	"insar-viewer/pkg/geometry"
)

// ProfileSource returns every band's value at a texel, NaN where invalid.
type ProfileSource interface {
	Profile(x, y int) ([]float64, error)
}

// Reader memoizes texel profiles. Returned slices are shared and must not be
// modified.
type Reader struct {
	src   ProfileSource
	cache *lru.Cache[geometry.PointInt, []float64]
}

// NewReader wraps src with an LRU of size entries.
func NewReader(src ProfileSource, size int) (*Reader, error) {
	if size <= 0 {
		size = 1
	}
	c, err := lru.New[geometry.PointInt, []float64](size)
	if err != nil {
		return nil, fmt.Errorf("profile cache: %w", err)
	}
	return &Reader{src: src, cache: c}, nil
}

// At returns the per-date values at p.
func (r *Reader) At(p geometry.PointInt) ([]float64, error) {
	if v, ok := r.cache.Get(p); ok {
		return v, nil
	}
	v, err := r.src.Profile(p.X, p.Y)
	if err != nil {
		return nil, err
	}
	r.cache.Add(p, v)
	return v, nil
}

// Purge drops every memoized profile.
func (r *Reader) Purge() { r.cache.Purge() }

// Mean returns the element-wise mean of vectors, skipping NaN samples. A date
// with no finite sample is NaN. Vectors shorter than the first are ignored.
func Mean(vectors [][]float64) []float64 {
	if len(vectors) == 0 {
		return nil
	}
	n := len(vectors[0])
	sum := make([]float64, n)
	count := make([]float64, n)
	for _, v := range vectors {
		if len(v) < n {
			continue
		}
		for i := 0; i < n; i++ {
			if math.IsNaN(v[i]) {
				continue
			}
			sum[i] += v[i]
			count[i]++
		}
	}
	for i := range sum {
		if count[i] == 0 {
			sum[i] = math.NaN()
		}
	}
	floats.Div(sum, count)
	return sum
}

// Subtract returns values - ref. A nil or mismatched ref returns a copy of values.
func Subtract(values, ref []float64) []float64 {
	out := make([]float64, len(values))
	if len(ref) != len(values) {
		copy(out, values)
		return out
	}
	return floats.SubTo(out, values, ref)
}

// AuxSeries is a secondary time series shown alongside the raster curves,
// typically the east/north/up components of a GNSS station.
type AuxSeries struct {
	Name  string
	Dates []time.Time
	East  []float64
	North []float64
	Up    []float64
}

// AuxSource produces the auxiliary series for the current session.
type AuxSource interface {
	Series() (*AuxSeries, error)
}
