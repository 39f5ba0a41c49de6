package bandcache

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Percentiles are the display levels of a band, computed over valid samples.
type Percentiles struct {
	P0   float64
	P5   float64
	P95  float64
	P100 float64
}

// Histogram counts valid raw samples. len(Dividers) == len(Counts)+1.
type Histogram struct {
	Dividers []float64
	Counts   []float64
}

// percentile returns the q-th percentile (q in [0,100]) of sorted data using
// linear interpolation between closest ranks, the default of most numeric
// libraries: h = (n-1)q/100, result = s[lo] + (h-lo)(s[lo+1]-s[lo]).
func percentile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	h := float64(n-1) * q / 100
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

func computePercentiles(sorted []float64) Percentiles {
	return Percentiles{
		P0:   percentile(sorted, 0),
		P5:   percentile(sorted, 5),
		P95:  percentile(sorted, 95),
		P100: percentile(sorted, 100),
	}
}

// computeHistogram bins sorted values into bins equal-width buckets spanning
// [min, max]. The top divider is nudged above max so max lands in the last bin.
func computeHistogram(sorted []float64, bins int) Histogram {
	if len(sorted) == 0 || bins <= 0 {
		return Histogram{}
	}
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if hi == lo {
		hi = lo + 1
	}
	dividers := floats.Span(make([]float64, bins+1), lo, hi)
	dividers[bins] = math.Nextafter(hi, math.Inf(1))
	counts := stat.Histogram(nil, dividers, sorted, nil)
	return Histogram{Dividers: dividers, Counts: counts}
}
