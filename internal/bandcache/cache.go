// Package bandcache loads raster bands on demand and memoizes their
// percentile-stretched, validity-masked form for the lifetime of a session.
package bandcache

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"insar-viewer/internal/raster"
)

// Reader is the part of a dataset the cache needs.
type Reader interface {
	ReadBand(index int) (raster.Band, error)
	BandCount() int
}

// NormalizedBand is the renderable form of one band. It is never mutated
// after Get returns it.
type NormalizedBand struct {
	Index  int
	Width  int
	Height int
	// Values holds (sample-P0)/(P100-P0) clamped to [0,1]; 0 where invalid.
	Values []float32
	// Raw holds the samples in data orientation.
	Raw         []float32
	Valid       []bool
	ValidCount  int
	Percentiles Percentiles
	Histogram   Histogram
}

// At returns the normalized value and validity of texel (x, y).
func (b *NormalizedBand) At(x, y int) (float32, bool) {
	i := y*b.Width + x
	return b.Values[i], b.Valid[i]
}

// Options configures a Cache.
type Options struct {
	// ExpectedType rejects bands of any other pixel type. TypeUnknown accepts all.
	ExpectedType  raster.DataType
	HistogramBins int
	// PrefetchWorkers bounds concurrent reads in Prefetch.
	PrefetchWorkers int
}

// Cache is safe for concurrent use. At most one read per band index is in
// flight at any time; entries are published whole and never evicted.
type Cache struct {
	src    Reader
	opts   Options
	logger *slog.Logger

	group singleflight.Group

	mu       sync.RWMutex
	entries  map[int]*NormalizedBand
	min, max float64
	hasRange bool
}

// New creates an empty cache over src.
func New(src Reader, opts Options, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.PrefetchWorkers <= 0 {
		opts.PrefetchWorkers = 2
	}
	return &Cache{
		src:     src,
		opts:    opts,
		logger:  logger,
		entries: make(map[int]*NormalizedBand),
	}
}

// Len returns the number of cached bands.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Peek returns a cached band without loading it.
func (c *Cache) Peek(index int) (*NormalizedBand, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.entries[index]
	return b, ok
}

// Range returns the lowest P0 and highest P100 seen over all loaded bands.
func (c *Cache) Range() (min, max float64, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.min, c.max, c.hasRange
}

// Get returns band index, reading and normalizing it on first access.
// Failed loads are not cached.
func (c *Cache) Get(index int) (*NormalizedBand, error) {
	if n := c.src.BandCount(); index < 0 || index >= n {
		return nil, fmt.Errorf("%w: %d not in [0,%d)", raster.ErrIndexOutOfRange, index, n)
	}
	if b, ok := c.Peek(index); ok {
		return b, nil
	}

	v, err, _ := c.group.Do(strconv.Itoa(index), func() (interface{}, error) {
		// A caller that lost the race to an earlier flight finds it here.
		if b, ok := c.Peek(index); ok {
			return b, nil
		}
		b, err := c.load(index)
		if err != nil {
			return nil, err
		}
		c.publish(b)
		return b, nil
	})
	if err != nil {
		c.logger.Warn("BandCache: load failed", "band", index, "error", err)
		return nil, err
	}
	return v.(*NormalizedBand), nil
}

// Prefetch loads the given bands in the background, a few at a time. It
// stops at the first error or when ctx is cancelled.
func (c *Cache) Prefetch(ctx context.Context, indexes []int) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.PrefetchWorkers)
	for _, idx := range indexes {
		if _, ok := c.Peek(idx); ok {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		idx := idx
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, err := c.Get(idx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("prefetch: %w", err)
	}
	return nil
}

func (c *Cache) publish(b *NormalizedBand) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[b.Index] = b
	if b.ValidCount == 0 {
		return
	}
	if !c.hasRange || b.Percentiles.P0 < c.min {
		c.min = b.Percentiles.P0
	}
	if !c.hasRange || b.Percentiles.P100 > c.max {
		c.max = b.Percentiles.P100
	}
	c.hasRange = true
}

func (c *Cache) load(index int) (*NormalizedBand, error) {
	raw, err := c.src.ReadBand(index)
	if err != nil {
		return nil, fmt.Errorf("band %d: %w", index, err)
	}
	if c.opts.ExpectedType != raster.TypeUnknown && raw.Type != c.opts.ExpectedType {
		return nil, fmt.Errorf("%w: band %d is %s, want %s", raster.ErrDataType, index, raw.Type, c.opts.ExpectedType)
	}
	b := normalize(index, raw, c.opts.HistogramBins)
	c.logger.Debug("BandCache: loaded band", "band", index,
		"valid", b.ValidCount, "p0", b.Percentiles.P0, "p5", b.Percentiles.P5,
		"p95", b.Percentiles.P95, "p100", b.Percentiles.P100)
	return b, nil
}

// normalize builds a NormalizedBand from raw samples already in data orientation.
func normalize(index int, raw raster.Band, bins int) *NormalizedBand {
	n := len(raw.Samples)
	b := &NormalizedBand{
		Index:  index,
		Width:  raw.Width,
		Height: raw.Height,
		Values: make([]float32, n),
		Raw:    make([]float32, n),
		Valid:  make([]bool, n),
	}

	valid := make([]float64, 0, n)
	for i, s := range raw.Samples {
		b.Raw[i] = float32(s)
		if math.IsNaN(s) || (raw.HasNoData && s == raw.NoData) {
			continue
		}
		b.Valid[i] = true
		valid = append(valid, s)
	}
	b.ValidCount = len(valid)
	sort.Float64s(valid)

	b.Percentiles = computePercentiles(valid)
	b.Histogram = computeHistogram(valid, bins)

	lo, span := b.Percentiles.P0, b.Percentiles.P100-b.Percentiles.P0
	if span <= 0 {
		return b
	}
	for i, s := range raw.Samples {
		if !b.Valid[i] {
			continue
		}
		v := (s - lo) / span
		b.Values[i] = float32(math.Min(1, math.Max(0, v)))
	}
	return b
}
