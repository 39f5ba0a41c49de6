package raster

import (
	"errors"
	"fmt"
	"math"
)

// Dataset wraps a Source and applies its driver's rules. Every read that
// crosses into data coordinates (whole bands and single-pixel profiles) goes
// through the same row mapping, so row y always means the same texel.
type Dataset struct {
	src    Source
	info   Info
	spec   DriverSpec
	labels []string
	nodata []noData
	meta   Metadata
}

type noData struct {
	value float64
	set   bool
}

// NewDataset wraps src using the rules registered for its driver.
func NewDataset(src Source, drivers DriverTable) *Dataset {
	info := src.Info()
	spec := drivers.Lookup(info.Driver)
	if spec.NoDataOverride != nil {
		info.NoData = *spec.NoDataOverride
		info.HasNoData = true
	}

	labels := make([]string, info.Bands)
	nodata := make([]noData, info.Bands)
	for i := range labels {
		labels[i] = src.BandLabel(i)
		if spec.NoDataOverride != nil {
			nodata[i] = noData{value: *spec.NoDataOverride, set: true}
		} else {
			v, ok := src.BandNoData(i)
			nodata[i] = noData{value: v, set: ok}
		}
	}

	return &Dataset{src: src, info: info, spec: spec, labels: labels, nodata: nodata}
}

// Info returns the dataset description with any nodata override applied.
func (d *Dataset) Info() Info { return d.info }

// Width returns the raster width in texels.
func (d *Dataset) Width() int { return d.info.Width }

// Height returns the raster height in texels.
func (d *Dataset) Height() int { return d.info.Height }

// BandCount returns the number of bands (dates).
func (d *Dataset) BandCount() int { return d.info.Bands }

// Spec returns the driver rules in effect.
func (d *Dataset) Spec() DriverSpec { return d.spec }

// Labels returns the band descriptions.
func (d *Dataset) Labels() []string { return d.labels }

// Metadata returns the sidecar metadata, if any was attached.
func (d *Dataset) Metadata() Metadata { return d.meta }

// SetMetadata attaches sidecar metadata.
func (d *Dataset) SetMetadata(m Metadata) { d.meta = m }

// Close releases the underlying source.
func (d *Dataset) Close() error { return d.src.Close() }

// ReadBand reads band index in data orientation.
func (d *Dataset) ReadBand(index int) (Band, error) {
	if index < 0 || index >= d.info.Bands {
		return Band{}, fmt.Errorf("%w: %d not in [0,%d)", ErrIndexOutOfRange, index, d.info.Bands)
	}

	b, err := d.src.ReadBand(index)
	if err != nil {
		return Band{}, wrapIO(err, fmt.Sprintf("read band %d", index))
	}
	if b.Width != d.info.Width || b.Height != d.info.Height || len(b.Samples) != b.Width*b.Height {
		return Band{}, fmt.Errorf("%w: band %d is %dx%d with %d samples, dataset is %dx%d",
			ErrDataType, index, b.Width, b.Height, len(b.Samples), d.info.Width, d.info.Height)
	}

	if d.spec.NoDataOverride != nil {
		b.NoData = *d.spec.NoDataOverride
		b.HasNoData = true
	}
	if d.spec.FlipRows {
		b.Samples = flipRows(b.Samples, b.Width, b.Height)
	}
	return b, nil
}

// Profile returns the value of every band at texel (x, y). Samples equal to
// their own band's nodata value are reported as NaN, matching ReadBand.
func (d *Dataset) Profile(x, y int) ([]float64, error) {
	if x < 0 || x >= d.info.Width || y < 0 || y >= d.info.Height {
		return nil, fmt.Errorf("%w: texel (%d,%d) outside %dx%d", ErrIndexOutOfRange, x, y, d.info.Width, d.info.Height)
	}

	values, err := d.src.ReadPixel(x, d.SourceRow(y))
	if err != nil {
		return nil, wrapIO(err, fmt.Sprintf("read pixel (%d,%d)", x, y))
	}
	for i, v := range values {
		if i < len(d.nodata) && d.nodata[i].set && v == d.nodata[i].value {
			values[i] = math.NaN()
		}
	}
	return values, nil
}

// SourceRow maps a data row to the driver's native row.
func (d *Dataset) SourceRow(y int) int {
	if d.spec.FlipRows {
		return d.info.Height - 1 - y
	}
	return y
}

func flipRows(samples []float64, width, height int) []float64 {
	out := make([]float64, len(samples))
	for row := 0; row < height; row++ {
		src := samples[row*width : (row+1)*width]
		copy(out[(height-1-row)*width:(height-row)*width], src)
	}
	return out
}

// wrapIO tags source failures with ErrIO unless they already carry one of
// the package sentinels.
func wrapIO(err error, op string) error {
	if errors.Is(err, ErrDataType) || errors.Is(err, ErrIndexOutOfRange) || errors.Is(err, ErrIO) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrIO, op, err)
}
