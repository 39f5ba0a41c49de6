package raster

import (
	"fmt"
	"sync/atomic"
)

// MemorySource is an in-memory Source. Bands are stored row-major in the
// order a driver named Driver would deliver them.
type MemorySource struct {
	Width     int
	Height    int
	Driver    string
	NoData    float64
	HasNoData bool
	Type      DataType
	Data      [][]float64
	Labels    []string
	// PerBandNoData overrides NoData for individual bands.
	PerBandNoData map[int]float64

	bandReads atomic.Int64
}

// NewMemorySource returns a float32-typed source with one slice per band.
func NewMemorySource(width, height int, bands [][]float64) *MemorySource {
	return &MemorySource{
		Width:  width,
		Height: height,
		Driver: "MEM",
		Type:   TypeFloat32,
		Data:   bands,
	}
}

// BandReads returns how many times ReadBand has been called.
func (m *MemorySource) BandReads() int64 { return m.bandReads.Load() }

func (m *MemorySource) Info() Info {
	return Info{
		Width:     m.Width,
		Height:    m.Height,
		Bands:     len(m.Data),
		Driver:    m.Driver,
		NoData:    m.NoData,
		HasNoData: m.HasNoData,
	}
}

func (m *MemorySource) ReadBand(index int) (Band, error) {
	m.bandReads.Add(1)
	if index < 0 || index >= len(m.Data) {
		return Band{}, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	samples := make([]float64, len(m.Data[index]))
	copy(samples, m.Data[index])
	nd, hasNoData := m.BandNoData(index)
	return Band{
		Width:     m.Width,
		Height:    m.Height,
		Samples:   samples,
		NoData:    nd,
		HasNoData: hasNoData,
		Type:      m.Type,
	}, nil
}

func (m *MemorySource) ReadPixel(x, y int) ([]float64, error) {
	if x < 0 || x >= m.Width || y < 0 || y >= m.Height {
		return nil, fmt.Errorf("%w: pixel (%d,%d)", ErrIndexOutOfRange, x, y)
	}
	out := make([]float64, len(m.Data))
	for i, band := range m.Data {
		out[i] = band[y*m.Width+x]
	}
	return out, nil
}

func (m *MemorySource) BandLabel(index int) string {
	if index < 0 || index >= len(m.Labels) {
		return ""
	}
	return m.Labels[index]
}

func (m *MemorySource) BandNoData(index int) (float64, bool) {
	if nd, ok := m.PerBandNoData[index]; ok {
		return nd, true
	}
	return m.NoData, m.HasNoData
}

func (m *MemorySource) Close() error { return nil }
