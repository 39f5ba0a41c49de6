// Package gdal opens multi-band rasters (GeoTIFF, ENVI, ...) through GDAL.
package gdal

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/airbusgeo/godal"

	"insar-viewer/internal/raster"
)

var registerOnce sync.Once

// Source is a raster.Source backed by a GDAL dataset. GDAL handles are not
// safe for concurrent use, so every read holds mu.
type Source struct {
	mu     sync.Mutex
	ds     *godal.Dataset
	path   string
	info   raster.Info
	dtype  raster.DataType
	logger *slog.Logger
}

// Open opens path with every registered GDAL driver.
func Open(path string, logger *slog.Logger) (*Source, error) {
	if logger == nil {
		logger = slog.Default()
	}
	registerOnce.Do(godal.RegisterAll)

	ds, err := godal.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", raster.ErrIO, path, err)
	}

	st := ds.Structure()
	bands := ds.Bands()
	if len(bands) == 0 {
		ds.Close()
		return nil, fmt.Errorf("%w: %s has no bands", raster.ErrIO, path)
	}

	info := raster.Info{
		Width:  st.SizeX,
		Height: st.SizeY,
		Bands:  len(bands),
		Driver: ds.Driver().ShortName(),
	}
	if nd, ok := bands[0].NoData(); ok {
		info.NoData = nd
		info.HasNoData = true
	}

	s := &Source{
		ds:     ds,
		path:   path,
		info:   info,
		dtype:  dataType(bands[0].Structure().DataType),
		logger: logger,
	}
	logger.Info("Raster: opened dataset",
		"path", path, "driver", info.Driver, "width", info.Width, "height", info.Height,
		"bands", info.Bands, "type", s.dtype.String(), "nodata", info.NoData, "has_nodata", info.HasNoData)
	return s, nil
}

func (s *Source) Info() raster.Info { return s.info }

func (s *Source) ReadBand(index int) (raster.Band, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ds == nil {
		return raster.Band{}, fmt.Errorf("%w: %s is closed", raster.ErrIO, s.path)
	}

	bands := s.ds.Bands()
	if index < 0 || index >= len(bands) {
		return raster.Band{}, fmt.Errorf("%w: %d", raster.ErrIndexOutOfRange, index)
	}
	band := bands[index]
	bs := band.Structure()

	buf := make([]float64, bs.SizeX*bs.SizeY)
	if err := band.Read(0, 0, buf, bs.SizeX, bs.SizeY); err != nil {
		return raster.Band{}, fmt.Errorf("%w: %s band %d: %w", raster.ErrIO, s.path, index, err)
	}

	b := raster.Band{
		Width:   bs.SizeX,
		Height:  bs.SizeY,
		Samples: buf,
		Type:    dataType(bs.DataType),
	}
	if nd, ok := band.NoData(); ok {
		b.NoData = nd
		b.HasNoData = true
	}
	return b, nil
}

func (s *Source) ReadPixel(x, y int) ([]float64, error) {
	if x < 0 || x >= s.info.Width || y < 0 || y >= s.info.Height {
		return nil, fmt.Errorf("%w: pixel (%d,%d)", raster.ErrIndexOutOfRange, x, y)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ds == nil {
		return nil, fmt.Errorf("%w: %s is closed", raster.ErrIO, s.path)
	}

	bands := s.ds.Bands()
	out := make([]float64, len(bands))
	px := make([]float64, 1)
	for i, band := range bands {
		if err := band.Read(x, y, px, 1, 1); err != nil {
			return nil, fmt.Errorf("%w: %s band %d pixel (%d,%d): %w", raster.ErrIO, s.path, i, x, y, err)
		}
		out[i] = px[0]
	}
	return out, nil
}

func (s *Source) BandLabel(index int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ds == nil {
		return ""
	}

	bands := s.ds.Bands()
	if index < 0 || index >= len(bands) {
		return ""
	}
	return bands[index].Description()
}

func (s *Source) BandNoData(index int) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ds == nil {
		return 0, false
	}

	bands := s.ds.Bands()
	if index < 0 || index >= len(bands) {
		return 0, false
	}
	return bands[index].NoData()
}

func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ds == nil {
		return nil
	}
	err := s.ds.Close()
	s.ds = nil
	if err != nil {
		return fmt.Errorf("close %s: %w", s.path, err)
	}
	return nil
}

func dataType(t godal.DataType) raster.DataType {
	switch t {
	case godal.Byte:
		return raster.TypeByte
	case godal.UInt16:
		return raster.TypeUInt16
	case godal.Int16:
		return raster.TypeInt16
	case godal.UInt32:
		return raster.TypeUInt32
	case godal.Int32:
		return raster.TypeInt32
	case godal.Float32:
		return raster.TypeFloat32
	case godal.Float64:
		return raster.TypeFloat64
	default:
		return raster.TypeUnknown
	}
}
