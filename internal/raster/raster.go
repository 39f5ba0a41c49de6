// Package raster defines the multi-band raster collaborator used by the viewer
// and the per-driver orientation rules applied to everything read from it.
package raster

import (
	"errors"
	"strings"
)

var (
	// ErrIO reports a failure to open or read a dataset.
	ErrIO = errors.New("raster: i/o failure")
	// ErrDataType reports a band whose pixel type is not the expected one.
	ErrDataType = errors.New("raster: unexpected pixel type")
	// ErrIndexOutOfRange reports a band index outside [0, band count).
	ErrIndexOutOfRange = errors.New("raster: band index out of range")
)

// DataType is the pixel type of a band as stored on disk.
type DataType int

const (
	TypeUnknown DataType = iota
	TypeByte
	TypeUInt16
	TypeInt16
	TypeUInt32
	TypeInt32
	TypeFloat32
	TypeFloat64
)

func (t DataType) String() string {
	switch t {
	case TypeByte:
		return "uint8"
	case TypeUInt16:
		return "uint16"
	case TypeInt16:
		return "int16"
	case TypeUInt32:
		return "uint32"
	case TypeInt32:
		return "int32"
	case TypeFloat32:
		return "float32"
	case TypeFloat64:
		return "float64"
	default:
		return "unknown"
	}
}

// ParseDataType maps a type name ("float32", "Float32", "uint8", "byte", ...)
// to a DataType.
func ParseDataType(name string) DataType {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "uint8", "byte":
		return TypeByte
	case "uint16":
		return TypeUInt16
	case "int16":
		return TypeInt16
	case "uint32":
		return TypeUInt32
	case "int32":
		return TypeInt32
	case "float32":
		return TypeFloat32
	case "float64":
		return TypeFloat64
	default:
		return TypeUnknown
	}
}

// Info describes a dataset. All bands share Width and Height.
type Info struct {
	Width     int
	Height    int
	Bands     int
	Driver    string // format tag, e.g. "GTiff" or "ENVI"
	NoData    float64
	HasNoData bool
}

// Band holds the raw samples of one band in row-major order, as stored by the
// driver (no orientation change applied).
type Band struct {
	Width     int
	Height    int
	Samples   []float64
	NoData    float64
	HasNoData bool
	Type      DataType
}

// Source is the raster file collaborator. Indexes are zero-based; rows are in
// the driver's native order.
type Source interface {
	Info() Info
	ReadBand(index int) (Band, error)
	// ReadPixel returns the value of every band at column x, row y.
	ReadPixel(x, y int) ([]float64, error)
	// BandLabel returns the band description, or "" when there is none.
	BandLabel(index int) string
	// BandNoData returns the nodata value declared for one band.
	BandNoData(index int) (float64, bool)
	Close() error
}
