package raster

// DriverSpec holds the per-format rules applied when reading a dataset.
type DriverSpec struct {
	// FlipRows reverses row order so that row 0 is the southernmost row.
	FlipRows bool `json:"flip_rows"`
	// NoDataOverride, when set, replaces whatever nodata value the file declares.
	NoDataOverride *float64 `json:"nodata_override,omitempty"`
}

// DriverTable maps a driver tag to its rules. Unknown drivers get the zero
// DriverSpec: native row order and the file's own nodata value.
type DriverTable map[string]DriverSpec

// DefaultDrivers returns the built-in table. GeoTIFF stores rows north-first
// and has to be flipped; ENVI cubes produced by the InSAR chains are already
// south-first.
func DefaultDrivers() DriverTable {
	return DriverTable{
		"GTiff": {FlipRows: true},
		"COG":   {FlipRows: true},
		"ENVI":  {FlipRows: false},
	}
}

// Lookup returns the rules for driver.
func (t DriverTable) Lookup(driver string) DriverSpec {
	if t == nil {
		return DriverSpec{}
	}
	return t[driver]
}
