// Package config holds per-session viewer settings loaded from JSON.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"insar-viewer/internal/raster"
)

// Config holds runtime configuration for the viewer. Fields may be loaded
// from a JSON file and overridden by command-line flags.
type Config struct {
	LogLevel string `json:"log_level"`

	// Selection
	MaxPoints int `json:"max_points"`

	// Camera
	ZoomRate     float64 `json:"zoom_rate"`
	WheelDivisor float64 `json:"wheel_divisor"`
	MinZoom      float64 `json:"min_zoom"`
	MaxZoom      float64 `json:"max_zoom"`

	// Band loading
	ExpectedType     string             `json:"expected_type"`
	HistogramBins    int                `json:"histogram_bins"`
	PrefetchWorkers  int                `json:"prefetch_workers"`
	Prefetch         bool               `json:"prefetch"`
	ProfileCacheSize int                `json:"profile_cache_size"`
	Drivers          raster.DriverTable `json:"drivers"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:         "info",
		MaxPoints:        30,
		ZoomRate:         0.01,
		WheelDivisor:     8,
		MinZoom:          0.01,
		MaxZoom:          200,
		ExpectedType:     "float32",
		HistogramBins:    256,
		PrefetchWorkers:  2,
		Prefetch:         true,
		ProfileCacheSize: 4096,
		Drivers:          raster.DefaultDrivers(),
	}
}

// Validate resets out-of-range values to their defaults. It fails only on
// values that cannot be repaired.
func (c *Config) Validate() error {
	def := DefaultConfig()
	if c.MaxPoints < 2 {
		c.MaxPoints = def.MaxPoints
	}
	if c.ZoomRate <= 0 {
		c.ZoomRate = def.ZoomRate
	}
	if c.WheelDivisor <= 0 {
		c.WheelDivisor = def.WheelDivisor
	}
	if c.MinZoom < 0 {
		c.MinZoom = 0
	}
	if c.MaxZoom < 0 || (c.MaxZoom > 0 && c.MaxZoom < c.MinZoom) {
		c.MaxZoom = 0
	}
	if c.HistogramBins <= 0 {
		c.HistogramBins = def.HistogramBins
	}
	if c.PrefetchWorkers <= 0 {
		c.PrefetchWorkers = def.PrefetchWorkers
	}
	if c.ProfileCacheSize <= 0 {
		c.ProfileCacheSize = def.ProfileCacheSize
	}
	if c.Drivers == nil {
		c.Drivers = def.Drivers
	}
	if c.ExpectedType == "" {
		c.ExpectedType = def.ExpectedType
	}
	if strings.ToLower(c.ExpectedType) != "any" && raster.ParseDataType(c.ExpectedType) == raster.TypeUnknown {
		return fmt.Errorf("config: unknown expected_type %q", c.ExpectedType)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		c.LogLevel = def.LogLevel
	}
	return nil
}

// PixelType returns the pixel type bands must have, TypeUnknown for "any".
func (c *Config) PixelType() raster.DataType {
	return raster.ParseDataType(c.ExpectedType)
}

// ParseLevel maps "debug", "info", "warn" or "error" to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: log level %q: %w", s, err)
	}
	return lvl, nil
}

// DefaultPath returns ~/.config/insar-viewer/config.json or the platform
// equivalent.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(dir, "insar-viewer", "config.json")
}

// Load attempts to read configuration from the given JSON file path. If the
// file does not exist it returns DefaultConfig(). On JSON error it returns
// defaults with the error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("config: decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return DefaultConfig(), err
	}
	return cfg, nil
}

// Save writes the configuration to path in indented JSON, creating the
// parent directory.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
