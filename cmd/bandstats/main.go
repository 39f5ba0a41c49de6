// Command bandstats prints per-band display percentiles of a displacement
// raster without starting the viewer.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"insar-viewer/internal/bandcache"
	"insar-viewer/internal/config"
	"insar-viewer/internal/raster"
	"insar-viewer/internal/raster/gdal"
)

type row struct {
	Band  int     `json:"band"`
	Label string  `json:"label"`
	Valid int     `json:"valid"`
	P0    float64 `json:"p0"`
	P5    float64 `json:"p5"`
	P95   float64 `json:"p95"`
	P100  float64 `json:"p100"`
}

func main() {
	configPath := flag.String("config", config.DefaultPath(), "Path to the JSON configuration file")
	asJSON := flag.Bool("json", false, "Write JSON instead of a table")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Println("Usage: bandstats [-config path] [-json] <dataset>")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config: %v (using defaults)\n", err)
	}
	logger := newLogger(cfg.LogLevel)

	src, err := gdal.Open(flag.Arg(0), logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open dataset: %v\n", err)
		os.Exit(1)
	}
	ds := raster.NewDataset(src, cfg.Drivers)
	defer ds.Close()

	cache := bandcache.New(ds, bandcache.Options{
		ExpectedType:    cfg.PixelType(),
		HistogramBins:   cfg.HistogramBins,
		PrefetchWorkers: cfg.PrefetchWorkers,
	}, logger)

	indexes := make([]int, ds.BandCount())
	for i := range indexes {
		indexes[i] = i
	}
	if err := cache.Prefetch(context.Background(), indexes); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read bands: %v\n", err)
		os.Exit(1)
	}

	rows := make([]row, 0, len(indexes))
	labels := ds.Labels()
	for _, i := range indexes {
		b, err := cache.Get(i)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Band %d: %v\n", i, err)
			os.Exit(1)
		}
		rows = append(rows, row{
			Band: i, Label: labels[i], Valid: b.ValidCount,
			P0: b.Percentiles.P0, P5: b.Percentiles.P5, P95: b.Percentiles.P95, P100: b.Percentiles.P100,
		})
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rows); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write JSON: %v\n", err)
			os.Exit(1)
		}
		return
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "band\tlabel\tvalid\tp0\tp5\tp95\tp100\t")
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%.4f\t%.4f\t%.4f\t%.4f\t\n", r.Band, r.Label, r.Valid, r.P0, r.P5, r.P95, r.P100)
	}
	if lo, hi, ok := cache.Range(); ok {
		fmt.Fprintf(tw, "range\t\t\t%.4f\t\t\t%.4f\t\n", lo, hi)
	}
	tw.Flush()
}

func newLogger(level string) *slog.Logger {
	lvl, err := config.ParseLevel(level)
	if err != nil {
		lvl = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
