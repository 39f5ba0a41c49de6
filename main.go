// Command insar-viewer displays InSAR displacement time series stored as
// multi-band rasters.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"insar-viewer/internal/app"
	"insar-viewer/internal/config"
	"insar-viewer/internal/raster"
	"insar-viewer/internal/raster/gdal"
	"insar-viewer/internal/version"
	"insar-viewer/ui/mainwindow"
	"insar-viewer/ui/prefs"

	fyneapp "fyne.io/fyne/v2/app"
)

const reloadQuiet = 2 * time.Second

func main() {
	configPath := flag.String("config", config.DefaultPath(), "Path to the JSON configuration file")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error); overrides the config file")
	showVersion := flag.Bool("version", false, "Print version and exit")
	watch := flag.Bool("watch", true, "Reopen the dataset when it changes on disk")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] [dataset]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	cfg, err := config.Load(*configPath)
	level := *logLevel
	if level == "" {
		level = cfg.LogLevel
	}
	logger := newLogger(level)
	slog.SetDefault(logger)
	if err != nil {
		logger.Warn("Config: using defaults", "path", *configPath, "error", err)
	}
	logger.Info("Starting", "version", version.Version, "config", *configPath)

	open := func(path string) (raster.Source, error) {
		return gdal.Open(path, logger)
	}
	state := app.NewState(cfg, open, nil, logger)
	defer state.Close()

	fyneApp := fyneapp.NewWithID("io.github.insar-viewer")
	fyneApp.Settings().SetTheme(&app.ViewerTheme{})

	p := prefs.Load(prefs.DefaultDir())
	win := mainwindow.New(fyneApp, state, p)

	if *watch {
		w := &reloader{logger: logger, reopen: win.OpenDataset}
		state.On(app.EventDatasetOpened, func(interface{}) { w.follow(state.Path()) })
		defer w.stop()
	}

	path := flag.Arg(0)
	if path == "" {
		path = p.LastDataset()
	}
	if path != "" {
		win.OpenDataset(path)
	}

	win.ShowAndRun()
}

// newLogger returns a text logger at the named level, falling back to info.
func newLogger(level string) *slog.Logger {
	lvl, err := config.ParseLevel(level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// reloader keeps one DatasetWatcher on the currently opened dataset.
type reloader struct {
	mu      sync.Mutex
	logger  *slog.Logger
	reopen  func(path string)
	path    string
	watcher *app.DatasetWatcher
}

func (r *reloader) follow(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if path == r.path && r.watcher != nil {
		return
	}
	if r.watcher != nil {
		r.watcher.Stop()
		r.watcher = nil
	}
	w, err := app.NewDatasetWatcher(path, []string{raster.MetaPath(path)}, reloadQuiet, r.logger, func(string) { r.reopen(path) })
	if err != nil {
		r.logger.Warn("Watcher: disabled", "path", path, "error", err)
		return
	}
	r.path = path
	r.watcher = w
	w.Start()
}

func (r *reloader) stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.watcher != nil {
		r.watcher.Stop()
	}
}
