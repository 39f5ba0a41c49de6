// Package app owns the viewer session: the opened dataset and everything
// derived from it, plus the event bus the UI listens on.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"insar-viewer/internal/bandcache"
	"insar-viewer/internal/camera"
	"insar-viewer/internal/config"
	"insar-viewer/internal/interaction"
	"insar-viewer/internal/raster"
	"insar-viewer/internal/selection"
	"insar-viewer/internal/series"
)

// EventType identifies different application events.
type EventType int

const (
	// EventDatasetOpened carries *raster.Dataset.
	EventDatasetOpened EventType = iota
	// EventBandChanged carries *bandcache.NormalizedBand.
	EventBandChanged
	// EventLevelsInit carries Levels for the first band of a dataset.
	EventLevelsInit
	// EventViewReset carries camera.View after the dataset dimensions changed.
	EventViewReset
	// EventViewChanged carries camera.View on every pan, zoom or resize.
	EventViewChanged
	// EventSelectionChanged carries interaction.PlotData.
	EventSelectionChanged
	// EventHover carries interaction.Hover.
	EventHover
	// EventLayerChanged carries nothing; the selection layer was edited.
	EventLayerChanged
	// EventLoadFailed carries the error.
	EventLoadFailed
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// Levels are the initial display levels of a dataset.
type Levels struct {
	Low  float64
	High float64
}

// Opener opens a raster file.
type Opener func(path string) (raster.Source, error)

// State holds the session: one opened dataset with its band cache, camera,
// selection layer and interaction controller.
type State struct {
	mu sync.RWMutex

	cfg    *config.Config
	logger *slog.Logger
	open   Opener

	// RunOnUI applies load results to the camera, layer and controller.
	// It defaults to Do.
	RunOnUI func(func())

	ui sync.Mutex

	path     string
	dataset  *raster.Dataset
	cache    *bandcache.Cache
	profiles *series.Reader
	dates    []time.Time
	units    string

	cam        *camera.Camera
	layer      *selection.Layer
	controller *interaction.Controller

	band      int
	wanted    int
	current   *bandcache.NormalizedBand
	dimW      int
	dimH      int
	cancelBg  context.CancelFunc
	listeners map[EventType][]EventListener
}

// NewState creates an empty session. aux may be nil.
func NewState(cfg *config.Config, open Opener, aux series.AuxSource, logger *slog.Logger) *State {
	if logger == nil {
		logger = slog.Default()
	}
	s := &State{
		cfg:       cfg,
		logger:    logger,
		open:      open,
		band:      -1,
		wanted:    -1,
		listeners: make(map[EventType][]EventListener),
	}
	s.cam = camera.New(camera.Options{
		ZoomRate: cfg.ZoomRate,
		MinZoom:  cfg.MinZoom,
		MaxZoom:  cfg.MaxZoom,
	})
	s.RunOnUI = s.Do
	s.layer = selection.NewLayer(0, 0)
	s.controller = interaction.New(s.cam, s.layer, nil, aux, interaction.Options{
		MaxPoints:    cfg.MaxPoints,
		WheelDivisor: cfg.WheelDivisor,
	}, logger)

	s.cam.Subscribe(func(v camera.View) { s.Emit(EventViewChanged, v) })
	s.layer.Subscribe(func() { s.Emit(EventLayerChanged, nil) })
	s.controller.OnSelectionChanged(func(d interaction.PlotData) { s.Emit(EventSelectionChanged, d) })
	s.controller.OnHover(func(h interaction.Hover) { s.Emit(EventHover, h) })
	return s
}

// Do runs fn with exclusive access to the camera, selection layer and
// controller. Pointer handlers, draw passes and load results all go through
// it; fn must not call Do again.
func (s *State) Do(fn func()) {
	s.ui.Lock()
	defer s.ui.Unlock()
	fn()
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// Camera returns the session camera.
func (s *State) Camera() *camera.Camera { return s.cam }

// Selection returns the selection layer.
func (s *State) Selection() *selection.Layer { return s.layer }

// Controller returns the interaction controller.
func (s *State) Controller() *interaction.Controller { return s.controller }

// Config returns the session configuration.
func (s *State) Config() *config.Config { return s.cfg }

// Path returns the opened dataset path, or "".
func (s *State) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}

// Dataset returns the opened dataset, or nil.
func (s *State) Dataset() *raster.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataset
}

// Cache returns the band cache of the opened dataset, or nil.
func (s *State) Cache() *bandcache.Cache {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache
}

// CurrentBand returns the band on screen, or nil before the first load.
func (s *State) CurrentBand() *bandcache.NormalizedBand {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// BandIndex returns the index of the band on screen, -1 before the first load.
func (s *State) BandIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.band
}

// Dates returns acquisition dates parsed from band labels, nil if the labels
// carry none.
func (s *State) Dates() []time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dates
}

// Units returns the displacement unit from the sidecar metadata.
func (s *State) Units() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.units
}

// Open opens path and shows its first band. On failure the previously
// opened dataset is left in place.
func (s *State) Open(path string) error {
	src, err := s.open(path)
	if err != nil {
		s.logger.Error("Session: open failed", "path", path, "error", err)
		return err
	}
	ds := raster.NewDataset(src, s.cfg.Drivers)
	if ds.BandCount() == 0 {
		src.Close()
		return fmt.Errorf("%w: %s has no bands", raster.ErrIO, path)
	}

	meta, err := raster.LoadMetadata(path)
	if err != nil {
		s.logger.Warn("Session: sidecar unreadable", "path", raster.MetaPath(path), "error", err)
		meta = raster.Metadata{}
	}
	ds.SetMetadata(meta)

	profiles, err := series.NewReader(ds, s.cfg.ProfileCacheSize)
	if err != nil {
		src.Close()
		return err
	}
	cache := bandcache.New(ds, bandcache.Options{
		ExpectedType:    s.cfg.PixelType(),
		HistogramBins:   s.cfg.HistogramBins,
		PrefetchWorkers: s.cfg.PrefetchWorkers,
	}, s.logger)

	dates, ok := raster.ParseDates(ds.Labels())
	if !ok {
		dates = nil
	}

	first, err := cache.Get(0)
	if err != nil {
		src.Close()
		s.logger.Error("Session: first band unreadable", "path", path, "error", err)
		return err
	}

	s.mu.Lock()
	old := s.dataset
	if s.cancelBg != nil {
		s.cancelBg()
		s.cancelBg = nil
	}
	s.path = path
	s.dataset = ds
	s.cache = cache
	s.profiles = profiles
	s.dates = dates
	s.units = meta.Units()
	s.band, s.wanted = -1, 0
	s.current = nil
	s.mu.Unlock()

	info := ds.Info()
	s.logger.Info("Session: dataset opened", "path", path, "driver", info.Driver,
		"width", info.Width, "height", info.Height, "bands", info.Bands,
		"flip_rows", ds.Spec().FlipRows, "units", s.units)
	s.Emit(EventDatasetOpened, ds)

	s.RunOnUI(func() {
		s.controller.SetProfiles(profiles)
		s.applyBand(cache, first)
	})
	if old != nil {
		if err := old.Close(); err != nil {
			s.logger.Warn("Session: close previous dataset", "error", err)
		}
	}

	if s.cfg.Prefetch {
		s.prefetch(cache, ds.BandCount())
	}
	return nil
}

// ShowBand loads band index and makes it current. Load errors are reported
// through EventLoadFailed and returned; the session keeps its previous band.
func (s *State) ShowBand(index int) error {
	s.mu.Lock()
	cache := s.cache
	s.wanted = index
	s.mu.Unlock()
	if cache == nil {
		return errors.New("no dataset open")
	}

	b, err := cache.Get(index)
	if err != nil {
		s.logger.Error("Session: band load failed", "band", index, "error", err)
		s.Emit(EventLoadFailed, err)
		return err
	}
	s.RunOnUI(func() { s.applyBand(cache, b) })
	return nil
}

// ShowBandAsync loads band index in the background and applies it through
// RunOnUI if it is still the most recent request.
func (s *State) ShowBandAsync(index int) {
	s.mu.Lock()
	cache := s.cache
	s.wanted = index
	s.mu.Unlock()
	if cache == nil {
		return
	}

	go func() {
		b, err := cache.Get(index)
		s.RunOnUI(func() {
			if err != nil {
				s.logger.Error("Session: band load failed", "band", index, "error", err)
				s.Emit(EventLoadFailed, err)
				return
			}
			s.applyBand(cache, b)
		})
	}()
}

// applyBand makes b current. The camera and selection layer are reset on the
// first band of a dataset or when the dimensions change; results from a
// replaced dataset or a superseded request are dropped.
func (s *State) applyBand(cache *bandcache.Cache, b *bandcache.NormalizedBand) {
	s.mu.Lock()
	if cache != s.cache || b.Index != s.wanted {
		s.mu.Unlock()
		return
	}
	first := s.band == -1
	reset := first || b.Width != s.dimW || b.Height != s.dimH
	s.current = b
	s.band = b.Index
	if reset {
		s.dimW, s.dimH = b.Width, b.Height
	}
	dates := s.dates
	s.mu.Unlock()

	if reset {
		s.controller.ClearAll()
		s.layer.Reset(b.Width, b.Height)
		s.cam.Reset(b.Width, b.Height)
		s.controller.Activate(dates)
		s.Emit(EventViewReset, s.cam.View())
	}
	s.controller.SetBand(b.Index)
	if first {
		s.Emit(EventLevelsInit, Levels{Low: b.Percentiles.P5, High: b.Percentiles.P95})
	}
	s.Emit(EventBandChanged, b)
}

func (s *State) prefetch(cache *bandcache.Cache, bands int) {
	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancelBg = cancel
	s.mu.Unlock()

	indexes := make([]int, 0, bands)
	for i := 1; i < bands; i++ {
		indexes = append(indexes, i)
	}
	go func() {
		start := time.Now()
		if err := cache.Prefetch(ctx, indexes); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn("Session: prefetch stopped", "error", err)
			return
		}
		s.logger.Debug("Session: prefetch done", "bands", len(indexes), "elapsed", time.Since(start))
	}()
}

// Close releases the dataset and stops background work.
func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelBg != nil {
		s.cancelBg()
		s.cancelBg = nil
	}
	if s.dataset == nil {
		return nil
	}
	err := s.dataset.Close()
	s.dataset = nil
	return err
}
