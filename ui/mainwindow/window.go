// Package mainwindow provides the main application window.
package mainwindow

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"insar-viewer/internal/app"
	"insar-viewer/internal/bandcache"
	"insar-viewer/internal/interaction"
	"insar-viewer/internal/version"
	"insar-viewer/pkg/colorutil"
	"insar-viewer/pkg/geometry"
	"insar-viewer/ui/mapview"
	"insar-viewer/ui/prefs"
	"insar-viewer/ui/render"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

const (
	appTitle    = "InSAR Viewer"
	minimapSize = 200
)

var toolNames = []string{"Navigate", "Points", "Profile", "Reference"}

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app   fyne.App
	state *app.State
	prefs *prefs.Prefs

	mapView   *mapview.MapView
	minimap   *fynecanvas.Raster
	slider    *widget.Slider
	dateLabel *widget.Label
	levels    *widget.Label
	curves    *widget.List
	statusBar *widget.Label

	plot interaction.PlotData
}

// New creates the main window.
func New(fyneApp fyne.App, state *app.State, p *prefs.Prefs) *MainWindow {
	mw := &MainWindow{
		Window: fyneApp.NewWindow(appTitle),
		app:    fyneApp,
		state:  state,
		prefs:  p,
		plot:   interaction.PlotData{Highlight: -1},
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupEventHandlers()

	w, h := p.WindowSize(1200, 800)
	mw.Resize(fyne.NewSize(w, h))
	mw.SetCloseIntercept(func() {
		size := mw.Canvas().Size()
		mw.prefs.SetWindowSize(size.Width, size.Height)
		if err := mw.prefs.Save(); err != nil {
			fyne.LogError("saving preferences", err)
		}
		mw.Close()
	})
	return mw
}

// MapView returns the map widget.
func (mw *MainWindow) MapView() *mapview.MapView { return mw.mapView }

func (mw *MainWindow) setupUI() {
	palette := colorutil.ByName(mw.prefs.Palette(colorutil.RedBlue.Name))
	mw.mapView = mapview.New(mw.state, render.Style{
		Palette:    palette,
		Low:        -1,
		High:       1,
		Background: colorutil.Black,
	})
	mw.mapView.OnLeave(func() { mw.updateStatus(mw.state.Units()) })

	mw.minimap = fynecanvas.NewRaster(mw.drawMinimap)
	mw.minimap.ScaleMode = fynecanvas.ImageScalePixels
	mw.minimap.SetMinSize(fyne.NewSize(minimapSize, minimapSize))

	mw.slider = widget.NewSlider(0, 0)
	mw.slider.Step = 1
	mw.slider.OnChanged = func(v float64) { mw.state.ShowBandAsync(int(v)) }
	mw.dateLabel = widget.NewLabel("No dataset")
	mw.levels = widget.NewLabel("")
	mw.statusBar = widget.NewLabel("Ready")

	mw.curves = widget.NewList(
		func() int { return len(mw.plot.Curves) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.ListItemID, o fyne.CanvasObject) {
			o.(*widget.Label).SetText(mw.curveText(id))
		},
	)
	mw.curves.OnSelected = func(id widget.ListItemID) {
		mw.state.Do(func() { mw.state.Controller().HighlightCurve(id) })
	}

	side := container.NewBorder(
		container.NewVBox(
			widget.NewCard("Overview", "", container.NewCenter(mw.minimap)),
			mw.levels,
			widget.NewLabel("Selected curves"),
		),
		nil, nil, nil,
		mw.curves,
	)

	mapArea := container.NewBorder(
		mw.createToolbar(),
		container.NewBorder(nil, nil, nil, mw.dateLabel, mw.slider),
		nil, nil,
		mw.mapView,
	)

	split := container.NewHSplit(mapArea, side)
	split.SetOffset(0.75)

	mw.SetContent(container.NewBorder(nil, container.NewPadded(mw.statusBar), nil, nil, split))
}

func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	tools := widget.NewRadioGroup(toolNames, func(name string) {
		for i, n := range toolNames {
			if n == name {
				mw.state.Do(func() { mw.state.Controller().SetTool(interaction.Tool(i)) })
				return
			}
		}
	})
	tools.Horizontal = true
	tools.Required = true
	tools.SetSelected(toolNames[0])

	reference := widget.NewCheck("Subtract reference", func(on bool) {
		mw.state.Do(func() { mw.state.Controller().SetReferenceEnabled(on) })
	})
	clearBtn := widget.NewButton("Clear", func() {
		mw.state.Do(mw.state.Controller().ClearAll)
	})
	resetBtn := widget.NewButton("Reset view", func() {
		if b := mw.state.CurrentBand(); b != nil {
			mw.state.Do(func() { mw.state.Camera().Reset(b.Width, b.Height) })
		}
	})
	autoBtn := widget.NewButton("Auto levels", mw.onAutoLevels)

	var names []string
	for _, p := range colorutil.Palettes() {
		names = append(names, p.Name)
	}
	palette := widget.NewSelect(names, func(name string) {
		st := mw.mapView.Style()
		st.Palette = colorutil.ByName(name)
		mw.mapView.SetStyle(st)
		mw.prefs.SetPalette(name)
		mw.minimap.Refresh()
	})
	palette.SetSelected(mw.mapView.Style().Palette.Name)

	return container.NewHBox(tools, reference, clearBtn, resetBtn, autoBtn, palette)
}

func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Dataset...", mw.onOpen),
		fyne.NewMenuItem("Export Snapshot...", mw.onExport),
	)
	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)
	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, helpMenu))
}

func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventDatasetOpened, func(interface{}) {
		n := mw.state.Dataset().BandCount()
		mw.slider.Max = float64(max(n-1, 0))
		mw.slider.Value = 0
		mw.slider.Refresh()
		mw.SetTitle(appTitle + " - " + filepath.Base(mw.state.Path()))
		mw.updateStatus(mw.state.Units())
	})

	mw.state.On(app.EventBandChanged, func(data interface{}) {
		if b, ok := data.(*bandcache.NormalizedBand); ok {
			mw.dateLabel.SetText(mw.bandLabel(b.Index))
		}
		mw.minimap.Refresh()
	})

	mw.state.On(app.EventLevelsInit, func(data interface{}) {
		if lv, ok := data.(app.Levels); ok {
			mw.setLevels(lv.Low, lv.High)
		}
	})

	mw.state.On(app.EventViewChanged, func(interface{}) { mw.minimap.Refresh() })

	mw.state.On(app.EventHover, func(data interface{}) {
		if h, ok := data.(interaction.Hover); ok {
			mw.updateStatus(strings.ReplaceAll(h.Tooltip(), "\n", "  ") + " " + mw.state.Units())
		}
	})

	mw.state.On(app.EventSelectionChanged, func(data interface{}) {
		if pd, ok := data.(interaction.PlotData); ok {
			mw.plot = pd
			mw.curves.UnselectAll()
			mw.curves.Refresh()
		}
	})

	mw.state.On(app.EventLoadFailed, func(data interface{}) {
		if err, ok := data.(error); ok {
			dialog.ShowError(err, mw.Window)
		}
	})
}

func (mw *MainWindow) drawMinimap(w, h int) image.Image {
	var visible geometry.Rect
	mw.state.Do(func() { visible = mw.state.Camera().Bounds() })
	return render.Minimap(mw.state.CurrentBand(), image.Pt(w, h), visible, mw.mapView.Style())
}

func (mw *MainWindow) bandLabel(i int) string {
	dates := mw.state.Dates()
	if i >= 0 && i < len(dates) {
		return dates[i].Format("2006-01-02")
	}
	return fmt.Sprintf("band %d", i)
}

func (mw *MainWindow) curveText(i int) string {
	if i < 0 || i >= len(mw.plot.Curves) {
		return ""
	}
	c := mw.plot.Curves[i]
	band := mw.state.BandIndex()
	if band >= 0 && band < len(c.Values) {
		return fmt.Sprintf("(%d, %d)  %.3f %s", c.Texel.X, c.Texel.Y, c.Values[band], mw.state.Units())
	}
	return fmt.Sprintf("(%d, %d)", c.Texel.X, c.Texel.Y)
}

func (mw *MainWindow) setLevels(low, high float64) {
	st := mw.mapView.Style()
	st.Low, st.High = low, high
	mw.mapView.SetStyle(st)
	mw.levels.SetText(fmt.Sprintf("Levels: %.3f .. %.3f", low, high))
	mw.minimap.Refresh()
}

func (mw *MainWindow) onAutoLevels() {
	if b := mw.state.CurrentBand(); b != nil {
		mw.setLevels(b.Percentiles.P5, b.Percentiles.P95)
	}
}

func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

// lastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) lastDir() fyne.ListableURI {
	dir := mw.prefs.LastDir()
	if dir == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(dir))
	if err != nil {
		return nil
	}
	return listable
}

// OpenDataset opens path and reports failures in a dialog.
func (mw *MainWindow) OpenDataset(path string) {
	if err := mw.state.Open(path); err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.prefs.SetLastDataset(path)
}

func (mw *MainWindow) onOpen() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		mw.OpenDataset(reader.URI().Path())
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".tif", ".tiff", ".img", ".dat", ".bin"}))
	if loc := mw.lastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onExport() {
	if mw.state.CurrentBand() == nil {
		dialog.ShowError(errors.New("no dataset open"), mw.Window)
		return
	}
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		defer writer.Close()
		if err := render.WriteTIFF(writer, mw.mapView.Snapshot()); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.updateStatus("Snapshot saved: " + writer.URI().Path())
	}, mw.Window)
	fd.SetFileName("snapshot.tif")
	if loc := mw.lastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About", fmt.Sprintf("%s %s\nbuilt %s (%s)",
		appTitle, version.Version, version.BuildTime, version.GitCommit), mw.Window)
}
