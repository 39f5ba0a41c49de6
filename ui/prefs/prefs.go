// Package prefs persists per-user viewer preferences that are not part of
// the configuration file: window geometry, last directory and display style.
package prefs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

const prefsFile = "preferences.json"

// Prefs holds the remembered UI state.
type Prefs struct {
	mu   sync.RWMutex
	path string
	v    values
}

type values struct {
	LastDir      string  `json:"last_dir,omitempty"`
	LastDataset  string  `json:"last_dataset,omitempty"`
	Palette      string  `json:"palette,omitempty"`
	WindowWidth  float32 `json:"window_width,omitempty"`
	WindowHeight float32 `json:"window_height,omitempty"`
}

// Load reads preferences from dir/preferences.json. A missing or unreadable
// file yields empty preferences.
func Load(dir string) *Prefs {
	p := &Prefs{path: filepath.Join(dir, prefsFile)}
	if data, err := os.ReadFile(p.path); err == nil {
		_ = json.Unmarshal(data, &p.v)
	}
	return p
}

// DefaultDir returns ~/.config/insar-viewer.
func DefaultDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(dir, "insar-viewer")
}

// Save writes preferences to disk.
func (p *Prefs) Save() error {
	p.mu.RLock()
	data, err := json.MarshalIndent(p.v, "", "  ")
	p.mu.RUnlock()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p.path, data, 0o644)
}

func (p *Prefs) LastDir() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.v.LastDir
}

func (p *Prefs) LastDataset() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.v.LastDataset
}

// SetLastDataset records path and its directory.
func (p *Prefs) SetLastDataset(path string) {
	p.mu.Lock()
	p.v.LastDataset = path
	p.v.LastDir = filepath.Dir(path)
	p.mu.Unlock()
}

// Palette returns the remembered palette name, or fallback.
func (p *Prefs) Palette(fallback string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.v.Palette == "" {
		return fallback
	}
	return p.v.Palette
}

func (p *Prefs) SetPalette(name string) {
	p.mu.Lock()
	p.v.Palette = name
	p.mu.Unlock()
}

// WindowSize returns the remembered size, or the fallback when none is stored.
func (p *Prefs) WindowSize(fw, fh float32) (float32, float32) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.v.WindowWidth <= 0 || p.v.WindowHeight <= 0 {
		return fw, fh
	}
	return p.v.WindowWidth, p.v.WindowHeight
}

func (p *Prefs) SetWindowSize(w, h float32) {
	p.mu.Lock()
	p.v.WindowWidth, p.v.WindowHeight = w, h
	p.mu.Unlock()
}
