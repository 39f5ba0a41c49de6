package raster

import (
	"bufio"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Metadata holds "key: value" pairs from a dataset's .meta sidecar file.
type Metadata map[string]string

// Units returns the displacement unit, or "Undefined units".
func (m Metadata) Units() string {
	if u, ok := m["Value_unit"]; ok && u != "" {
		return u
	}
	return "Undefined units"
}

// MetaPath returns the sidecar path for a dataset: the dataset path with its
// extension replaced by ".meta".
func MetaPath(datasetPath string) string {
	return strings.TrimSuffix(datasetPath, filepath.Ext(datasetPath)) + ".meta"
}

// LoadMetadata reads the sidecar next to datasetPath. A missing file is not
// an error and yields an empty Metadata.
func LoadMetadata(datasetPath string) (Metadata, error) {
	f, err := os.Open(MetaPath(datasetPath))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Metadata{}, nil
		}
		return nil, err
	}
	defer f.Close()
	return ParseMetadata(f)
}

// ParseMetadata parses "key: value" lines. Lines without a separator are skipped.
func ParseMetadata(r io.Reader) (Metadata, error) {
	meta := Metadata{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		key, val, ok := strings.Cut(sc.Text(), ": ")
		if !ok {
			continue
		}
		meta[strings.TrimSpace(key)] = strings.TrimSpace(val)
	}
	return meta, sc.Err()
}

const dateLayout = "20060102"

// ParseDates converts band labels to acquisition dates. Each label must end
// with a YYYYMMDD stamp; if any label is missing or malformed ok is false and
// callers fall back to band indexes.
func ParseDates(labels []string) (dates []time.Time, ok bool) {
	if len(labels) == 0 {
		return nil, false
	}
	dates = make([]time.Time, len(labels))
	for i, l := range labels {
		if len(l) < len(dateLayout) {
			return nil, false
		}
		t, err := time.Parse(dateLayout, l[len(l)-len(dateLayout):])
		if err != nil {
			return nil, false
		}
		dates[i] = t
	}
	return dates, true
}
