package interaction

import (
	"time"

	"insar-viewer/internal/profile"
	"insar-viewer/internal/series"
	"insar-viewer/pkg/geometry"
)

// Kind says which tool produced the current selection.
type Kind int

const (
	KindNone Kind = iota
	KindPoints
	KindProfile
)

// Curve is the per-date series of one selected texel.
type Curve struct {
	Texel  geometry.PointInt
	Values []float64
}

// PlotData is everything the temporal and spatial plots need.
type PlotData struct {
	Kind   Kind
	Curves []Curve
	// Distances is the cumulative distance along the curves' texels, in
	// texels, for the spatial plot axis.
	Distances []float64
	// Reference is the per-date reference baseline, nil without reference.
	Reference []float64
	// Referenced is true when Reference was subtracted from every curve.
	Referenced bool
	Aux        *series.AuxSeries
	Dates      []time.Time
	// Highlight is the index of the highlighted curve, or -1.
	Highlight int
}

// plotted returns the texels whose curves are shown.
func (c *Controller) plotted() []geometry.PointInt {
	switch c.kind {
	case KindPoints:
		return c.points.Points()
	case KindProfile:
		if len(c.subsample) > 0 {
			return clonePoints(c.subsample)
		}
		return clonePoints(c.trace)
	default:
		return nil
	}
}

// ReferenceValues returns the mean per-date values over the reference
// texels, or nil when no reference is set.
func (c *Controller) ReferenceValues() []float64 {
	if len(c.reference) == 0 {
		return nil
	}
	vectors := make([][]float64, 0, len(c.reference))
	for _, p := range c.reference {
		v, err := c.valuesAt(p)
		if err != nil {
			c.logger.Warn("Interaction: reference read failed", "x", p.X, "y", p.Y, "error", err)
			continue
		}
		vectors = append(vectors, v)
	}
	return series.Mean(vectors)
}

// PlotData assembles the current plot inputs.
func (c *Controller) PlotData() PlotData {
	pts := c.plotted()
	data := PlotData{
		Kind:      c.kind,
		Distances: profile.CumulativeDistances(pts),
		Reference: c.ReferenceValues(),
		Dates:     c.dates,
		Highlight: -1,
	}
	data.Referenced = c.refOn && data.Reference != nil

	for i, p := range pts {
		values, err := c.valuesAt(p)
		if err != nil {
			c.logger.Warn("Interaction: profile read failed", "x", p.X, "y", p.Y, "error", err)
		}
		if data.Referenced && values != nil {
			values = series.Subtract(values, data.Reference)
		}
		data.Curves = append(data.Curves, Curve{Texel: p, Values: values})
		if c.highlight != nil && *c.highlight == p {
			data.Highlight = i
		}
	}

	if c.aux != nil {
		aux, err := c.aux.Series()
		if err != nil {
			c.logger.Warn("Interaction: auxiliary series unavailable", "error", err)
		} else {
			data.Aux = aux
		}
	}
	return data
}
