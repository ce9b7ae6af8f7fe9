// Package summary turns a backend summary payload into chart-ready series.
package summary

import "chemviz/internal/api"

// Point is one labeled magnitude in a series.
type Point struct {
	Label string
	Value float64
}

// Projection is the chart-ready view of a summary: Bars carries one entry
// per parameter average, Slices one entry per equipment type.
type Projection struct {
	Bars   []Point
	Slices []Point
}

// Project is a pure, total transformation. Entry order follows the
// payload's mapping order; a null average projects as zero magnitude
// rather than disappearing from the axis; an empty payload projects to
// empty series.
func Project(s api.Summary) Projection {
	var p Projection
	for _, a := range s.Averages {
		v := 0.0
		if a.Value != nil {
			v = *a.Value
		}
		p.Bars = append(p.Bars, Point{Label: a.Name, Value: v})
	}
	for _, t := range s.Types {
		p.Slices = append(p.Slices, Point{Label: t.Name, Value: float64(t.Count)})
	}
	return p
}

// Total is the sum of slice magnitudes, used for share rendering.
func (p Projection) Total() float64 {
	var total float64
	for _, s := range p.Slices {
		total += s.Value
	}
	return total
}

// MaxBar is the largest bar magnitude, used for axis scaling.
func (p Projection) MaxBar() float64 {
	var m float64
	for _, b := range p.Bars {
		if b.Value > m {
			m = b.Value
		}
	}
	return m
}

// Empty reports whether there is nothing to draw.
func (p Projection) Empty() bool {
	return len(p.Bars) == 0 && len(p.Slices) == 0
}
