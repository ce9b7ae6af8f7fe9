package tui

import (
	"fmt"
	"strings"

	"chemviz/internal/summary"
)

// renderBarChart draws the averages series with block glyphs, one row per
// parameter. Bars scale against the series maximum; a zero magnitude (a
// null average) renders as an empty track, still occupying its row.
func renderBarChart(t Theme, p summary.Projection, width int) string {
	if len(p.Bars) == 0 {
		return t.StatusInfo.Render("No average values available.")
	}

	labelW := 0
	for _, b := range p.Bars {
		if len(b.Label) > labelW {
			labelW = len(b.Label)
		}
	}
	trackW := width - labelW - 12
	if trackW < 8 {
		trackW = 8
	}
	ceiling := p.MaxBar()

	var out strings.Builder
	for i, b := range p.Bars {
		filled := 0
		if ceiling > 0 {
			filled = int(float64(trackW) * b.Value / ceiling)
		}
		if filled > trackW {
			filled = trackW
		}
		bar := strings.Repeat("█", filled) + strings.Repeat("░", trackW-filled)
		out.WriteString(t.BarLabel.Render(fmt.Sprintf("%-*s", labelW, b.Label)))
		out.WriteString(" ")
		out.WriteString(t.BarFill.Render(bar))
		out.WriteString(" ")
		out.WriteString(t.BarValue.Render(fmt.Sprintf("%.3f", b.Value)))
		if i != len(p.Bars)-1 {
			out.WriteString("\n")
		}
	}
	return out.String()
}

// renderTypeChart draws the type distribution as proportional share rows,
// the terminal stand-in for the pie chart. Slices keep their payload
// order; small slices are never folded together.
func renderTypeChart(t Theme, p summary.Projection, width int) string {
	if len(p.Slices) == 0 {
		return t.StatusInfo.Render("No type distribution available.")
	}

	labelW := 0
	for _, s := range p.Slices {
		if len(s.Label) > labelW {
			labelW = len(s.Label)
		}
	}
	trackW := width - labelW - 16
	if trackW < 8 {
		trackW = 8
	}
	total := p.Total()

	var out strings.Builder
	for i, s := range p.Slices {
		share := 0.0
		if total > 0 {
			share = s.Value / total
		}
		filled := int(float64(trackW) * share)
		if filled > trackW {
			filled = trackW
		}
		bar := strings.Repeat("█", filled) + strings.Repeat("░", trackW-filled)
		out.WriteString(t.BarLabel.Render(fmt.Sprintf("%-*s", labelW, s.Label)))
		out.WriteString(" ")
		out.WriteString(t.BarFill.Render(bar))
		out.WriteString(" ")
		out.WriteString(t.BarValue.Render(fmt.Sprintf("%3.0f%% (%.0f)", share*100, s.Value)))
		if i != len(p.Slices)-1 {
			out.WriteString("\n")
		}
	}
	return out.String()
}
