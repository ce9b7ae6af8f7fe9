package export

import (
	"bytes"
	"fmt"
	"io"

	"github.com/wcharczuk/go-chart/v2"

	"chemviz/internal/summary"
)

// ErrNothingToDraw reports a projection with no entries for the requested
// chart; rendering an empty axis is refused rather than producing a blank
// image.
var ErrNothingToDraw = fmt.Errorf("%w: nothing to draw", ErrExportFailed)

// BarFileName and PieFileName mirror the PDF naming scheme.
func BarFileName(id int) string { return fmt.Sprintf("dataset_%d_averages.png", id) }
func PieFileName(id int) string { return fmt.Sprintf("dataset_%d_types.png", id) }

// RenderBarChart draws the average-parameter series as a PNG bar chart.
func RenderBarChart(w io.Writer, p summary.Projection) error {
	if len(p.Bars) == 0 {
		return ErrNothingToDraw
	}
	values := make([]chart.Value, 0, len(p.Bars))
	for _, b := range p.Bars {
		values = append(values, chart.Value{Label: b.Label, Value: b.Value})
	}
	ceiling := p.MaxBar()
	if ceiling <= 0 {
		ceiling = 1
	}
	graph := chart.BarChart{
		Title:    "Average Parameter Values",
		Width:    900,
		Height:   500,
		BarWidth: 60,
		Bars:     values,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: ceiling},
		},
	}
	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("%w: %v", ErrExportFailed, err)
	}
	return nil
}

// RenderPieChart draws the type distribution as a PNG pie chart.
func RenderPieChart(w io.Writer, p summary.Projection) error {
	if len(p.Slices) == 0 || p.Total() <= 0 {
		return ErrNothingToDraw
	}
	values := make([]chart.Value, 0, len(p.Slices))
	for _, s := range p.Slices {
		values = append(values, chart.Value{Label: s.Label, Value: s.Value})
	}
	graph := chart.PieChart{
		Title:  "Type Distribution",
		Width:  600,
		Height: 600,
		Values: values,
	}
	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("%w: %v", ErrExportFailed, err)
	}
	return nil
}

// ExportCharts writes both chart images for a dataset's projection and
// returns the written paths. A chart with nothing to draw is skipped, not
// an error, so an averages-only summary still yields its bar chart.
func (t *Trigger) ExportCharts(p summary.Projection, id int) ([]string, error) {
	if p.Empty() {
		return nil, ErrNothingToDraw
	}
	var paths []string
	if len(p.Bars) > 0 {
		path, err := t.renderToFile(BarFileName(id), func(w io.Writer) error {
			return RenderBarChart(w, p)
		})
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	if len(p.Slices) > 0 && p.Total() > 0 {
		path, err := t.renderToFile(PieFileName(id), func(w io.Writer) error {
			return RenderPieChart(w, p)
		})
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	if len(paths) == 0 {
		return nil, ErrNothingToDraw
	}
	return paths, nil
}

func (t *Trigger) renderToFile(name string, render func(io.Writer) error) (string, error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return "", err
	}
	return t.save(name, buf.Bytes())
}
