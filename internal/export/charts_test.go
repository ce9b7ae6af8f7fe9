package export

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"chemviz/internal/summary"
)

func sampleProjection() summary.Projection {
	return summary.Projection{
		Bars: []summary.Point{
			{Label: "Temperature", Value: 71.4},
			{Label: "Pressure", Value: 2.25},
			{Label: "Flowrate", Value: 0},
		},
		Slices: []summary.Point{
			{Label: "pump", Value: 3},
			{Label: "valve", Value: 2},
		},
	}
}

func TestRenderBarChart(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderBarChart(&buf, sampleProjection()); err != nil {
		t.Fatalf("RenderBarChart: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Fatalf("output is not a PNG, first bytes %q", buf.Bytes()[:4])
	}
}

func TestRenderBarChart_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderBarChart(&buf, summary.Projection{}); !errors.Is(err, ErrNothingToDraw) {
		t.Fatalf("err = %v, want ErrNothingToDraw", err)
	}
}

func TestRenderPieChart(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderPieChart(&buf, sampleProjection()); err != nil {
		t.Fatalf("RenderPieChart: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Fatalf("output is not a PNG")
	}
}

func TestRenderPieChart_ZeroTotal(t *testing.T) {
	p := summary.Projection{Slices: []summary.Point{{Label: "pump", Value: 0}}}
	var buf bytes.Buffer
	if err := RenderPieChart(&buf, p); !errors.Is(err, ErrNothingToDraw) {
		t.Fatalf("err = %v, want ErrNothingToDraw", err)
	}
}

func TestExportCharts(t *testing.T) {
	dir := t.TempDir()
	trg := NewTrigger(&fakeFetcher{}, dir, nil)

	paths, err := trg.ExportCharts(sampleProjection(), 9)
	if err != nil {
		t.Fatalf("ExportCharts: %v", err)
	}
	want := []string{
		filepath.Join(dir, "dataset_9_averages.png"),
		filepath.Join(dir, "dataset_9_types.png"),
	}
	if len(paths) != 2 || paths[0] != want[0] || paths[1] != want[1] {
		t.Fatalf("paths = %v, want %v", paths, want)
	}
}

func TestExportCharts_SkipsEmptySeries(t *testing.T) {
	dir := t.TempDir()
	trg := NewTrigger(&fakeFetcher{}, dir, nil)

	p := summary.Projection{Bars: []summary.Point{{Label: "Temperature", Value: 3}}}
	paths, err := trg.ExportCharts(p, 2)
	if err != nil {
		t.Fatalf("ExportCharts: %v", err)
	}
	if len(paths) != 1 || filepath.Base(paths[0]) != "dataset_2_averages.png" {
		t.Fatalf("paths = %v", paths)
	}

	if _, err := trg.ExportCharts(summary.Projection{}, 3); !errors.Is(err, ErrNothingToDraw) {
		t.Fatalf("empty projection err = %v, want ErrNothingToDraw", err)
	}
}
