package summary

import (
	"encoding/json"
	"reflect"
	"testing"

	"chemviz/internal/api"
)

func f(v float64) *float64 { return &v }

func TestProject(t *testing.T) {
	tests := []struct {
		name string
		in   api.Summary
		want Projection
	}{
		{
			name: "null average becomes zero magnitude",
			in: api.Summary{
				TotalCount: 2,
				Averages: []api.Average{
					{Name: "Temperature", Value: f(1.5)},
					{Name: "Flowrate", Value: nil},
				},
				Types: []api.TypeCount{
					{Name: "pump", Count: 3},
					{Name: "valve", Count: 1},
				},
			},
			want: Projection{
				Bars:   []Point{{Label: "Temperature", Value: 1.5}, {Label: "Flowrate", Value: 0}},
				Slices: []Point{{Label: "pump", Value: 3}, {Label: "valve", Value: 1}},
			},
		},
		{
			name: "empty summary projects to empty series",
			in:   api.Summary{},
			want: Projection{},
		},
		{
			name: "types only",
			in: api.Summary{
				Types: []api.TypeCount{{Name: "sensor", Count: 4}},
			},
			want: Projection{Slices: []Point{{Label: "sensor", Value: 4}}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Project(tc.in)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Project() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestProject_PreservesPayloadOrder(t *testing.T) {
	raw := `{
		"total_count": 5,
		"averages": {"Pressure": 2.25, "Temperature": 71.4, "Flowrate": null},
		"type_distribution": {"valve": 2, "pump": 2, "sensor": 1}
	}`
	var s api.Summary
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	p := Project(s)
	barLabels := labels(p.Bars)
	if !reflect.DeepEqual(barLabels, []string{"Pressure", "Temperature", "Flowrate"}) {
		t.Fatalf("bar order = %v", barLabels)
	}
	sliceLabels := labels(p.Slices)
	if !reflect.DeepEqual(sliceLabels, []string{"valve", "pump", "sensor"}) {
		t.Fatalf("slice order = %v", sliceLabels)
	}
}

func labels(points []Point) []string {
	out := make([]string, 0, len(points))
	for _, p := range points {
		out = append(out, p.Label)
	}
	return out
}

func TestProjectionHelpers(t *testing.T) {
	p := Projection{
		Bars:   []Point{{Label: "a", Value: 1.5}, {Label: "b", Value: 4.25}},
		Slices: []Point{{Label: "pump", Value: 3}, {Label: "valve", Value: 1}},
	}
	if got := p.Total(); got != 4 {
		t.Fatalf("Total() = %v, want 4", got)
	}
	if got := p.MaxBar(); got != 4.25 {
		t.Fatalf("MaxBar() = %v, want 4.25", got)
	}
	if p.Empty() {
		t.Fatalf("non-empty projection reported empty")
	}
	if !(Projection{}).Empty() {
		t.Fatalf("zero projection must be empty")
	}
}
