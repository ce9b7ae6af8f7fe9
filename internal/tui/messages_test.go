package tui

import (
	"encoding/json"
	"strings"
	"testing"

	"chemviz/internal/api"
	"chemviz/internal/dataset"
	"chemviz/internal/export"
	"chemviz/internal/summary"
	"chemviz/internal/upload"
)

func TestUserMessage_EveryKindIsDistinct(t *testing.T) {
	errs := []error{
		&api.Error{Kind: api.KindUnauthorized, Status: 401},
		&api.Error{Kind: api.KindServerError, Status: 500},
		&api.Error{Kind: api.KindMalformedResponse},
		&api.Error{Kind: api.KindNetworkFailure},
		&api.Error{Kind: api.KindRejected, Detail: "Only CSV files are supported."},
		&api.ValidationError{Field: "username", Messages: []string{"A user with that username already exists."}},
		upload.ErrNoFile,
		upload.ErrNotCSV,
		upload.ErrNoCredential,
		upload.ErrBusy,
		dataset.ErrNotFound,
		export.ErrExportFailed,
	}

	seen := map[string]error{}
	for _, err := range errs {
		msg := UserMessage(err)
		if msg == "" {
			t.Fatalf("no message for %v", err)
		}
		if prev, dup := seen[msg]; dup {
			t.Fatalf("message %q maps both %v and %v", msg, prev, err)
		}
		seen[msg] = err
	}
}

func TestUserMessage_Content(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "nil",
			err:  nil,
			want: "",
		},
		{
			name: "validation with field",
			err:  &api.ValidationError{Field: "username", Messages: []string{"This field is required."}},
			want: "Username error: This field is required.",
		},
		{
			name: "validation without field",
			err:  &api.ValidationError{},
			want: "Registration failed. Please try again.",
		},
		{
			name: "rejection carries backend detail",
			err:  &api.Error{Kind: api.KindRejected, Status: 400, Detail: "Only CSV files are supported."},
			want: "Upload rejected: Only CSV files are supported.",
		},
		{
			name: "rejection without detail",
			err:  &api.Error{Kind: api.KindRejected, Status: 400},
			want: "The server rejected the request.",
		},
		{
			name: "unauthorized",
			err:  &api.Error{Kind: api.KindUnauthorized, Status: 401},
			want: "Invalid username or password.",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := UserMessage(tc.err); got != tc.want {
				t.Fatalf("userMessage = %q, want %q", got, tc.want)
			}
		})
	}
}

// projectionOf decodes a raw summary payload and projects it, keeping the
// payload's key order intact.
func projectionOf(t *testing.T, raw string) summary.Projection {
	t.Helper()
	var s api.Summary
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("unmarshal summary: %v", err)
	}
	return summary.Project(s)
}

func TestRenderBarChart_Rows(t *testing.T) {
	theme := NewNoColorTheme()
	p := projectionOf(t, `{"averages": {"Temperature": 71.4, "Flowrate": null, "Pressure": 2.25}}`)

	out := renderBarChart(theme, p, 60)
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("want one row per parameter, got %d:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(strings.TrimSpace(lines[0]), "Temperature") {
		t.Fatalf("rows must keep payload order, first row %q", lines[0])
	}
	if !strings.Contains(lines[1], "Flowrate") || !strings.Contains(lines[1], "0.000") {
		t.Fatalf("null average must render as a zero row, got %q", lines[1])
	}
	if !strings.Contains(lines[0], "█") {
		t.Fatalf("maximum bar must be filled, got %q", lines[0])
	}
}

func TestRenderTypeChart_Shares(t *testing.T) {
	theme := NewNoColorTheme()
	p := projectionOf(t, `{"type_distribution": {"pump": 3, "valve": 1}}`)

	out := renderTypeChart(theme, p, 60)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("want one row per type, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "75%") || !strings.Contains(lines[1], "25%") {
		t.Fatalf("shares wrong:\n%s", out)
	}
}
