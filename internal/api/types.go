package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"
)

// Credential is a username/password pair for Basic auth. It lives only in
// memory; nothing in the client ever writes it to disk.
type Credential struct {
	Username string
	Password string
}

// Dataset is one backend-computed digest of an uploaded CSV. Identity is ID;
// a stale copy is replaced wholesale on refetch, never patched.
type Dataset struct {
	ID         int       `json:"id"`
	File       string    `json:"file"`
	UploadedAt time.Time `json:"uploaded_at"`
	UploadedBy string    `json:"uploaded_by_username"`
	Summary    Summary   `json:"summary"`
}

// FileName is the last segment of the backend file path, shown in listings.
func (d Dataset) FileName() string {
	name := path.Base(strings.TrimRight(d.File, "/"))
	if name == "." || name == "/" || name == "" {
		return "unknown file"
	}
	return name
}

// Average is one parameter's mean. Value is nil when the backend could not
// compute it (missing column, no numeric rows).
type Average struct {
	Name  string
	Value *float64
}

// TypeCount is one slice of the equipment type distribution.
type TypeCount struct {
	Name  string
	Count int
}

// Summary is the backend's statistical digest. The averages and
// type_distribution mappings are kept as ordered pairs because the charts
// downstream present keys in document order, which a Go map would scramble.
type Summary struct {
	TotalCount int
	Averages   []Average
	Types      []TypeCount
}

// AverageByName is a convenience lookup for tests and table rendering.
func (s Summary) AverageByName(name string) (*float64, bool) {
	for _, a := range s.Averages {
		if a.Name == name {
			return a.Value, true
		}
	}
	return nil, false
}

// UnmarshalJSON walks the token stream so mapping key order survives.
// A null summary decodes to the zero value.
func (s *Summary) UnmarshalJSON(data []byte) error {
	*s = Summary{}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("summary: expected object, got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)

		switch key {
		case "total_count":
			if err := dec.Decode(&s.TotalCount); err != nil {
				return fmt.Errorf("summary: total_count: %w", err)
			}
		case "averages":
			avgs, err := decodeOrderedFloats(dec)
			if err != nil {
				return fmt.Errorf("summary: averages: %w", err)
			}
			s.Averages = avgs
		case "type_distribution":
			types, err := decodeOrderedCounts(dec)
			if err != nil {
				return fmt.Errorf("summary: type_distribution: %w", err)
			}
			s.Types = types
		default:
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return err
			}
		}
	}

	// Closing brace.
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

func decodeOrderedFloats(dec *json.Decoder) ([]Average, error) {
	if err := expectObjectOpen(dec); err != nil {
		return nil, err
	}
	var out []Average
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)
		var v *float64
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, Average{Name: key, Value: v})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeOrderedCounts(dec *json.Decoder) ([]TypeCount, error) {
	if err := expectObjectOpen(dec); err != nil {
		return nil, err
	}
	var out []TypeCount
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)
		var n int
		if err := dec.Decode(&n); err != nil {
			return nil, err
		}
		out = append(out, TypeCount{Name: key, Count: n})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}

func expectObjectOpen(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}
	return nil
}

// MarshalJSON restores the plain mapping shape; round-tripping is only used
// by tests and log snapshots, order is best-effort there.
func (s Summary) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteString(`{"total_count":`)
	fmt.Fprintf(&b, "%d", s.TotalCount)
	b.WriteString(`,"averages":{`)
	for i, a := range s.Averages {
		if i > 0 {
			b.WriteByte(',')
		}
		key, _ := json.Marshal(a.Name)
		b.Write(key)
		b.WriteByte(':')
		if a.Value == nil {
			b.WriteString("null")
		} else {
			val, _ := json.Marshal(*a.Value)
			b.Write(val)
		}
	}
	b.WriteString(`},"type_distribution":{`)
	for i, t := range s.Types {
		if i > 0 {
			b.WriteByte(',')
		}
		key, _ := json.Marshal(t.Name)
		b.Write(key)
		fmt.Fprintf(&b, ":%d", t.Count)
	}
	b.WriteString("}}")
	return b.Bytes(), nil
}
