package winreg

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Keys under which the registry stores its state in the medium.
const (
	WindowsKey = "windows"
	CountKey   = "count"
)

// Shape is a window's screen position and viewport size in pixels.
type Shape struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Center returns the centre point of the shape.
func (s Shape) Center() (cx, cy int) {
	return s.X + s.W/2, s.Y + s.H/2
}

// Record is one registered window process.
type Record struct {
	ID       int             `json:"id"`
	Shape    Shape           `json:"shape"`
	Metadata json.RawMessage `json:"metaData,omitempty"`
}

// GeometrySource reports this process's current window geometry.
// Implementations must be cheap and free of side effects; Poll calls it
// on every tick.
type GeometrySource interface {
	Geometry() (Shape, error)
}

// DecodeRoster parses a serialized roster. An empty or "null" payload is
// an error so that a cleared key cannot be mistaken for an empty roster.
func DecodeRoster(s string) ([]Record, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || trimmed == "null" {
		return nil, fmt.Errorf("roster payload is empty")
	}
	var windows []Record
	if err := json.Unmarshal([]byte(trimmed), &windows); err != nil {
		return nil, fmt.Errorf("failed to parse roster: %w", err)
	}
	return windows, nil
}

// EncodeRoster serializes a roster. A nil roster encodes as "[]".
func EncodeRoster(windows []Record) (string, error) {
	if windows == nil {
		windows = []Record{}
	}
	data, err := json.Marshal(windows)
	if err != nil {
		return "", fmt.Errorf("failed to encode roster: %w", err)
	}
	return string(data), nil
}

// DecodeCount parses the shared id counter.
func DecodeCount(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("failed to parse window count: %w", err)
	}
	return n, nil
}

// EncodeCount serializes the shared id counter.
func EncodeCount(n int) string {
	return strconv.Itoa(n)
}

// WindowsChanged reports whether next differs from prev in membership.
// It compares ids position by position: a reorder is a change, and so is
// any length difference. This is intentionally cheaper than set equality.
func WindowsChanged(prev, next []Record) bool {
	if len(prev) != len(next) {
		return true
	}
	for i := range prev {
		if prev[i].ID != next[i].ID {
			return true
		}
	}
	return false
}

func indexOf(windows []Record, id int) int {
	for i := range windows {
		if windows[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneRecords(windows []Record) []Record {
	if windows == nil {
		return nil
	}
	out := make([]Record, len(windows))
	for i, w := range windows {
		w.Metadata = cloneRaw(w.Metadata)
		out[i] = w
	}
	return out
}
