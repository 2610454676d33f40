package winreg

import (
	"encoding/json"
	"testing"
)

func records(idList ...int) []Record {
	out := make([]Record, len(idList))
	for i, id := range idList {
		out[i] = Record{ID: id}
	}
	return out
}

func TestWindowsChanged(t *testing.T) {
	tests := []struct {
		name string
		prev []Record
		next []Record
		want bool
	}{
		{"identical", records(1, 2), records(1, 2), false},
		{"appended", records(1, 2), records(1, 2, 3), true},
		{"removed", records(1, 2), records(1), true},
		{"reordered", records(1, 2), records(2, 1), true},
		{"replaced", records(1, 2), records(1, 3), true},
		{"both empty", nil, records(), false},
		{"shape only", []Record{{ID: 1, Shape: Shape{X: 1}}}, []Record{{ID: 1, Shape: Shape{X: 2}}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WindowsChanged(tt.prev, tt.next); got != tt.want {
				t.Fatalf("WindowsChanged(%v, %v) = %v, want %v", ids(tt.prev), ids(tt.next), got, tt.want)
			}
		})
	}
}

func TestDecodeRoster_Rejects(t *testing.T) {
	for _, payload := range []string{"", "  ", "null", "[{\"id\":1", "{\"id\":1}"} {
		if _, err := DecodeRoster(payload); err == nil {
			t.Errorf("DecodeRoster(%q) = nil error, want error", payload)
		}
	}
}

func TestRoster_PreservesAllFields(t *testing.T) {
	in := []Record{
		{ID: 3, Shape: Shape{X: -20, Y: 40, W: 1280, H: 720}, Metadata: json.RawMessage(`{"foo":"bar","n":[1,2]}`)},
		{ID: 7, Shape: Shape{X: 5, Y: 6, W: 7, H: 8}},
	}
	s, err := EncodeRoster(in)
	if err != nil {
		t.Fatalf("EncodeRoster() error: %v", err)
	}
	out, err := DecodeRoster(s)
	if err != nil {
		t.Fatalf("DecodeRoster() error: %v", err)
	}
	if len(out) != 2 || out[0].ID != 3 || out[0].Shape != in[0].Shape || string(out[0].Metadata) != string(in[0].Metadata) {
		t.Fatalf("round trip = %+v, want %+v", out, in)
	}
	if out[1].Metadata != nil {
		t.Fatalf("empty metadata decoded as %q", out[1].Metadata)
	}
}

func TestEncodeRoster_NilIsEmptyArray(t *testing.T) {
	s, err := EncodeRoster(nil)
	if err != nil || s != "[]" {
		t.Fatalf("EncodeRoster(nil) = %q, %v; want \"[]\", nil", s, err)
	}
}

func TestDecodeCount(t *testing.T) {
	if n, err := DecodeCount(" 12 "); err != nil || n != 12 {
		t.Fatalf("DecodeCount(\" 12 \") = %d, %v", n, err)
	}
	if _, err := DecodeCount("twelve"); err == nil {
		t.Fatal("DecodeCount(\"twelve\") = nil error")
	}
	if EncodeCount(12) != "12" {
		t.Fatalf("EncodeCount(12) = %q", EncodeCount(12))
	}
}

func TestShapeCenter(t *testing.T) {
	cx, cy := Shape{X: 100, Y: 50, W: 800, H: 600}.Center()
	if cx != 500 || cy != 350 {
		t.Fatalf("Center() = (%d, %d), want (500, 350)", cx, cy)
	}
}
