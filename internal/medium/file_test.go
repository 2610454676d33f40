package medium

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openFile(t *testing.T, dir string) *File {
	t.Helper()
	f, err := NewFile(dir, quietLogger())
	if err != nil {
		t.Fatalf("NewFile() error: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestFile_ReadAbsentKey(t *testing.T) {
	f := openFile(t, t.TempDir())

	v, ok, err := f.Read("windows")
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if ok || v != "" {
		t.Fatalf("Read() = %q, %v; want \"\", false", v, ok)
	}
}

func TestFile_WriteVisibleToOtherHandle(t *testing.T) {
	dir := t.TempDir()
	a := openFile(t, dir)
	b := openFile(t, dir)

	if err := a.Write("count", "42"); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	v, ok, err := b.Read("count")
	if err != nil || !ok || v != "42" {
		t.Fatalf("Read() = %q, %v, %v; want \"42\", true, nil", v, ok, err)
	}
}

func TestFile_NotifiesOtherHandleOnly(t *testing.T) {
	dir := t.TempDir()
	a := openFile(t, dir)
	b := openFile(t, dir)

	fromA := make(chan string, 4)
	fromB := make(chan string, 4)
	a.Subscribe("windows", func(v string) { fromA <- v })
	b.Subscribe("windows", func(v string) { fromB <- v })

	if err := a.Write("windows", `[{"id":1}]`); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	select {
	case got := <-fromB:
		if got != `[{"id":1}]` {
			t.Fatalf("notification = %q, want %q", got, `[{"id":1}]`)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("other handle was not notified")
	}

	select {
	case got := <-fromA:
		t.Fatalf("writer notified of its own write: %q", got)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestFile_MalformedFileReturnedRaw(t *testing.T) {
	dir := t.TempDir()
	f := openFile(t, dir)

	if err := os.WriteFile(filepath.Join(dir, "windows.json"), []byte("[{\"id\":"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	v, ok, err := f.Read("windows")
	if err != nil || !ok {
		t.Fatalf("Read() = %v, %v; want present", ok, err)
	}
	if v != "[{\"id\":" {
		t.Fatalf("Read() = %q, want raw file content", v)
	}
}

func TestFile_ClearRemovesKeys(t *testing.T) {
	dir := t.TempDir()
	f := openFile(t, dir)

	f.Write("windows", "[]")
	f.Write("count", "2")
	if err := f.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	for _, key := range []string{"windows", "count"} {
		if _, ok, _ := f.Read(key); ok {
			t.Fatalf("key %q survived Clear()", key)
		}
	}
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key     string
		wantErr bool
	}{
		{"windows", false},
		{"count", false},
		{"", true},
		{"  ", true},
		{"../escape", true},
		{"a/b", true},
		{".hidden", true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			err := validateKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Fatalf("validateKey(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
		})
	}
}

func TestKeyFromName_SkipsTempFiles(t *testing.T) {
	if _, ok := keyFromName(".windows.123.tmp"); ok {
		t.Fatal("temp file mapped to a key")
	}
	if key, ok := keyFromName("windows.json"); !ok || key != "windows" {
		t.Fatalf("keyFromName(windows.json) = %q, %v", key, ok)
	}
}

func TestFile_DuplicateEventDispatchedOnce(t *testing.T) {
	dir := t.TempDir()
	// Written before the handle opens so the watcher sees no event for it.
	data := []byte(`{"writer":"other-process","seq":7,"value":"[{\"id\":1}]"}`)
	if err := os.WriteFile(filepath.Join(dir, "windows.json"), data, 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	f := openFile(t, dir)

	var got []string
	f.Subscribe("windows", func(v string) { got = append(got, v) })

	f.dispatch("windows")
	f.dispatch("windows")

	if len(got) != 1 {
		t.Fatalf("handler ran %d times, want 1", len(got))
	}
	if got[0] != `[{"id":1}]` {
		t.Fatalf("notification = %q, want %q", got[0], `[{"id":1}]`)
	}
}

func TestFile_OwnEnvelopeNotDispatched(t *testing.T) {
	f := openFile(t, t.TempDir())

	calls := 0
	f.Subscribe("windows", func(string) { calls++ })
	if err := f.Write("windows", "[]"); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	f.dispatch("windows")

	if calls != 0 {
		t.Fatalf("handler ran %d times for own write, want 0", calls)
	}
}
