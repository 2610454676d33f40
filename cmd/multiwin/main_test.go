package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/multiwin/internal/config"
	"github.com/1broseidon/multiwin/internal/medium"
	"github.com/1broseidon/multiwin/internal/winreg"
)

func sampleRoster() []winreg.Record {
	return []winreg.Record{
		{ID: 1, Shape: winreg.Shape{X: 0, Y: 0, W: 800, H: 600}, Metadata: json.RawMessage(`{"foo":"bar"}`)},
		{ID: 3, Shape: winreg.Shape{X: 900, Y: 50, W: 400, H: 300}},
	}
}

func TestPrintRoster_Table(t *testing.T) {
	var buf bytes.Buffer
	if err := printRoster(&buf, sampleRoster(), "table"); err != nil {
		t.Fatalf("printRoster error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"ID", "METADATA", `{"foo":"bar"}`, "900"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintRoster_EmptyTable(t *testing.T) {
	var buf bytes.Buffer
	if err := printRoster(&buf, nil, "table"); err != nil {
		t.Fatalf("printRoster error: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "No windows registered." {
		t.Fatalf("empty table = %q", got)
	}
}

func TestPrintRoster_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := printRoster(&buf, sampleRoster(), "json"); err != nil {
		t.Fatalf("printRoster error: %v", err)
	}
	var got []listEntry
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(got) != 2 || got[1].ID != 3 || got[1].X != 900 {
		t.Fatalf("decoded = %+v", got)
	}
}

func TestPrintRoster_YAML(t *testing.T) {
	var buf bytes.Buffer
	if err := printRoster(&buf, sampleRoster(), "yaml"); err != nil {
		t.Fatalf("printRoster error: %v", err)
	}
	var got []map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not YAML: %v", err)
	}
	meta, ok := got[0]["metaData"].(map[string]any)
	if !ok || meta["foo"] != "bar" {
		t.Fatalf("metaData = %#v", got[0]["metaData"])
	}
}

func TestReadRoster_AbsentAndMalformed(t *testing.T) {
	m := medium.NewHub().Open()

	windows, err := readRoster(m)
	if err != nil || len(windows) != 0 {
		t.Fatalf("absent roster = %v, %v; want empty, nil", windows, err)
	}

	m.Write(winreg.WindowsKey, "not json")
	windows, err = readRoster(m)
	if err != nil || len(windows) != 0 {
		t.Fatalf("malformed roster = %v, %v; want empty, nil", windows, err)
	}
}

func TestResolveMetadata(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Metadata = map[string]any{"name": "left"}

	got, err := resolveMetadata(cfg, "")
	if err != nil || string(got) != `{"name":"left"}` {
		t.Fatalf("config metadata = %s, %v", got, err)
	}

	got, err = resolveMetadata(cfg, `{"name":"right"}`)
	if err != nil || string(got) != `{"name":"right"}` {
		t.Fatalf("flag metadata = %s, %v", got, err)
	}

	if _, err := resolveMetadata(cfg, "{"); err == nil {
		t.Fatal("expected error for invalid --metadata")
	}
}

func TestOpenMedium_File(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Medium.Dir = t.TempDir()

	m, closeMedium, err := openMedium(cfg, config.NewLogger(cfg.Logging, io.Discard))
	if err != nil {
		t.Fatalf("openMedium error: %v", err)
	}
	defer closeMedium()

	if _, ok := m.(medium.Clearer); !ok {
		t.Fatal("file medium should be clearable")
	}
}

func writeMemoryConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("medium:\n  backend: memory\n"), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestRequireSharedBackend(t *testing.T) {
	cfg := config.DefaultConfig()
	if err := requireSharedBackend(cfg, "list"); err != nil {
		t.Fatalf("file backend rejected: %v", err)
	}
	cfg.Medium.Backend = config.BackendMemory
	if err := requireSharedBackend(cfg, "list"); err == nil {
		t.Fatal("expected memory backend to be rejected")
	}
}

func TestObserverCommands_RejectMemoryBackend(t *testing.T) {
	path := writeMemoryConfig(t)

	tests := []struct {
		name string
		run  func([]string) int
	}{
		{name: "list", run: runList},
		{name: "clear", run: runClear},
		{name: "mcp serve", run: runMCPServe},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.run([]string{"--config", path}); got != 1 {
				t.Fatalf("exit code = %d, want 1", got)
			}
		})
	}
}

func TestMCPServe_ConfigFlagErrors(t *testing.T) {
	if got := runMCPServe([]string{"--config", filepath.Join(t.TempDir(), "missing", "dir", "x.yaml"), "--bogus"}); got != 2 {
		t.Fatalf("unknown flag exit code = %d, want 2", got)
	}

	bad := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(bad, []byte("nope: 1\n"), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if got := runMCPServe([]string{"--config", bad}); got != 1 {
		t.Fatalf("invalid config exit code = %d, want 1", got)
	}
}
