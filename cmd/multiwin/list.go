package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/multiwin/internal/config"
	"github.com/1broseidon/multiwin/internal/medium"
	"github.com/1broseidon/multiwin/internal/winreg"
)

type listEntry struct {
	ID       int `json:"id" yaml:"id"`
	X        int `json:"x" yaml:"x"`
	Y        int `json:"y" yaml:"y"`
	W        int `json:"w" yaml:"w"`
	H        int `json:"h" yaml:"h"`
	Metadata any `json:"metaData,omitempty" yaml:"metaData,omitempty"`
}

func runList(args []string) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("config", "", "Config file path (default: ~/.config/multiwin/config.yaml)")
	jsonOut := fs.Bool("json", false, "Output as JSON")
	yamlOut := fs.Bool("yaml", false, "Output as YAML")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: multiwin list [--config PATH] [--json|--yaml]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Print the shared window roster without registering.")
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if *jsonOut && *yamlOut {
		fmt.Fprintln(os.Stderr, "--json and --yaml are mutually exclusive")
		return 2
	}

	cfg, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := requireSharedBackend(cfg, "list"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	logger := config.NewLogger(cfg.Logging, os.Stderr)

	m, closeMedium, err := openMedium(cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer closeMedium()

	windows, err := readRoster(m)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	format := "table"
	switch {
	case *jsonOut:
		format = "json"
	case *yamlOut:
		format = "yaml"
	}
	if err := printRoster(os.Stdout, windows, format); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runClear(args []string) int {
	fs := flag.NewFlagSet("clear", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("config", "", "Config file path (default: ~/.config/multiwin/config.yaml)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: multiwin clear [--config PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Remove the roster and id counter from the shared medium.")
		fmt.Fprintln(os.Stderr, "Running windows keep their local view until they next write.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	cfg, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := requireSharedBackend(cfg, "clear"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	logger := config.NewLogger(cfg.Logging, os.Stderr)

	m, closeMedium, err := openMedium(cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer closeMedium()

	c, ok := m.(medium.Clearer)
	if !ok {
		fmt.Fprintf(os.Stderr, "backend %q cannot be cleared\n", cfg.Medium.Backend)
		return 1
	}
	if err := c.Clear(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("cleared origin %q\n", cfg.Origin)
	return 0
}

// readRoster reads the roster the way a registering window would: absent
// or malformed values are the empty roster.
func readRoster(m medium.Medium) ([]winreg.Record, error) {
	value, ok, err := m.Read(winreg.WindowsKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster: %w", err)
	}
	if !ok {
		return nil, nil
	}
	windows, err := winreg.DecodeRoster(value)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v; treating roster as empty\n", err)
		return nil, nil
	}
	return windows, nil
}

func printRoster(w io.Writer, windows []winreg.Record, format string) error {
	entries := make([]listEntry, 0, len(windows))
	for _, rec := range windows {
		entry := listEntry{ID: rec.ID, X: rec.Shape.X, Y: rec.Shape.Y, W: rec.Shape.W, H: rec.Shape.H}
		if len(rec.Metadata) > 0 {
			var meta any
			if err := json.Unmarshal(rec.Metadata, &meta); err == nil {
				entry.Metadata = meta
			}
		}
		entries = append(entries, entry)
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "yaml":
		data, err := yaml.Marshal(entries)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}

	if len(entries) == 0 {
		fmt.Fprintln(w, "No windows registered.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tX\tY\tW\tH\tMETADATA")
	for i, entry := range entries {
		meta := "-"
		if len(windows[i].Metadata) > 0 {
			meta = string(windows[i].Metadata)
		}
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\t%s\n", entry.ID, entry.X, entry.Y, entry.W, entry.H, meta)
	}
	return tw.Flush()
}
