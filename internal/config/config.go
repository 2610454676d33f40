package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/multiwin/internal/runtimepath"
)

// Backend selects the shared medium implementation.
type Backend string

const (
	BackendFile   Backend = "file"   // Directory in the runtime dir, watched with fsnotify.
	BackendMemory Backend = "memory" // Private to one process; never spans processes. For tests and demos.
)

// GeometrySourceKind selects where a window's geometry comes from.
type GeometrySourceKind string

const (
	GeometryAuto     GeometrySourceKind = "auto"     // X11 if reachable, else terminal, else static.
	GeometryX11      GeometrySourceKind = "x11"      // Real position of an X11 window.
	GeometryTerminal GeometrySourceKind = "terminal" // Configured position, size from the tty.
	GeometryStatic   GeometrySourceKind = "static"   // Fixed rectangle from this file.
)

const (
	DefaultOrigin         = "default"
	DefaultPollIntervalMS = 50
)

// MediumConfig configures the shared key-value medium.
type MediumConfig struct {
	Backend Backend `yaml:"backend"`
	// Dir overrides the default <runtime dir>/multiwin/<origin>.
	Dir string `yaml:"dir,omitempty"`
}

// LoggingConfig configures the slog handler on stderr.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Geometry configures the window geometry source.
type Geometry struct {
	Source   GeometrySourceKind `yaml:"source"`
	WindowID uint32             `yaml:"window_id,omitempty"` // 0 = $WINDOWID, then active window
	X        int                `yaml:"x"`
	Y        int                `yaml:"y"`
	Width    int                `yaml:"width"`
	Height   int                `yaml:"height"`
	// Cell size in pixels, used to turn a terminal's cols/rows into pixels.
	CellWidth  int `yaml:"cell_width"`
	CellHeight int `yaml:"cell_height"`
}

// Config is the effective multiwin configuration.
type Config struct {
	Origin         string         `yaml:"origin"`
	Medium         MediumConfig   `yaml:"medium"`
	PollIntervalMS int            `yaml:"poll_interval_ms"`
	Logging        LoggingConfig  `yaml:"logging"`
	Metadata       map[string]any `yaml:"metadata,omitempty"`
	Geometry       Geometry       `yaml:"geometry"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Origin:         DefaultOrigin,
		Medium:         MediumConfig{Backend: BackendFile},
		PollIntervalMS: DefaultPollIntervalMS,
		Logging:        LoggingConfig{Level: "info", Format: "text"},
		Geometry: Geometry{
			Source:     GeometryAuto,
			Width:      800,
			Height:     600,
			CellWidth:  8,
			CellHeight: 16,
		},
	}
}

// Validate checks that every field holds a usable value.
func (c *Config) Validate() error {
	if err := ValidateOrigin(c.Origin); err != nil {
		return err
	}

	switch c.Medium.Backend {
	case BackendFile, BackendMemory:
	default:
		return fmt.Errorf("medium.backend: unknown backend %q (want file or memory)", c.Medium.Backend)
	}

	if c.PollIntervalMS <= 0 {
		return fmt.Errorf("poll_interval_ms must be > 0, got %d", c.PollIntervalMS)
	}

	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format: unknown format %q (want text or json)", c.Logging.Format)
	}

	switch c.Geometry.Source {
	case GeometryAuto, GeometryX11, GeometryTerminal, GeometryStatic:
	default:
		return fmt.Errorf("geometry.source: unknown source %q", c.Geometry.Source)
	}
	if c.Geometry.Width < 0 || c.Geometry.Height < 0 {
		return fmt.Errorf("geometry: width and height must be >= 0")
	}
	if c.Geometry.CellWidth <= 0 || c.Geometry.CellHeight <= 0 {
		return fmt.Errorf("geometry: cell_width and cell_height must be > 0")
	}

	if _, err := c.MetadataJSON(); err != nil {
		return err
	}
	return nil
}

// ValidateOrigin checks that an origin name is safe as a directory name.
func ValidateOrigin(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("origin is required")
	}
	if strings.Contains(name, string(os.PathSeparator)) || name != filepath.Base(name) {
		return fmt.Errorf("invalid origin %q", name)
	}
	if name == "." || name == ".." || strings.Contains(name, "..") {
		return fmt.Errorf("invalid origin %q", name)
	}
	return nil
}

// PollInterval returns the poll tick as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// MediumDir returns the directory backing the file medium.
func (c *Config) MediumDir() (string, error) {
	if strings.TrimSpace(c.Medium.Dir) != "" {
		return expandHome(c.Medium.Dir)
	}
	return runtimepath.MediumDir(c.Origin)
}

// MetadataJSON encodes the opaque metadata published with this window.
// It returns nil when no metadata is configured.
func (c *Config) MetadataJSON() (json.RawMessage, error) {
	if len(c.Metadata) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(c.Metadata)
	if err != nil {
		return nil, fmt.Errorf("metadata: cannot encode as JSON: %w", err)
	}
	return data, nil
}

// ParseLevel maps a config level name to a slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown level %q", level)
	}
}

// Marshal renders the config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~")), nil
}
