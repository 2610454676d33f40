package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// PathEnv overrides the config file location.
const PathEnv = "MULTIWIN_CONFIG"

// DefaultConfigPath returns $MULTIWIN_CONFIG or ~/.config/multiwin/config.yaml.
func DefaultConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(PathEnv)); p != "" {
		return p, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "multiwin", "config.yaml"), nil
}

// Load reads the configuration from the standard location.
func Load() (*Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath reads path over the defaults. A missing file yields the
// defaults; unknown keys are rejected.
func LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()

	exists, err := pathExists(path)
	if err != nil {
		return nil, err
	}
	if exists {
		canon, err := canonicalPath(path)
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(canon)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to read: %w", canon, err)
		}
		if err := decodeStrictYAML(data, cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", canon, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewLogger builds the stderr logger described by cfg.
func NewLogger(cfg LoggingConfig, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	level, _ := ParseLevel(cfg.Level)
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func decodeStrictYAML(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	return nil
}

func canonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %q: %w", path, err)
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		// Best-effort; still use abs.
		return abs, nil
	}
	return real, nil
}

func pathExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("%s: %w", path, err)
}
