// Package runtimepath locates the per-user directory that holds each
// origin's shared medium.
package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const appDir = "multiwin"

// Dir returns the per-user runtime directory: $XDG_RUNTIME_DIR, else
// /run/user/<uid> when it exists, else a private directory in os.TempDir
// that is created on demand.
func Dir() (string, error) {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir, nil
	}

	uid := os.Getuid()
	if dir := fmt.Sprintf("/run/user/%d", uid); isDir(dir) {
		return dir, nil
	}
	return fallbackDir(uid)
}

// MediumDir returns <runtime dir>/multiwin/<origin>. Processes that
// resolve the same directory share one roster.
func MediumDir(origin string) (string, error) {
	if origin == "" || origin == "." || origin == ".." || strings.ContainsAny(origin, `/\`) {
		return "", fmt.Errorf("invalid origin %q", origin)
	}
	base, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, appDir, origin), nil
}

func fallbackDir(uid int) (string, error) {
	dir := filepath.Join(os.TempDir(), fmt.Sprintf("%s-runtime-%d", appDir, uid))
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create runtime dir: %w", err)
	}
	return dir, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
