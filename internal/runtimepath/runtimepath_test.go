package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestDir_UsesXDGRuntimeDirWhenSet(t *testing.T) {
	td := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", td)

	got, err := Dir()
	if err != nil {
		t.Fatalf("Dir() error: %v", err)
	}
	if got != td {
		t.Fatalf("Dir() = %q, want %q", got, td)
	}
}

func TestDir_FallbacksWhenXDGRuntimeDirMissing(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "")

	got, err := Dir()
	if err != nil {
		t.Fatalf("Dir() error: %v", err)
	}

	wantRun := fmt.Sprintf("/run/user/%d", os.Getuid())
	wantTmp := filepath.Join(os.TempDir(), fmt.Sprintf("multiwin-runtime-%d", os.Getuid()))
	if got != wantRun && got != wantTmp {
		t.Fatalf("Dir() = %q, want %q or %q", got, wantRun, wantTmp)
	}
}

func TestMediumDir_NamespacedByOrigin(t *testing.T) {
	td := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", td)

	a, err := MediumDir("alpha")
	if err != nil {
		t.Fatalf("MediumDir() error: %v", err)
	}
	if want := filepath.Join(td, "multiwin", "alpha"); a != want {
		t.Fatalf("MediumDir(alpha) = %q, want %q", a, want)
	}

	b, err := MediumDir("beta")
	if err != nil {
		t.Fatalf("MediumDir() error: %v", err)
	}
	if a == b {
		t.Fatalf("MediumDir returned %q for two different origins", a)
	}
}

func TestMediumDir_RejectsPathLikeOrigins(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	for _, origin := range []string{"", ".", "..", "a/b", `a\b`} {
		t.Run(origin, func(t *testing.T) {
			if _, err := MediumDir(origin); err == nil {
				t.Fatalf("MediumDir(%q) succeeded, want error", origin)
			}
		})
	}
}

func TestFallbackDir_CreatesPrivateDir(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())

	dir, err := fallbackDir(4242)
	if err != nil {
		t.Fatalf("fallbackDir() error: %v", err)
	}
	if want := filepath.Join(os.TempDir(), "multiwin-runtime-4242"); dir != want {
		t.Fatalf("fallbackDir() = %q, want %q", dir, want)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("fallback dir not created: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0700 {
		t.Fatalf("fallback dir mode = %o, want 700", perm)
	}
}
