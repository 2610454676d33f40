// Package platform provides window geometry sources for the registry.
package platform

import (
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/1broseidon/multiwin/internal/config"
	"github.com/1broseidon/multiwin/internal/winreg"
)

// StaticSource reports a fixed geometry.
type StaticSource struct {
	Shape winreg.Shape
}

// Geometry returns the configured shape.
func (s StaticSource) Geometry() (winreg.Shape, error) {
	return s.Shape, nil
}

// FuncSource adapts a function to winreg.GeometrySource.
type FuncSource func() (winreg.Shape, error)

// Geometry calls f.
func (f FuncSource) Geometry() (winreg.Shape, error) {
	return f()
}

// TerminalSource reports a configured screen position and the size of the
// controlling terminal converted from cells to pixels.
type TerminalSource struct {
	X, Y       int
	CellWidth  int
	CellHeight int
	// Size returns the terminal size in cells; nil uses stdout.
	Size func() (cols, rows int, err error)
}

// Geometry queries the terminal size.
func (s TerminalSource) Geometry() (winreg.Shape, error) {
	size := s.Size
	if size == nil {
		size = stdoutSize
	}
	cols, rows, err := size()
	if err != nil {
		return winreg.Shape{}, fmt.Errorf("failed to get terminal size: %w", err)
	}
	return winreg.Shape{
		X: s.X,
		Y: s.Y,
		W: cols * s.CellWidth,
		H: rows * s.CellHeight,
	}, nil
}

func stdoutSize() (int, int, error) {
	return term.GetSize(int(os.Stdout.Fd()))
}

// NewSource builds the geometry source selected by cfg. The returned func
// releases any resources held by the source and is never nil.
func NewSource(cfg config.Geometry, logger *slog.Logger) (winreg.GeometrySource, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}
	noop := func() {}
	static := StaticSource{Shape: winreg.Shape{X: cfg.X, Y: cfg.Y, W: cfg.Width, H: cfg.Height}}
	terminal := TerminalSource{X: cfg.X, Y: cfg.Y, CellWidth: cfg.CellWidth, CellHeight: cfg.CellHeight}

	switch cfg.Source {
	case config.GeometryStatic:
		return static, noop, nil
	case config.GeometryTerminal:
		return terminal, noop, nil
	case config.GeometryX11:
		src, err := NewX11Source(cfg.WindowID)
		if err != nil {
			return nil, noop, err
		}
		return src, src.Close, nil
	case config.GeometryAuto, "":
		src, err := NewX11Source(cfg.WindowID)
		if err == nil {
			logger.Info("using x11 window geometry", "xid", src.WindowID(), "title", src.Title())
			return src, src.Close, nil
		}
		logger.Debug("x11 geometry unavailable", "error", err)
		if term.IsTerminal(int(os.Stdout.Fd())) {
			logger.Info("using terminal geometry")
			return terminal, noop, nil
		}
		logger.Info("using static geometry")
		return static, noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown geometry source %q", cfg.Source)
	}
}
