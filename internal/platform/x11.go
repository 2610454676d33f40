package platform

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/1broseidon/multiwin/internal/winreg"
	"github.com/1broseidon/multiwin/internal/x11"
)

// X11Source reports the real screen geometry of one X11 window. The
// reported position is the outer frame's top-left corner and the size is
// the client area, the same convention browsers use for screenX/innerWidth.
type X11Source struct {
	conn     *x11.Connection
	windowID uint32
}

// NewX11Source connects to $DISPLAY and tracks windowID. A zero windowID
// resolves to $WINDOWID (set by most terminal emulators), then to the
// window that is active right now.
func NewX11Source(windowID uint32) (*X11Source, error) {
	conn, err := x11.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}

	if windowID == 0 {
		windowID, err = resolveWindowID(conn)
		if err != nil {
			conn.Close()
			return nil, err
		}
	}

	src := &X11Source{conn: conn, windowID: windowID}
	if _, err := src.Geometry(); err != nil {
		conn.Close()
		return nil, err
	}
	return src, nil
}

func resolveWindowID(conn *x11.Connection) (uint32, error) {
	if env := strings.TrimSpace(os.Getenv("WINDOWID")); env != "" {
		id, err := strconv.ParseUint(env, 0, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid WINDOWID %q: %w", env, err)
		}
		return uint32(id), nil
	}
	return conn.GetActiveWindow()
}

// Geometry queries the X server for the window's current geometry.
func (s *X11Source) Geometry() (winreg.Shape, error) {
	rect, err := s.conn.WindowGeometry(s.windowID)
	if err != nil {
		return winreg.Shape{}, err
	}
	left, _, top, _, _ := s.conn.GetFrameExtents(s.windowID)
	return winreg.Shape{
		X: rect.X - left,
		Y: rect.Y - top,
		W: rect.Width,
		H: rect.Height,
	}, nil
}

// WindowID returns the tracked X11 window.
func (s *X11Source) WindowID() uint32 {
	return s.windowID
}

// Title returns the tracked window's title.
func (s *X11Source) Title() string {
	return s.conn.WindowTitle(s.windowID)
}

// Close releases the X11 connection.
func (s *X11Source) Close() {
	if s != nil && s.conn != nil {
		s.conn.Close()
	}
}
