package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// Rect is a window rectangle in root-window (screen) coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// WindowGeometry returns the screen position of the window's client area
// and its size. The position is translated to root coordinates, so it
// stays correct under reparenting window managers.
func (c *Connection) WindowGeometry(windowID uint32) (Rect, error) {
	win := xproto.Window(windowID)
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(win)).Reply()
	if err != nil {
		return Rect{}, fmt.Errorf("failed to get geometry of window %d: %w", windowID, err)
	}

	translate, err := xproto.TranslateCoordinates(
		c.XUtil.Conn(),
		win,
		c.Root,
		0, 0,
	).Reply()
	if err != nil {
		return Rect{}, fmt.Errorf("failed to translate coordinates of window %d: %w", windowID, err)
	}

	return Rect{
		X:      int(translate.DstX),
		Y:      int(translate.DstY),
		Width:  int(geom.Width),
		Height: int(geom.Height),
	}, nil
}

// GetFrameExtents returns the window decoration sizes (if available)
func (c *Connection) GetFrameExtents(windowID uint32) (left, right, top, bottom int, err error) {
	extents, err := ewmh.FrameExtentsGet(c.XUtil, xproto.Window(windowID))
	if err != nil {
		// No frame extents available, return zeros
		return 0, 0, 0, 0, nil
	}

	return int(extents.Left), int(extents.Right), int(extents.Top), int(extents.Bottom), nil
}

// GetActiveWindow returns the window that currently has focus.
func (c *Connection) GetActiveWindow() (uint32, error) {
	win, err := ewmh.ActiveWindowGet(c.XUtil)
	if err != nil {
		return 0, fmt.Errorf("failed to get active window: %w", err)
	}
	if win == 0 {
		return 0, fmt.Errorf("no active window")
	}
	return uint32(win), nil
}

// WindowTitle returns the EWMH title of the window, or "" if unset.
func (c *Connection) WindowTitle(windowID uint32) string {
	title, err := ewmh.WmNameGet(c.XUtil, xproto.Window(windowID))
	if err != nil {
		return ""
	}
	return title
}
