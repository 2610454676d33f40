package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/multiwin/internal/winreg"
)

func (s *Server) handleListWindows(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListWindowsInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	windows, err := s.readRoster()
	if err != nil {
		return nil, ListWindowsOutput{}, err
	}

	out := ListWindowsOutput{
		Origin:  s.origin,
		Count:   len(windows),
		NextID:  s.readCount() + 1,
		Windows: make([]WindowInfo, 0, len(windows)),
	}
	for _, w := range windows {
		out.Windows = append(out.Windows, s.windowInfo(w))
	}
	return nil, out, nil
}

func (s *Server) handleGetWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args GetWindowInput) (*mcpsdk.CallToolResult, WindowInfo, error) {
	windows, err := s.readRoster()
	if err != nil {
		return nil, WindowInfo{}, err
	}
	for _, w := range windows {
		if w.ID == args.ID {
			return nil, s.windowInfo(w), nil
		}
	}
	return nil, WindowInfo{}, fmt.Errorf("window %d not found", args.ID)
}

// readRoster treats an absent or malformed roster as empty, like a
// registering window would.
func (s *Server) readRoster() ([]winreg.Record, error) {
	value, ok, err := s.medium.Read(winreg.WindowsKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster: %w", err)
	}
	if !ok {
		return nil, nil
	}
	windows, err := winreg.DecodeRoster(value)
	if err != nil {
		s.logger.Warn("malformed roster, reporting empty", "error", err)
		return nil, nil
	}
	return windows, nil
}

func (s *Server) readCount() int {
	value, ok, err := s.medium.Read(winreg.CountKey)
	if err != nil || !ok {
		return 0
	}
	n, err := winreg.DecodeCount(value)
	if err != nil {
		return 0
	}
	return n
}

func (s *Server) windowInfo(w winreg.Record) WindowInfo {
	cx, cy := w.Shape.Center()
	info := WindowInfo{
		ID:      w.ID,
		X:       w.Shape.X,
		Y:       w.Shape.Y,
		Width:   w.Shape.W,
		Height:  w.Shape.H,
		CenterX: cx,
		CenterY: cy,
	}
	if len(w.Metadata) > 0 {
		var meta any
		if err := json.Unmarshal(w.Metadata, &meta); err != nil {
			s.logger.Warn("undecodable window metadata", "window_id", w.ID, "error", err)
		} else {
			info.Metadata = meta
		}
	}
	return info
}
