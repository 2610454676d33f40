package mcp

// ListWindowsInput is the input for the list_windows tool.
type ListWindowsInput struct{}

// WindowInfo describes one registered window.
type WindowInfo struct {
	ID       int `json:"id"`
	X        int `json:"x"`
	Y        int `json:"y"`
	Width    int `json:"width"`
	Height   int `json:"height"`
	CenterX  int `json:"center_x"`
	CenterY  int `json:"center_y"`
	Metadata any `json:"metadata,omitempty"`
}

// ListWindowsOutput is the output for the list_windows tool.
type ListWindowsOutput struct {
	Origin  string       `json:"origin"`
	Count   int          `json:"count"`
	NextID  int          `json:"next_id"`
	Windows []WindowInfo `json:"windows"`
}

// GetWindowInput is the input for the get_window tool.
type GetWindowInput struct {
	ID int `json:"id" jsonschema:"required,Window id as shown by list_windows"`
}
