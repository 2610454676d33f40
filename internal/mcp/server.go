package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/multiwin/internal/medium"
)

const (
	ServerName    = "multiwin"
	ServerVersion = "0.1.0"
)

// Server exposes the shared window roster to MCP clients. It only reads
// the medium and never registers a window of its own.
type Server struct {
	mcpServer *mcpsdk.Server
	medium    medium.Medium
	origin    string
	logger    *slog.Logger
}

// NewServer creates an MCP server reading the roster from m.
func NewServer(m medium.Medium, origin string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		medium: m,
		origin: origin,
		logger: logger,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_windows",
		Description: "List every window currently registered in the shared roster, with its screen position, size, centre and metadata. Windows appear in roster order; a window killed without teardown may still be listed.",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_window",
		Description: "Get one registered window by id.",
	}, s.handleGetWindow)
}
