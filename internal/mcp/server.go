package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/MakiNampei/Desktop-Auto-Filer/internal/engine"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes the placement engine to agents.
type Server struct {
	engine *engine.Engine
	mcp    *server.MCPServer
}

// NewServer creates a new MCP server around the given engine.
func NewServer(eng *engine.Engine) *Server {
	s := &Server{engine: eng}

	s.mcp = server.NewMCPServer(
		"autofiler",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(suggestDestinationTool, s.handleSuggestDestination)
	s.mcp.AddTool(recordFeedbackTool, s.handleRecordFeedback)
	s.mcp.AddTool(engineStatusTool, s.handleEngineStatus)
	s.mcp.AddTool(listAllowlistTool, s.handleListAllowlist)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
