// Package mcp provides the Model Context Protocol (MCP) server implementation.
//
// This package exposes Windows crash dump analysis and remote debugging
// through MCP tools that can be used by AI assistants and other MCP clients.
// It provides a 6-tool API driving cdb, the command-line WinDbg debugger:
//
// Session Management:
//   - open_windbg_dump: Open a crash dump file and run initial analysis
//   - open_windbg_remote: Connect to a remote debugging server
//   - close_windbg_dump: Close a dump file session
//   - close_windbg_remote: Close a remote debugging session
//
// Execution and Discovery:
//   - run_windbg_cmd: Execute a WinDbg command in an open session
//   - list_windbg_dumps: List crash dump files on this machine
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/ctagard/cdb-mcp/internal/cdb"
	"github.com/ctagard/cdb-mcp/internal/config"
	"github.com/ctagard/cdb-mcp/internal/logging"
	"github.com/ctagard/cdb-mcp/internal/version"
)

// Server wraps the MCP server with debugging capabilities
type Server struct {
	mcpServer *server.MCPServer
	registry  *cdb.Registry
	config    *config.Config
}

// NewServer creates a new CDB-MCP server
func NewServer(cfg *config.Config) *Server {
	// Create MCP server
	mcpServer := server.NewMCPServer(
		"cdb-mcp",
		version.GetVersion(),
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	// Create session registry
	registry := cdb.NewRegistry(cfg, logging.WithComponent("registry"))

	s := &Server{
		mcpServer: mcpServer,
		registry:  registry,
		config:    cfg,
	}

	// Register all tools
	s.registerTools()

	return s
}

// ServeStdio starts the server using stdio transport
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// Close shuts down the server and every debugger it spawned
func (s *Server) Close() {
	s.registry.Shutdown()
}

// GetRegistry returns the session registry
func (s *Server) GetRegistry() *cdb.Registry {
	return s.registry
}

// GetConfig returns the server configuration
func (s *Server) GetConfig() *config.Config {
	return s.config
}
