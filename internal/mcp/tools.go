package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// registerTools registers the 6-tool WinDbg API
func (s *Server) registerTools() {
	// Session Management (4 tools)
	s.registerOpenWindbgDump()
	s.registerOpenWindbgRemote()
	s.registerCloseWindbgDump()
	s.registerCloseWindbgRemote()

	// Execution and Discovery (2 tools)
	s.registerRunWindbgCmd()
	s.registerListWindbgDumps()
}

// Session Management Tools

func (s *Server) registerOpenWindbgDump() {
	tool := mcp.NewTool("open_windbg_dump",
		mcp.WithDescription("Open and analyze a Windows crash dump file. Starts a cdb debugger session against the dump, runs initial crash analysis (.lastevent and !analyze -v), and returns the sessionId needed for run_windbg_cmd and close_windbg_dump. The session stays open for follow-up commands."),
		mcp.WithString("dump_path",
			mcp.Required(),
			mcp.Description("Path to the crash dump (.dmp) file"),
		),
		mcp.WithString("id",
			mcp.Description("Session ID to assign. Defaults to the canonical dump path."),
		),
		mcp.WithBoolean("include_stack_trace",
			mcp.Description("Include a stack trace (kb) section in the analysis (default: false)"),
		),
		mcp.WithBoolean("include_modules",
			mcp.Description("Include a loaded-modules (lm) section in the analysis (default: false)"),
		),
		mcp.WithBoolean("include_threads",
			mcp.Description("Include a thread-list (~) section in the analysis (default: false)"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleOpenWindbgDump)
}

func (s *Server) registerOpenWindbgRemote() {
	tool := mcp.NewTool("open_windbg_remote",
		mcp.WithDescription("Connect to a remote debugging server (cdb.exe -server / dbgsrv) and return the sessionId needed for run_windbg_cmd and close_windbg_remote. Runs an initial survey of the debuggee (!peb and registers)."),
		mcp.WithString("connection_string",
			mcp.Required(),
			mcp.Description("Remote connection string (e.g., tcp:Port=5005,Server=192.168.0.100)"),
		),
		mcp.WithString("id",
			mcp.Description("Session ID to assign. Defaults to the connection string."),
		),
		mcp.WithBoolean("include_stack_trace",
			mcp.Description("Include a stack trace (kb) section in the report (default: false)"),
		),
		mcp.WithBoolean("include_modules",
			mcp.Description("Include a loaded-modules (lm) section in the report (default: false)"),
		),
		mcp.WithBoolean("include_threads",
			mcp.Description("Include a thread-list (~) section in the report (default: false)"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleOpenWindbgRemote)
}

func (s *Server) registerCloseWindbgDump() {
	tool := mcp.NewTool("close_windbg_dump",
		mcp.WithDescription("Close a crash dump session and terminate its debugger process. Closing an unknown or already-closed sessionId succeeds and reports it as already closed."),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session ID returned by open_windbg_dump"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleCloseWindbgDump)
}

func (s *Server) registerCloseWindbgRemote() {
	tool := mcp.NewTool("close_windbg_remote",
		mcp.WithDescription("Close a remote debugging session. The local debugger detaches before quitting, so the remote debuggee keeps running. Closing an unknown or already-closed sessionId succeeds and reports it as already closed."),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session ID returned by open_windbg_remote"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleCloseWindbgRemote)
}

// Execution and Discovery Tools

func (s *Server) registerRunWindbgCmd() {
	tool := mcp.NewTool("run_windbg_cmd",
		mcp.WithDescription("Execute a WinDbg/cdb command in an open session and return its output. Commands run one at a time per session; if the session is busy the call fails immediately with SESSION_BUSY instead of queueing. On timeout the session stays usable and partial output is returned."),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session ID from open_windbg_dump or open_windbg_remote"),
		),
		mcp.WithString("command",
			mcp.Required(),
			mcp.Description("WinDbg command to execute (e.g., !analyze -v, kb, lm, dt, dx)"),
		),
		mcp.WithNumber("timeout_seconds",
			mcp.Description("Per-command timeout in seconds. Defaults to the server's configured command timeout. Use a larger value for slow commands like !analyze -v with cold symbol caches."),
		),
	)
	s.mcpServer.AddTool(tool, s.handleRunWindbgCmd)
}

func (s *Server) registerListWindbgDumps() {
	tool := mcp.NewTool("list_windbg_dumps",
		mcp.WithDescription("List Windows crash dump (.dmp) files in a directory, largest first. Without directory_path, the machine's configured dump location is used (WER LocalDumps registry setting, then well-known dump directories)."),
		mcp.WithString("directory_path",
			mcp.Description("Directory to search (optional, defaults to the system dump directory)"),
		),
		mcp.WithBoolean("recursive",
			mcp.Description("Recursively search subdirectories (default: false)"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleListWindbgDumps)
}
