package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ctagard/cdb-mcp/internal/config"
	"github.com/ctagard/cdb-mcp/internal/logging"
	"github.com/ctagard/cdb-mcp/internal/mcp"
	"github.com/ctagard/cdb-mcp/internal/version"
)

var (
	flagConfig      string
	flagCDBPath     string
	flagSymbolPath  string
	flagTimeout     int
	flagInitTimeout int
	flagMaxSessions int
	flagVerbose     bool
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cdb-mcp",
		Short: "MCP server for Windows crash dump analysis and remote debugging via CDB",
		Long: `CDB-MCP: WinDbg MCP Server

A Model Context Protocol (MCP) server that drives cdb, the command-line
WinDbg debugger, so LLMs can analyze Windows crash dumps and debug live
remote targets. The server speaks MCP over stdio; all logging goes to
stderr.

Tools:
  open_windbg_dump      Open a crash dump and run initial analysis
  open_windbg_remote    Connect to a remote debugging server
  run_windbg_cmd        Execute a WinDbg command in an open session
  close_windbg_dump     Close a dump session
  close_windbg_remote   Close a remote session
  list_windbg_dumps     List crash dump files on this machine

Open sessions survive between tool calls until closed or idle-evicted.

Configuration is layered: defaults, then --config JSON file, then
environment (CDB_PATH, _NT_SYMBOL_PATH, MCP_WINDBG_TIMEOUT,
MCP_WINDBG_VERBOSE), then flags.`,
		Version:      version.GetVersion(),
		RunE:         runServer,
		SilenceUsage: true,
	}

	cmd.Flags().StringVar(&flagConfig, "config", "", "Path to JSON configuration file")
	cmd.Flags().StringVar(&flagCDBPath, "cdb-path", "", "Path to cdb.exe (default: auto-discover)")
	cmd.Flags().StringVar(&flagSymbolPath, "symbol-path", "", "Symbol path handed to cdb as _NT_SYMBOL_PATH")
	cmd.Flags().IntVar(&flagTimeout, "timeout", config.DefaultCommandTimeoutSeconds, "Default command timeout in seconds")
	cmd.Flags().IntVar(&flagInitTimeout, "init-timeout", config.DefaultInitTimeoutSeconds, "Session initialization timeout in seconds")
	cmd.Flags().IntVar(&flagMaxSessions, "max-sessions", config.DefaultMaxSessions, "Maximum concurrent debug sessions")
	cmd.Flags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")

	return cmd
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(flagConfig)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg.ApplyEnv()

	// Flags override the file and environment, but only when given explicitly.
	if cmd.Flags().Changed("cdb-path") {
		cfg.CDBPath = flagCDBPath
	}
	if cmd.Flags().Changed("symbol-path") {
		cfg.SymbolPath = flagSymbolPath
	}
	if cmd.Flags().Changed("timeout") {
		cfg.CommandTimeoutSeconds = flagTimeout
	}
	if cmd.Flags().Changed("init-timeout") {
		cfg.InitTimeoutSeconds = flagInitTimeout
	}
	if cmd.Flags().Changed("max-sessions") {
		cfg.MaxSessions = flagMaxSessions
	}
	if flagVerbose {
		cfg.Verbose = true
	}

	logging.Setup(cfg.Verbose)
	logger := logging.WithComponent("main")

	server := mcp.NewServer(cfg)

	// Best-effort update check; the result only ever shows up in the log.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if msg := version.CheckForUpdates(ctx).UpdateMessage(); msg != "" {
			logger.Info(msg)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.WithField("signal", sig.String()).Info("shutting down")
		server.Close()
		os.Exit(0)
	}()

	logger.WithField("version", version.GetVersion()).Info("cdb-mcp server starting")
	if err := server.ServeStdio(); err != nil {
		server.Close()
		return fmt.Errorf("server error: %w", err)
	}

	// Normal exit: the MCP client closed our stdin.
	logger.WithField("openSessions", server.GetRegistry().Count()).Info("stdin closed; shutting down")
	server.Close()
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
