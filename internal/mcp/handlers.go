package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"

	"github.com/ctagard/cdb-mcp/internal/cdb"
	"github.com/ctagard/cdb-mcp/internal/dumps"
	"github.com/ctagard/cdb-mcp/internal/errors"
	"github.com/ctagard/cdb-mcp/internal/logging"
	"github.com/ctagard/cdb-mcp/pkg/types"
)

var log = logging.WithComponent("mcp")

// Session Management Handlers

func (s *Server) handleOpenWindbgDump(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dumpPath, err := request.RequireString("dump_path")
	if err != nil {
		return mcp.NewToolResultError(errors.MissingParameter("dump_path",
			"Provide the path to the crash dump (.dmp) file to analyze. Use list_windbg_dumps to discover dump files on this machine.").Error()), nil
	}

	idHint := ""
	if id, err := request.RequireString("id"); err == nil {
		idHint = id
	}

	log.WithField("dumpPath", dumpPath).Info("opening dump session")

	sessionID, err := s.registry.OpenSession(ctx, types.SessionKindDump, dumpPath, idHint)
	if err != nil {
		return mcp.NewToolResultError(errors.FromError(err).Error()), nil
	}

	sections := dumpAnalysisSections(
		request.GetBool("include_stack_trace", false),
		request.GetBool("include_modules", false),
		request.GetBool("include_threads", false),
	)

	var report string
	if err := s.registry.WithSession(sessionID, func(sess *cdb.Session) error {
		report = s.buildSessionReport(ctx, sess, "Crash Dump Analysis: "+dumpPath, sections)
		return nil
	}); err != nil {
		return mcp.NewToolResultError(errors.FromError(err).Error()), nil
	}

	return jsonResult(map[string]interface{}{
		"sessionId": sessionID,
		"analysis":  report,
	})
}

func (s *Server) handleOpenWindbgRemote(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	connectionString, err := request.RequireString("connection_string")
	if err != nil {
		return mcp.NewToolResultError(errors.MissingParameter("connection_string",
			"Provide the remote connection string, e.g. tcp:Port=5005,Server=192.168.0.100. The target machine must be running a debugging server (cdb -server or dbgsrv).").Error()), nil
	}

	idHint := ""
	if id, err := request.RequireString("id"); err == nil {
		idHint = id
	}

	log.WithField("connectionString", connectionString).Info("opening remote session")

	sessionID, err := s.registry.OpenSession(ctx, types.SessionKindRemote, connectionString, idHint)
	if err != nil {
		return mcp.NewToolResultError(errors.FromError(err).Error()), nil
	}

	sections := remoteSurveySections(
		request.GetBool("include_stack_trace", false),
		request.GetBool("include_modules", false),
		request.GetBool("include_threads", false),
	)

	var report string
	if err := s.registry.WithSession(sessionID, func(sess *cdb.Session) error {
		report = s.buildSessionReport(ctx, sess, "Remote Debugging Session: "+connectionString, sections)
		return nil
	}); err != nil {
		return mcp.NewToolResultError(errors.FromError(err).Error()), nil
	}

	return jsonResult(map[string]interface{}{
		"sessionId": sessionID,
		"report":    report,
	})
}

func (s *Server) handleCloseWindbgDump(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.handleClose(request, "Dump file session closed: ")
}

func (s *Server) handleCloseWindbgRemote(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.handleClose(request, "Remote debugging session closed: ")
}

// handleClose implements both close tools. Close is idempotent at the tool
// surface: an unknown ID means the session is already gone, which is exactly
// the state the caller asked for.
func (s *Server) handleClose(request mcp.CallToolRequest, closedPrefix string) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(errors.MissingParameter("session_id",
			"Provide the session ID returned by the open tool.").Error()), nil
	}

	log.WithField("sessionId", sessionID).Info("closing session")

	if err := s.registry.CloseSession(sessionID); err != nil {
		if errors.IsCode(err, errors.CodeSessionNotFound) {
			return jsonResult(map[string]interface{}{
				"sessionId": sessionID,
				"status":    "already_closed",
			})
		}
		return mcp.NewToolResultError(errors.FromError(err).Error()), nil
	}

	return jsonResult(map[string]interface{}{
		"sessionId": sessionID,
		"status":    "closed",
		"message":   closedPrefix + sessionID,
	})
}

// Execution and Discovery Handlers

func (s *Server) handleRunWindbgCmd(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(errors.MissingParameter("session_id",
			"Provide the session ID returned by open_windbg_dump or open_windbg_remote.").Error()), nil
	}

	command, err := request.RequireString("command")
	if err != nil {
		return mcp.NewToolResultError(errors.MissingParameter("command",
			"Provide the WinDbg command to execute, e.g. kb, lm, !analyze -v.").Error()), nil
	}
	if strings.TrimSpace(command) == "" {
		return mcp.NewToolResultError(errors.InvalidParameter("command", command,
			"a non-empty WinDbg command").Error()), nil
	}

	timeout := s.config.CommandTimeout()
	if secs, err := request.RequireFloat("timeout_seconds"); err == nil {
		if secs <= 0 {
			return mcp.NewToolResultError(errors.InvalidParameter("timeout_seconds", secs,
				"a positive number of seconds").Error()), nil
		}
		timeout = time.Duration(secs * float64(time.Second))
	}

	log.WithFields(logrus.Fields{
		"sessionId": sessionID,
		"command":   command,
	}).Debug("executing command")

	var res *cdb.CommandResult
	err = s.registry.WithSession(sessionID, func(sess *cdb.Session) error {
		var runErr error
		res, runErr = sess.Run(ctx, command, timeout)
		return runErr
	})
	if err != nil {
		msg := errors.FromError(err).Error()
		if res != nil && res.Truncated && res.Output != "" {
			msg += "\n\nPartial output before the deadline:\n```\n" + res.Output + "\n```"
		}
		return mcp.NewToolResultError(msg), nil
	}

	return jsonResult(map[string]interface{}{
		"sessionId": sessionID,
		"output":    res.Output,
	})
}

func (s *Server) handleListWindbgDumps(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir := ""
	if v, err := request.RequireString("directory_path"); err == nil {
		dir = v
	}
	if dir == "" {
		d, ok := dumps.DefaultDirectory()
		if !ok {
			return mcp.NewToolResultError(errors.Wrap(errors.CodeInvalidParameter,
				"unable to determine the default dump directory",
				"Provide directory_path explicitly. Only Windows hosts have a discoverable default dump location.",
				nil).Error()), nil
		}
		dir = d
	}

	recursive := request.GetBool("recursive", false)

	log.WithFields(logrus.Fields{
		"directory": dir,
		"recursive": recursive,
	}).Debug("listing dump files")

	files, err := dumps.Find(dir, recursive)
	if err != nil {
		return mcp.NewToolResultError(errors.InvalidParameter("directory_path", dir,
			"an existing, readable directory").WithCause(err).Error()), nil
	}

	entries := make([]map[string]interface{}, 0, len(files))
	for _, f := range files {
		entries = append(entries, map[string]interface{}{
			"path":      f.Path,
			"sizeBytes": f.SizeBytes,
			"sizeMB":    fmt.Sprintf("%.2f", float64(f.SizeBytes)/1024.0/1024.0),
		})
	}

	return jsonResult(map[string]interface{}{
		"directory": dir,
		"count":     len(files),
		"dumps":     entries,
	})
}

// jsonResult marshals data as the tool's text result.
func jsonResult(data interface{}) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}
