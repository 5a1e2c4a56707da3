// Package errors provides structured error types for the CDB-MCP server.
// These errors include helpful hints and suggestions that guide the LLM
// to correct course when something goes wrong.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents a category of error for programmatic handling
type ErrorCode string

const (
	// Spawn errors
	CodeCDBNotFound           ErrorCode = "CDB_NOT_FOUND"
	CodeSpawnPermissionDenied ErrorCode = "SPAWN_PERMISSION_DENIED"
	CodeSpawnFailed           ErrorCode = "SPAWN_FAILED"

	// Open errors
	CodeInitTimeout       ErrorCode = "INIT_TIMEOUT"
	CodeTargetUnreachable ErrorCode = "TARGET_UNREACHABLE"
	CodeDumpNotFound      ErrorCode = "DUMP_NOT_FOUND"

	// Command errors
	CodeCommandTimeout    ErrorCode = "COMMAND_TIMEOUT"
	CodeProcessTerminated ErrorCode = "PROCESS_TERMINATED"
	CodeIOError           ErrorCode = "IO_ERROR"

	// Session errors
	CodeSessionBusy         ErrorCode = "SESSION_BUSY"
	CodeSessionClosed       ErrorCode = "SESSION_CLOSED"
	CodeSessionNotFound     ErrorCode = "SESSION_NOT_FOUND"
	CodeDuplicateSession    ErrorCode = "DUPLICATE_SESSION"
	CodeSessionLimitReached ErrorCode = "SESSION_LIMIT_REACHED"

	// Parameter errors
	CodeMissingParameter ErrorCode = "MISSING_PARAMETER"
	CodeInvalidParameter ErrorCode = "INVALID_PARAMETER"
)

// DebugError is a structured error type that includes helpful information
// for the LLM to understand what went wrong and how to fix it.
type DebugError struct {
	// Code is a machine-readable error category
	Code ErrorCode `json:"code"`

	// Message is a human/LLM-readable description of what went wrong
	Message string `json:"message"`

	// Hint provides actionable guidance on how to fix the error
	Hint string `json:"hint,omitempty"`

	// Details contains additional context (e.g., the invalid value, expected format)
	Details map[string]interface{} `json:"details,omitempty"`

	// Cause is the underlying error, if any
	Cause error `json:"-"`
}

// Error implements the error interface
func (e *DebugError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)

	if e.Hint != "" {
		sb.WriteString(" | Hint: ")
		sb.WriteString(e.Hint)
	}

	return sb.String()
}

// Unwrap returns the underlying error for error chaining
func (e *DebugError) Unwrap() error {
	return e.Cause
}

// WithDetails adds details to the error
func (e *DebugError) WithDetails(key string, value interface{}) *DebugError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying cause
func (e *DebugError) WithCause(err error) *DebugError {
	e.Cause = err
	return e
}

// IsCode reports whether err is a DebugError with the given code
func IsCode(err error, code ErrorCode) bool {
	var de *DebugError
	if stderrors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// --- Spawn Errors ---

// CDBNotFound creates an error for when the cdb executable cannot be located
func CDBNotFound(customPath string) *DebugError {
	msg := "cdb.exe not found in any of the default Debugging Tools locations or PATH"
	if customPath != "" {
		msg = fmt.Sprintf("cdb executable not found at configured path: %s", customPath)
	}
	e := &DebugError{
		Code:    CodeCDBNotFound,
		Message: msg,
		Hint:    "Install the Windows SDK Debugging Tools, or set the cdb path explicitly via the cdbPath config field, the CDB_PATH environment variable, or the --cdb-path flag.",
	}
	if customPath != "" {
		e.Details = map[string]interface{}{
			"cdbPath": customPath,
		}
	}
	return e
}

// SpawnPermissionDenied creates an error when the OS refuses to execute cdb
func SpawnPermissionDenied(path string, err error) *DebugError {
	return &DebugError{
		Code:    CodeSpawnPermissionDenied,
		Message: fmt.Sprintf("permission denied launching debugger: %s", path),
		Hint:    "Check that the cdb executable is readable and executable by the server process.",
		Cause:   err,
		Details: map[string]interface{}{
			"cdbPath": path,
		},
	}
}

// SpawnFailed creates an error when process creation fails for any other reason
func SpawnFailed(path string, err error) *DebugError {
	return &DebugError{
		Code:    CodeSpawnFailed,
		Message: fmt.Sprintf("failed to launch debugger process: %v", err),
		Hint:    "The OS rejected process creation. Check the cdb path and available system resources.",
		Cause:   err,
		Details: map[string]interface{}{
			"cdbPath": path,
		},
	}
}

// --- Open Errors ---

// InitTimeout creates an error when the debugger never signals readiness
func InitTimeout(target string, timeoutSeconds int) *DebugError {
	return &DebugError{
		Code:    CodeInitTimeout,
		Message: fmt.Sprintf("debugger did not become ready within %d seconds", timeoutSeconds),
		Hint:    "Symbol loading and large dumps can be slow. Retry with a longer init timeout, or check the symbol path configuration.",
		Details: map[string]interface{}{
			"target":         target,
			"timeoutSeconds": timeoutSeconds,
		},
	}
}

// TargetUnreachable creates an error when a remote debugging target cannot be reached
func TargetUnreachable(connectionString string, err error) *DebugError {
	return &DebugError{
		Code:    CodeTargetUnreachable,
		Message: fmt.Sprintf("could not connect to remote target: %s", connectionString),
		Hint:    "Verify the debugging server is running on the target and the connection string is correct (e.g., tcp:Port=5005,Server=192.168.0.100).",
		Cause:   err,
		Details: map[string]interface{}{
			"connectionString": connectionString,
		},
	}
}

// DumpNotFound creates an error when the requested dump file does not exist
func DumpNotFound(path string) *DebugError {
	return &DebugError{
		Code:    CodeDumpNotFound,
		Message: fmt.Sprintf("dump file does not exist: %s", path),
		Hint:    "Check the path, or use list_windbg_dumps to discover dump files on this machine.",
		Details: map[string]interface{}{
			"dumpPath": path,
		},
	}
}

// --- Command Errors ---

// CommandTimeout creates an error when a command exceeds its deadline
func CommandTimeout(command string, timeoutSeconds int) *DebugError {
	return &DebugError{
		Code:    CodeCommandTimeout,
		Message: fmt.Sprintf("command '%s' timed out after %d seconds", command, timeoutSeconds),
		Hint:    "The session remains usable. Retry with a longer timeout_seconds, or run a cheaper command. Partial output collected before the deadline is returned marked as truncated.",
		Details: map[string]interface{}{
			"command":        command,
			"timeoutSeconds": timeoutSeconds,
		},
	}
}

// ProcessTerminated creates an error when the debugger process dies unexpectedly
func ProcessTerminated(sessionID string) *DebugError {
	return &DebugError{
		Code:    CodeProcessTerminated,
		Message: fmt.Sprintf("debugger process for session '%s' terminated unexpectedly", sessionID),
		Hint:    "The session is closed and removed. Open the target again to continue debugging.",
		Details: map[string]interface{}{
			"sessionId": sessionID,
		},
	}
}

// IOFailure creates an error for pipe read/write failures against the debugger
func IOFailure(operation string, err error) *DebugError {
	return &DebugError{
		Code:    CodeIOError,
		Message: fmt.Sprintf("i/o failure during %s: %v", operation, err),
		Hint:    "The debugger process is likely dead or its pipes are closed. Close the session and open the target again.",
		Cause:   err,
		Details: map[string]interface{}{
			"operation": operation,
		},
	}
}

// --- Session Errors ---

// SessionBusy creates an error when a command is already in flight on a session
func SessionBusy(sessionID string) *DebugError {
	return &DebugError{
		Code:    CodeSessionBusy,
		Message: fmt.Sprintf("session '%s' is busy executing another command", sessionID),
		Hint:    "Commands on a session run one at a time and are never queued. Wait for the in-flight command to finish, then retry.",
		Details: map[string]interface{}{
			"sessionId": sessionID,
		},
	}
}

// SessionClosed creates an error when operating on a closing or closed session
func SessionClosed(sessionID string) *DebugError {
	return &DebugError{
		Code:    CodeSessionClosed,
		Message: fmt.Sprintf("session '%s' is closed", sessionID),
		Hint:    "Open the target again with open_windbg_dump or open_windbg_remote to get a fresh session.",
		Details: map[string]interface{}{
			"sessionId": sessionID,
		},
	}
}

// SessionNotFound creates an error for when a session ID doesn't exist
func SessionNotFound(sessionID string) *DebugError {
	return &DebugError{
		Code:    CodeSessionNotFound,
		Message: fmt.Sprintf("session '%s' not found", sessionID),
		Hint:    "The session was never opened, was closed, or was evicted after idling. Open the target again first.",
		Details: map[string]interface{}{
			"sessionId": sessionID,
		},
	}
}

// DuplicateSession creates an error when a session ID is already open
func DuplicateSession(sessionID string) *DebugError {
	return &DebugError{
		Code:    CodeDuplicateSession,
		Message: fmt.Sprintf("session '%s' is already open", sessionID),
		Hint:    "Use run_windbg_cmd against the existing session, or close it first with close_windbg_dump / close_windbg_remote.",
		Details: map[string]interface{}{
			"sessionId": sessionID,
		},
	}
}

// SessionLimitReached creates an error when max sessions is reached
func SessionLimitReached(maxSessions int) *DebugError {
	return &DebugError{
		Code:    CodeSessionLimitReached,
		Message: fmt.Sprintf("maximum number of sessions (%d) reached", maxSessions),
		Hint:    "Close an existing session with close_windbg_dump or close_windbg_remote before opening a new one.",
		Details: map[string]interface{}{
			"maxSessions": maxSessions,
		},
	}
}

// --- Parameter Errors ---

// MissingParameter creates an error for missing required parameters
func MissingParameter(paramName, description string) *DebugError {
	return &DebugError{
		Code:    CodeMissingParameter,
		Message: fmt.Sprintf("required parameter '%s' is missing", paramName),
		Hint:    description,
		Details: map[string]interface{}{
			"parameter": paramName,
		},
	}
}

// InvalidParameter creates an error for invalid parameter values
func InvalidParameter(paramName string, value interface{}, expected string) *DebugError {
	return &DebugError{
		Code:    CodeInvalidParameter,
		Message: fmt.Sprintf("invalid value for parameter '%s': %v", paramName, value),
		Hint:    fmt.Sprintf("Expected: %s", expected),
		Details: map[string]interface{}{
			"parameter": paramName,
			"value":     value,
			"expected":  expected,
		},
	}
}

// --- Helper for wrapping generic errors ---

// Wrap wraps a generic error with context
func Wrap(code ErrorCode, message string, hint string, err error) *DebugError {
	return &DebugError{
		Code:    code,
		Message: message,
		Hint:    hint,
		Cause:   err,
	}
}

// FromError creates a DebugError from a generic error, attempting to preserve any existing structure
func FromError(err error) *DebugError {
	var de *DebugError
	if stderrors.As(err, &de) {
		return de
	}
	return &DebugError{
		Code:    "UNKNOWN_ERROR",
		Message: err.Error(),
		Hint:    "An unexpected error occurred. Please check the error message for details.",
		Cause:   err,
	}
}
