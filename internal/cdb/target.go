package cdb

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ctagard/cdb-mcp/internal/errors"
	"github.com/ctagard/cdb-mcp/pkg/types"
)

// Target describes what a debug session attaches to: a crash dump file
// on disk, or a live remote debugging server.
type Target struct {
	Kind types.SessionKind

	// Value holds the canonical dump file path for dump targets, or the
	// connection string (e.g. "tcp:Port=5005,Server=192.168.0.100") for
	// remote targets.
	Value string
}

// NewDumpTarget validates that the dump file exists and returns a Target
// with a canonicalized path so that the same file always yields the same
// session ID regardless of how the caller spelled the path.
func NewDumpTarget(path string) (Target, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Target{}, errors.MissingParameter("dump_path", "Provide the path to a Windows crash dump (.dmp) file.")
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return Target{}, errors.DumpNotFound(path)
	}

	return Target{Kind: types.SessionKindDump, Value: canonicalPath(path)}, nil
}

// NewRemoteTarget validates a remote connection string and returns a Target.
// The connection string is passed to cdb verbatim, so no format validation
// is done beyond rejecting empty input.
func NewRemoteTarget(connectionString string) (Target, error) {
	connectionString = strings.TrimSpace(connectionString)
	if connectionString == "" {
		return Target{}, errors.MissingParameter("connection_string",
			"Provide a cdb remote connection string such as tcp:Port=5005,Server=192.168.0.100.")
	}

	return Target{Kind: types.SessionKindRemote, Value: connectionString}, nil
}

// DeriveID returns the default session ID for this target. Dump sessions are
// keyed by canonical path and remote sessions by connection string, so opening
// the same target twice is detected as a duplicate.
func (t Target) DeriveID() string {
	return t.Value
}

// spawnArgs builds the cdb command line for this target. Every invocation
// echoes a readiness marker via -c so initialization completion can be
// detected the same way command completion is.
func (t Target) spawnArgs(symbolPath string) []string {
	var args []string
	switch t.Kind {
	case types.SessionKindRemote:
		args = []string{"-remote", t.Value}
	default:
		args = []string{"-z", t.Value}
	}

	args = append(args, "-c", ".echo "+readyToken, "-lines")
	if symbolPath != "" {
		args = append(args, "-y", symbolPath)
	}
	return args
}

// quitRequiresDetach reports whether the quit sequence must be preceded by a
// CTRL+B byte. Remote sessions detach from the debugging server first so that
// quitting the local client does not kill the remote debuggee.
func (t Target) quitRequiresDetach() bool {
	return t.Kind == types.SessionKindRemote
}

// canonicalPath resolves a dump path to an absolute, symlink-free form.
// Resolution failures fall back to progressively less canonical forms rather
// than erroring, since the file was already confirmed to exist.
func canonicalPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}
