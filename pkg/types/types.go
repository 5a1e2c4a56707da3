// Package types defines shared data types used across the CDB-MCP server.
//
// This package provides type definitions for:
//   - SessionKind: Debug target kinds (crash dump file, live remote target)
//   - SessionStatus: Session lifecycle states (initializing, ready, busy, closing, closed)
//   - SessionInfo: Snapshot of a session for listings and error details
//   - DumpFileInfo: A discovered crash dump file with its size
//
// These types are used throughout the codebase to maintain type safety
// and provide clear contracts between components.
package types

import "time"

// SessionKind represents the kind of debug target a session is attached to
type SessionKind string

const (
	SessionKindDump   SessionKind = "dump"
	SessionKindRemote SessionKind = "remote"
)

// SessionStatus represents the lifecycle state of a debug session
type SessionStatus string

const (
	SessionStatusInitializing SessionStatus = "initializing"
	SessionStatusReady        SessionStatus = "ready"
	SessionStatusBusy         SessionStatus = "busy"
	SessionStatusClosing      SessionStatus = "closing"
	SessionStatusClosed       SessionStatus = "closed"
)

// SessionInfo represents a point-in-time snapshot of a debug session
type SessionInfo struct {
	SessionID      string        `json:"sessionId"`
	Kind           SessionKind   `json:"kind"`
	Target         string        `json:"target"`
	Status         SessionStatus `json:"status"`
	PID            int           `json:"pid,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
	LastActivityAt time.Time     `json:"lastActivityAt"`
}

// DumpFileInfo represents a crash dump file found on disk
type DumpFileInfo struct {
	Path      string `json:"path"`
	SizeBytes int64  `json:"sizeBytes"`
}
