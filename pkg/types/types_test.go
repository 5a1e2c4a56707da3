package types

import "testing"

// TestSessionKindConstants verifies session kind constant values.
func TestSessionKindConstants(t *testing.T) {
	tests := []struct {
		kind     SessionKind
		expected string
	}{
		{SessionKindDump, "dump"},
		{SessionKindRemote, "remote"},
	}

	for _, tc := range tests {
		t.Run(tc.expected, func(t *testing.T) {
			if string(tc.kind) != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, string(tc.kind))
			}
		})
	}
}

// TestSessionStatusConstants verifies session status constant values.
func TestSessionStatusConstants(t *testing.T) {
	tests := []struct {
		status   SessionStatus
		expected string
	}{
		{SessionStatusInitializing, "initializing"},
		{SessionStatusReady, "ready"},
		{SessionStatusBusy, "busy"},
		{SessionStatusClosing, "closing"},
		{SessionStatusClosed, "closed"},
	}

	for _, tc := range tests {
		t.Run(tc.expected, func(t *testing.T) {
			if string(tc.status) != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, string(tc.status))
			}
		})
	}
}
