package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

// TestDebugErrorFormat verifies that Error() renders the message and appends
// the hint when one exists.
func TestDebugErrorFormat(t *testing.T) {
	e := &DebugError{Code: CodeSessionBusy, Message: "session is busy"}
	if e.Error() != "session is busy" {
		t.Errorf("Expected bare message, got %q", e.Error())
	}

	e.Hint = "Wait for the current command to finish."
	want := "session is busy | Hint: Wait for the current command to finish."
	if e.Error() != want {
		t.Errorf("Expected %q, got %q", want, e.Error())
	}
}

// TestIsCode verifies code matching through wrapped error chains.
func TestIsCode(t *testing.T) {
	e := CommandTimeout("!analyze -v", 30)
	if !IsCode(e, CodeCommandTimeout) {
		t.Error("Expected IsCode to match the direct error")
	}
	if IsCode(e, CodeSessionBusy) {
		t.Error("Expected IsCode to reject a different code")
	}

	wrapped := fmt.Errorf("handling tool call: %w", e)
	if !IsCode(wrapped, CodeCommandTimeout) {
		t.Error("Expected IsCode to match through fmt.Errorf wrapping")
	}

	if IsCode(stderrors.New("plain"), CodeCommandTimeout) {
		t.Error("Expected IsCode to reject a non-DebugError")
	}
	if IsCode(nil, CodeCommandTimeout) {
		t.Error("Expected IsCode to reject nil")
	}
}

// TestUnwrap verifies the cause chain is visible to errors.Is.
func TestUnwrap(t *testing.T) {
	cause := stderrors.New("underlying failure")
	e := SpawnFailed(`C:\cdb.exe`, cause)
	if !stderrors.Is(e, cause) {
		t.Error("Expected the cause to be reachable via errors.Is")
	}
}

// TestWithDetails verifies detail maps are created on demand and chain.
func TestWithDetails(t *testing.T) {
	e := SessionNotFound("abc").
		WithDetails("requested", "abc").
		WithDetails("openCount", 3)

	if e.Details["requested"] != "abc" {
		t.Errorf("Expected requested detail, got %v", e.Details)
	}
	if e.Details["openCount"] != 3 {
		t.Errorf("Expected openCount detail, got %v", e.Details)
	}
}

// TestFromError verifies structured errors pass through and plain errors get
// wrapped as unknown.
func TestFromError(t *testing.T) {
	orig := DumpNotFound(`C:\missing.dmp`)
	if got := FromError(fmt.Errorf("wrapped: %w", orig)); got != orig {
		t.Errorf("Expected the original DebugError back, got %+v", got)
	}

	plain := stderrors.New("something odd")
	de := FromError(plain)
	if de.Code != "UNKNOWN_ERROR" {
		t.Errorf("Expected UNKNOWN_ERROR, got %s", de.Code)
	}
	if de.Message != "something odd" {
		t.Errorf("Expected the plain message, got %q", de.Message)
	}
}

// TestConstructorCodes verifies each constructor carries its code and a
// non-empty hint, since the hints are what the caller acts on.
func TestConstructorCodes(t *testing.T) {
	cause := stderrors.New("cause")
	cases := []struct {
		err  *DebugError
		code ErrorCode
	}{
		{CDBNotFound(""), CodeCDBNotFound},
		{CDBNotFound(`C:\custom\cdb.exe`), CodeCDBNotFound},
		{SpawnPermissionDenied(`C:\cdb.exe`, cause), CodeSpawnPermissionDenied},
		{SpawnFailed(`C:\cdb.exe`, cause), CodeSpawnFailed},
		{InitTimeout("tcp:Port=5005", 120), CodeInitTimeout},
		{TargetUnreachable("tcp:Port=5005", cause), CodeTargetUnreachable},
		{DumpNotFound(`C:\missing.dmp`), CodeDumpNotFound},
		{CommandTimeout("kb", 30), CodeCommandTimeout},
		{ProcessTerminated("sess"), CodeProcessTerminated},
		{IOFailure("command write", cause), CodeIOError},
		{SessionBusy("sess"), CodeSessionBusy},
		{SessionClosed("sess"), CodeSessionClosed},
		{SessionNotFound("sess"), CodeSessionNotFound},
		{DuplicateSession("sess"), CodeDuplicateSession},
		{SessionLimitReached(10), CodeSessionLimitReached},
		{MissingParameter("dump_path", "the dump file path"), CodeMissingParameter},
		{InvalidParameter("timeout_seconds", -1, "a positive number"), CodeInvalidParameter},
	}

	for _, tc := range cases {
		if tc.err.Code != tc.code {
			t.Errorf("Expected code %s, got %s (%s)", tc.code, tc.err.Code, tc.err.Message)
		}
		if tc.err.Hint == "" {
			t.Errorf("Expected a hint on %s", tc.code)
		}
		if tc.err.Message == "" {
			t.Errorf("Expected a message on %s", tc.code)
		}
	}
}

// TestCDBNotFoundCustomPath verifies the custom-path variant names the bad
// path in both the message and details.
func TestCDBNotFoundCustomPath(t *testing.T) {
	e := CDBNotFound(`C:\wrong\cdb.exe`)
	if !strings.Contains(e.Message, `C:\wrong\cdb.exe`) {
		t.Errorf("Expected the path in the message, got %q", e.Message)
	}
	if e.Details["cdbPath"] != `C:\wrong\cdb.exe` {
		t.Errorf("Expected the path in details, got %v", e.Details)
	}

	// The discovery variant has no path to report.
	if CDBNotFound("").Details != nil {
		t.Error("Expected no details when no custom path was configured")
	}
}

// TestCommandTimeoutDetails verifies the timed-out command is attached for
// diagnosis.
func TestCommandTimeoutDetails(t *testing.T) {
	e := CommandTimeout("!analyze -v", 30)
	if e.Details["command"] != "!analyze -v" {
		t.Errorf("Expected the command in details, got %v", e.Details)
	}
	if e.Details["timeoutSeconds"] != 30 {
		t.Errorf("Expected the timeout in details, got %v", e.Details)
	}
}
