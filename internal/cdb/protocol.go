package cdb

import (
	"context"
	stderrors "errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ctagard/cdb-mcp/internal/errors"
)

// commandTokenPrefix starts every completion token. The random suffix makes
// each token unique per command, so debugger output can never be mistaken for
// a completion marker left over from an earlier command.
const commandTokenPrefix = "CDB_CMD_DONE_"

// ChannelIO is the slice of Channel the protocol layer needs. Tests substitute
// a scripted fake to exercise chunk boundaries without a real process.
type ChannelIO interface {
	WriteLine(text string) error
	ReadChunk(ctx context.Context) (string, error)
}

// CommandResult holds the debugger output collected for one command.
type CommandResult struct {
	// Output is the command's text output with the completion marker line
	// stripped and trailing blank lines removed.
	Output string

	// Truncated is set when the deadline expired before the completion
	// marker arrived; Output then holds whatever was collected so far.
	Truncated bool
}

// Protocol frames commands over a raw channel using echo markers: each
// command is followed by ".echo <token>", and output is collected until the
// token appears on its own line. cdb prints the echo only after the command
// has fully executed, which turns a free-form text stream into a reliable
// request/response cycle.
type Protocol struct {
	log *logrus.Entry

	// newToken is replaceable in tests to get deterministic tokens.
	newToken func() string
}

// NewProtocol creates a protocol layer that logs through the given entry.
func NewProtocol(log *logrus.Entry) *Protocol {
	return &Protocol{
		log: log,
		newToken: func() string {
			return commandTokenPrefix + uuid.New().String()[:8]
		},
	}
}

// NewToken returns a fresh completion token. The caller passes it to Execute
// and keeps it if the command times out, so the next Execute can discard the
// late output of the timed-out command up to and including this token.
func (p *Protocol) NewToken() string {
	return p.newToken()
}

// Execute sends a command followed by its completion echo and collects output
// until token appears. A non-empty staleToken means an earlier command on this
// channel timed out: everything up to and including the staleToken line is
// discarded first, so late output from the old command cannot leak into this
// command's result.
//
// On timeout the returned error has code COMMAND_TIMEOUT and the result is
// still non-nil, carrying the partial output marked Truncated. On process
// death the error is io.EOF and the result carries output seen before death.
func (p *Protocol) Execute(ctx context.Context, ch ChannelIO, command, token, staleToken string, timeout time.Duration) (*CommandResult, error) {
	if err := ch.WriteLine(command); err != nil {
		return nil, errors.IOFailure("command write", err)
	}
	if err := ch.WriteLine(".echo " + token); err != nil {
		return nil, errors.IOFailure("command write", err)
	}

	sc := &tokenScanner{token: token, stale: staleToken}
	return p.collect(ctx, ch, sc, command, timeout)
}

// WaitFor collects output until token appears, without sending anything. Used
// for the startup readiness marker that cdb echoes via its -c argument.
func (p *Protocol) WaitFor(ctx context.Context, ch ChannelIO, token string, timeout time.Duration) (*CommandResult, error) {
	sc := &tokenScanner{token: token}
	return p.collect(ctx, ch, sc, "<initialization>", timeout)
}

func (p *Protocol) collect(ctx context.Context, ch ChannelIO, sc *tokenScanner, command string, timeout time.Duration) (*CommandResult, error) {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for {
		chunk, err := ch.ReadChunk(cctx)
		if err != nil {
			switch {
			case stderrors.Is(err, context.DeadlineExceeded):
				p.logDiscarded(sc)
				return &CommandResult{Output: sc.output(), Truncated: true},
					errors.CommandTimeout(command, int(timeout/time.Second))
			case stderrors.Is(err, context.Canceled):
				p.logDiscarded(sc)
				return &CommandResult{Output: sc.output(), Truncated: true}, err
			case stderrors.Is(err, io.EOF):
				p.logDiscarded(sc)
				return &CommandResult{Output: sc.output()}, io.EOF
			default:
				return nil, errors.IOFailure("output read", err)
			}
		}

		if sc.feed(chunk) {
			p.logDiscarded(sc)
			return &CommandResult{Output: sc.output()}, nil
		}
	}
}

func (p *Protocol) logDiscarded(sc *tokenScanner) {
	if sc.discarded > 0 {
		p.log.WithField("lines", sc.discarded).Debug("discarded stale output from a timed-out command")
	}
}

// tokenScanner accumulates raw chunks, splits them into lines, and watches
// for a completion token. While stale is non-empty the scanner is in discard
// mode: lines are dropped (counted) until the stale token is seen, then
// normal collection starts.
type tokenScanner struct {
	token string
	stale string

	partial   string
	lines     []string
	discarded int
}

// feed consumes one chunk and reports whether the completion token was seen.
// Only complete lines are examined; a token split across chunk boundaries is
// matched once its terminating newline arrives.
func (s *tokenScanner) feed(chunk string) bool {
	s.partial += chunk
	for {
		idx := strings.IndexByte(s.partial, '\n')
		if idx < 0 {
			return false
		}
		line := strings.TrimRight(s.partial[:idx], " \t\r")
		s.partial = s.partial[idx+1:]

		if s.stale != "" {
			s.discarded++
			if strings.Contains(line, s.stale) {
				s.stale = ""
			}
			continue
		}

		// The token line is the cdb prompt plus the echoed token; it is
		// dropped in full so no prompt text reaches the caller.
		if strings.Contains(line, s.token) {
			return true
		}
		s.lines = append(s.lines, line)
	}
}

// output joins the collected lines, dropping trailing blank lines left by
// the echo command.
func (s *tokenScanner) output() string {
	lines := s.lines
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
