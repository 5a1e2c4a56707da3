package cdb

import (
	"context"
	stderrors "errors"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ctagard/cdb-mcp/internal/errors"
	"github.com/ctagard/cdb-mcp/pkg/types"
)

// detachByte is CTRL+B, which tells a cdb remote client to detach from
// the debugging server instead of killing the remote debuggee.
const detachByte = 0x02

var (
	// quitGrace is how long Close waits for cdb to exit after the quit
	// command before killing the process.
	quitGrace = 5 * time.Second

	// reapGrace is how long to wait for the process to be reaped after a
	// forced kill. Purely best-effort; the kill itself has already happened.
	reapGrace = 2 * time.Second
)

// sessionChannel is everything a session needs from its spawned process.
// Production code always uses *Channel; tests substitute a scripted fake.
type sessionChannel interface {
	ChannelIO
	Signal(b byte) error
	PID() int
	WaitExit(timeout time.Duration) bool
	Terminate()
}

// OpenConfig carries the spawn-time settings for a new session.
type OpenConfig struct {
	// ExePath is the resolved path of the cdb executable.
	ExePath string

	// SymbolPath, when set, is exported as _NT_SYMBOL_PATH and passed via
	// -y so cdb can resolve symbols.
	SymbolPath string

	// InitTimeout bounds how long to wait for the readiness marker after
	// spawning. Symbol loading over the network can make this slow.
	InitTimeout time.Duration
}

// Session is one live debugging target: a cdb process attached to a crash
// dump or a remote debugging server. Commands run strictly one at a time;
// a session that is already executing rejects further commands instead of
// queueing them.
type Session struct {
	id      string
	target  Target
	proto   *Protocol
	channel sessionChannel
	log     *logrus.Entry

	mu             sync.Mutex
	status         types.SessionStatus
	createdAt      time.Time
	lastActivityAt time.Time

	// pendingToken is the completion token of a command that timed out and
	// may still produce output. The next Run discards stream content up to
	// and including this token before collecting its own output.
	pendingToken string

	closeOnce sync.Once
}

// Open spawns cdb against the target and waits for the readiness marker.
// On any failure the spawned process is terminated before the error is
// returned, so a failed open never leaks a debugger.
func Open(ctx context.Context, id string, target Target, cfg OpenConfig, log *logrus.Entry) (*Session, error) {
	var extraEnv []string
	if cfg.SymbolPath != "" {
		extraEnv = append(extraEnv, "_NT_SYMBOL_PATH="+cfg.SymbolPath)
	}

	ch, err := StartChannel(cfg.ExePath, target.spawnArgs(cfg.SymbolPath), extraEnv, log)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	s := &Session{
		id:             id,
		target:         target,
		proto:          NewProtocol(log),
		channel:        ch,
		log:            log,
		status:         types.SessionStatusInitializing,
		createdAt:      now,
		lastActivityAt: now,
	}

	res, err := s.proto.WaitFor(ctx, ch, readyToken, cfg.InitTimeout)
	if err != nil {
		ch.Terminate()
		ch.WaitExit(reapGrace)
		return nil, s.mapInitError(err, res, cfg.InitTimeout)
	}

	s.mu.Lock()
	s.status = types.SessionStatusReady
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"kind":   target.Kind,
		"target": target.Value,
		"pid":    ch.PID(),
	}).Info("session ready")
	if res.Output != "" {
		s.log.WithField("banner", res.Output).Debug("debugger startup output")
	}

	return s, nil
}

// mapInitError turns a readiness-wait failure into the structured error the
// caller should see. Early process exit means cdb printed a diagnostic and
// gave up: connection refused for remote targets, an unreadable file for
// dumps. Whatever it printed is attached for diagnosis.
func (s *Session) mapInitError(err error, res *CommandResult, initTimeout time.Duration) error {
	switch {
	case errors.IsCode(err, errors.CodeCommandTimeout):
		return errors.InitTimeout(s.target.Value, int(initTimeout/time.Second))
	case stderrors.Is(err, io.EOF):
		if s.target.Kind == types.SessionKindRemote {
			de := errors.TargetUnreachable(s.target.Value, err)
			if res != nil && res.Output != "" {
				de.WithDetails("output", res.Output)
			}
			return de
		}
		de := errors.Wrap(errors.CodeProcessTerminated,
			"debugger exited while opening the dump file",
			"The dump file may be corrupt or of an unsupported format. Check the attached debugger output.",
			err)
		if res != nil && res.Output != "" {
			de.WithDetails("output", res.Output)
		}
		return de
	default:
		return err
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Status returns the current lifecycle state.
func (s *Session) Status() types.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Info returns a point-in-time snapshot for listings and error details.
func (s *Session) Info() types.SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return types.SessionInfo{
		SessionID:      s.id,
		Kind:           s.target.Kind,
		Target:         s.target.Value,
		Status:         s.status,
		PID:            s.channel.PID(),
		CreatedAt:      s.createdAt,
		LastActivityAt: s.lastActivityAt,
	}
}

// Run executes one debugger command and returns its output. If another
// command is in flight the call fails immediately with SESSION_BUSY; commands
// are never queued, because an LLM retrying against a wedged debugger should
// learn that the session is stuck rather than pile work behind it.
//
// A timeout leaves the session usable: the partial output is returned marked
// truncated, and the late output of the timed-out command is discarded when
// the next command runs.
func (s *Session) Run(ctx context.Context, command string, timeout time.Duration) (*CommandResult, error) {
	s.mu.Lock()
	switch s.status {
	case types.SessionStatusReady:
		// proceed
	case types.SessionStatusBusy, types.SessionStatusInitializing:
		s.mu.Unlock()
		return nil, errors.SessionBusy(s.id)
	default:
		s.mu.Unlock()
		return nil, errors.SessionClosed(s.id)
	}
	s.status = types.SessionStatusBusy
	stale := s.pendingToken
	s.mu.Unlock()

	token := s.proto.NewToken()
	res, err := s.proto.Execute(ctx, s.channel, command, token, stale, timeout)

	s.mu.Lock()
	defer s.mu.Unlock()

	// Close may have run while the command was executing. Never flip the
	// status back to ready in that case.
	closing := s.status == types.SessionStatusClosing || s.status == types.SessionStatusClosed

	switch {
	case err == nil:
		s.pendingToken = ""
		if !closing {
			s.status = types.SessionStatusReady
			s.lastActivityAt = time.Now()
		}
		return res, nil

	case errors.IsCode(err, errors.CodeCommandTimeout), stderrors.Is(err, context.Canceled):
		s.pendingToken = token
		if !closing {
			s.status = types.SessionStatusReady
		}
		return res, err

	case stderrors.Is(err, io.EOF):
		if closing {
			return res, errors.SessionClosed(s.id)
		}
		s.status = types.SessionStatusClosed
		s.channel.Terminate()
		s.log.Warn("debugger process died during command")
		return res, errors.ProcessTerminated(s.id)

	default:
		if closing {
			return res, errors.SessionClosed(s.id)
		}
		s.status = types.SessionStatusClosed
		s.channel.Terminate()
		return res, err
	}
}

// Close shuts the session down: quit is sent to cdb (preceded by the detach
// byte for remote sessions, so the remote debuggee survives), and if the
// process has not exited within the grace period it is killed. Close is
// idempotent; concurrent callers block until the first teardown completes,
// so the process is guaranteed gone once any Close call returns.
func (s *Session) Close() {
	s.closeOnce.Do(s.shutdown)
}

func (s *Session) shutdown() {
	s.mu.Lock()
	if s.status == types.SessionStatusClosed {
		// Process already died; just make sure it is reaped.
		s.mu.Unlock()
		s.channel.Terminate()
		return
	}
	s.status = types.SessionStatusClosing
	s.mu.Unlock()

	if s.target.quitRequiresDetach() {
		if err := s.channel.Signal(detachByte); err != nil {
			s.log.WithError(err).Debug("detach byte write failed")
		}
	}
	if err := s.channel.WriteLine("q"); err != nil {
		s.log.WithError(err).Debug("quit command write failed")
	}

	if s.channel.WaitExit(quitGrace) {
		s.channel.Terminate()
	} else {
		s.log.Warn("debugger did not exit after quit; killing process")
		s.channel.Terminate()
		s.channel.WaitExit(reapGrace)
	}

	s.mu.Lock()
	s.status = types.SessionStatusClosed
	s.mu.Unlock()

	s.log.Info("session closed")
}
