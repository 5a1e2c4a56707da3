package cdb

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ctagard/cdb-mcp/internal/config"
	"github.com/ctagard/cdb-mcp/internal/errors"
	"github.com/ctagard/cdb-mcp/pkg/types"
)

// sweepInterval is how often the registry looks for idle sessions to evict.
const sweepInterval = time.Minute

// openFunc opens a session. The registry's default resolves the cdb
// executable and spawns a real process; tests inject a fake.
type openFunc func(ctx context.Context, id string, target Target, cfg OpenConfig, log *logrus.Entry) (*Session, error)

// Registry owns all live sessions, keyed by session ID. It enforces the
// session cap and duplicate-target detection, and evicts sessions that have
// been idle longer than the configured limit so abandoned debuggers do not
// accumulate.
//
// Opens are slow (process spawn plus symbol loading), so the registry never
// holds its lock across one. An in-progress open reserves its ID in a side
// table, which keeps the capacity and duplicate checks atomic while other
// sessions stay fully usable.
type Registry struct {
	cfg *config.Config
	log *logrus.Entry

	mu       sync.RWMutex
	sessions map[string]*Session
	opening  map[string]struct{}

	open openFunc

	ctx    context.Context
	cancel context.CancelFunc
}

// NewRegistry creates a session registry and starts its idle-eviction sweeper.
func NewRegistry(cfg *config.Config, log *logrus.Entry) *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Registry{
		cfg:      cfg,
		log:      log,
		sessions: make(map[string]*Session),
		opening:  make(map[string]struct{}),
		open:     openWithDiscovery,
		ctx:      ctx,
		cancel:   cancel,
	}

	go r.sweepLoop()

	return r
}

// openWithDiscovery resolves the cdb executable and spawns a real session.
// Resolution happens per open, so installing the Debugging Tools after the
// server started is picked up without a restart.
func openWithDiscovery(ctx context.Context, id string, target Target, cfg OpenConfig, log *logrus.Entry) (*Session, error) {
	exePath, err := FindExecutable(cfg.ExePath)
	if err != nil {
		return nil, err
	}
	cfg.ExePath = exePath
	return Open(ctx, id, target, cfg, log)
}

// OpenSession opens a new session for the given target and returns its ID.
// The ID defaults to the canonical target (dump path or connection string);
// idHint overrides it when the caller wants its own naming. Opening a target
// that is already open fails with DUPLICATE_SESSION rather than silently
// reusing or replacing the existing session.
func (r *Registry) OpenSession(ctx context.Context, kind types.SessionKind, target, idHint string) (string, error) {
	var (
		tgt Target
		err error
	)
	switch kind {
	case types.SessionKindRemote:
		tgt, err = NewRemoteTarget(target)
	default:
		tgt, err = NewDumpTarget(target)
	}
	if err != nil {
		return "", err
	}

	id := strings.TrimSpace(idHint)
	if id == "" {
		id = tgt.DeriveID()
	}

	if err := r.reserve(id); err != nil {
		return "", err
	}

	s, err := r.open(ctx, id, tgt, OpenConfig{
		ExePath:     r.cfg.CDBPath,
		SymbolPath:  r.cfg.SymbolPath,
		InitTimeout: r.cfg.InitTimeout(),
	}, r.log.WithField("sessionId", id))

	r.mu.Lock()
	delete(r.opening, id)
	if err != nil {
		r.mu.Unlock()
		return "", err
	}
	if r.ctx.Err() != nil {
		r.mu.Unlock()
		s.Close()
		return "", errors.Wrap(errors.CodeSessionClosed,
			"server is shutting down; session was not registered", "", r.ctx.Err())
	}
	r.sessions[id] = s
	r.mu.Unlock()

	return id, nil
}

// reserve claims an ID for an in-progress open after running the duplicate
// and capacity checks. Dead sessions are reaped first so a crashed debugger
// does not block reopening its target or count against the cap.
func (r *Registry) reserve(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.reapClosedLocked()

	if _, ok := r.sessions[id]; ok {
		return errors.DuplicateSession(id)
	}
	if _, ok := r.opening[id]; ok {
		return errors.DuplicateSession(id)
	}
	if limit := r.cfg.MaxSessions; limit > 0 && len(r.sessions)+len(r.opening) >= limit {
		ids := make([]string, 0, len(r.sessions))
		for id := range r.sessions {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		return errors.SessionLimitReached(limit).WithDetails("openSessions", ids)
	}

	r.opening[id] = struct{}{}
	return nil
}

// reapClosedLocked removes sessions whose process has died. Callers hold the
// write lock.
func (r *Registry) reapClosedLocked() {
	for id, s := range r.sessions {
		if s.Status() == types.SessionStatusClosed {
			delete(r.sessions, id)
			r.log.WithField("sessionId", id).Debug("removed dead session")
		}
	}
}

// WithSession resolves id and runs fn against the session. The session
// pointer is only valid for the duration of fn; callers re-resolve on every
// operation so a close or eviction between calls surfaces as
// SESSION_NOT_FOUND instead of touching a dead debugger.
func (r *Registry) WithSession(id string, fn func(*Session) error) error {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()

	if !ok {
		return errors.SessionNotFound(id)
	}
	if s.Status() == types.SessionStatusClosed {
		r.removeIfSame(id, s)
		return errors.SessionNotFound(id)
	}

	return fn(s)
}

// removeIfSame deletes id only if it still maps to the same session, so a
// target reopened under the same ID is never removed by a stale observer.
func (r *Registry) removeIfSame(id string, s *Session) {
	r.mu.Lock()
	if cur, ok := r.sessions[id]; ok && cur == s {
		delete(r.sessions, id)
	}
	r.mu.Unlock()
}

// CloseSession closes the identified session and removes it. Returns
// SESSION_NOT_FOUND if the ID is not present; callers that want idempotent
// close semantics treat that as already closed.
func (r *Registry) CloseSession(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if !ok {
		return errors.SessionNotFound(id)
	}

	s.Close()
	return nil
}

// CloseAll closes every session. Sessions are closed in parallel since each
// close can spend the full quit grace period waiting for cdb to exit.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	victims := make([]*Session, 0, len(r.sessions))
	for id, s := range r.sessions {
		victims = append(victims, s)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	var wg sync.WaitGroup
	for _, s := range victims {
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			s.Close()
		}(s)
	}
	wg.Wait()
}

// Shutdown stops the eviction sweeper and closes all sessions. The registry
// must not be used afterwards.
func (r *Registry) Shutdown() {
	r.cancel()
	r.CloseAll()
}

// List returns a snapshot of all sessions, oldest first.
func (r *Registry) List() []types.SessionInfo {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	infos := make([]types.SessionInfo, 0, len(sessions))
	for _, s := range sessions {
		infos = append(infos, s.Info())
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].SessionID < infos[j].SessionID
		}
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos
}

// Count returns the number of registered sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.evictIdle()
		case <-r.ctx.Done():
			return
		}
	}
}

// evictIdle closes sessions that have sat ready with no completed command for
// longer than the configured idle limit. Busy sessions are never evicted; a
// long-running command is activity, just not completed activity.
func (r *Registry) evictIdle() {
	idleLimit := r.cfg.SessionIdleTimeout()
	if idleLimit <= 0 {
		return
	}
	cutoff := time.Now().Add(-idleLimit)

	r.mu.Lock()
	r.reapClosedLocked()
	var victims []*Session
	for id, s := range r.sessions {
		info := s.Info()
		if info.Status == types.SessionStatusReady && info.LastActivityAt.Before(cutoff) {
			delete(r.sessions, id)
			victims = append(victims, s)
		}
	}
	r.mu.Unlock()

	for _, s := range victims {
		r.log.WithFields(logrus.Fields{
			"sessionId": s.ID(),
			"idleLimit": idleLimit,
		}).Info("evicting idle session")
		s.Close()
	}
}
