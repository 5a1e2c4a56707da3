// Package cdb drives Microsoft's CDB command-line debugger as a managed
// subprocess. It has no debugger wire protocol to speak of: CDB is a
// console program, so everything is built on top of its stdin/stdout text
// streams.
//
// The package is layered bottom-up:
//   - Channel: a spawned cdb process with pumped stdout chunks and a
//     writable stdin
//   - Protocol: echo-marker command framing on top of a Channel
//   - Session: one debug target with a lifecycle state machine and a
//     single-command-at-a-time gate
//   - Registry: the set of live sessions, keyed by session ID
package cdb

import (
	"bufio"
	"context"
	stderrors "errors"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ctagard/cdb-mcp/internal/errors"
)

const (
	// readyToken is echoed by cdb on startup (via -c ".echo ...") once the
	// target is open and the debugger is accepting commands.
	readyToken = "CDB_READY"

	// readBufferSize is the stdout read granularity. Chunks are raw reads,
	// not lines; line assembly happens in the protocol layer.
	readBufferSize = 4096

	// chunkQueueLen bounds how much undelivered stdout the channel holds
	// before the pump goroutine blocks on the OS pipe.
	chunkQueueLen = 64
)

// Channel is a running cdb process with its stdio wired up. The stdout pump
// goroutine delivers raw chunks through ReadChunk; stderr is drained to the
// debug log so the process can never stall on a full stderr pipe.
type Channel struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	log   *logrus.Entry

	chunks chan string
	exited chan struct{}

	terminateOnce sync.Once
}

// StartChannel spawns the debugger executable and starts the I/O pump
// goroutines. Spawn failures are mapped to structured errors; the caller owns
// the returned channel and must eventually call Terminate (directly or via
// the session close path).
func StartChannel(exePath string, args []string, extraEnv []string, log *logrus.Entry) (*Channel, error) {
	cmd := exec.Command(exePath, args...)
	cmd.Env = append(os.Environ(), extraEnv...)
	// Platform-specific attributes (procattr_unix.go / procattr_windows.go)
	// so the whole debugger process tree can be killed on Terminate.
	setProcAttr(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.SpawnFailed(exePath, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.SpawnFailed(exePath, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, errors.SpawnFailed(exePath, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, spawnError(exePath, err)
	}

	c := &Channel{
		cmd:    cmd,
		stdin:  stdin,
		log:    log,
		chunks: make(chan string, chunkQueueLen),
		exited: make(chan struct{}),
	}

	var pipes sync.WaitGroup
	pipes.Add(2)
	go c.pumpStdout(stdout, &pipes)
	go c.drainStderr(stderr, &pipes)

	// Reap the process only after both pipes hit EOF, otherwise Wait would
	// close the pipes under the pump goroutines and drop tail output.
	go func() {
		pipes.Wait()
		if err := cmd.Wait(); err != nil {
			c.log.WithError(err).Debug("debugger process exited")
		} else {
			c.log.Debug("debugger process exited cleanly")
		}
		close(c.exited)
	}()

	c.log.WithFields(logrus.Fields{
		"pid":  cmd.Process.Pid,
		"path": exePath,
	}).Debug("debugger process started")

	return c, nil
}

// spawnError maps an exec.Cmd.Start failure to a structured spawn error.
func spawnError(exePath string, err error) error {
	switch {
	case stderrors.Is(err, fs.ErrNotExist):
		return errors.CDBNotFound(exePath)
	case stderrors.Is(err, fs.ErrPermission):
		return errors.SpawnPermissionDenied(exePath, err)
	default:
		return errors.SpawnFailed(exePath, err)
	}
}

// pumpStdout reads raw chunks from the debugger's stdout until EOF and
// delivers them on the chunks queue. The queue is closed on EOF so readers
// observe process death as io.EOF.
func (c *Channel) pumpStdout(stdout io.Reader, pipes *sync.WaitGroup) {
	defer pipes.Done()
	defer close(c.chunks)

	buf := make([]byte, readBufferSize)
	for {
		n, err := stdout.Read(buf)
		if n > 0 {
			c.chunks <- string(buf[:n])
		}
		if err != nil {
			if err != io.EOF {
				c.log.WithError(err).Debug("stdout read ended")
			}
			return
		}
	}
}

// drainStderr keeps the debugger's stderr pipe from filling up. cdb writes
// symbol server chatter and warnings here; it is diagnostic only.
func (c *Channel) drainStderr(stderr io.Reader, pipes *sync.WaitGroup) {
	defer pipes.Done()

	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		c.log.WithField("stream", "stderr").Debug(scanner.Text())
	}
}

// WriteLine sends one line of text to the debugger's stdin, appending the
// newline that makes cdb execute it.
func (c *Channel) WriteLine(text string) error {
	_, err := c.stdin.Write([]byte(text + "\n"))
	return err
}

// Signal writes a single raw control byte to the debugger's stdin without a
// trailing newline. Used for the CTRL+B detach byte on remote sessions.
func (c *Channel) Signal(b byte) error {
	_, err := c.stdin.Write([]byte{b})
	return err
}

// ReadChunk returns the next chunk of debugger stdout. It blocks until output
// arrives, ctx is done, or the process has exited and all buffered output has
// been consumed, in which case it returns io.EOF.
func (c *Channel) ReadChunk(ctx context.Context) (string, error) {
	select {
	case chunk, ok := <-c.chunks:
		if !ok {
			return "", io.EOF
		}
		return chunk, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// PID returns the debugger process ID.
func (c *Channel) PID() int {
	if c.cmd.Process == nil {
		return 0
	}
	return c.cmd.Process.Pid
}

// WaitExit blocks until the debugger process has exited and been reaped, or
// the timeout elapses. It reports whether the process is gone.
func (c *Channel) WaitExit(timeout time.Duration) bool {
	select {
	case <-c.exited:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Terminate forcefully kills the debugger process and its children. It is
// idempotent and safe to call at any point, including after a clean exit.
func (c *Channel) Terminate() {
	c.terminateOnce.Do(func() {
		if err := c.stdin.Close(); err != nil {
			c.log.WithError(err).Debug("stdin close failed")
		}
		if err := killProcessGroup(c.PID(), c.cmd); err != nil {
			c.log.WithError(err).Warn("failed to kill debugger process")
		}
		// Nobody reads the session's output after termination, but the pump
		// goroutine may be blocked on a full queue. Drain it so the pump can
		// reach EOF and the process gets reaped.
		go func() {
			for range c.chunks {
			}
		}()
	})
}
