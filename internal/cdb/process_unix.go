//go:build !windows

package cdb

import (
	"os/exec"
	"syscall"
)

// setProcAttr puts the spawned debugger in its own session so it becomes a
// process group leader. That lets killProcessGroup take down cdb together
// with anything it spawned (symbol proxies, srv* helpers).
func setProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}

// killProcessGroup kills the debugger and its entire process group by
// signalling the negative PID. A process that already exited is not an error.
func killProcessGroup(pid int, cmd *exec.Cmd) error {
	if pid > 0 {
		if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil {
			if err != syscall.ESRCH {
				return err
			}
		}
	} else if cmd != nil && cmd.Process != nil {
		if err := cmd.Process.Kill(); err != nil {
			if err.Error() != "os: process already finished" {
				return err
			}
		}
	}
	return nil
}
