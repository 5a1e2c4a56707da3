//go:build windows

package cdb

import (
	"os/exec"
	"syscall"
)

// setProcAttr creates the debugger in a new process group. Windows has no
// Unix-style sessions; the new group keeps console control events (like the
// CTRL+C the MCP host may receive) from propagating into cdb.
func setProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}

// killProcessGroup kills the debugger process. There is no group signal on
// Windows, so only the direct child is killed; cdb does not leave helper
// processes behind when terminated.
func killProcessGroup(pid int, cmd *exec.Cmd) error {
	if cmd != nil && cmd.Process != nil {
		if err := cmd.Process.Kill(); err != nil {
			if err.Error() != "os: process already finished" {
				return err
			}
		}
	}
	return nil
}
