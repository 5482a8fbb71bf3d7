//go:build !windows

package executor

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// configureProcessGroup ensures the command runs in its own process group so
// that signals reach the entire tree (parent + children).
func configureProcessGroup(cmd *exec.Cmd) {
	if cmd == nil {
		return
	}
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}

func processGroupID(cmd *exec.Cmd) int {
	if cmd == nil || cmd.Process == nil {
		return 0
	}
	pgid, err := syscall.Getpgid(cmd.Process.Pid)
	if err != nil {
		return 0
	}
	return pgid
}

// signalTree delivers a signal to the whole process group, falling back to
// the direct child when the group is gone. Lookup races (the process may have
// already exited) are swallowed.
func signalTree(pgid int, proc *os.Process, kill bool) {
	sig := syscall.SIGTERM
	if kill {
		sig = syscall.SIGKILL
	}

	if pgid > 0 {
		err := syscall.Kill(-pgid, sig)
		if err == nil || isIgnorableSignalError(err) {
			return
		}
	}

	if proc == nil {
		return
	}
	if kill {
		_ = proc.Kill()
		return
	}
	_ = proc.Signal(sig)
}

func isIgnorableSignalError(err error) bool {
	return errors.Is(err, os.ErrProcessDone) || errors.Is(err, syscall.ESRCH)
}
