//go:build windows

package executor

import (
	"os"
	"os/exec"
)

// Windows has no POSIX process groups; termination falls back to killing the
// direct child. Grandchildren spawned by cmd.exe may survive.
func configureProcessGroup(_ *exec.Cmd) {}

func processGroupID(_ *exec.Cmd) int { return 0 }

func signalTree(_ int, proc *os.Process, _ bool) {
	if proc == nil {
		return
	}
	_ = proc.Kill()
}
