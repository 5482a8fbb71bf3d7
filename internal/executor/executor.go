package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const (
	defaultTimeout = 60 * time.Second
	defaultGrace   = 200 * time.Millisecond
)

// envKeep lists environment variables forwarded to the child. Everything
// else inherited from the parent is dropped, including anything that could
// inject a shared library or redirect output through an attacker-controlled
// program.
var envKeep = []string{
	"PATH", "HOME", "USER", "LOGNAME", "SHELL", "TERM", "TMPDIR", "TZ",
}

// envPinned forces pager-controlling variables to inert values so command
// output never blocks on an interactive pager.
var envPinned = map[string]string{
	"PAGER":     "cat",
	"GIT_PAGER": "cat",
	"MANPAGER":  "cat",
	"LESS":      "",
}

// Config contains executor settings, constructed once at session start.
type Config struct {
	Timeout             time.Duration
	WorkspaceDir        string
	RestrictToWorkspace bool
	GracePeriod         time.Duration
}

// Executor runs shell commands as child processes in their own process
// group, with a restricted environment and a wall-clock timeout.
type Executor struct {
	timeout      time.Duration
	grace        time.Duration
	workspaceDir string
	restrict     bool
}

// New creates an executor from config, clamping missing values to defaults.
func New(cfg Config) *Executor {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	grace := cfg.GracePeriod
	if grace <= 0 {
		grace = defaultGrace
	}
	return &Executor{
		timeout:      timeout,
		grace:        grace,
		workspaceDir: strings.TrimSpace(cfg.WorkspaceDir),
		restrict:     cfg.RestrictToWorkspace,
	}
}

// Sandboxed reports whether executions are confined to the workspace.
// A change from true to false mid-session is an isolation downgrade.
func (e *Executor) Sandboxed() bool {
	return e.restrict && e.workspaceDir != ""
}

// Run executes one command and returns its outcome as data. The context
// carries the human interrupt: cancellation terminates the process tree and
// returns whatever output was captured, marked StatusCanceled.
func (e *Executor) Run(ctx context.Context, command, workDir string) Result {
	start := time.Now()

	dir, err := e.resolveWorkDir(workDir)
	if err != nil {
		return Result{
			Status:   StatusPermissionDenied,
			Output:   err.Error(),
			ExitCode: -1,
			Duration: time.Since(start),
		}
	}

	cmd := shellCommand(command)
	cmd.Dir = dir
	cmd.Env = buildEnv(os.Environ())

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	configureProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		return startFailure(err, time.Since(start))
	}

	pgid := processGroupID(cmd)
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	status := StatusSuccess
	var waitErr error

	select {
	case waitErr = <-done:
	case <-timer.C:
		status = StatusTimedOut
		waitErr = e.terminate(pgid, cmd, done)
	case <-ctx.Done():
		status = StatusCanceled
		waitErr = e.terminate(pgid, cmd, done)
	}

	return buildResult(status, waitErr, output.String(), time.Since(start))
}

// terminate signals the whole process group: graceful first, a short grace
// period to let produced output drain, then a forceful kill. Always waits
// for the child to be reaped before returning.
func (e *Executor) terminate(pgid int, cmd *exec.Cmd, done chan error) error {
	signalTree(pgid, cmd.Process, false)

	select {
	case err := <-done:
		return err
	case <-time.After(e.grace):
	}

	signalTree(pgid, cmd.Process, true)
	return <-done
}

func (e *Executor) resolveWorkDir(workDir string) (string, error) {
	dir := strings.TrimSpace(workDir)
	if !e.Sandboxed() {
		if dir == "" {
			dir = e.workspaceDir
		}
		return dir, nil
	}
	if dir == "" {
		return e.workspaceDir, nil
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve working directory: %w", err)
	}
	absDir = filepath.Clean(absDir)
	workspace := filepath.Clean(e.workspaceDir)
	if absDir != workspace && !strings.HasPrefix(absDir, workspace+string(filepath.Separator)) {
		return "", fmt.Errorf("working directory %q is outside workspace %q", absDir, workspace)
	}
	return absDir, nil
}

func shellCommand(command string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.Command("cmd", "/C", command)
	}
	return exec.Command("sh", "-c", command)
}

func buildEnv(inherited []string) []string {
	keep := make(map[string]struct{}, len(envKeep))
	for _, name := range envKeep {
		keep[name] = struct{}{}
	}

	env := make([]string, 0, len(envKeep)+len(envPinned))
	for _, kv := range inherited {
		name, _, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if _, pinned := envPinned[name]; pinned {
			continue
		}
		if _, ok := keep[name]; ok || name == "LANG" || strings.HasPrefix(name, "LC_") {
			env = append(env, kv)
		}
	}
	for name, value := range envPinned {
		env = append(env, name+"="+value)
	}
	return env
}

func startFailure(err error, elapsed time.Duration) Result {
	status := StatusUnexpectedError
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrPermission) {
		status = StatusPermissionDenied
	}
	return Result{
		Status:   status,
		Output:   err.Error(),
		ExitCode: -1,
		Duration: elapsed,
	}
}

func buildResult(status Status, waitErr error, output string, elapsed time.Duration) Result {
	result := Result{
		Status:   status,
		Output:   output,
		ExitCode: 0,
		Duration: elapsed,
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			if status == StatusSuccess {
				result.Status = StatusNonZeroExit
			}
		} else {
			result.ExitCode = -1
			if status == StatusSuccess {
				result.Status = StatusUnexpectedError
				result.Output = strings.TrimSpace(output + "\n" + waitErr.Error())
			}
		}
	}
	return result
}
