package executor

import "time"

// Status is the outcome of one command execution.
type Status string

const (
	StatusSuccess          Status = "success"
	StatusNonZeroExit      Status = "nonzero_exit"
	StatusTimedOut         Status = "timed_out"
	StatusCanceled         Status = "canceled"
	StatusPermissionDenied Status = "permission_denied"
	StatusUnexpectedError  Status = "unexpected_error"
)

// Result is the reportable outcome of a command. Execution failures are data,
// not errors: the caller routes them back to the agent as facts.
type Result struct {
	Status   Status        `json:"status"`
	Output   string        `json:"output"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"duration"`
}

// Retryable reports whether re-issuing the same command could plausibly
// succeed. A permission-denied spawn cannot: retrying the identical path
// yields the identical failure.
func (r Result) Retryable() bool {
	switch r.Status {
	case StatusPermissionDenied, StatusSuccess:
		return false
	default:
		return true
	}
}
