package approval

import "time"

// ActionType is the closed set of action kinds the orchestrator handles.
// New kinds require a new constant and an explicit case in Classify.
type ActionType string

const (
	ActionShellCommand ActionType = "shell_command"
	ActionSideEffect   ActionType = "side_effect"
	ActionReadOnly     ActionType = "read_only"
)

// ProposedAction is one action the agent wants to perform, parsed from a
// tool call. Immutable once created; consumed exactly once per turn.
type ProposedAction struct {
	CallID   string
	Type     ActionType
	Name     string
	Command  string
	ArgsJSON string
}

// Verdict records how an action cleared (or failed to clear) the approval
// boundary.
type Verdict string

const (
	VerdictAutoApproved           Verdict = "auto_approved"
	VerdictUserApproved           Verdict = "user_approved"
	VerdictUserApprovedForSession Verdict = "user_approved_for_session"
	VerdictUserDenied             Verdict = "user_denied"
)

// Approved reports whether the verdict permits execution.
func (v Verdict) Approved() bool {
	switch v {
	case VerdictAutoApproved, VerdictUserApproved, VerdictUserApprovedForSession:
		return true
	default:
		return false
	}
}

// Decision is the recorded outcome for one ProposedAction. One decision per
// action; never revisited.
type Decision struct {
	CallID    string
	Verdict   Verdict
	Reason    string
	DecidedAt time.Time
}

// Answer is what the human can reply to a confirmation prompt.
type Answer string

const (
	AnswerApproveOnce       Answer = "approve_once"
	AnswerApproveForSession Answer = "approve_for_session"
	AnswerDeny              Answer = "deny"
)
