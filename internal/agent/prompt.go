package agent

import (
	"context"
	"fmt"

	"github.com/wardenhq/warden/internal/approval"
)

// PromptRequest is the minimal projection of a pending action that a
// Prompter needs to render: what kind of action it is and the exact
// payload the user is being asked to authorize. Nothing else about the
// agent's internal state leaks through.
type PromptRequest struct {
	CallID string
	Action approval.ActionType
	Title  string
	Detail string
}

// Prompter collects an approval answer from the user. Implementations
// block until the user responds or ctx is canceled.
type Prompter interface {
	Prompt(ctx context.Context, req PromptRequest) (approval.Answer, error)
}

// Describe builds the user-facing summary for a pending action.
func Describe(action approval.ProposedAction) PromptRequest {
	req := PromptRequest{CallID: action.CallID, Action: action.Type}
	switch action.Type {
	case approval.ActionShellCommand:
		req.Title = "Run shell command"
		req.Detail = action.Command
	default:
		req.Title = fmt.Sprintf("Run tool %q", action.Name)
		req.Detail = action.ArgsJSON
	}
	return req
}
