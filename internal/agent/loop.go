package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/wardenhq/warden/internal/approval"
	"github.com/wardenhq/warden/internal/audit"
	"github.com/wardenhq/warden/internal/config"
	"github.com/wardenhq/warden/internal/conversation"
	"github.com/wardenhq/warden/internal/executor"
	"github.com/wardenhq/warden/internal/safety"
	"github.com/wardenhq/warden/internal/tools"
)

const execToolName = "exec"

const systemPrompt = `You are warden, a careful assistant operating inside a restricted workspace.
You can read files, list directories, and run shell commands through the exec tool.
Some commands require the user's explicit approval before they run; a denied command
was never executed, so do not claim otherwise. Keep answers concise.`

// interruptNote is the synthetic tool result recorded for actions whose real
// outcome was lost to a user interrupt. The model must not mistake it for a
// successful execution.
const interruptNote = "Interrupted by user before a result was recorded. The action may or may not have run; do not assume it succeeded."

// Runner executes one approved shell command. Satisfied by executor.Executor;
// tests substitute a recorder to prove what did and did not run.
type Runner interface {
	Run(ctx context.Context, command, workDir string) executor.Result
	Sandboxed() bool
}

// TurnOutcome is what one user turn produced.
type TurnOutcome struct {
	Content     string
	Interrupted bool
}

// Loop drives the conversation: model turns, action classification, approval
// gating, execution, and the audit trail. One Loop per process; turns run
// one at a time.
type Loop struct {
	model         model.ChatModel
	tools         *tools.Registry
	classifier    safety.Classifier
	session       *approval.Session
	runner        Runner
	prompter      Prompter
	conversations *conversation.Manager
	auditLog      *audit.Writer
	config        *config.Config
	maxIterations int
	workspacePath string
	now           func() time.Time

	OnToolStart  func(name, args string)
	OnToolFinish func(name, result string, err error)
}

// NewLoop wires a loop from config. The prompter is injected because the
// surface that asks the user differs between the CLI and tests.
func NewLoop(cfg *config.Config, chatModel model.ChatModel, prompter Prompter) (*Loop, error) {
	workspacePath, err := cfg.WorkspacePathChecked()
	if err != nil {
		return nil, err
	}

	runner := executor.New(executor.Config{
		Timeout:             time.Duration(cfg.Exec.TimeoutSeconds) * time.Second,
		GracePeriod:         time.Duration(cfg.Exec.GraceMillis) * time.Millisecond,
		WorkspaceDir:        workspacePath,
		RestrictToWorkspace: cfg.Exec.RestrictToWorkspace,
	})

	return &Loop{
		model:         chatModel,
		tools:         tools.NewRegistry(),
		classifier:    safety.NewClassifier(cfg.Safety.SafePrefixes),
		session:       approval.NewSession(approval.Scope(cfg.Approval.Scope), time.Duration(cfg.Approval.GrantTTLMinutes)*time.Minute),
		runner:        runner,
		prompter:      prompter,
		conversations: conversation.NewManager(workspacePath),
		auditLog:      audit.NewWriter(workspacePath),
		config:        cfg,
		maxIterations: cfg.Agent.MaxToolIterations,
		workspacePath: workspacePath,
		now:           time.Now,
	}, nil
}

// Tools returns the tool registry.
func (l *Loop) Tools() *tools.Registry {
	return l.tools
}

// Session returns the approval session state, for UI projections.
func (l *Loop) Session() *approval.Session {
	return l.session
}

// Classifier returns the command classifier, for UI projections.
func (l *Loop) Classifier() safety.Classifier {
	return l.classifier
}

// RegisterDefaultTools registers the built-in read-only tools.
func (l *Loop) RegisterDefaultTools() error {
	toolFns := []func() (tool.InvokableTool, error){
		func() (tool.InvokableTool, error) { return tools.NewReadFileTool(l.workspacePath) },
		func() (tool.InvokableTool, error) { return tools.NewListDirTool(l.workspacePath) },
	}

	registered := make([]string, 0, len(toolFns))
	for _, fn := range toolFns {
		t, err := fn()
		if err != nil {
			return err
		}
		if err := l.tools.Register(t, true); err != nil {
			return err
		}
		info, err := t.Info(context.Background())
		if err == nil && info != nil && info.Name != "" {
			registered = append(registered, info.Name)
		}
	}

	slog.Info("registered tools", "count", len(registered), "tools", registered)
	return nil
}

// execToolInfo describes the shell command tool to the model. Execution does
// not go through the registry: exec calls are gated through the approval
// boundary before anything runs.
func execToolInfo() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: execToolName,
		Desc: "Execute a shell command in the workspace and return its combined output.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"command": {
				Type:     schema.String,
				Desc:     "Shell command to execute",
				Required: true,
			},
			"working_dir": {
				Type: schema.String,
				Desc: "Working directory, relative to the workspace if not absolute",
			},
		}),
	}
}

func (l *Loop) bindTools(ctx context.Context) error {
	if l.model == nil {
		return nil
	}
	toolInfos, err := l.tools.Infos(ctx)
	if err != nil {
		return err
	}
	toolInfos = append(toolInfos, execToolInfo())
	if binder, ok := l.model.(interface {
		BindTools([]*schema.ToolInfo) error
	}); ok {
		return binder.BindTools(toolInfos)
	}
	return nil
}

// RunTurn processes one user input to completion: model calls, approval
// gates, executions. Cancelling ctx interrupts the turn; the conversation
// record is patched so no tool call is left dangling.
func (l *Loop) RunTurn(ctx context.Context, sessionKey, input string) (TurnOutcome, error) {
	if err := l.bindTools(ctx); err != nil {
		return TurnOutcome{}, err
	}
	if l.model == nil {
		return TurnOutcome{}, fmt.Errorf("no model configured")
	}

	l.observeIsolation()

	rec := l.conversations.GetOrCreate(sessionKey)
	rec.BeginTurn()
	rec.Append(schema.UserMessage(input))

	var finalContent string
	interrupted := false

turn:
	for i := 0; ; i++ {
		if ctx.Err() != nil {
			interrupted = true
			break
		}
		if i >= l.maxIterations {
			finalContent = "Stopped: too many actions this turn."
			slog.Warn("turn hit iteration cap", "session_key", sessionKey, "iterations", i)
			break
		}

		resp, err := l.model.Generate(ctx, l.contextMessages(rec))
		if err != nil {
			if ctx.Err() != nil {
				interrupted = true
				break
			}
			return TurnOutcome{}, l.abortTurn(rec, sessionKey, fmt.Errorf("model generate: %w", err))
		}

		// Capture the latest content even when tool calls are present.
		if resp.Content != "" {
			finalContent = resp.Content
		}

		rec.Append(resp)
		if len(resp.ToolCalls) == 0 {
			break
		}

		// Actions run strictly in order: each one is classified, gated,
		// and recorded before the next is looked at.
		for _, tc := range resp.ToolCalls {
			if ctx.Err() != nil {
				interrupted = true
				break turn
			}

			action := l.parseAction(tc)
			decision, err := l.decide(ctx, action)
			if err != nil {
				if ctx.Err() != nil {
					interrupted = true
					break turn
				}
				return TurnOutcome{}, l.abortTurn(rec, sessionKey, err)
			}

			result := l.dispatch(ctx, action, decision)
			rec.Append(&schema.Message{
				Role:       schema.Tool,
				Content:    result,
				ToolCallID: tc.ID,
			})
		}
	}

	if interrupted {
		if patched := rec.CloseInterrupted(interruptNote); patched > 0 {
			l.appendAudit(audit.Event{
				Type:   audit.EventInterrupted,
				Result: fmt.Sprintf("%d pending action(s) closed", patched),
			})
		}
		if finalContent == "" {
			finalContent = "Interrupted."
		}
	}
	if finalContent == "" {
		finalContent = "Processing complete."
	}

	if err := l.conversations.Save(rec); err != nil {
		slog.Warn("save conversation failed", "session_key", sessionKey, "error", err)
	}

	return TurnOutcome{Content: finalContent, Interrupted: interrupted}, nil
}

// abortTurn closes out a turn that failed mid-flight so the persisted record
// stays well formed, then passes the original error through.
func (l *Loop) abortTurn(rec *conversation.Record, sessionKey string, err error) error {
	rec.CloseInterrupted(interruptNote)
	if saveErr := l.conversations.Save(rec); saveErr != nil {
		slog.Warn("save conversation failed", "session_key", sessionKey, "error", saveErr)
	}
	return err
}

func (l *Loop) contextMessages(rec *conversation.Record) []*schema.Message {
	history := rec.Messages()
	messages := make([]*schema.Message, 0, len(history)+1)
	messages = append(messages, schema.SystemMessage(systemPrompt))
	return append(messages, history...)
}

// observeIsolation reports the executor's current confinement to the
// session. A downgrade revokes standing grants.
func (l *Loop) observeIsolation() {
	level := approval.IsolationNone
	if l.runner.Sandboxed() {
		level = approval.IsolationWorkspace
	}
	if l.session.ObserveIsolation(level) {
		slog.Warn("execution isolation downgraded, session grants revoked")
		l.appendAudit(audit.Event{
			Type:   audit.EventGrantsRevoked,
			Result: "isolation downgraded",
		})
	}
}

// execArgs is the payload of an exec tool call.
type execArgs struct {
	Command    string `json:"command"`
	WorkingDir string `json:"working_dir"`
}

func (l *Loop) parseAction(tc schema.ToolCall) approval.ProposedAction {
	action := approval.ProposedAction{
		CallID:   tc.ID,
		Name:     tc.Function.Name,
		ArgsJSON: tc.Function.Arguments,
	}
	switch {
	case tc.Function.Name == execToolName:
		action.Type = approval.ActionShellCommand
		var args execArgs
		if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err == nil {
			action.Command = strings.TrimSpace(args.Command)
		}
	case l.tools.ReadOnly(tc.Function.Name):
		action.Type = approval.ActionReadOnly
	default:
		action.Type = approval.ActionSideEffect
	}
	return action
}

// decide produces exactly one Decision for the action. Nothing executes
// without a decision, and a denial here is final for this action.
func (l *Loop) decide(ctx context.Context, action approval.ProposedAction) (approval.Decision, error) {
	if action.Type == approval.ActionShellCommand {
		res := l.classifier.Classify(action.Command)
		switch res.Class {
		case safety.HardDeny:
			// Blocked outright. Session grants and blanket approvals
			// never reach this tier.
			return l.record(action, approval.VerdictUserDenied, "blocked by policy: "+res.Reason), nil
		case safety.AutoApprove:
			return l.record(action, approval.VerdictAutoApproved, fmt.Sprintf("matched safe prefix %q", res.Rule)), nil
		}
	} else if action.Type == approval.ActionReadOnly {
		return l.record(action, approval.VerdictAutoApproved, "read-only tool"), nil
	}

	if l.session.Granted(action.Type) {
		return l.record(action, approval.VerdictUserApprovedForSession, "covered by session approval"), nil
	}

	req := Describe(action)
	l.appendAudit(audit.Event{
		Type:    audit.EventPromptShown,
		CallID:  action.CallID,
		Action:  string(action.Type),
		Command: action.Command,
	})

	answer, err := l.prompter.Prompt(ctx, req)
	if err != nil {
		return approval.Decision{}, fmt.Errorf("approval prompt: %w", err)
	}

	switch answer {
	case approval.AnswerApproveOnce:
		return l.record(action, approval.VerdictUserApproved, "approved by user"), nil
	case approval.AnswerApproveForSession:
		l.session.Escalate(action.Type)
		l.appendAudit(audit.Event{
			Type:   audit.EventSessionEscalated,
			CallID: action.CallID,
			Action: string(action.Type),
		})
		return l.record(action, approval.VerdictUserApprovedForSession, "approved by user for this session"), nil
	default:
		return l.record(action, approval.VerdictUserDenied, "denied by user"), nil
	}
}

// record stamps and audits a decision.
func (l *Loop) record(action approval.ProposedAction, verdict approval.Verdict, reason string) approval.Decision {
	decision := approval.Decision{
		CallID:    action.CallID,
		Verdict:   verdict,
		Reason:    reason,
		DecidedAt: l.now(),
	}

	eventType := audit.EventDenied
	switch verdict {
	case approval.VerdictAutoApproved:
		eventType = audit.EventAutoApproved
	case approval.VerdictUserApproved, approval.VerdictUserApprovedForSession:
		eventType = audit.EventUserApproved
	}
	l.appendAudit(audit.Event{
		Type:    eventType,
		CallID:  action.CallID,
		Action:  string(action.Type),
		Command: action.Command,
		Result:  reason,
	})
	return decision
}

// dispatch turns a decided action into the tool result the model sees. Denied
// actions produce a refusal message and nothing runs.
func (l *Loop) dispatch(ctx context.Context, action approval.ProposedAction, decision approval.Decision) string {
	if !decision.Verdict.Approved() {
		return fmt.Sprintf("Denied: %s. The action was not executed.", decision.Reason)
	}

	if l.OnToolStart != nil {
		l.OnToolStart(action.Name, action.ArgsJSON)
	}

	var result string
	var err error
	switch action.Type {
	case approval.ActionShellCommand:
		result = l.runCommand(ctx, action)
	default:
		result, err = l.tools.Execute(ctx, action.Name, action.ArgsJSON)
		if err != nil {
			result = "Error: " + err.Error()
		}
	}

	if l.OnToolFinish != nil {
		l.OnToolFinish(action.Name, result, err)
	}
	return result
}

func (l *Loop) runCommand(ctx context.Context, action approval.ProposedAction) string {
	var args execArgs
	if err := json.Unmarshal([]byte(action.ArgsJSON), &args); err != nil {
		return "Error: invalid exec arguments: " + err.Error()
	}

	res := l.runner.Run(ctx, action.Command, args.WorkingDir)

	slog.Info("command finished",
		"command", action.Command,
		"status", res.Status,
		"exit_code", res.ExitCode,
		"duration", res.Duration.String(),
	)
	l.appendAudit(audit.Event{
		Type:    audit.EventExecution,
		CallID:  action.CallID,
		Action:  string(action.Type),
		Command: action.Command,
		Result:  string(res.Status),
	})

	return formatResult(res)
}

// formatResult renders an execution outcome for the model. Failures are
// reported as information, and non-retryable ones say so explicitly so the
// model does not loop on them.
func formatResult(res executor.Result) string {
	output := strings.TrimRight(res.Output, "\n")
	switch res.Status {
	case executor.StatusSuccess:
		if output == "" {
			return "(no output)"
		}
		return output
	case executor.StatusNonZeroExit:
		if output == "" {
			return fmt.Sprintf("Command exited with code %d.", res.ExitCode)
		}
		return fmt.Sprintf("Command exited with code %d.\n%s", res.ExitCode, output)
	case executor.StatusTimedOut:
		msg := fmt.Sprintf("Command timed out after %s and was terminated.", res.Duration.Round(time.Millisecond))
		if output != "" {
			msg += "\nPartial output:\n" + output
		}
		return msg
	case executor.StatusCanceled:
		msg := "Command was canceled before it finished."
		if output != "" {
			msg += "\nPartial output:\n" + output
		}
		return msg
	case executor.StatusPermissionDenied:
		return fmt.Sprintf("Command could not run: %s. Retrying the same command will fail the same way.", output)
	default:
		return fmt.Sprintf("Command failed unexpectedly: %s", output)
	}
}

func (l *Loop) appendAudit(event audit.Event) {
	if l.auditLog == nil {
		return
	}
	if event.Time.IsZero() {
		event.Time = l.now()
	}
	if err := l.auditLog.Append(event); err != nil {
		slog.Warn("append audit event failed", "type", event.Type, "error", err)
	}
}
