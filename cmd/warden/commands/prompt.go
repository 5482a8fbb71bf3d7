package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wardenhq/warden/internal/agent"
	"github.com/wardenhq/warden/internal/approval"
)

var (
	promptTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FAFAFA")).
				Background(lipgloss.Color("#B8860B")). // DarkGoldenrod
				Padding(0, 1)

	promptDetailStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#B8860B")).
				Padding(0, 1).
				MarginTop(1).
				MarginBottom(1)

	promptHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))
)

// consolePrompter asks for approval on the terminal. It shares the chat
// REPL's reader so the approval answer and the next chat line never race
// for stdin.
type consolePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newConsolePrompter(in *bufio.Reader, out io.Writer) *consolePrompter {
	return &consolePrompter{in: in, out: out}
}

func (p *consolePrompter) Prompt(ctx context.Context, req agent.PromptRequest) (approval.Answer, error) {
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, promptTitleStyle.Render("Approval required: "+req.Title))
	fmt.Fprintln(p.out, promptDetailStyle.Render(req.Detail))
	fmt.Fprintln(p.out, promptHintStyle.Render("[y] approve once  [a] approve for session  [n] deny"))

	type lineResult struct {
		line string
		err  error
	}
	lineCh := make(chan lineResult, 1)
	go func() {
		line, err := p.in.ReadString('\n')
		lineCh <- lineResult{line: line, err: err}
	}()

	for {
		fmt.Fprint(p.out, "approve? ")
		select {
		case <-ctx.Done():
			fmt.Fprintln(p.out)
			return "", ctx.Err()
		case res := <-lineCh:
			if res.err != nil {
				return "", fmt.Errorf("read approval answer: %w", res.err)
			}
			answer, ok := parseAnswer(res.line)
			if ok {
				return answer, nil
			}
			fmt.Fprintln(p.out, "Please answer y, a, or n.")
			go func() {
				line, err := p.in.ReadString('\n')
				lineCh <- lineResult{line: line, err: err}
			}()
		}
	}
}

func parseAnswer(line string) (approval.Answer, bool) {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return approval.AnswerApproveOnce, true
	case "a", "always", "session":
		return approval.AnswerApproveForSession, true
	case "n", "no", "deny":
		return approval.AnswerDeny, true
	default:
		return "", false
	}
}
