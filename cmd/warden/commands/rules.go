package commands

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/wardenhq/warden/internal/config"
	"github.com/wardenhq/warden/internal/safety"
)

func NewRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Show the command approval rules in effect",
		RunE:  runRules,
	}
}

func runRules(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	fmt.Print(renderRules(cfg))
	return nil
}

func renderRules(cfg *config.Config) string {
	var (
		headerStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FAFAFA")).
				Background(lipgloss.Color("#2E8B57")). // SeaGreen
				Padding(0, 1).
				MarginBottom(1)

		sectionStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#2E8B57")).
				Bold(true).
				MarginTop(1)

		itemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				PaddingLeft(2)

		denyStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#CD5C5C")). // IndianRed
				PaddingLeft(2)

		noteStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245")).
				PaddingLeft(2)
	)

	var b strings.Builder
	b.WriteString(headerStyle.Render("Warden approval rules"))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("Auto-approved command prefixes"))
	b.WriteString("\n")
	prefixes := safety.NewClassifier(cfg.Safety.SafePrefixes).SafePrefixes()
	if len(prefixes) == 0 {
		b.WriteString(noteStyle.Render("(none: every command asks for approval)"))
		b.WriteString("\n")
	}
	for _, prefix := range prefixes {
		b.WriteString(itemStyle.Render(prefix))
		b.WriteString("\n")
	}
	b.WriteString(noteStyle.Render("Commands with shell metacharacters always ask, even under a safe prefix."))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("Always blocked"))
	b.WriteString("\n")
	for _, pattern := range safety.DenyPatterns() {
		b.WriteString(denyStyle.Render(pattern))
		b.WriteString("\n")
	}
	b.WriteString(noteStyle.Render("Blocked commands never run, even with a session approval in place."))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("Session approvals"))
	b.WriteString("\n")
	switch cfg.Approval.Scope {
	case "global":
		b.WriteString(itemStyle.Render("scope: global (one approval covers every action until reset)"))
	default:
		b.WriteString(itemStyle.Render(fmt.Sprintf("scope: per action class, expiring after %d minutes", cfg.Approval.GrantTTLMinutes)))
	}
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("Execution"))
	b.WriteString("\n")
	if cfg.Exec.RestrictToWorkspace {
		b.WriteString(itemStyle.Render("confined to workspace: " + cfg.WorkspacePath()))
	} else {
		b.WriteString(denyStyle.Render("NOT confined to the workspace"))
	}
	b.WriteString("\n")
	b.WriteString(itemStyle.Render(fmt.Sprintf("timeout: %ds", cfg.Exec.TimeoutSeconds)))
	b.WriteString("\n")

	return b.String()
}
