package commands

import (
	"github.com/spf13/cobra"

	"github.com/wardenhq/warden/internal/config"
)

var logLevelOverride string

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "warden",
		Short: "Warden - approval-gated command agent",
		Long:  `Warden is an AI agent that asks before it acts: every shell command it wants to run passes through a safety classifier and, when needed, your explicit approval.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "init" {
				return configureLogger(config.DefaultConfig(), logLevelOverride, false)
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			interactive := cmd.Name() == "chat" || cmd.Name() == "ask"
			return configureLogger(cfg, logLevelOverride, interactive)
		},
	}

	cmd.PersistentFlags().StringVar(&logLevelOverride, "log-level", "", "Override log level (debug|info|warn|error)")

	cmd.AddCommand(
		NewInitCmd(),
		NewChatCmd(),
		NewAskCmd(),
		NewRulesCmd(),
		NewVersionCmd(),
	)

	return cmd
}
