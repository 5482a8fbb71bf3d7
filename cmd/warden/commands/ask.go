package commands

import (
	"bufio"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func NewAskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask Warden a single question and exit",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAsk,
	}
}

func runAsk(cmd *cobra.Command, args []string) error {
	loop, err := buildLoop(bufio.NewReader(os.Stdin))
	if err != nil {
		return err
	}
	return runOneTurn(loop, strings.Join(args, " "))
}
