package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wardenhq/warden/internal/agent"
	"github.com/wardenhq/warden/internal/config"
	"github.com/wardenhq/warden/internal/provider"
)

const chatSessionKey = "cli:direct"

func NewChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat [message]",
		Short: "Chat with Warden",
		RunE:  runChat,
	}
}

// buildLoop loads config, constructs the chat model, and wires an agent
// loop whose approvals are answered on the given reader.
func buildLoop(reader *bufio.Reader) (*agent.Loop, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	model, err := provider.NewChatModel(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("no chat model available: %w (edit %s to add an API key)", err, config.ConfigPath())
	}

	loop, err := agent.NewLoop(cfg, model, newConsolePrompter(reader, os.Stdout))
	if err != nil {
		return nil, err
	}
	if err := loop.RegisterDefaultTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}
	return loop, nil
}

func runChat(cmd *cobra.Command, args []string) error {
	reader := bufio.NewReader(os.Stdin)
	loop, err := buildLoop(reader)
	if err != nil {
		return err
	}

	if len(args) > 0 {
		return runOneTurn(loop, strings.Join(args, " "))
	}

	fmt.Println("Warden ready. Type 'exit' to quit; Ctrl-C interrupts a running turn.")
	for {
		fmt.Print("\n> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			break
		}

		input := strings.TrimSpace(line)
		if input == "exit" || input == "quit" {
			break
		}
		if input == "" {
			continue
		}

		if err := runOneTurn(loop, input); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}

	return nil
}

// runOneTurn processes one input under an interruptible context. Ctrl-C
// cancels the turn, not the process; the loop patches the conversation
// record before returning.
func runOneTurn(loop *agent.Loop, input string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	outcome, err := loop.RunTurn(ctx, chatSessionKey, input)
	if err != nil {
		return err
	}
	if outcome.Interrupted {
		fmt.Println("(turn interrupted)")
	}
	fmt.Println(outcome.Content)
	return nil
}
