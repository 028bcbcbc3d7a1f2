package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/raphaelgruber/podrag-go/internal/models"
	"github.com/spf13/cobra"
)

var (
	askModel   string
	askSession string
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a single question about the episode archive",
	Long: `Ask a question and stream the answer to stdout.

Without --session each invocation is a fresh conversation. Pass the
same --session id across invocations to ask follow-up questions.

Examples:
  podrag ask "Which episodes cover bubble play?"
  podrag ask "Summarise episode 85"
  podrag ask --session review "What tags does episode 12 have?"
  podrag ask --model claude-3-5-sonnet-20240620 "List all tags"`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askModel, "model", "m", "", "chat model id (default from config)")
	askCmd.Flags().StringVarP(&askSession, "session", "s", "", "session id for follow-up questions")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	p, err := getPipeline(ctx)
	if err != nil {
		return err
	}

	model := askModel
	if model == "" {
		model = cfg.DefaultModel
	}
	session := askSession
	if session == "" {
		session = uuid.NewString()
	}

	q := models.Query{Text: args[0], SessionID: session, ModelID: model}
	_, err = p.Answer(ctx, q, func(token string) error {
		fmt.Print(token)
		return nil
	})
	if err != nil {
		return fmt.Errorf("answer question: %w", err)
	}
	fmt.Println()
	return nil
}
