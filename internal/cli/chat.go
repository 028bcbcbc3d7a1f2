package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	tea "charm.land/bubbletea/v2"
	"github.com/google/uuid"
	"github.com/raphaelgruber/podrag-go/internal/models"
	"github.com/raphaelgruber/podrag-go/internal/pipeline"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var chatModelFlag string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Start an interactive conversation about the episode archive.

Follow-up questions are resolved against the session's history, so
"which episodes cover it?" works after asking about a topic. On a
terminal this runs a full-screen chat UI; when stdin is piped it reads
questions line by line.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatModelFlag, "model", "m", "", "chat model id (default from config)")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	p, err := getPipeline(ctx)
	if err != nil {
		return err
	}

	model := chatModelFlag
	if model == "" {
		model = cfg.DefaultModel
	}
	session := uuid.NewString()

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return runChatPlain(ctx, p, session, model)
	}

	m := newChatTUI(ctx, p, session, model)
	_, err = tea.NewProgram(m).Run()
	return err
}

// runChatPlain reads one question per line and streams each answer.
func runChatPlain(ctx context.Context, p *pipeline.Pipeline, session, model string) error {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		q := models.Query{Text: question, SessionID: session, ModelID: model}
		if _, err := p.Answer(ctx, q, func(token string) error {
			fmt.Print(token)
			return nil
		}); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		fmt.Print("\n\n")
	}
	return scanner.Err()
}
