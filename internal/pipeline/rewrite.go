package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/raphaelgruber/podrag-go/internal/models"
)

// Completer produces a single completion for a system/user prompt pair.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// maxRewriteRunes guards against models answering the question instead
// of rephrasing it. A standalone question is short; anything longer is
// almost certainly an answer.
const maxRewriteRunes = 300

// Rewrite condenses a follow-up question plus its conversation history
// into a standalone question. With no history there is nothing to
// resolve and the original text is returned without a model call.
func Rewrite(ctx context.Context, model Completer, history []models.ConversationTurn, question string, logger *slog.Logger) (string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(history) == 0 {
		return question, nil
	}

	user := fmt.Sprintf("Chat history:\n%s\n\nFollow-up question: %s\n\nStandalone question:",
		renderHistory(history), question)

	out, err := model.Complete(ctx, standaloneSystemPrompt, user)
	if err != nil {
		return "", fmt.Errorf("rewrite question: %w", err)
	}

	rewritten := strings.TrimSpace(strings.Trim(strings.TrimSpace(out), `"`))
	if rewritten == "" {
		return question, nil
	}
	// Multi-paragraph or oversized output means the model answered
	// rather than rephrased; keep the user's own words instead.
	if utf8.RuneCountInString(rewritten) > maxRewriteRunes || strings.Contains(rewritten, "\n\n") {
		logger.Debug("rewrite output rejected", "runes", utf8.RuneCountInString(rewritten))
		return question, nil
	}

	logger.Debug("rewrote question", "original", question, "standalone", rewritten)
	return rewritten, nil
}
