package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/raphaelgruber/podrag-go/internal/models"
)

type fakeCompleter struct {
	response string
	err      error
	calls    int
}

func (f *fakeCompleter) Complete(_ context.Context, _, _ string) (string, error) {
	f.calls++
	return f.response, f.err
}

func turns(pairs ...string) []models.ConversationTurn {
	out := make([]models.ConversationTurn, 0, len(pairs))
	for i, content := range pairs {
		role := models.RoleUser
		if i%2 == 1 {
			role = models.RoleAI
		}
		out = append(out, models.ConversationTurn{Role: role, Content: content})
	}
	return out
}

func TestRewriteEmptyHistorySkipsModel(t *testing.T) {
	model := &fakeCompleter{response: "should never be used"}

	got, err := Rewrite(context.Background(), model, nil, "what is ICM?", nil)
	if err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	if got != "what is ICM?" {
		t.Errorf("got %q, want original question", got)
	}
	if model.calls != 0 {
		t.Errorf("model called %d times, want 0", model.calls)
	}
}

func TestRewriteResolvesReference(t *testing.T) {
	model := &fakeCompleter{response: `"What episodes cover bubble play?"`}
	history := turns("Tell me about bubble play", "Bubble play is...")

	got, err := Rewrite(context.Background(), model, history, "which episodes cover it?", nil)
	if err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	if got != "What episodes cover bubble play?" {
		t.Errorf("got %q", got)
	}
	if model.calls != 1 {
		t.Errorf("model called %d times, want 1", model.calls)
	}
}

func TestRewriteRejectsAnswers(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"overlong output", strings.Repeat("bubble play considerations ", 20)},
		{"multi paragraph", "What is ICM?\n\nICM stands for the independent chip model, which..."},
		{"blank output", "   "},
	}

	history := turns("hi", "hello")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &fakeCompleter{response: tt.response}
			got, err := Rewrite(context.Background(), model, history, "original question", nil)
			if err != nil {
				t.Fatalf("Rewrite: %v", err)
			}
			if got != "original question" {
				t.Errorf("got %q, want original question kept", got)
			}
		})
	}
}

func TestRewriteModelError(t *testing.T) {
	model := &fakeCompleter{err: errors.New("rate limited")}
	history := turns("hi", "hello")

	if _, err := Rewrite(context.Background(), model, history, "q", nil); err == nil {
		t.Fatal("expected error")
	}
}
