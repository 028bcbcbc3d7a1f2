package client_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/raphaelgruber/podrag-go/internal/client"
	"github.com/raphaelgruber/podrag-go/internal/history"
	"github.com/raphaelgruber/podrag-go/internal/metrics"
	"github.com/raphaelgruber/podrag-go/internal/models"
	"github.com/raphaelgruber/podrag-go/internal/server"
)

// stubPipeline answers every question with a fixed token stream.
type stubPipeline struct {
	tokens   []string
	purgeErr error
}

func (s *stubPipeline) Answer(_ context.Context, q models.Query, onToken func(string) error) (string, error) {
	var full strings.Builder
	for _, token := range s.tokens {
		if err := onToken(token); err != nil {
			return full.String(), err
		}
		full.WriteString(token)
	}
	return full.String(), nil
}

func (s *stubPipeline) PurgeHistory(context.Context, string) error {
	return s.purgeErr
}

func (s *stubPipeline) Metrics() *metrics.Collector {
	return metrics.NewCollector()
}

func startServer(t *testing.T, p *stubPipeline) (*httptest.Server, *client.Client) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := server.New(":0", p, "gpt-4o-mini", logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, client.New(ts.URL)
}

func TestChat(t *testing.T) {
	_, c := startServer(t, &stubPipeline{tokens: []string{"bubble ", "play"}})

	var streamed strings.Builder
	session, answer, err := c.Chat(context.Background(),
		client.ChatRequest{Message: "what is bubble play?"},
		func(token string) error {
			streamed.WriteString(token)
			return nil
		})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if answer != "bubble play" {
		t.Errorf("answer = %q, want %q", answer, "bubble play")
	}
	if streamed.String() != answer {
		t.Errorf("streamed %q differs from answer %q", streamed.String(), answer)
	}
	if session == "" {
		t.Error("expected server-minted session id")
	}
}

func TestChatWS(t *testing.T) {
	_, c := startServer(t, &stubPipeline{tokens: []string{"deep ", "stacks"}})

	session, answer, err := c.ChatWS(context.Background(),
		client.ChatRequest{SessionID: "ws1", Message: "cash game spots?"}, nil)
	if err != nil {
		t.Fatalf("ChatWS: %v", err)
	}
	if answer != "deep stacks" {
		t.Errorf("answer = %q, want %q", answer, "deep stacks")
	}
	if session != "ws1" {
		t.Errorf("session = %q, want ws1", session)
	}
}

func TestDeleteHistory(t *testing.T) {
	_, c := startServer(t, &stubPipeline{})

	if err := c.DeleteHistory(context.Background(), "s1"); err != nil {
		t.Fatalf("DeleteHistory: %v", err)
	}
}

func TestDeleteHistoryNotFound(t *testing.T) {
	_, c := startServer(t, &stubPipeline{purgeErr: history.ErrSessionNotFound})

	err := c.DeleteHistory(context.Background(), "missing")
	if !errors.Is(err, client.ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestHealthAndStats(t *testing.T) {
	_, c := startServer(t, &stubPipeline{})

	if err := c.Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}
	if _, err := c.Stats(context.Background()); err != nil {
		t.Fatalf("Stats: %v", err)
	}
}
