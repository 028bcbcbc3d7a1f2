package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/raphaelgruber/podrag-go/internal/history"
	"github.com/raphaelgruber/podrag-go/internal/llm"
	"github.com/raphaelgruber/podrag-go/internal/metrics"
	"github.com/raphaelgruber/podrag-go/internal/models"
)

// fakeChatModel scripts all three model roles the pipeline exercises.
type fakeChatModel struct {
	classifyJSON string
	rewrite      string
	answerTokens []string
	streamErr    error

	// cancel, when set, is invoked after emitting cancelAfter tokens.
	cancel      context.CancelFunc
	cancelAfter int

	structuredCalls int
	completeCalls   int
	streamSystem    string
	streamQuestion  string
	streamHistory   []models.ConversationTurn
}

func (f *fakeChatModel) CompleteStructured(_ context.Context, _ string) (string, error) {
	f.structuredCalls++
	return f.classifyJSON, nil
}

func (f *fakeChatModel) Complete(_ context.Context, _, _ string) (string, error) {
	f.completeCalls++
	return f.rewrite, nil
}

func (f *fakeChatModel) StreamChat(ctx context.Context, system string, hist []models.ConversationTurn, question string, onToken func(string) error) (string, error) {
	f.streamSystem = system
	f.streamQuestion = question
	f.streamHistory = hist

	var full strings.Builder
	for i, token := range f.answerTokens {
		if f.cancel != nil && i == f.cancelAfter {
			f.cancel()
		}
		if ctx.Err() != nil {
			return full.String(), ctx.Err()
		}
		if err := onToken(token); err != nil {
			return full.String(), err
		}
		full.WriteString(token)
	}
	if f.streamErr != nil {
		return full.String(), f.streamErr
	}
	return full.String(), nil
}

func searchJSON(tags ...string) string {
	quoted := make([]string, len(tags))
	for i, tag := range tags {
		quoted[i] = fmt.Sprintf("%q", tag)
	}
	return fmt.Sprintf(`{"typeOfRequest": "search_by_tags", "episodeNumbers": [], "episodeTags": [%s], "requireAllTags": false, "message": ""}`,
		strings.Join(quoted, ", "))
}

func newTestPipeline(t *testing.T, model ChatModel, idx *fakeIndex, store history.Store) *Pipeline {
	t.Helper()
	factory := func(_ context.Context, modelID string) (ChatModel, error) {
		if modelID == "unsupported-model" {
			return nil, fmt.Errorf("%w: %s", llm.ErrUnsupportedModel, modelID)
		}
		return model, nil
	}
	p, err := New(Config{
		Models:  factory,
		Index:   idx,
		History: store,
		Metrics: metrics.NewCollector(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestAnswerAppendsHistoryInOrder(t *testing.T) {
	model := &fakeChatModel{
		classifyJSON: searchJSON("bubble"),
		answerTokens: []string{"Episode ", "85 covers ", "bubble play."},
	}
	idx := &fakeIndex{docs: []models.EpisodeDocument{doc(85, "Bubble Trouble", "bubble")}}
	store := history.NewMemoryStore()
	p := newTestPipeline(t, model, idx, store)

	var streamed strings.Builder
	answer, err := p.Answer(context.Background(),
		models.Query{Text: "bubble episodes?", SessionID: "s1", ModelID: "gpt-4o-mini"},
		func(token string) error {
			streamed.WriteString(token)
			return nil
		})
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}

	want := "Episode 85 covers bubble play."
	if answer != want {
		t.Errorf("answer = %q, want %q", answer, want)
	}
	if streamed.String() != want {
		t.Errorf("streamed = %q, want %q", streamed.String(), want)
	}

	turns, err := store.Get(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("len(turns) = %d, want 2", len(turns))
	}
	if turns[0].Role != models.RoleUser || turns[0].Content != "bubble episodes?" {
		t.Errorf("first turn = %+v, want user question verbatim", turns[0])
	}
	if turns[1].Role != models.RoleAI || turns[1].Content != want {
		t.Errorf("second turn = %+v, want assistant answer", turns[1])
	}
}

func TestAnswerSkipsRewriteOnFreshSession(t *testing.T) {
	model := &fakeChatModel{
		classifyJSON: searchJSON("bubble"),
		rewrite:      "should not be requested",
		answerTokens: []string{"ok"},
	}
	idx := &fakeIndex{}
	p := newTestPipeline(t, model, idx, history.NewMemoryStore())

	if _, err := p.Answer(context.Background(),
		models.Query{Text: "q", SessionID: "fresh", ModelID: "gpt-4o-mini"}, nil); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if model.completeCalls != 0 {
		t.Errorf("rewrite model called %d times on empty history, want 0", model.completeCalls)
	}
}

func TestAnswerRewritesFollowUp(t *testing.T) {
	model := &fakeChatModel{
		classifyJSON: searchJSON("bubble"),
		rewrite:      "What episodes cover bubble play?",
		answerTokens: []string{"ok"},
	}
	idx := &fakeIndex{}
	store := history.NewMemoryStore()
	seed := []models.ConversationTurn{
		{Role: models.RoleUser, Content: "tell me about bubble play"},
		{Role: models.RoleAI, Content: "Bubble play is..."},
	}
	for _, turn := range seed {
		if err := store.Append(context.Background(), "s2", turn); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	p := newTestPipeline(t, model, idx, store)

	if _, err := p.Answer(context.Background(),
		models.Query{Text: "which episodes cover it?", SessionID: "s2", ModelID: "gpt-4o-mini"}, nil); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if model.completeCalls != 1 {
		t.Fatalf("rewrite model called %d times, want 1", model.completeCalls)
	}
	// Retrieval and generation see the standalone question; history
	// records the user's original wording.
	if len(idx.calls) != 1 || idx.calls[0].query != "What episodes cover bubble play?" {
		t.Errorf("index queried with %+v, want standalone question", idx.calls)
	}
	if model.streamQuestion != "What episodes cover bubble play?" {
		t.Errorf("generation question = %q, want standalone", model.streamQuestion)
	}
	turns, _ := store.Get(context.Background(), "s2")
	if turns[2].Content != "which episodes cover it?" {
		t.Errorf("stored question = %q, want original wording", turns[2].Content)
	}
}

func TestAnswerUnsupportedModel(t *testing.T) {
	model := &fakeChatModel{classifyJSON: searchJSON("bubble"), answerTokens: []string{"ok"}}
	idx := &fakeIndex{}
	store := history.NewMemoryStore()
	p := newTestPipeline(t, model, idx, store)

	_, err := p.Answer(context.Background(),
		models.Query{Text: "q", SessionID: "s3", ModelID: "unsupported-model"}, nil)
	if !errors.Is(err, llm.ErrUnsupportedModel) {
		t.Fatalf("err = %v, want ErrUnsupportedModel", err)
	}
	// Fails before any stage runs or history is touched.
	if model.structuredCalls != 0 || len(idx.calls) != 0 {
		t.Error("stages ran despite unsupported model")
	}
	if turns, _ := store.Get(context.Background(), "s3"); len(turns) != 0 {
		t.Errorf("history written despite failure: %+v", turns)
	}
}

func TestAnswerRetrievalFailure(t *testing.T) {
	model := &fakeChatModel{classifyJSON: searchJSON("bubble"), answerTokens: []string{"ok"}}
	idx := &fakeIndex{err: errors.New("connection refused")}
	store := history.NewMemoryStore()
	p := newTestPipeline(t, model, idx, store)

	_, err := p.Answer(context.Background(),
		models.Query{Text: "q", SessionID: "s4", ModelID: "gpt-4o-mini"}, nil)
	if !errors.Is(err, ErrRetrieval) {
		t.Fatalf("err = %v, want ErrRetrieval", err)
	}
	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != metrics.StageRetrieve {
		t.Errorf("err = %v, want retrieve StageError", err)
	}
	if turns, _ := store.Get(context.Background(), "s4"); len(turns) != 0 {
		t.Errorf("history written despite failure: %+v", turns)
	}
}

func TestAnswerCancelledMidStream(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	model := &fakeChatModel{
		classifyJSON: searchJSON("bubble"),
		answerTokens: []string{"partial ", "answer ", "never finished"},
		cancel:       cancel,
		cancelAfter:  1,
	}
	idx := &fakeIndex{docs: []models.EpisodeDocument{doc(85, "Bubble Trouble", "bubble")}}
	store := history.NewMemoryStore()
	p := newTestPipeline(t, model, idx, store)

	_, err := p.Answer(ctx,
		models.Query{Text: "q", SessionID: "s5", ModelID: "gpt-4o-mini"}, nil)
	if !errors.Is(err, ErrStreamInterrupted) {
		t.Fatalf("err = %v, want ErrStreamInterrupted", err)
	}
	// Neither the question nor the partial answer is recorded.
	if turns, _ := store.Get(context.Background(), "s5"); len(turns) != 0 {
		t.Errorf("history written despite interruption: %+v", turns)
	}
}

func TestAnswerSystemPromptCarriesContext(t *testing.T) {
	model := &fakeChatModel{
		classifyJSON: searchJSON("bubble"),
		answerTokens: []string{"ok"},
	}
	idx := &fakeIndex{docs: []models.EpisodeDocument{doc(85, "Bubble Trouble", "bubble")}}
	p := newTestPipeline(t, model, idx, history.NewMemoryStore())

	if _, err := p.Answer(context.Background(),
		models.Query{Text: "bubble episodes?", SessionID: "s6", ModelID: "gpt-4o-mini"}, nil); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	for _, want := range []string{"EPISODE_ENTRY_1", "TOTAL_EPISODES: 1"} {
		if !strings.Contains(model.streamSystem, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}
}

func TestPurgeHistory(t *testing.T) {
	store := history.NewMemoryStore()
	p := newTestPipeline(t, &fakeChatModel{}, &fakeIndex{}, store)

	if err := store.Append(context.Background(), "s7", models.ConversationTurn{Role: models.RoleUser, Content: "hi"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := p.PurgeHistory(context.Background(), "s7"); err != nil {
		t.Fatalf("PurgeHistory: %v", err)
	}
	if err := p.PurgeHistory(context.Background(), "s7"); !errors.Is(err, history.ErrSessionNotFound) {
		t.Errorf("second purge err = %v, want ErrSessionNotFound", err)
	}
}
