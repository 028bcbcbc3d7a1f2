package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/raphaelgruber/podrag-go/internal/catalog"
	"github.com/raphaelgruber/podrag-go/internal/history"
	"github.com/raphaelgruber/podrag-go/internal/index"
	"github.com/raphaelgruber/podrag-go/internal/metrics"
	"github.com/raphaelgruber/podrag-go/internal/models"
)

// ErrStreamInterrupted reports a generation stream cut short by the
// caller cancelling the request. The partial answer is discarded and
// no history is written.
var ErrStreamInterrupted = errors.New("stream interrupted")

// ChatModel is the model capability the pipeline consumes. *llm.Client
// satisfies it.
type ChatModel interface {
	CompleteStructured(ctx context.Context, prompt string) (string, error)
	Complete(ctx context.Context, system, user string) (string, error)
	StreamChat(ctx context.Context, systemPrompt string, history []models.ConversationTurn, question string, onToken func(token string) error) (string, error)
}

// ModelFactory resolves a model id to a ready chat model. Unknown ids
// must fail with llm.ErrUnsupportedModel.
type ModelFactory func(ctx context.Context, modelID string) (ChatModel, error)

// StageError identifies which stage of the pipeline failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Config wires a Pipeline.
type Config struct {
	Models        ModelFactory
	Index         index.VectorIndex
	History       history.Store
	Tags          *catalog.TagSet
	PromptVariant Variant
	HistoryWindow int
	Metrics       *metrics.Collector
	Logger        *slog.Logger
}

// Pipeline answers questions over the episode archive. It is safe for
// concurrent use; per-request state lives on the stack.
type Pipeline struct {
	models        ModelFactory
	index         index.VectorIndex
	history       history.Store
	tags          *catalog.TagSet
	variant       Variant
	historyWindow int
	metrics       *metrics.Collector
	logger        *slog.Logger
}

// New creates a Pipeline from its wiring.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Models == nil {
		return nil, fmt.Errorf("model factory required")
	}
	if cfg.Index == nil {
		return nil, fmt.Errorf("vector index required")
	}
	if cfg.History == nil {
		return nil, fmt.Errorf("history store required")
	}
	tags := cfg.Tags
	if tags == nil {
		tags = catalog.Default()
	}
	window := cfg.HistoryWindow
	if window <= 0 {
		window = 3
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	collector := cfg.Metrics
	if collector == nil {
		collector = metrics.NewCollector()
	}
	return &Pipeline{
		models:        cfg.Models,
		index:         cfg.Index,
		history:       cfg.History,
		tags:          tags,
		variant:       cfg.PromptVariant,
		historyWindow: window,
		metrics:       collector,
		logger:        logger,
	}, nil
}

// Metrics exposes the pipeline's collector.
func (p *Pipeline) Metrics() *metrics.Collector { return p.metrics }

// Answer runs the full flow for one query, streaming answer tokens
// through onToken, and returns the complete answer text.
//
// The session history is extended with the user's original question and
// the finished answer, in that order, only after generation succeeds.
// A cancelled stream leaves the session untouched.
func (p *Pipeline) Answer(ctx context.Context, q models.Query, onToken func(token string) error) (string, error) {
	model, err := p.models(ctx, q.ModelID)
	if err != nil {
		return "", fmt.Errorf("resolve model %q: %w", q.ModelID, err)
	}
	if onToken == nil {
		onToken = func(string) error { return nil }
	}

	turns, err := p.history.Get(ctx, q.SessionID)
	if err != nil {
		return "", fmt.Errorf("load history: %w", err)
	}
	recent := models.LastTurns(turns, p.historyWindow*2)

	// Rewrite the question to stand alone before classification so
	// both classification and retrieval see resolved references.
	start := time.Now()
	question, err := Rewrite(ctx, model, recent, q.Text, p.logger)
	if err != nil {
		p.metrics.RecordFailure(metrics.StageRewrite)
		return "", &StageError{Stage: metrics.StageRewrite, Err: err}
	}
	p.metrics.RecordTiming(metrics.StageRewrite, time.Since(start))

	start = time.Now()
	classifier := NewClassifier(model, p.tags, p.logger)
	intent := classifier.Classify(ctx, question, recent)
	p.metrics.RecordTiming(metrics.StageClassify, time.Since(start))
	p.logger.Info("classified question",
		"session", q.SessionID,
		"kind", intent.Kind,
		"numbers", intent.EpisodeNumbers,
		"tags", intent.EpisodeTags)

	f := Synthesize(intent)

	start = time.Now()
	r := newRetriever(p.index, p.tags, p.logger)
	docs, err := r.Retrieve(ctx, question, intent, f)
	if err != nil {
		p.metrics.RecordFailure(metrics.StageRetrieve)
		return "", &StageError{Stage: metrics.StageRetrieve, Err: err}
	}
	p.metrics.RecordTiming(metrics.StageRetrieve, time.Since(start))

	start = time.Now()
	set := Shape(intent, docs)
	p.metrics.RecordTiming(metrics.StageShape, time.Since(start))

	system, err := systemPrompt(p.variant, set.Context())
	if err != nil {
		return "", &StageError{Stage: metrics.StageGenerate, Err: err}
	}

	start = time.Now()
	answer, err := model.StreamChat(ctx, system, recent, question, onToken)
	if err != nil {
		p.metrics.RecordFailure(metrics.StageGenerate)
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %v", ErrStreamInterrupted, ctx.Err())
		}
		return "", &StageError{Stage: metrics.StageGenerate, Err: err}
	}
	if ctx.Err() != nil {
		p.metrics.RecordFailure(metrics.StageGenerate)
		return "", fmt.Errorf("%w: %v", ErrStreamInterrupted, ctx.Err())
	}
	p.metrics.RecordTiming(metrics.StageGenerate, time.Since(start))
	p.metrics.RecordTokens(metrics.StageGenerate, int64(len(answer)/4))

	now := time.Now().UTC()
	userTurn := models.ConversationTurn{Role: models.RoleUser, Content: q.Text, CreatedAt: now}
	if err := p.history.Append(ctx, q.SessionID, userTurn); err != nil {
		return answer, fmt.Errorf("append user turn: %w", err)
	}
	aiTurn := models.ConversationTurn{Role: models.RoleAI, Content: answer, CreatedAt: now.Add(time.Millisecond)}
	if err := p.history.Append(ctx, q.SessionID, aiTurn); err != nil {
		return answer, fmt.Errorf("append assistant turn: %w", err)
	}

	return answer, nil
}

// PurgeHistory deletes a session's conversation history.
func (p *Pipeline) PurgeHistory(ctx context.Context, sessionID string) error {
	return p.history.Delete(ctx, sessionID)
}
