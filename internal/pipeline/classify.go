package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	"github.com/raphaelgruber/podrag-go/internal/catalog"
	"github.com/raphaelgruber/podrag-go/internal/models"
)

// StructuredModel produces a JSON completion for a single prompt.
type StructuredModel interface {
	CompleteStructured(ctx context.Context, prompt string) (string, error)
}

// Classifier maps a raw question plus recent history onto an Intent.
//
// Classification is delegated to the model at temperature 0; everything
// the model returns is re-validated here: tags are lower-cased and
// constrained to the catalogue, episode numbers must be integers.
// Unparseable output degrades to KindOther rather than failing the
// request.
type Classifier struct {
	model  StructuredModel
	tags   *catalog.TagSet
	logger *slog.Logger
}

// NewClassifier creates a classifier over the given model and catalogue.
func NewClassifier(model StructuredModel, tags *catalog.TagSet, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{model: model, tags: tags, logger: logger}
}

// classifierOutput is the JSON shape the prompt asks for. Episode
// numbers decode as loose values so one non-numeric entry drops that
// entry, not the whole classification.
type classifierOutput struct {
	TypeOfRequest  string   `json:"typeOfRequest"`
	EpisodeNumbers []any    `json:"episodeNumbers"`
	EpisodeTags    []string `json:"episodeTags"`
	RequireAllTags bool     `json:"requireAllTags"`
	Message        string   `json:"message"`
}

// Classify determines the intent of a question. It never returns an
// error: model or parse failures are logged and mapped to KindOther
// with no entities.
func (c *Classifier) Classify(ctx context.Context, question string, recentHistory []models.ConversationTurn) Intent {
	prompt, err := classifierPrompt.Format(map[string]any{
		"tags":     c.tags.Catalogue(),
		"history":  renderHistory(recentHistory),
		"question": question,
	})
	if err != nil {
		c.logger.Error("classifier prompt format failed", "error", err)
		return OtherIntent("")
	}

	raw, err := c.model.CompleteStructured(ctx, prompt)
	if err != nil {
		c.logger.Warn("classification call failed, falling back to other", "error", err)
		return OtherIntent("")
	}

	var out classifierOutput
	if err := json.Unmarshal([]byte(extractJSON(raw)), &out); err != nil {
		c.logger.Warn("classification output not parseable, falling back to other",
			"error", err, "output_len", len(raw))
		return OtherIntent("")
	}

	intent := Intent{
		Kind:           parseKind(out.TypeOfRequest),
		EpisodeNumbers: parseEpisodeNumbers(out.EpisodeNumbers),
		EpisodeTags:    c.tags.Normalize(out.EpisodeTags),
		RequireAllTags: out.RequireAllTags,
	}
	if intent.Kind == KindOther {
		return OtherIntent(out.Message)
	}

	c.logger.Debug("classified query",
		"kind", intent.Kind,
		"numbers", intent.EpisodeNumbers,
		"tags", intent.EpisodeTags,
		"require_all", intent.RequireAllTags)
	return intent
}

func parseKind(s string) Kind {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindSearchByTags:
		return KindSearchByTags
	case KindSummary:
		return KindSummary
	case KindTagsInEpisode:
		return KindTagsInEpisode
	case KindListTags:
		return KindListTags
	default:
		return KindOther
	}
}

// parseEpisodeNumbers keeps integral values and drops everything else.
func parseEpisodeNumbers(values []any) []int {
	var out []int
	for _, v := range values {
		switch n := v.(type) {
		case float64:
			if n == float64(int(n)) {
				out = append(out, int(n))
			}
		case string:
			if parsed, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
				out = append(out, parsed)
			}
		}
	}
	return out
}

// extractJSON strips code fences and surrounding prose, returning the
// outermost JSON object. Models occasionally wrap their JSON despite
// instructions.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if start := strings.Index(s, "{"); start >= 0 {
		if end := strings.LastIndex(s, "}"); end > start {
			return s[start : end+1]
		}
	}
	return s
}
