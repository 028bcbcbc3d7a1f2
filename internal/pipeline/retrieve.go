package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/raphaelgruber/podrag-go/internal/catalog"
	"github.com/raphaelgruber/podrag-go/internal/filter"
	"github.com/raphaelgruber/podrag-go/internal/index"
	"github.com/raphaelgruber/podrag-go/internal/models"
)

// ErrRetrieval wraps index failures. It is an infrastructure failure,
// surfaced to the caller; an empty result set is NOT this error.
var ErrRetrieval = errors.New("retrieval failed")

const (
	// kEnumeration is the breadth for episode-enumeration intents;
	// wide enough to cover every episode carrying a popular tag.
	kEnumeration = 50

	// kFreeform is the breadth for free-form context retrieval.
	kFreeform = 4
)

// retriever executes similarity searches for one request. It memoizes
// (query, filter) pairs so a request never issues duplicate index
// calls; it is not safe for use across requests.
type retriever struct {
	index  index.VectorIndex
	tags   *catalog.TagSet
	logger *slog.Logger
	memo   map[string][]models.EpisodeDocument
}

func newRetriever(idx index.VectorIndex, tags *catalog.TagSet, logger *slog.Logger) *retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &retriever{
		index:  idx,
		tags:   tags,
		logger: logger,
		memo:   make(map[string][]models.EpisodeDocument),
	}
}

// breadth returns the intent-dependent k.
func breadth(in Intent) int {
	switch {
	case in.enumeration():
		return kEnumeration
	case in.Kind == KindSummary:
		// One hit per requested episode, never narrower than free-form.
		if n := len(in.EpisodeNumbers); n > kFreeform {
			return n
		}
		return kFreeform
	default:
		return kFreeform
	}
}

// Retrieve executes the retrieval policy for an intent.
//
// list_tags never touches the index: the catalogue itself is the
// result. Off-topic questions skip retrieval too; their answer is the
// classifier's canned message. A filtered search returning nothing is
// a legitimate zero-match outcome and is returned as such, never
// retried without the filter.
func (r *retriever) Retrieve(ctx context.Context, question string, in Intent, f filter.Filter) ([]models.EpisodeDocument, error) {
	if in.Kind == KindListTags {
		return []models.EpisodeDocument{{Content: r.tags.Catalogue()}}, nil
	}
	if in.Kind == KindOther {
		return nil, nil
	}

	k := breadth(in)
	key := fmt.Sprintf("%s|%d|%s", question, k, f.String())
	if docs, ok := r.memo[key]; ok {
		r.logger.Debug("retrieval memo hit", "filter", f.String())
		return docs, nil
	}

	docs, err := r.index.SimilaritySearch(ctx, question, k, f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrieval, err)
	}

	r.logger.Debug("retrieved documents",
		"kind", in.Kind, "k", k, "filter", f.String(), "count", len(docs))

	r.memo[key] = docs
	return docs, nil
}
