// Package index provides vector search over the episode corpus with
// structured pre-filtering.
package index

import (
	"context"

	"github.com/raphaelgruber/podrag-go/internal/filter"
	"github.com/raphaelgruber/podrag-go/internal/models"
)

// VectorIndex is the retrieval capability consumed by the pipeline.
// The index is read-only at query time; scoring and ranking are owned
// by the implementation.
type VectorIndex interface {
	// SimilaritySearch returns up to k documents ranked by similarity to
	// the query, restricted to documents matching the filter. The empty
	// filter matches everything.
	SimilaritySearch(ctx context.Context, query string, k int, f filter.Filter) ([]models.EpisodeDocument, error)
}

// Embedder turns query text into the vector handed to the index.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
