package index

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/raphaelgruber/podrag-go/internal/filter"
	"github.com/raphaelgruber/podrag-go/internal/models"
)

// Memory is an in-process VectorIndex for tests and local development.
// Ranking is naive lexical overlap; filtering is exact.
type Memory struct {
	mu   sync.RWMutex
	docs []models.EpisodeDocument
}

// NewMemory creates a memory index over the given documents.
func NewMemory(docs ...models.EpisodeDocument) *Memory {
	return &Memory{docs: docs}
}

// Add appends documents to the index.
func (m *Memory) Add(docs ...models.EpisodeDocument) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = append(m.docs, docs...)
}

// SimilaritySearch returns up to k filter-matching documents ranked by
// query-term overlap. Ties keep insertion order, which keeps tests
// deterministic.
func (m *Memory) SimilaritySearch(_ context.Context, query string, k int, f filter.Filter) ([]models.EpisodeDocument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	terms := strings.Fields(strings.ToLower(query))

	type scored struct {
		doc   models.EpisodeDocument
		score int
		pos   int
	}
	var matches []scored
	for i, doc := range m.docs {
		if !f.Matches(doc.Metadata) {
			continue
		}
		haystack := strings.ToLower(doc.Content + " " + doc.Metadata.EpisodeName + " " + strings.Join(doc.Metadata.EpisodeTags, " "))
		score := 0
		for _, term := range terms {
			if strings.Contains(haystack, term) {
				score++
			}
		}
		matches = append(matches, scored{doc: doc, score: score, pos: i})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].pos < matches[j].pos
	})

	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}
	out := make([]models.EpisodeDocument, len(matches))
	for i, m := range matches {
		out[i] = m.doc
	}
	return out, nil
}
