// Package models defines data structures for the podcast RAG pipeline.
package models

import "strings"

// EpisodeMetadata describes a podcast episode as produced by ingestion.
// EpisodeNumber is nil for documents whose filename carried no number.
type EpisodeMetadata struct {
	EpisodeNumber *int     `json:"episode_number,omitempty"`
	EpisodeName   string   `json:"episode_name"`
	EpisodeTags   []string `json:"episode_tags,omitempty"`
	FileID        string   `json:"file_id,omitempty"`
}

// Number returns the episode number, or 0 when it is missing.
// Missing numbers sort first in episode listings.
func (m EpisodeMetadata) Number() int {
	if m.EpisodeNumber == nil {
		return 0
	}
	return *m.EpisodeNumber
}

// HasTag reports whether the episode carries the given tag (case-insensitive).
func (m EpisodeMetadata) HasTag(tag string) bool {
	for _, t := range m.EpisodeTags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// EpisodeDocument is a retrieved corpus document plus its episode metadata.
// Documents are read-only to the pipeline; shaping always builds new values.
type EpisodeDocument struct {
	Content  string          `json:"content"`
	Metadata EpisodeMetadata `json:"metadata"`
}

// FormatDocuments joins document contents into a single context block
// for LLM consumption.
func FormatDocuments(docs []EpisodeDocument) string {
	parts := make([]string, 0, len(docs))
	for _, doc := range docs {
		parts = append(parts, doc.Content)
	}
	return strings.Join(parts, "\n\n")
}

// IntPtr returns a pointer to n. Convenience for building metadata literals.
func IntPtr(n int) *int {
	return &n
}
