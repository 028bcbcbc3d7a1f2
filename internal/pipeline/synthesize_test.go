package pipeline

import (
	"testing"

	"github.com/raphaelgruber/podrag-go/internal/models"
)

func TestSynthesize(t *testing.T) {
	meta := func(num int, tags ...string) models.EpisodeMetadata {
		return models.EpisodeMetadata{EpisodeNumber: models.IntPtr(num), EpisodeTags: tags}
	}

	tests := []struct {
		name    string
		intent  Intent
		match   []models.EpisodeMetadata
		noMatch []models.EpisodeMetadata
	}{
		{
			name:   "tags any-of",
			intent: Intent{Kind: KindSearchByTags, EpisodeTags: []string{"bubble", "icm"}},
			match: []models.EpisodeMetadata{
				meta(1, "bubble"),
				meta(2, "icm", "tournament"),
			},
			noMatch: []models.EpisodeMetadata{
				meta(3, "cash game"),
				meta(4),
			},
		},
		{
			name:   "tags all-of",
			intent: Intent{Kind: KindSearchByTags, EpisodeTags: []string{"bubble", "icm"}, RequireAllTags: true},
			match: []models.EpisodeMetadata{
				meta(1, "bubble", "icm", "tournament"),
			},
			noMatch: []models.EpisodeMetadata{
				meta(2, "bubble"),
				meta(3, "icm"),
			},
		},
		{
			name:   "numbers only",
			intent: Intent{Kind: KindSummary, EpisodeNumbers: []int{12, 85}},
			match: []models.EpisodeMetadata{
				meta(12, "theory"),
				meta(85),
			},
			noMatch: []models.EpisodeMetadata{
				meta(13),
			},
		},
		{
			name:   "numbers and tags conjunctive",
			intent: Intent{Kind: KindSearchByTags, EpisodeNumbers: []int{85}, EpisodeTags: []string{"bubble"}},
			match: []models.EpisodeMetadata{
				meta(85, "bubble"),
			},
			noMatch: []models.EpisodeMetadata{
				meta(85, "icm"),
				meta(12, "bubble"),
			},
		},
		{
			name:   "list tags is unfiltered",
			intent: Intent{Kind: KindListTags},
			match: []models.EpisodeMetadata{
				meta(1),
				meta(2, "anything"),
			},
		},
		{
			name:   "other is unfiltered",
			intent: OtherIntent("hello"),
			match: []models.EpisodeMetadata{
				meta(1),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Synthesize(tt.intent)
			for _, m := range tt.match {
				if !f.Matches(m) {
					t.Errorf("filter %s should match %+v", f.String(), m)
				}
			}
			for _, m := range tt.noMatch {
				if f.Matches(m) {
					t.Errorf("filter %s should not match %+v", f.String(), m)
				}
			}
		})
	}
}

func TestSynthesizeDeterministic(t *testing.T) {
	in := Intent{Kind: KindSearchByTags, EpisodeNumbers: []int{85, 12}, EpisodeTags: []string{"icm", "bubble"}}
	a := Synthesize(in)
	b := Synthesize(in)
	if a.String() != b.String() {
		t.Errorf("same intent produced different filters: %s vs %s", a.String(), b.String())
	}
}
