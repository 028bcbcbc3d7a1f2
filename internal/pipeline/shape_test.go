package pipeline

import (
	"fmt"
	"strings"
	"testing"

	"github.com/raphaelgruber/podrag-go/internal/models"
)

func doc(num int, name string, tags ...string) models.EpisodeDocument {
	return models.EpisodeDocument{
		Content: fmt.Sprintf("transcript of episode %d", num),
		Metadata: models.EpisodeMetadata{
			EpisodeNumber: models.IntPtr(num),
			EpisodeName:   name,
			EpisodeTags:   tags,
		},
	}
}

func TestShapeEnumeration(t *testing.T) {
	docs := []models.EpisodeDocument{
		doc(85, "Episode 85 - Bubble Trouble.mp3", "bubble", "tournament"),
		doc(12, "12: Early Days.txt", "theory"),
		doc(200, "Deep Stacks", "cash game"),
	}

	set := Shape(Intent{Kind: KindSearchByTags, EpisodeTags: []string{"bubble"}}, docs)

	if !set.HasCountMarker {
		t.Fatal("expected count marker")
	}
	if set.TotalCount != 3 {
		t.Errorf("TotalCount = %d, want 3", set.TotalCount)
	}
	// Marker comes first; entries follow it.
	if got := len(set.Documents); got != 4 {
		t.Fatalf("len(Documents) = %d, want 4", got)
	}
	marker := set.Documents[0].Content
	if !strings.HasPrefix(marker, "TOTAL_EPISODES: 3") {
		t.Errorf("marker missing total: %q", marker)
	}
	if !strings.Contains(marker, "LIST ALL 3 EPISODES") {
		t.Errorf("marker missing listing rule: %q", marker)
	}

	// Entries ordered by episode number with contiguous indices.
	wantOrder := []int{12, 85, 200}
	for i, num := range wantOrder {
		entry := set.Documents[i+1].Content
		if !strings.HasPrefix(entry, fmt.Sprintf("EPISODE_ENTRY_%d\n", i+1)) {
			t.Errorf("entry %d has wrong index prefix: %q", i, entry)
		}
		if !strings.Contains(entry, fmt.Sprintf("Episode %d:", num)) {
			t.Errorf("entry %d should be episode %d: %q", i, num, entry)
		}
	}

	// Titles are cleaned of extensions and series prefixes.
	if !strings.Contains(set.Documents[2].Content, "Episode 85: Bubble Trouble\n") {
		t.Errorf("title not cleaned: %q", set.Documents[2].Content)
	}
}

func TestShapeEnumerationCountInvariant(t *testing.T) {
	for n := 1; n <= 7; n++ {
		docs := make([]models.EpisodeDocument, n)
		for i := range docs {
			docs[i] = doc(i+1, fmt.Sprintf("Ep %d", i+1), "bubble")
		}
		set := Shape(Intent{Kind: KindSearchByTags}, docs)
		if set.TotalCount != len(set.Documents)-1 {
			t.Errorf("n=%d: TotalCount %d != entries %d", n, set.TotalCount, len(set.Documents)-1)
		}
	}
}

func TestShapeEnumerationEmpty(t *testing.T) {
	set := Shape(Intent{Kind: KindSearchByTags, EpisodeTags: []string{"satellites"}}, nil)

	if set.HasCountMarker {
		t.Error("empty result must not carry a count marker")
	}
	if len(set.Documents) != 1 || !strings.Contains(set.Documents[0].Content, "NO_MATCHING_EPISODES") {
		t.Errorf("want single no-match document, got %+v", set.Documents)
	}
}

func TestShapeSummary(t *testing.T) {
	set := Shape(Intent{Kind: KindSummary, EpisodeNumbers: []int{85}},
		[]models.EpisodeDocument{doc(85, "Bubble Trouble", "bubble", "icm")})

	if len(set.Documents) != 1 {
		t.Fatalf("len(Documents) = %d, want 1", len(set.Documents))
	}
	content := set.Documents[0].Content
	if !strings.HasPrefix(content, "transcript of episode 85") {
		t.Errorf("summary content replaced instead of preserved: %q", content)
	}
	if !strings.HasSuffix(content, "Tags: bubble, icm") {
		t.Errorf("tags suffix missing: %q", content)
	}
}

func TestShapeSummaryEmpty(t *testing.T) {
	set := Shape(Intent{Kind: KindSummary, EpisodeNumbers: []int{9999}}, nil)
	if len(set.Documents) != 1 || !strings.Contains(set.Documents[0].Content, "NO_EPISODE_RECORD") {
		t.Errorf("want no-record document, got %+v", set.Documents)
	}
}

func TestShapeEpisodeTags(t *testing.T) {
	set := Shape(Intent{Kind: KindTagsInEpisode, EpisodeNumbers: []int{85}},
		[]models.EpisodeDocument{doc(85, "Bubble Trouble", "bubble", "icm")})

	content := set.Documents[0].Content
	for _, want := range []string{"Episode 85: Bubble Trouble", "- bubble", "- icm"} {
		if !strings.Contains(content, want) {
			t.Errorf("missing %q in %q", want, content)
		}
	}
}

func TestShapeEpisodeTagsNone(t *testing.T) {
	set := Shape(Intent{Kind: KindTagsInEpisode, EpisodeNumbers: []int{3}},
		[]models.EpisodeDocument{doc(3, "Quiet One")})

	if !strings.Contains(set.Documents[0].Content, "(no tags recorded)") {
		t.Errorf("untagged episode must say so explicitly: %q", set.Documents[0].Content)
	}
}

func TestShapeOtherFallback(t *testing.T) {
	set := Shape(OtherIntent(""), nil)
	if len(set.Documents) != 1 || set.Documents[0].Content == "" {
		t.Errorf("want capability fallback document, got %+v", set.Documents)
	}

	set = Shape(OtherIntent("custom reply"), nil)
	if set.Documents[0].Content != "custom reply" {
		t.Errorf("classifier message not used: %q", set.Documents[0].Content)
	}

	// Stray retrieved documents never leak into an off-topic answer.
	set = Shape(OtherIntent("custom reply"), []models.EpisodeDocument{doc(1, "Ep 1")})
	if len(set.Documents) != 1 || set.Documents[0].Content != "custom reply" {
		t.Errorf("retrieved documents leaked into other-intent set: %+v", set.Documents)
	}
}

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Episode 85 - Bubble Trouble.mp3", "Bubble Trouble"},
		{"#12: Early Days.txt", "Early Days"},
		{"  Deep Stacks  ", "Deep Stacks"},
		{"85 - River Decisions", "River Decisions"},
		{"Untitled", "Untitled"},
	}
	for _, tt := range tests {
		if got := cleanTitle(tt.in); got != tt.want {
			t.Errorf("cleanTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
