package pipeline

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/raphaelgruber/podrag-go/internal/models"
)

// RetrievedSet is the shaped context handed to the generation stage.
// For enumeration intents TotalCount reports the number of episode
// entries, and the marker document reminding the model to list every
// one of them is appended last.
type RetrievedSet struct {
	Kind           Kind
	Documents      []models.EpisodeDocument
	TotalCount     int
	HasCountMarker bool
}

// Context renders the set as the prompt context block.
func (s RetrievedSet) Context() string {
	return models.FormatDocuments(s.Documents)
}

const (
	noMatchingEpisodes = "NO_MATCHING_EPISODES: no episodes match the requested filters."
	noEpisodeRecord    = "NO_EPISODE_RECORD: the requested episode is not in the archive."
)

// seriesPrefix strips leading series labels such as "Episode 123 -" or
// "#123:" from stored titles before display.
var seriesPrefix = regexp.MustCompile(`^(?i)(episode\s*)?#?\d+\s*[-:–]\s*`)

func cleanTitle(name string) string {
	name = strings.TrimSpace(name)
	if ext := filepath.Ext(name); ext != "" && len(ext) <= 5 {
		name = strings.TrimSuffix(name, ext)
	}
	name = seriesPrefix.ReplaceAllString(name, "")
	return strings.TrimSpace(name)
}

// Shape turns raw retrieval output into the model-facing context for
// the given intent. It is pure: same inputs, same output.
func Shape(in Intent, docs []models.EpisodeDocument) RetrievedSet {
	switch in.Kind {
	case KindSearchByTags:
		return shapeEnumeration(docs)
	case KindSummary:
		return shapeSummary(in, docs)
	case KindTagsInEpisode:
		return shapeEpisodeTags(in, docs)
	case KindListTags:
		return RetrievedSet{Kind: in.Kind, Documents: docs, TotalCount: len(docs)}
	default:
		return shapeOther(in, docs)
	}
}

// shapeEnumeration numbers every matching episode and prepends the
// count marker. The marker's count always equals the number of entry
// documents following it.
func shapeEnumeration(docs []models.EpisodeDocument) RetrievedSet {
	if len(docs) == 0 {
		return RetrievedSet{
			Kind:      KindSearchByTags,
			Documents: []models.EpisodeDocument{{Content: noMatchingEpisodes}},
		}
	}

	ordered := make([]models.EpisodeDocument, len(docs))
	copy(ordered, docs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Metadata.Number() < ordered[j].Metadata.Number()
	})

	marker := fmt.Sprintf(
		"TOTAL_EPISODES: %d\n!!!IMPORTANT!!! YOU MUST LIST ALL %d EPISODES IN YOUR RESPONSE\n!!!IMPORTANT!!! DO NOT SKIP ANY EPISODES\n---",
		len(ordered), len(ordered))

	shaped := make([]models.EpisodeDocument, 0, len(ordered)+1)
	shaped = append(shaped, models.EpisodeDocument{Content: marker})
	for i, doc := range ordered {
		entry := fmt.Sprintf("EPISODE_ENTRY_%d\nEpisode %d: %s\nTags: %s",
			i+1,
			doc.Metadata.Number(),
			cleanTitle(doc.Metadata.EpisodeName),
			strings.Join(doc.Metadata.EpisodeTags, ", "))
		shaped = append(shaped, models.EpisodeDocument{Content: entry, Metadata: doc.Metadata})
	}

	return RetrievedSet{
		Kind:           KindSearchByTags,
		Documents:      shaped,
		TotalCount:     len(ordered),
		HasCountMarker: true,
	}
}

func shapeSummary(in Intent, docs []models.EpisodeDocument) RetrievedSet {
	if len(docs) == 0 {
		return RetrievedSet{
			Kind:      in.Kind,
			Documents: []models.EpisodeDocument{{Content: noEpisodeRecord}},
		}
	}

	shaped := make([]models.EpisodeDocument, 0, len(docs))
	for _, doc := range docs {
		content := doc.Content
		if len(doc.Metadata.EpisodeTags) > 0 {
			content += "\n\nTags: " + strings.Join(doc.Metadata.EpisodeTags, ", ")
		}
		shaped = append(shaped, models.EpisodeDocument{Content: content, Metadata: doc.Metadata})
	}
	return RetrievedSet{Kind: in.Kind, Documents: shaped, TotalCount: len(shaped)}
}

func shapeEpisodeTags(in Intent, docs []models.EpisodeDocument) RetrievedSet {
	if len(docs) == 0 {
		return RetrievedSet{
			Kind:      in.Kind,
			Documents: []models.EpisodeDocument{{Content: noEpisodeRecord}},
		}
	}

	shaped := make([]models.EpisodeDocument, 0, len(docs))
	for _, doc := range docs {
		var b strings.Builder
		fmt.Fprintf(&b, "Episode %d: %s\n", doc.Metadata.Number(), cleanTitle(doc.Metadata.EpisodeName))
		if len(doc.Metadata.EpisodeTags) == 0 {
			b.WriteString("- (no tags recorded)")
		} else {
			for i, tag := range doc.Metadata.EpisodeTags {
				if i > 0 {
					b.WriteByte('\n')
				}
				b.WriteString("- " + tag)
			}
		}
		shaped = append(shaped, models.EpisodeDocument{Content: b.String(), Metadata: doc.Metadata})
	}
	return RetrievedSet{Kind: in.Kind, Documents: shaped, TotalCount: len(shaped)}
}

// shapeOther ignores retrieved documents: off-topic questions answer
// with the classifier's canned message, never with corpus content.
func shapeOther(in Intent, _ []models.EpisodeDocument) RetrievedSet {
	content := in.Message
	if strings.TrimSpace(content) == "" {
		content = "I can search episodes by topic tags, summarise individual episodes, list an episode's tags, or show the full tag catalogue."
	}
	return RetrievedSet{Kind: in.Kind, Documents: []models.EpisodeDocument{{Content: content}}}
}
