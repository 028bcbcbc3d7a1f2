// Package pipeline implements the query-understanding and
// context-assembly engine: intent classification, filter synthesis,
// retrieval, result shaping, standalone-question rewriting, and the
// streaming answer orchestrator.
package pipeline

// Kind enumerates the request taxonomy.
type Kind string

const (
	KindSearchByTags  Kind = "search_by_tags"
	KindSummary       Kind = "summary"
	KindTagsInEpisode Kind = "tags_in_episode"
	KindListTags      Kind = "list_tags"
	KindOther         Kind = "other"
)

// Intent is the classified form of a user request. Exactly one Kind is
// active; entity fields are populated only where the kind uses them.
type Intent struct {
	Kind           Kind
	EpisodeNumbers []int
	EpisodeTags    []string
	RequireAllTags bool

	// Message carries the classifier's canned reply for KindOther.
	Message string
}

// OtherIntent builds the conservative fallback intent with no entities.
func OtherIntent(message string) Intent {
	return Intent{Kind: KindOther, Message: message}
}

// enumeration reports whether the intent enumerates episodes and thus
// retrieves with the wide k.
func (in Intent) enumeration() bool {
	return in.Kind == KindSearchByTags || in.Kind == KindTagsInEpisode
}
