package pipeline

import "github.com/raphaelgruber/podrag-go/internal/filter"

// Synthesize converts an intent into a retrieval filter. It is a pure
// function of the intent: identical intents always yield identical
// filters.
//
// When both episode numbers and tags are present the constraints
// combine conjunctively; the numeric constraint is authoritative for
// episode identity and the tag constraint narrows within it.
func Synthesize(in Intent) filter.Filter {
	// list_tags and other bypass filtered retrieval entirely.
	if in.Kind == KindListTags || in.Kind == KindOther {
		return filter.Filter{}
	}

	var preds []filter.Predicate

	if len(in.EpisodeNumbers) > 0 {
		nums := make(filter.NumberIn, len(in.EpisodeNumbers))
		copy(nums, in.EpisodeNumbers)
		preds = append(preds, nums)
	}

	if len(in.EpisodeTags) > 0 {
		if in.RequireAllTags && len(in.EpisodeTags) > 1 {
			// AND semantics: the episode must carry every listed tag.
			all := make(filter.And, 0, len(in.EpisodeTags))
			for _, tag := range in.EpisodeTags {
				all = append(all, filter.TagHas(tag))
			}
			preds = append(preds, all)
		} else {
			// OR semantics: any listed tag matches.
			tags := make(filter.TagIn, len(in.EpisodeTags))
			copy(tags, in.EpisodeTags)
			preds = append(preds, tags)
		}
	}

	switch len(preds) {
	case 0:
		return filter.Filter{}
	case 1:
		return filter.New(preds[0])
	default:
		return filter.New(filter.And(preds))
	}
}
