// Package filter provides the structured predicate tree used to narrow
// vector search over episode metadata.
package filter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/raphaelgruber/podrag-go/internal/models"
)

// Predicate is a node of the filter tree. Implementations are value
// types; a Predicate never mutates the metadata it inspects.
type Predicate interface {
	// Matches evaluates the predicate against episode metadata.
	Matches(meta models.EpisodeMetadata) bool

	// String renders a canonical representation, used for logging and
	// request-scoped retrieval memoization.
	String() string
}

// Filter wraps an optional predicate root. The zero value is a valid
// "match all" filter, never nil-invalid.
type Filter struct {
	root Predicate
}

// New builds a filter from a predicate. New(nil) is match-all.
func New(p Predicate) Filter {
	return Filter{root: p}
}

// IsEmpty reports whether the filter matches everything.
func (f Filter) IsEmpty() bool {
	return f.root == nil
}

// Root returns the predicate tree, or nil for match-all.
func (f Filter) Root() Predicate {
	return f.root
}

// Matches evaluates the filter; the empty filter matches all metadata.
func (f Filter) Matches(meta models.EpisodeMetadata) bool {
	if f.root == nil {
		return true
	}
	return f.root.Matches(meta)
}

func (f Filter) String() string {
	if f.root == nil {
		return "all"
	}
	return f.root.String()
}

// And matches when every child matches. An empty And matches all.
type And []Predicate

func (a And) Matches(meta models.EpisodeMetadata) bool {
	for _, p := range a {
		if !p.Matches(meta) {
			return false
		}
	}
	return true
}

func (a And) String() string {
	return "and(" + joinPredicates(a) + ")"
}

// Or matches when any child matches. An empty Or matches nothing.
type Or []Predicate

func (o Or) Matches(meta models.EpisodeMetadata) bool {
	for _, p := range o {
		if p.Matches(meta) {
			return true
		}
	}
	return false
}

func (o Or) String() string {
	return "or(" + joinPredicates(o) + ")"
}

// Not negates its child.
type Not struct {
	Pred Predicate
}

func (n Not) Matches(meta models.EpisodeMetadata) bool {
	return !n.Pred.Matches(meta)
}

func (n Not) String() string {
	return "not(" + n.Pred.String() + ")"
}

// TagHas matches episodes carrying the given tag.
type TagHas string

func (t TagHas) Matches(meta models.EpisodeMetadata) bool {
	return meta.HasTag(string(t))
}

func (t TagHas) String() string {
	return fmt.Sprintf("tag=%s", string(t))
}

// TagIn matches episodes carrying at least one of the given tags
// (set-membership, OR semantics).
type TagIn []string

func (t TagIn) Matches(meta models.EpisodeMetadata) bool {
	for _, tag := range t {
		if meta.HasTag(tag) {
			return true
		}
	}
	return false
}

func (t TagIn) String() string {
	sorted := append([]string(nil), t...)
	sort.Strings(sorted)
	return "tag_in[" + strings.Join(sorted, ",") + "]"
}

// NumberIn matches episodes whose number is in the given set. Episodes
// without a number never match a numeric constraint.
type NumberIn []int

func (n NumberIn) Matches(meta models.EpisodeMetadata) bool {
	if meta.EpisodeNumber == nil {
		return false
	}
	for _, num := range n {
		if *meta.EpisodeNumber == num {
			return true
		}
	}
	return false
}

func (n NumberIn) String() string {
	sorted := append([]int(nil), n...)
	sort.Ints(sorted)
	parts := make([]string, len(sorted))
	for i, num := range sorted {
		parts[i] = fmt.Sprintf("%d", num)
	}
	return "number_in[" + strings.Join(parts, ",") + "]"
}

// NumberRange matches episode numbers within [Min, Max]. A nil bound
// is open.
type NumberRange struct {
	Min *int
	Max *int
}

func (r NumberRange) Matches(meta models.EpisodeMetadata) bool {
	if meta.EpisodeNumber == nil {
		return false
	}
	if r.Min != nil && *meta.EpisodeNumber < *r.Min {
		return false
	}
	if r.Max != nil && *meta.EpisodeNumber > *r.Max {
		return false
	}
	return true
}

func (r NumberRange) String() string {
	min, max := "", ""
	if r.Min != nil {
		min = fmt.Sprintf("%d", *r.Min)
	}
	if r.Max != nil {
		max = fmt.Sprintf("%d", *r.Max)
	}
	return fmt.Sprintf("number_range[%s..%s]", min, max)
}

// NameIs matches an exact episode name.
type NameIs string

func (n NameIs) Matches(meta models.EpisodeMetadata) bool {
	return meta.EpisodeName == string(n)
}

func (n NameIs) String() string {
	return fmt.Sprintf("name=%s", string(n))
}

func joinPredicates(preds []Predicate) string {
	parts := make([]string, len(preds))
	for i, p := range preds {
		parts[i] = p.String()
	}
	return strings.Join(parts, ",")
}
