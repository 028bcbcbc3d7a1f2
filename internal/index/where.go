package index

import (
	"fmt"
	"strings"

	"github.com/raphaelgruber/podrag-go/internal/filter"
)

// compileWhere translates a filter tree into a SurrealQL boolean
// expression with bound variables. An empty filter compiles to an empty
// clause.
func compileWhere(f filter.Filter) (string, map[string]any) {
	if f.IsEmpty() {
		return "", map[string]any{}
	}
	c := &whereCompiler{vars: map[string]any{}}
	return c.compile(f.Root()), c.vars
}

type whereCompiler struct {
	vars map[string]any
	n    int
}

func (c *whereCompiler) bind(val any) string {
	name := fmt.Sprintf("w%d", c.n)
	c.n++
	c.vars[name] = val
	return "$" + name
}

func (c *whereCompiler) compile(p filter.Predicate) string {
	switch pred := p.(type) {
	case filter.And:
		return c.join(pred, " AND ")
	case filter.Or:
		return c.join(pred, " OR ")
	case filter.Not:
		return "!(" + c.compile(pred.Pred) + ")"
	case filter.TagHas:
		return fmt.Sprintf("episode_tags CONTAINS %s", c.bind(string(pred)))
	case filter.TagIn:
		return fmt.Sprintf("episode_tags CONTAINSANY %s", c.bind([]string(pred)))
	case filter.NumberIn:
		return fmt.Sprintf("episode_number IN %s", c.bind([]int(pred)))
	case filter.NumberRange:
		var parts []string
		if pred.Min != nil {
			parts = append(parts, fmt.Sprintf("episode_number >= %s", c.bind(*pred.Min)))
		}
		if pred.Max != nil {
			parts = append(parts, fmt.Sprintf("episode_number <= %s", c.bind(*pred.Max)))
		}
		if len(parts) == 0 {
			return "true"
		}
		return "(" + strings.Join(parts, " AND ") + ")"
	case filter.NameIs:
		return fmt.Sprintf("episode_name = %s", c.bind(string(pred)))
	default:
		// Unknown node types match nothing rather than everything, so a
		// future predicate never widens a filtered search unnoticed.
		return "false"
	}
}

func (c *whereCompiler) join(preds []filter.Predicate, op string) string {
	if len(preds) == 0 {
		return "true"
	}
	parts := make([]string, len(preds))
	for i, p := range preds {
		parts[i] = c.compile(p)
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, op) + ")"
}
