package index

import (
	"reflect"
	"testing"

	"github.com/raphaelgruber/podrag-go/internal/filter"
	"github.com/raphaelgruber/podrag-go/internal/models"
)

func TestCompileWhere(t *testing.T) {
	tests := []struct {
		name     string
		filter   filter.Filter
		want     string
		wantVars map[string]any
	}{
		{
			"empty filter",
			filter.Filter{},
			"",
			map[string]any{},
		},
		{
			"tag membership",
			filter.New(filter.TagIn{"flop", "river"}),
			"episode_tags CONTAINSANY $w0",
			map[string]any{"w0": []string{"flop", "river"}},
		},
		{
			"single tag",
			filter.New(filter.TagHas("flop")),
			"episode_tags CONTAINS $w0",
			map[string]any{"w0": "flop"},
		},
		{
			"number set",
			filter.New(filter.NumberIn{100, 200, 300}),
			"episode_number IN $w0",
			map[string]any{"w0": []int{100, 200, 300}},
		},
		{
			"conjunction of tags",
			filter.New(filter.And{filter.TagHas("flop"), filter.TagHas("river")}),
			"(episode_tags CONTAINS $w0 AND episode_tags CONTAINS $w1)",
			map[string]any{"w0": "flop", "w1": "river"},
		},
		{
			"numbers and tags",
			filter.New(filter.And{filter.NumberIn{123}, filter.TagIn{"bubble"}}),
			"(episode_number IN $w0 AND episode_tags CONTAINSANY $w1)",
			map[string]any{"w0": []int{123}, "w1": []string{"bubble"}},
		},
		{
			"negation",
			filter.New(filter.And{filter.TagHas("flop"), filter.Not{Pred: filter.TagHas("river")}}),
			"(episode_tags CONTAINS $w0 AND !(episode_tags CONTAINS $w1))",
			map[string]any{"w0": "flop", "w1": "river"},
		},
		{
			"range",
			filter.New(filter.NumberRange{Min: models.IntPtr(100), Max: models.IntPtr(200)}),
			"(episode_number >= $w0 AND episode_number <= $w1)",
			map[string]any{"w0": 100, "w1": 200},
		},
		{
			"open range",
			filter.New(filter.NumberRange{Min: models.IntPtr(50)}),
			"(episode_number >= $w0)",
			map[string]any{"w0": 50},
		},
		{
			"disjunction",
			filter.New(filter.Or{filter.NumberIn{5}, filter.NameIs("Bubble special")}),
			"(episode_number IN $w0 OR episode_name = $w1)",
			map[string]any{"w0": []int{5}, "w1": "Bubble special"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, vars := compileWhere(tt.filter)
			if got != tt.want {
				t.Errorf("clause = %q, want %q", got, tt.want)
			}
			if !reflect.DeepEqual(vars, tt.wantVars) {
				t.Errorf("vars = %#v, want %#v", vars, tt.wantVars)
			}
		})
	}
}
