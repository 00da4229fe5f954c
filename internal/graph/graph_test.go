package graph_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/avid-platform/avid/internal/blocks"
	"github.com/avid-platform/avid/internal/graph"
)

func block(label string, ordinal int, refs ...string) blocks.Block {
	return blocks.Block{
		Label:      label,
		Kind:       blocks.KindLemma,
		Ordinal:    ordinal,
		Content:    label,
		References: refs,
	}
}

func TestBuildDiamond(t *testing.T) {
	g, err := graph.Build([]blocks.Block{
		block("def:a", 1),
		block("lem:b", 2, "def:a"),
		block("lem:c", 3, "def:a"),
		block("thm:d", 4, "lem:b", "lem:c"),
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if g.Len() != 4 {
		t.Errorf("Len = %d, want 4", g.Len())
	}
	if deps := g.Dependencies("thm:d"); !slices.Equal(deps, []string{"lem:b", "lem:c"}) {
		t.Errorf("thm:d deps = %v", deps)
	}
	if deps := g.Dependents("def:a"); !slices.Equal(deps, []string{"lem:b", "lem:c"}) {
		t.Errorf("def:a dependents = %v", deps)
	}

	degrees := g.InDegrees()
	want := map[string]int{"def:a": 0, "lem:b": 1, "lem:c": 1, "thm:d": 2}
	for label, deg := range want {
		if degrees[label] != deg {
			t.Errorf("indegree(%s) = %d, want %d", label, degrees[label], deg)
		}
	}
}

func TestBuildCollapsesDuplicateReferences(t *testing.T) {
	g, err := graph.Build([]blocks.Block{
		block("def:a", 1),
		block("thm:b", 2, "def:a", "def:a", "def:a"),
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if deps := g.Dependencies("thm:b"); !slices.Equal(deps, []string{"def:a"}) {
		t.Errorf("thm:b deps = %v, want single def:a", deps)
	}
	if g.InDegrees()["thm:b"] != 1 {
		t.Errorf("indegree(thm:b) = %d, want 1", g.InDegrees()["thm:b"])
	}
}

func TestBuildRejectsDuplicateLabel(t *testing.T) {
	_, err := graph.Build([]blocks.Block{
		block("lem:a", 1),
		block("lem:a", 2),
	})

	var dup *graph.DuplicateLabelError
	if !errors.As(err, &dup) {
		t.Fatalf("err = %v, want *graph.DuplicateLabelError", err)
	}
	if dup.Label != "lem:a" {
		t.Errorf("label = %s, want lem:a", dup.Label)
	}
}

func TestBuildRejectsDanglingReference(t *testing.T) {
	_, err := graph.Build([]blocks.Block{
		block("thm:a", 1, "lem:ghost"),
	})

	var dangling *graph.DanglingReferenceError
	if !errors.As(err, &dangling) {
		t.Fatalf("err = %v, want *graph.DanglingReferenceError", err)
	}
	if dangling.Block != "thm:a" || dangling.Target != "lem:ghost" {
		t.Errorf("dangling = %+v", dangling)
	}
}

func TestBuildRejectsTwoCycle(t *testing.T) {
	_, err := graph.Build([]blocks.Block{
		block("lem:a", 1, "lem:b"),
		block("lem:b", 2, "lem:a"),
	})

	var cycle *graph.CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("err = %v, want *graph.CycleError", err)
	}

	got := slices.Clone(cycle.Cycle)
	slices.Sort(got)
	if !slices.Equal(got, []string{"lem:a", "lem:b"}) {
		t.Errorf("cycle = %v, want both labels", cycle.Cycle)
	}
}

func TestBuildRejectsSelfReference(t *testing.T) {
	_, err := graph.Build([]blocks.Block{
		block("lem:a", 1, "lem:a"),
	})

	var cycle *graph.CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("err = %v, want *graph.CycleError", err)
	}
	if !slices.Equal(cycle.Cycle, []string{"lem:a"}) {
		t.Errorf("cycle = %v, want [lem:a]", cycle.Cycle)
	}
}

func TestIsStructural(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"duplicate", &graph.DuplicateLabelError{Label: "a"}, true},
		{"dangling", &graph.DanglingReferenceError{Block: "a", Target: "b"}, true},
		{"cycle", &graph.CycleError{Cycle: []string{"a"}}, true},
		{"other", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := graph.IsStructural(tt.err); got != tt.want {
				t.Errorf("IsStructural = %v, want %v", got, tt.want)
			}
		})
	}
}
