// Package graph builds the dependency graph of a paper from declared block
// references and validates it before any processing begins. Construction is
// a pure function of the block set: nodes are keyed by label with explicit
// in-degree counters, never by live block references, so the graph stays
// independent of block mutation and trivial to rebuild on resumption.
package graph

import (
	"slices"
	"strings"

	"github.com/avid-platform/avid/internal/blocks"
)

// Node is a single block's position in the dependency graph. Deps and
// Dependents hold labels only.
type Node struct {
	Label      string
	Ordinal    int
	Deps       []string
	Dependents []string
}

// Graph is the validated, acyclic dependency graph of one paper.
type Graph struct {
	nodes map[string]*Node
	order []string
}

// Build constructs and validates the graph for a block set. It fails with
// *DuplicateLabelError if two blocks share a label, *DanglingReferenceError
// if a reference names no block in the set, and *CycleError enumerating the
// first cycle found. Duplicate references to the same target collapse into
// a single edge; an edge points from the dependent block to the block it
// depends on.
func Build(blks []blocks.Block) (*Graph, error) {
	g := &Graph{
		nodes: make(map[string]*Node, len(blks)),
		order: make([]string, 0, len(blks)),
	}

	for _, b := range blks {
		if _, ok := g.nodes[b.Label]; ok {
			return nil, &DuplicateLabelError{Label: b.Label}
		}
		g.nodes[b.Label] = &Node{Label: b.Label, Ordinal: b.Ordinal}
		g.order = append(g.order, b.Label)
	}

	for _, b := range blks {
		node := g.nodes[b.Label]
		for _, ref := range b.References {
			target, ok := g.nodes[ref]
			if !ok {
				return nil, &DanglingReferenceError{Block: b.Label, Target: ref}
			}
			if slices.Contains(node.Deps, ref) {
				continue
			}
			node.Deps = append(node.Deps, ref)
			target.Dependents = append(target.Dependents, b.Label)
		}
	}

	for _, n := range g.nodes {
		g.sortLabels(n.Deps)
		g.sortLabels(n.Dependents)
	}

	if cycle := g.findCycle(); cycle != nil {
		return nil, &CycleError{Cycle: cycle}
	}

	return g, nil
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Labels returns all node labels in declaration order.
func (g *Graph) Labels() []string {
	return slices.Clone(g.order)
}

// Node returns the node for a label, or nil if absent.
func (g *Graph) Node(label string) *Node {
	return g.nodes[label]
}

// Dependencies returns the direct dependencies of a block, ordered by the
// deterministic tie-break (ascending ordinal, then label). This ordering is
// what makes context snapshots byte-identical across runs.
func (g *Graph) Dependencies(label string) []string {
	n, ok := g.nodes[label]
	if !ok {
		return nil
	}
	return slices.Clone(n.Deps)
}

// Dependents returns the blocks that directly depend on the given block,
// in the same deterministic order.
func (g *Graph) Dependents(label string) []string {
	n, ok := g.nodes[label]
	if !ok {
		return nil
	}
	return slices.Clone(n.Dependents)
}

// InDegrees returns a fresh map of label to unresolved-dependency count,
// the seed state for Kahn scheduling.
func (g *Graph) InDegrees() map[string]int {
	degrees := make(map[string]int, len(g.nodes))
	for label, n := range g.nodes {
		degrees[label] = len(n.Deps)
	}
	return degrees
}

// findCycle runs a depth-first traversal maintaining an on-stack marker
// set. The first back-edge found defines the reported cycle: the ordered
// list of labels from the back-edge target around to the closing block.
// Roots are visited in declaration order so the report is deterministic.
func (g *Graph) findCycle() []string {
	const (
		unvisited = iota
		onStack
		done
	)

	state := make(map[string]int, len(g.nodes))
	var stack []string

	var visit func(label string) []string
	visit = func(label string) []string {
		state[label] = onStack
		stack = append(stack, label)

		for _, dep := range g.nodes[label].Deps {
			switch state[dep] {
			case onStack:
				start := slices.Index(stack, dep)
				return slices.Clone(stack[start:])
			case unvisited:
				if cycle := visit(dep); cycle != nil {
					return cycle
				}
			}
		}

		stack = stack[:len(stack)-1]
		state[label] = done
		return nil
	}

	for _, label := range g.order {
		if state[label] == unvisited {
			if cycle := visit(label); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

func (g *Graph) sortLabels(labels []string) {
	slices.SortFunc(labels, func(a, b string) int {
		na, nb := g.nodes[a], g.nodes[b]
		if na.Ordinal != nb.Ordinal {
			return na.Ordinal - nb.Ordinal
		}
		return strings.Compare(a, b)
	})
}
