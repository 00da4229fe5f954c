// Package scheduler computes the processing order for a paper's blocks
// using Kahn's algorithm over the validated dependency graph. It supports
// incremental re-querying of the ready set as the orchestrator reports
// completions, so independent branches can finish out of order, and it can
// be seeded from persisted statuses to resume an interrupted run.
package scheduler

import (
	"slices"
	"strings"

	"github.com/avid-platform/avid/internal/blocks"
	"github.com/avid-platform/avid/internal/graph"
)

type nodeState int

const (
	statePending nodeState = iota
	stateClaimed
	stateTerminal
)

// Scheduler tracks unresolved in-degrees and hands out blocks exactly once.
// It is not safe for concurrent use; the orchestrator serializes access.
type Scheduler struct {
	g        *graph.Graph
	indegree map[string]int
	state    map[string]nodeState
}

// New creates a Scheduler for a validated graph with every block pending.
func New(g *graph.Graph) *Scheduler {
	s := &Scheduler{
		g:        g,
		indegree: g.InDegrees(),
		state:    make(map[string]nodeState, g.Len()),
	}
	for _, label := range g.Labels() {
		s.state[label] = statePending
	}
	return s
}

// Seed replays persisted terminal statuses so a resumed run reconstructs
// the ready set purely from the status store. It returns the labels that
// must now be blocked but were not yet persisted as such (dependents of a
// persisted failure that crashed before propagation completed), in
// deterministic order. Non-terminal persisted statuses are left pending;
// the workflow re-enters them from their recorded stage.
func (s *Scheduler) Seed(blks []blocks.Block) []string {
	var newlyBlocked []string

	persisted := make(map[string]bool, len(blks))
	for _, b := range blks {
		if b.Status.Terminal() {
			persisted[b.Label] = true
		}
	}

	for _, b := range blks {
		if !b.Status.Terminal() || s.state[b.Label] != statePending {
			continue
		}

		if b.Status.Resolved() {
			s.resolve(b.Label)
			continue
		}

		for _, label := range s.condemn(b.Label) {
			if !persisted[label] {
				newlyBlocked = append(newlyBlocked, label)
			}
		}
	}

	s.sort(newlyBlocked)
	return newlyBlocked
}

// Ready returns every block whose dependencies are all resolved and that
// has not been handed out before, in deterministic order (ascending
// ordinal, then label). Each block is returned exactly once across the
// lifetime of the scheduler.
func (s *Scheduler) Ready() []string {
	var ready []string
	for label, deg := range s.indegree {
		if deg == 0 && s.state[label] == statePending {
			ready = append(ready, label)
		}
	}
	s.sort(ready)
	for _, label := range ready {
		s.state[label] = stateClaimed
	}
	return ready
}

// Complete records a block's terminal transition. On success, dependents
// whose last unresolved dependency this was become ready and are returned
// claimed. On failure, every block reachable from the failed one is marked
// terminal and returned as blocked; none of them will ever appear in a
// ready set. Both slices are deterministically ordered.
func (s *Scheduler) Complete(label string, success bool) (ready, blocked []string) {
	if s.state[label] == stateTerminal {
		return nil, nil
	}
	if !success {
		s.state[label] = stateTerminal
		blocked = s.condemn(label)
		s.sort(blocked)
		return nil, blocked
	}

	ready = s.resolve(label)
	s.sort(ready)
	for _, r := range ready {
		s.state[r] = stateClaimed
	}
	return ready, nil
}

// Outstanding returns the number of blocks that have not reached a
// terminal state. The orchestrator loops until this reaches zero.
func (s *Scheduler) Outstanding() int {
	n := 0
	for _, st := range s.state {
		if st != stateTerminal {
			n++
		}
	}
	return n
}

// Order returns the full deterministic total order for single-threaded
// replay, without mutating scheduler state.
func (s *Scheduler) Order() []string {
	indegree := s.g.InDegrees()

	var frontier []string
	for label, deg := range indegree {
		if deg == 0 {
			frontier = append(frontier, label)
		}
	}
	s.sort(frontier)

	order := make([]string, 0, s.g.Len())
	for len(frontier) > 0 {
		label := frontier[0]
		frontier = frontier[1:]
		order = append(order, label)

		var released []string
		for _, dep := range s.g.Dependents(label) {
			indegree[dep]--
			if indegree[dep] == 0 {
				released = append(released, dep)
			}
		}
		s.sort(released)
		frontier = merge(frontier, released, s.less)
	}
	return order
}

// resolve marks a block successfully terminal and returns dependents whose
// in-degree dropped to zero.
func (s *Scheduler) resolve(label string) []string {
	s.state[label] = stateTerminal

	var released []string
	for _, dep := range s.g.Dependents(label) {
		s.indegree[dep]--
		if s.indegree[dep] == 0 && s.state[dep] == statePending {
			released = append(released, dep)
		}
	}
	return released
}

// condemn transitively marks every pending block reachable from the given
// failed or blocked block as terminal, returning the labels it condemned.
func (s *Scheduler) condemn(root string) []string {
	s.state[root] = stateTerminal

	var blocked []string
	queue := slices.Clone(s.g.Dependents(root))
	for len(queue) > 0 {
		label := queue[0]
		queue = queue[1:]
		if s.state[label] != statePending {
			continue
		}
		s.state[label] = stateTerminal
		blocked = append(blocked, label)
		queue = append(queue, s.g.Dependents(label)...)
	}
	return blocked
}

func (s *Scheduler) less(a, b string) bool {
	na, nb := s.g.Node(a), s.g.Node(b)
	if na.Ordinal != nb.Ordinal {
		return na.Ordinal < nb.Ordinal
	}
	return a < b
}

func (s *Scheduler) sort(labels []string) {
	slices.SortFunc(labels, func(a, b string) int {
		if s.less(a, b) {
			return -1
		}
		if s.less(b, a) {
			return 1
		}
		return strings.Compare(a, b)
	})
}

func merge(a, b []string, less func(x, y string) bool) []string {
	out := make([]string, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if less(a[i], b[j]) {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}
