package pipeline

import (
	"fmt"

	"github.com/avid-platform/avid/internal/blocks"
	"github.com/avid-platform/avid/internal/collab"
	"github.com/avid-platform/avid/internal/graph"
)

// IncompleteContextError reports a block dispatched before one of its
// direct dependencies was formalized. The scheduler gates dispatch on
// resolved dependencies, so this indicates a contract violation and aborts
// the run.
type IncompleteContextError struct {
	Label      string
	Dependency string
	Status     blocks.Status
}

func (e *IncompleteContextError) Error() string {
	return fmt.Sprintf("context for %s incomplete: dependency %s is %s", e.Label, e.Dependency, e.Status)
}

// AssembleContext gathers the formalized payloads of a block's direct
// dependencies, in the graph's deterministic order (ascending ordinal,
// then label). The same block set always yields a byte-identical snapshot.
func AssembleContext(g *graph.Graph, byLabel map[string]*blocks.Block, label string) ([]collab.ContextEntry, error) {
	deps := g.Dependencies(label)
	entries := make([]collab.ContextEntry, 0, len(deps))

	for _, dep := range deps {
		blk, ok := byLabel[dep]
		if !ok || blk.Status != blocks.StatusFormalized || blk.Result == nil {
			status := blocks.Status("missing")
			if ok {
				status = blk.Status
			}
			return nil, &IncompleteContextError{Label: label, Dependency: dep, Status: status}
		}
		entries = append(entries, collab.ContextEntry{Label: dep, Payload: blk.Result.Payload})
	}

	return entries, nil
}
