package blocks

import (
	"context"

	"github.com/google/uuid"
)

// Transition is an atomic status change command. From must match the
// block's current status for the change to apply; the optional verdict and
// result are written in the same operation so a crash can never separate a
// status from its artifact.
type Transition struct {
	From    Status
	To      Status
	Reason  string
	Verdict *NoveltyVerdict
	Result  *FormalizationResult
}

// Store is the persistent status store for blocks. Implementations must
// make Apply a single atomic read-modify-write keyed by (paper, label);
// no lock spanning a whole paper is required or expected. A resumed run
// reconstructs its schedule purely from List.
type Store interface {
	// List returns all blocks of a paper in declaration (ordinal) order.
	List(ctx context.Context, paperID uuid.UUID) ([]Block, error)

	// Get returns a single block by paper and label.
	Get(ctx context.Context, paperID uuid.UUID, label string) (*Block, error)

	// Apply performs an atomic compare-and-set transition. It fails with
	// *TransitionError if the transition is illegal or the block's current
	// status no longer matches t.From.
	Apply(ctx context.Context, paperID uuid.UUID, label string, t Transition) (*Block, error)

	// Reset returns every block of a paper to pending and clears recorded
	// verdicts and results, in one atomic operation. Used only by explicit
	// reprocessing requests.
	Reset(ctx context.Context, paperID uuid.UUID) error
}
