package papers

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/avid-platform/avid/internal/blocks"
	"github.com/avid-platform/avid/internal/pipeline"
	"github.com/avid-platform/avid/pkg/pagination"
)

// System defines the public contract for paper domain operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Paper], error)

	Find(ctx context.Context, id uuid.UUID) (*Paper, error)

	// Submit validates and records a paper, then launches its pipeline
	// run. Structurally invalid papers (duplicate label, dangling
	// reference, cycle) are recorded as rejected without launching a run.
	Submit(ctx context.Context, cmd SubmitCommand) (*Paper, error)

	// Report returns the final report of a finished paper;
	// ErrReportNotReady while a run is still active or pending.
	Report(ctx context.Context, id uuid.UUID) (*pipeline.Report, error)

	Blocks(ctx context.Context, id uuid.UUID) ([]blocks.Block, error)

	// Cancel aborts the active run; non-terminal blocks are marked
	// blocked with reason "aborted" and the paper is rejected.
	Cancel(ctx context.Context, id uuid.UUID) error

	// Reprocess resets every block to pending in one transaction,
	// superseding prior verdicts, and launches a fresh run.
	Reprocess(ctx context.Context, id uuid.UUID) (*Paper, error)

	DownloadSource(ctx context.Context, id uuid.UUID) (io.ReadCloser, error)

	// Resume relaunches runs for papers left in processing by a previous
	// instance. Called once on startup.
	Resume(ctx context.Context) error

	// Shutdown suspends every active run. Blocks interrupted mid-flight
	// keep their persisted status and resume on the next start.
	Shutdown()
}
