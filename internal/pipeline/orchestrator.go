// Package pipeline orchestrates a full paper run: it validates the
// dependency graph, schedules blocks in dependency order, fans them out to
// a bounded worker pool, propagates failures to dependents without calling
// the collaborators, and produces the final report. All block state lives
// in the status store, so a run interrupted at any point can be restarted
// and converges to the same report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/avid-platform/avid/internal/blocks"
	"github.com/avid-platform/avid/internal/collab"
	"github.com/avid-platform/avid/internal/graph"
	"github.com/avid-platform/avid/internal/scheduler"
)

// ErrNoBlocks is returned when a run is requested for a paper without any
// blocks.
var ErrNoBlocks = errors.New("paper has no blocks")

// ErrSuspended is the cancellation cause for runs interrupted by a server
// shutdown. A suspended run leaves every block at its persisted stage so a
// later run picks up exactly where it stopped; only an explicit cancel
// finalizes blocks as aborted.
var ErrSuspended = errors.New("run suspended")

// Runner executes the per-block workflow. Satisfied by *workflow.Machine.
type Runner interface {
	Run(ctx context.Context, paperID uuid.UUID, blk *blocks.Block, entries []collab.ContextEntry) (*blocks.Block, error)
}

// Orchestrator drives paper runs against a status store and a block runner.
// A single Orchestrator serves all papers; each Run call is independent.
type Orchestrator struct {
	store   blocks.Store
	runner  Runner
	workers int
	logger  *slog.Logger
}

// New creates an Orchestrator with the given worker bound. workers values
// below one are raised to one.
func New(store blocks.Store, runner Runner, workers int, logger *slog.Logger) *Orchestrator {
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{
		store:   store,
		runner:  runner,
		workers: workers,
		logger:  logger.With("system", "pipeline"),
	}
}

type completion struct {
	label string
	blk   *blocks.Block
	err   error
}

// Run processes every block of a paper to a terminal status and returns
// the report. Structural errors (duplicate label, dangling reference,
// cycle) are returned before any collaborator call. A canceled context
// marks every non-terminal block blocked with reason "aborted" and still
// returns a report, unless the cancellation cause is ErrSuspended, in
// which case Run returns ErrSuspended with the store untouched so a later
// run resumes from the persisted stages. Any other failure returns the
// error with the store left in a resumable state.
func (o *Orchestrator) Run(ctx context.Context, paperID uuid.UUID) (*Report, error) {
	blks, err := o.store.List(ctx, paperID)
	if err != nil {
		return nil, err
	}
	if len(blks) == 0 {
		return nil, ErrNoBlocks
	}

	g, err := graph.Build(blks)
	if err != nil {
		return nil, err
	}

	byLabel := make(map[string]*blocks.Block, len(blks))
	for i := range blks {
		byLabel[blks[i].Label] = &blks[i]
	}

	sched := scheduler.New(g)
	for _, label := range sched.Seed(blks) {
		if err := o.applyBlocked(ctx, paperID, byLabel, label, "upstream dependency failed"); err != nil {
			return nil, err
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var group errgroup.Group
	group.SetLimit(o.workers)

	// Buffered to the block count so workers never block on send, even
	// while the coordinator is waiting on a pool slot in group.Go.
	completions := make(chan completion, len(blks))

	dispatch := func(labels []string) {
		for _, label := range labels {
			blk := byLabel[label]
			entries, err := AssembleContext(g, byLabel, label)
			if err != nil {
				completions <- completion{label: label, err: err}
				continue
			}
			group.Go(func() error {
				res, err := o.runner.Run(runCtx, paperID, blk, entries)
				completions <- completion{label: label, blk: res, err: err}
				return nil
			})
		}
	}

	dispatch(sched.Ready())

	var runErr error
	for sched.Outstanding() > 0 && runErr == nil {
		select {
		case <-runCtx.Done():
			runErr = runCtx.Err()
		case c := <-completions:
			if c.err != nil {
				runErr = c.err
				cancel()
				continue
			}

			byLabel[c.label] = c.blk
			ready, blocked := sched.Complete(c.label, c.blk.Status == blocks.StatusFormalized)
			for _, label := range blocked {
				reason := fmt.Sprintf("dependency %s did not formalize", c.label)
				if err := o.applyBlocked(ctx, paperID, byLabel, label, reason); err != nil {
					runErr = err
					cancel()
					break
				}
			}
			if runErr != nil {
				continue
			}
			dispatch(ready)
		}
	}

	cancel()
	_ = group.Wait()

	if runErr != nil {
		if !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
			return nil, runErr
		}
		if errors.Is(context.Cause(runCtx), ErrSuspended) {
			o.logger.Info("run suspended", "paper_id", paperID)
			return nil, ErrSuspended
		}
		if err := o.abort(context.WithoutCancel(ctx), paperID); err != nil {
			return nil, err
		}
		o.logger.Info("run aborted", "paper_id", paperID)
	}

	final, err := o.store.List(context.WithoutCancel(ctx), paperID)
	if err != nil {
		return nil, err
	}

	report := BuildReport(paperID, final)
	o.logger.Info("run finished",
		"paper_id", paperID,
		"verdict", report.Verdict,
		"blocks", len(report.Blocks),
	)
	return report, nil
}

// applyBlocked persists a blocked transition from a block's current status
// and refreshes the in-memory view.
func (o *Orchestrator) applyBlocked(ctx context.Context, paperID uuid.UUID, byLabel map[string]*blocks.Block, label, reason string) error {
	blk := byLabel[label]
	next, err := o.store.Apply(ctx, paperID, label, blocks.Transition{
		From:   blk.Status,
		To:     blocks.StatusBlocked,
		Reason: reason,
	})
	if err != nil {
		return err
	}
	byLabel[label] = next
	return nil
}

// abort marks every block that has not reached a terminal status blocked
// with reason "aborted", after in-flight workers have drained.
func (o *Orchestrator) abort(ctx context.Context, paperID uuid.UUID) error {
	blks, err := o.store.List(ctx, paperID)
	if err != nil {
		return err
	}

	for _, b := range blks {
		if b.Status.Terminal() {
			continue
		}
		if _, err := o.store.Apply(ctx, paperID, b.Label, blocks.Transition{
			From:   b.Status,
			To:     blocks.StatusBlocked,
			Reason: blocks.ReasonAborted,
		}); err != nil {
			return err
		}
	}
	return nil
}
