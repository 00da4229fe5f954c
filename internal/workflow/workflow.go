// Package workflow drives a single block through its verification stages:
// novelty assessment, then formalization with accumulated context. Each
// stage outcome is translated into a block status transition recorded
// atomically in the status store, so a crash can resume a block exactly
// where it stopped. Novelty is advisory and never gates formalization.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/avid-platform/avid/internal/blocks"
	"github.com/avid-platform/avid/internal/collab"
)

// Machine executes the per-block workflow. It is stateless across blocks;
// construct once and share between workers.
type Machine struct {
	store      blocks.Store
	novelty    collab.NoveltyChecker
	formalizer collab.Formalizer
	retry      RetryPolicy
	logger     *slog.Logger
}

// New creates a Machine with the given store, collaborators, and retry policy.
func New(
	store blocks.Store,
	novelty collab.NoveltyChecker,
	formalizer collab.Formalizer,
	retry RetryPolicy,
	logger *slog.Logger,
) *Machine {
	return &Machine{
		store:      store,
		novelty:    novelty,
		formalizer: formalizer,
		retry:      retry,
		logger:     logger.With("system", "workflow"),
	}
}

// Run drives one block to a terminal status, entering the workflow at
// whatever stage the block's persisted status indicates. entries is the
// ordered context snapshot of the block's formalized direct dependencies.
// Run returns the terminal block, or an error only when the run was
// interrupted (cancellation) or the store rejected a transition.
func (m *Machine) Run(ctx context.Context, paperID uuid.UUID, blk *blocks.Block, entries []collab.ContextEntry) (*blocks.Block, error) {
	current := blk

	if current.Status == blocks.StatusPending {
		next, err := m.runNovelty(ctx, paperID, current)
		if err != nil {
			return nil, err
		}
		current = next
	}

	if current.Status == blocks.StatusNoveltyChecked {
		next, err := m.store.Apply(ctx, paperID, current.Label, blocks.Transition{
			From: blocks.StatusNoveltyChecked,
			To:   blocks.StatusFormalizing,
		})
		if err != nil {
			return nil, err
		}
		current = next
	}

	if current.Status == blocks.StatusFormalizing {
		next, err := m.runFormalization(ctx, paperID, current, entries)
		if err != nil {
			return nil, err
		}
		current = next
	}

	return current, nil
}

// runNovelty calls the novelty engine and records its verdict. Collaborator
// failures are non-fatal: they are recorded as INCONCLUSIVE and the block
// proceeds to formalization regardless.
func (m *Machine) runNovelty(ctx context.Context, paperID uuid.UUID, blk *blocks.Block) (*blocks.Block, error) {
	verdict := &blocks.NoveltyVerdict{
		Verdict:   blocks.VerdictInconclusive,
		CheckedAt: time.Now(),
	}

	resp, err := m.novelty.Check(ctx, blk.Content)
	switch {
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case err != nil:
		m.logger.Warn("novelty check failed, recording inconclusive",
			"paper_id", paperID,
			"block", blk.Label,
			"error", err,
		)
	default:
		verdict.Verdict = parseVerdict(resp.Verdict)
		verdict.Confidence = resp.Confidence
		verdict.Provenance = resp.Provenance
	}

	return m.store.Apply(ctx, paperID, blk.Label, blocks.Transition{
		From:    blocks.StatusPending,
		To:      blocks.StatusNoveltyChecked,
		Verdict: verdict,
	})
}

// runFormalization invokes the formalization engine under the retry policy
// and records the terminal outcome together with the exact context snapshot
// supplied, for reproducibility.
func (m *Machine) runFormalization(ctx context.Context, paperID uuid.UUID, blk *blocks.Block, entries []collab.ContextEntry) (*blocks.Block, error) {
	req := collab.FormalizeRequest{
		Content: blk.Content,
		Context: entries,
	}
	if blk.Proof != nil {
		req.Proof = *blk.Proof
	}

	snapshot := make([]string, len(entries))
	for i, e := range entries {
		snapshot[i] = e.Label
	}

	resp, attempts, err := m.retry.Do(ctx, func(callCtx context.Context) (*collab.FormalizeResponse, error) {
		return m.formalizer.Formalize(callCtx, req)
	})
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	result := &blocks.FormalizationResult{
		Context:     snapshot,
		Attempts:    attempts,
		CompletedAt: time.Now(),
	}

	to := blocks.StatusFailed
	reason := ""

	switch {
	case err != nil:
		result.Outcome = blocks.OutcomeTimedOut
		if errors.Is(err, collab.ErrPermanent) {
			result.Outcome = blocks.OutcomeFailed
		}
		reason = fmt.Sprintf("formalization failed after %d attempts: %v", attempts, err)
	case resp.Outcome == string(blocks.OutcomeVerified):
		result.Payload = resp.Payload
		result.Outcome = blocks.OutcomeVerified
		to = blocks.StatusFormalized
	default:
		result.Payload = resp.Payload
		result.Outcome = parseOutcome(resp.Outcome)
		reason = resp.Detail
		if reason == "" {
			reason = fmt.Sprintf("formalization %s after %d attempts", result.Outcome, attempts)
		}
	}

	next, applyErr := m.store.Apply(ctx, paperID, blk.Label, blocks.Transition{
		From:   blocks.StatusFormalizing,
		To:     to,
		Reason: reason,
		Result: result,
	})
	if applyErr != nil {
		return nil, applyErr
	}

	m.logger.Info("block reached terminal status",
		"paper_id", paperID,
		"block", blk.Label,
		"status", next.Status,
		"outcome", result.Outcome,
		"attempts", attempts,
	)
	return next, nil
}

func parseVerdict(s string) blocks.Verdict {
	switch blocks.Verdict(s) {
	case blocks.VerdictNovel, blocks.VerdictKnown:
		return blocks.Verdict(s)
	}
	return blocks.VerdictInconclusive
}

func parseOutcome(s string) blocks.Outcome {
	switch blocks.Outcome(s) {
	case blocks.OutcomeVerified, blocks.OutcomeTimedOut:
		return blocks.Outcome(s)
	}
	return blocks.OutcomeFailed
}
