package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/avid-platform/avid/internal/blocks"
)

// Verdict is the paper-level outcome of a pipeline run.
type Verdict string

const (
	// VerdictComplete means every block reached formalized.
	VerdictComplete Verdict = "COMPLETE"
	// VerdictRejected means at least one block failed, was blocked, or the
	// run was aborted.
	VerdictRejected Verdict = "REJECTED"
)

// Report is the final account of a paper run: the paper verdict and the
// terminal state of every block.
type Report struct {
	PaperID     uuid.UUID     `json:"paper_id"`
	Verdict     Verdict       `json:"verdict"`
	GeneratedAt time.Time     `json:"generated_at"`
	Blocks      []BlockReport `json:"blocks"`
}

// BlockReport summarizes one block's terminal state. Outcome and Attempts
// are present only when formalization was attempted.
type BlockReport struct {
	Label    string                 `json:"label"`
	Kind     blocks.Kind            `json:"kind"`
	Ordinal  int                    `json:"ordinal"`
	Status   blocks.Status          `json:"status"`
	Reason   string                 `json:"reason,omitempty"`
	Novelty  *blocks.NoveltyVerdict `json:"novelty,omitempty"`
	Outcome  blocks.Outcome         `json:"outcome,omitempty"`
	Attempts int                    `json:"attempts,omitempty"`
	Context  []string               `json:"context,omitempty"`
}

// BuildReport derives a Report from the persisted block set. The paper is
// COMPLETE iff every block is formalized.
func BuildReport(paperID uuid.UUID, blks []blocks.Block) *Report {
	report := &Report{
		PaperID:     paperID,
		Verdict:     VerdictComplete,
		GeneratedAt: time.Now(),
		Blocks:      make([]BlockReport, 0, len(blks)),
	}

	for _, b := range blks {
		if b.Status != blocks.StatusFormalized {
			report.Verdict = VerdictRejected
		}

		br := BlockReport{
			Label:   b.Label,
			Kind:    b.Kind,
			Ordinal: b.Ordinal,
			Status:  b.Status,
			Reason:  b.Reason,
			Novelty: b.Verdict,
		}
		if b.Result != nil {
			br.Outcome = b.Result.Outcome
			br.Attempts = b.Result.Attempts
			br.Context = b.Result.Context
		}
		report.Blocks = append(report.Blocks, br)
	}

	return report
}
