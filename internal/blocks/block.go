// Package blocks implements the block domain for AVID: the atomic logical
// units of a paper (definitions, theorems, lemmas) with their declared
// references, verification status lifecycle, and the persistent status store
// that makes pipeline runs resumable.
package blocks

import (
	"time"

	"github.com/google/uuid"
)

// Kind identifies the mathematical environment a block was extracted from.
type Kind string

// Standard block kinds. The extractor normalizes environment variants
// (teorema, thm, defn, ...) to these values; unrecognized custom
// environments pass through as free-form kinds.
const (
	KindDefinition  Kind = "definition"
	KindTheorem     Kind = "theorem"
	KindLemma       Kind = "lemma"
	KindProposition Kind = "proposition"
	KindCorollary   Kind = "corollary"
)

// Block represents one logical unit of a paper. Blocks are created at
// submission and never deleted; only their status and attached verification
// artifacts change, and only through Store transitions.
type Block struct {
	ID         uuid.UUID            `json:"id"`
	PaperID    uuid.UUID            `json:"paper_id"`
	Label      string               `json:"label"`
	Kind       Kind                 `json:"kind"`
	Ordinal    int                  `json:"ordinal"`
	Title      *string              `json:"title,omitempty"`
	Content    string               `json:"content"`
	Proof      *string              `json:"proof,omitempty"`
	References []string             `json:"references"`
	Status     Status               `json:"status"`
	Reason     string               `json:"reason,omitempty"`
	Verdict    *NoveltyVerdict      `json:"verdict,omitempty"`
	Result     *FormalizationResult `json:"result,omitempty"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// Verdict is the novelty assessment for a block's statement.
type Verdict string

// Novelty verdicts. A collaborator failure is recorded as INCONCLUSIVE;
// novelty is advisory and never gates formalization.
const (
	VerdictNovel        Verdict = "NOVEL"
	VerdictKnown        Verdict = "KNOWN"
	VerdictInconclusive Verdict = "INCONCLUSIVE"
)

// NoveltyVerdict records the novelty stage outcome for a block. Immutable
// once recorded; superseded only by a full reprocessing run.
type NoveltyVerdict struct {
	Verdict    Verdict   `json:"verdict"`
	Confidence float64   `json:"confidence"`
	Provenance string    `json:"provenance,omitempty"`
	CheckedAt  time.Time `json:"checked_at"`
}

// Outcome is the formalization engine's verification result for a block.
type Outcome string

// Formalization outcomes as reported by the engine.
const (
	OutcomeVerified Outcome = "VERIFIED"
	OutcomeFailed   Outcome = "FAILED"
	OutcomeTimedOut Outcome = "TIMED_OUT"
)

// FormalizationResult records the formalization stage outcome for a block,
// including the exact ordered context snapshot (labels of the direct
// dependencies whose payloads were supplied) retained for reproducibility.
type FormalizationResult struct {
	Payload     string    `json:"payload"`
	Outcome     Outcome   `json:"outcome"`
	Context     []string  `json:"context"`
	Attempts    int       `json:"attempts"`
	CompletedAt time.Time `json:"completed_at"`
}
