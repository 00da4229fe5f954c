// Package papers implements the paper domain: submission with structural
// validation, pipeline run management, reporting, cancellation, and
// reprocessing. A paper owns its block set; the verification pipeline
// itself lives in internal/pipeline and is launched from here.
package papers

import (
	"time"

	"github.com/google/uuid"

	"github.com/avid-platform/avid/internal/blocks"
)

// Paper statuses. A paper is received on submission, processing while a
// run is active, and complete or rejected when the run finishes. Papers
// failing structural validation go straight to rejected.
const (
	StatusReceived   = "received"
	StatusProcessing = "processing"
	StatusComplete   = "complete"
	StatusRejected   = "rejected"
)

// Paper represents a submitted paper and its verification state.
// StatusReason carries the structural rejection message when validation
// failed before any block was processed.
type Paper struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Author       string    `json:"author"`
	SourceKey    *string   `json:"source_key,omitempty"`
	Status       string    `json:"status"`
	StatusReason string    `json:"status_reason,omitempty"`
	BlockCount   int       `json:"block_count"`
	SubmittedAt  time.Time `json:"submitted_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BlockSubmission is one block of a submitted paper. References are the
// labels of same-paper blocks the block's statement or proof depends on.
type BlockSubmission struct {
	Label      string      `json:"label"`
	Kind       blocks.Kind `json:"kind"`
	Title      *string     `json:"title,omitempty"`
	Content    string      `json:"content"`
	Proof      *string     `json:"proof,omitempty"`
	References []string    `json:"references"`
}

// SubmitCommand carries a full paper submission. Source optionally holds
// the raw LaTeX the blocks were extracted from; it is archived verbatim.
type SubmitCommand struct {
	Title  string
	Author string
	Source []byte
	Blocks []BlockSubmission
}
