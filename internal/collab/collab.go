// Package collab defines the contracts for the two external collaborators
// the engine orchestrates (the semantic novelty engine and the Lean
// formalization engine) together with HTTP client implementations. The
// response shapes here are boundary types: the workflow converts them into
// block status transitions and never lets them leak further into the core.
package collab

import "context"

// NoveltyResponse is the novelty engine's assessment of one statement.
// Verdict is one of NOVEL, KNOWN, or INCONCLUSIVE; Provenance names the
// matched source when the result is KNOWN.
type NoveltyResponse struct {
	Verdict    string  `json:"verdict"`
	Confidence float64 `json:"confidence"`
	Provenance string  `json:"provenance,omitempty"`
}

// NoveltyChecker assesses whether a block's statement is already known.
// Calls may take seconds and must be issued with the context's deadline;
// failures are non-fatal to the pipeline.
type NoveltyChecker interface {
	Check(ctx context.Context, content string) (*NoveltyResponse, error)
}

// ContextEntry is one ancestor's formalized payload supplied as input to a
// dependent block's formalization call.
type ContextEntry struct {
	Label   string `json:"label"`
	Payload string `json:"payload"`
}

// FormalizeRequest carries a block's statement, optional proof, and the
// ordered context snapshot of its already-verified direct dependencies.
type FormalizeRequest struct {
	Content string         `json:"content"`
	Proof   string         `json:"proof,omitempty"`
	Context []ContextEntry `json:"context"`
}

// FormalizeResponse is the formalization engine's result. Payload is the
// opaque formalized representation (Lean source). Outcome is one of
// VERIFIED, FAILED, or TIMED_OUT. Permanent marks failures that no retry
// can fix, such as an unprovable statement.
type FormalizeResponse struct {
	Payload   string `json:"payload"`
	Outcome   string `json:"outcome"`
	Permanent bool   `json:"permanent"`
	Detail    string `json:"detail,omitempty"`
}

// Formalizer translates a statement into a formal representation and
// verifies it. Latency is on the order of tens of seconds; implementations
// must honor context cancellation.
type Formalizer interface {
	Formalize(ctx context.Context, req FormalizeRequest) (*FormalizeResponse, error)
}
