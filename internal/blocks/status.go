package blocks

// Status is a block's position in the verification lifecycle.
type Status string

// Block statuses. Terminal statuses admit no further automatic transition;
// leaving one requires an explicit reprocessing run.
const (
	StatusPending        Status = "pending"
	StatusNoveltyChecked Status = "novelty_checked"
	StatusFormalizing    Status = "formalizing"
	StatusFormalized     Status = "formalized"
	StatusFailed         Status = "formalization_failed"
	StatusBlocked        Status = "blocked"
)

// ReasonAborted marks blocks that were blocked by run cancellation rather
// than by an ancestor failure.
const ReasonAborted = "aborted"

// validTransitions defines the legal status transitions. Each key is a
// source status; the value is the set of valid targets. A block with a
// failed or blocked ancestor moves from pending to blocked directly; blocks
// interrupted mid-stage may also be blocked on cancellation.
var validTransitions = map[Status]map[Status]bool{
	StatusPending:        {StatusNoveltyChecked: true, StatusBlocked: true},
	StatusNoveltyChecked: {StatusFormalizing: true, StatusBlocked: true},
	StatusFormalizing:    {StatusFormalized: true, StatusFailed: true, StatusBlocked: true},
}

// CanTransition reports whether moving a block from one status to another
// is legal.
func CanTransition(from, to Status) bool {
	targets, ok := validTransitions[from]
	if !ok {
		return false
	}
	return targets[to]
}

// Terminal reports whether the status admits no further automatic transition.
func (s Status) Terminal() bool {
	switch s {
	case StatusFormalized, StatusFailed, StatusBlocked:
		return true
	}
	return false
}

// Resolved reports whether the block completed formalization successfully
// and may therefore contribute context to its dependents.
func (s Status) Resolved() bool {
	return s == StatusFormalized
}
