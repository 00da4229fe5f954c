package graph

import (
	"errors"
	"fmt"
	"strings"
)

// DuplicateLabelError reports two blocks declaring the same label.
type DuplicateLabelError struct {
	Label string
}

func (e *DuplicateLabelError) Error() string {
	return fmt.Sprintf("duplicate block label %q", e.Label)
}

// DanglingReferenceError reports a block referencing a label that names no
// block within the same paper.
type DanglingReferenceError struct {
	Block  string
	Target string
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("block %q references unknown block %q", e.Block, e.Target)
}

// CycleError reports a circular dependency. Cycle holds the ordered labels
// on the cycle, starting at the back-edge target.
type CycleError struct {
	Cycle []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf(
		"dependency cycle: %s -> %s",
		strings.Join(e.Cycle, " -> "),
		e.Cycle[0],
	)
}

// IsStructural reports whether err is one of the structural validation
// errors that reject a paper before any processing begins.
func IsStructural(err error) bool {
	var (
		dup      *DuplicateLabelError
		dangling *DanglingReferenceError
		cycle    *CycleError
	)
	return errors.As(err, &dup) || errors.As(err, &dangling) || errors.As(err, &cycle)
}
