package blocks

import (
	"errors"
	"fmt"
	"net/http"
)

// Domain errors for block operations.
var (
	ErrNotFound  = errors.New("block not found")
	ErrDuplicate = errors.New("block already exists")
)

// TransitionError reports an attempt to apply an illegal status transition,
// or a compare-and-set that lost to a concurrent transition. It carries the
// status the store actually held so callers can distinguish contract
// violations from benign races.
type TransitionError struct {
	Label string
	From  Status
	To    Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("block %s: illegal transition %s -> %s", e.Label, e.From, e.To)
}

// MapHTTPStatus maps block domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	var te *TransitionError
	if errors.As(err, &te) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
