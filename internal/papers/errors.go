package papers

import (
	"errors"
	"net/http"

	"github.com/avid-platform/avid/internal/graph"
)

// Domain errors for paper operations.
var (
	ErrNotFound          = errors.New("paper not found")
	ErrDuplicate         = errors.New("paper already exists")
	ErrInvalidSubmission = errors.New("invalid submission")
	ErrNotRunning        = errors.New("paper has no active run")
	ErrAlreadyRunning    = errors.New("paper run already active")
	ErrReportNotReady    = errors.New("paper run has not finished")
	ErrNoSource          = errors.New("paper has no archived source")
)

// MapHTTPStatus maps paper domain errors to HTTP status codes. Structural
// graph errors map to 422: the submission is well-formed JSON but names an
// unverifiable dependency structure.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNoSource):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidSubmission):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotRunning), errors.Is(err, ErrAlreadyRunning), errors.Is(err, ErrReportNotReady):
		return http.StatusConflict
	case graph.IsStructural(err):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
