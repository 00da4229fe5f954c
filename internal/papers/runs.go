package papers

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/avid-platform/avid/internal/pipeline"
)

// runSet tracks the cancel functions of active pipeline runs, one per
// paper. Launch and Cancel are safe for concurrent use.
type runSet struct {
	mu   sync.Mutex
	runs map[uuid.UUID]context.CancelCauseFunc
}

func newRunSet() *runSet {
	return &runSet{runs: make(map[uuid.UUID]context.CancelCauseFunc)}
}

// claim registers a run for the paper and returns its context. It fails
// with ErrAlreadyRunning if a run is already active.
func (s *runSet) claim(paperID uuid.UUID) (context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[paperID]; ok {
		return nil, ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancelCause(context.Background())
	s.runs[paperID] = cancel
	return ctx, nil
}

// release removes a finished run.
func (s *runSet) release(paperID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cancel, ok := s.runs[paperID]; ok {
		cancel(nil)
		delete(s.runs, paperID)
	}
}

// active reports whether the paper has a run in flight.
func (s *runSet) active(paperID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.runs[paperID]
	return ok
}

// cancel aborts an active run; ErrNotRunning if none is active.
func (s *runSet) cancel(paperID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cancel, ok := s.runs[paperID]
	if !ok {
		return ErrNotRunning
	}
	cancel(nil)
	return nil
}

// shutdown suspends every active run. The suspend cause tells the
// orchestrator to stop without finalizing blocks, so Resume relaunches
// each interrupted paper on the next start.
func (s *runSet) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, cancel := range s.runs {
		cancel(pipeline.ErrSuspended)
		delete(s.runs, id)
	}
}
