package blocks

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store implementation. It backs tests and
// embedded library use; the service itself runs on the Postgres store.
type MemoryStore struct {
	mu     sync.Mutex
	papers map[uuid.UUID]map[string]*Block
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		papers: make(map[uuid.UUID]map[string]*Block),
	}
}

// Seed registers the blocks of a paper, assigning pending status to any
// block without one. Existing blocks for the paper are replaced.
func (s *MemoryStore) Seed(paperID uuid.UUID, blks []Block) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byLabel := make(map[string]*Block, len(blks))
	for i := range blks {
		b := blks[i]
		b.PaperID = paperID
		if b.ID == uuid.Nil {
			b.ID = uuid.New()
		}
		if b.Status == "" {
			b.Status = StatusPending
		}
		byLabel[b.Label] = &b
	}
	s.papers[paperID] = byLabel
}

func (s *MemoryStore) List(_ context.Context, paperID uuid.UUID) ([]Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byLabel, ok := s.papers[paperID]
	if !ok {
		return []Block{}, nil
	}

	blks := make([]Block, 0, len(byLabel))
	for _, b := range byLabel {
		blks = append(blks, *b)
	}
	slices.SortFunc(blks, func(a, b Block) int {
		if a.Ordinal != b.Ordinal {
			return a.Ordinal - b.Ordinal
		}
		return strings.Compare(a.Label, b.Label)
	})
	return blks, nil
}

func (s *MemoryStore) Get(_ context.Context, paperID uuid.UUID, label string) (*Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.find(paperID, label)
	if err != nil {
		return nil, err
	}
	cp := *b
	return &cp, nil
}

func (s *MemoryStore) Apply(_ context.Context, paperID uuid.UUID, label string, t Transition) (*Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.find(paperID, label)
	if err != nil {
		return nil, err
	}

	if b.Status != t.From || !CanTransition(t.From, t.To) {
		return nil, &TransitionError{Label: label, From: b.Status, To: t.To}
	}

	b.Status = t.To
	b.Reason = t.Reason
	if t.Verdict != nil {
		b.Verdict = t.Verdict
	}
	if t.Result != nil {
		b.Result = t.Result
	}
	b.UpdatedAt = time.Now()

	cp := *b
	return &cp, nil
}

func (s *MemoryStore) Reset(_ context.Context, paperID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byLabel, ok := s.papers[paperID]
	if !ok {
		return ErrNotFound
	}

	for _, b := range byLabel {
		b.Status = StatusPending
		b.Reason = ""
		b.Verdict = nil
		b.Result = nil
		b.UpdatedAt = time.Now()
	}
	return nil
}

func (s *MemoryStore) find(paperID uuid.UUID, label string) (*Block, error) {
	byLabel, ok := s.papers[paperID]
	if !ok {
		return nil, ErrNotFound
	}
	b, ok := byLabel[label]
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}
