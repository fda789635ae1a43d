package access

import (
	"context"
	"sync"

	"github.com/calculon/goals-api/internal/budget"
	"github.com/google/uuid"
)

// State holds the last good snapshot for one user together with the budget
// summaries derived from it. Refresh replaces both on success and leaves
// them untouched on failure. Concurrent refreshes are allowed; the last one
// to finish wins.
type State struct {
	resolver *Resolver
	userID   uuid.UUID

	mu        sync.RWMutex
	snapshot  Snapshot
	summaries map[uuid.UUID]budget.Summary
}

func NewState(resolver *Resolver, userID uuid.UUID) *State {
	return &State{
		resolver:  resolver,
		userID:    userID,
		summaries: map[uuid.UUID]budget.Summary{},
	}
}

func (s *State) Refresh(ctx context.Context) error {
	snap, err := s.resolver.Snapshot(ctx, s.userID)
	if err != nil {
		return err
	}
	summaries := budget.SummarizeAll(snap.Goals, snap.Expenses, snap.Adjustments)

	s.mu.Lock()
	s.snapshot = snap
	s.summaries = summaries
	s.mu.Unlock()
	return nil
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

func (s *State) Summary(goalID uuid.UUID) (budget.Summary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum, ok := s.summaries[goalID]
	return sum, ok
}

// Clear drops everything, as on sign-out.
func (s *State) Clear() {
	s.mu.Lock()
	s.snapshot = Snapshot{}
	s.summaries = map[uuid.UUID]budget.Summary{}
	s.mu.Unlock()
}
