package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// entry holds a stored state with its timestamp.
type entry struct {
	state     UnitState
	timestamp time.Time
}

// InMemoryStore is a thread-safe in-memory state store with TTL support.
// States are deep-copied on the way in and out.
type InMemoryStore struct {
	states map[string]entry
	mu     sync.RWMutex
	ttl    time.Duration
}

// NewInMemoryStore creates a new in-memory store with the specified TTL.
// If ttlSeconds is 0 or negative, states never expire.
func NewInMemoryStore(ttlSeconds int) *InMemoryStore {
	ttl := time.Duration(ttlSeconds) * time.Second
	if ttlSeconds <= 0 {
		ttl = 0
	}
	return &InMemoryStore{
		states: make(map[string]entry),
		ttl:    ttl,
	}
}

// Get returns the state of a unit, reporting false if it is missing or expired.
func (s *InMemoryStore) Get(_ context.Context, unit string) (*UnitState, bool, error) {
	s.mu.RLock()
	e, ok := s.states[unit]
	s.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if s.expired(e, time.Now()) {
		s.mu.Lock()
		delete(s.states, unit)
		s.mu.Unlock()
		return nil, false, nil
	}

	st := e.state.Clone()
	return &st, true, nil
}

// Set stores the state of a unit.
func (s *InMemoryStore) Set(_ context.Context, unit string, state *UnitState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[unit] = entry{
		state:     state.Clone(),
		timestamp: time.Now(),
	}
	return nil
}

// Delete removes the state of a unit. Deleting a missing unit is not an error.
func (s *InMemoryStore) Delete(_ context.Context, unit string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, unit)
	return nil
}

// Len returns the number of stored states (including expired ones).
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}

// Clear removes all states.
func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = make(map[string]entry)
}

// States returns copies of all non-expired states, sorted by unit.
func (s *InMemoryStore) States() []UnitState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	out := make([]UnitState, 0, len(s.states))
	for _, e := range s.states {
		if s.expired(e, now) {
			continue
		}
		out = append(out, e.state.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Unit < out[j].Unit })
	return out
}

func (s *InMemoryStore) expired(e entry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(e.timestamp) > s.ttl
}

// Verify InMemoryStore implements StateStore
var _ StateStore = (*InMemoryStore)(nil)
