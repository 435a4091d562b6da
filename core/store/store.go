// Package store keeps the experiments known to the engine. Each experiment
// carries its own locks; the store lock only guards the map itself.
package store

import (
	"errors"
	"sort"
	"sync"
)

var (
	// ErrUnknownExperiment is returned for identifiers that were never set
	// up or were torn down.
	ErrUnknownExperiment = errors.New("unknown experiment")
	// ErrTickInProgress is returned when a call arrives for an experiment
	// that is still processing the previous one.
	ErrTickInProgress = errors.New("tick already in progress")
)

// ExperimentStore holds experiments keyed by identifier.
type ExperimentStore struct {
	mu    sync.RWMutex
	items map[string]*Experiment
}

// New returns an empty store.
func New() *ExperimentStore {
	return &ExperimentStore{items: map[string]*Experiment{}}
}

// Put adds e, replacing any experiment with the same identifier.
func (s *ExperimentStore) Put(e *Experiment) {
	s.mu.Lock()
	s.items[e.ID] = e
	s.mu.Unlock()
}

// Get returns the experiment registered under id.
func (s *ExperimentStore) Get(id string) (*Experiment, error) {
	s.mu.RLock()
	e, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrUnknownExperiment
	}
	return e, nil
}

// Remove drops the experiment and reports whether it existed.
func (s *ExperimentStore) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[id]
	delete(s.items, id)
	return ok
}

// IDs returns the sorted experiment identifiers.
func (s *ExperimentStore) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.items))
	for id := range s.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
