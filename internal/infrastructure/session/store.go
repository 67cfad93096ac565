// Package session holds the single current extraction result. It replaces
// the module-level cache the service historically used with an explicitly
// synchronized cell: all access goes through Replace/Get/Current.
package session

import (
	"errors"
	"sync"

	"github.com/rcoppens/tableminer/internal/core/domain"
)

type Store struct {
	mu      sync.RWMutex
	current *domain.ExtractionResult
}

func NewStore() *Store {
	return &Store{}
}

// Replace installs result as the current extraction, superseding any
// previous one. Results are treated as immutable once installed.
func (s *Store) Replace(result *domain.ExtractionResult) {
	s.mu.Lock()
	s.current = result
	s.mu.Unlock()
}

// Get resolves index against the currently installed result. Indices issued
// for a superseded result are not honored beyond coincidental range overlap.
func (s *Store) Get(index int) (domain.ExtractedTable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return domain.ExtractedTable{}, domain.WrapError(domain.ErrIndexNotFound, "session get", errors.New("no extraction result installed"))
	}
	if index < 0 || index >= len(s.current.Tables) {
		return domain.ExtractedTable{}, domain.WrapError(domain.ErrIndexNotFound, "session get",
			errors.New("index out of range"))
	}
	return s.current.Tables[index], nil
}

// Current returns the installed result, or nil when none exists. Callers
// must not mutate it.
func (s *Store) Current() *domain.ExtractionResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}
