// Package memstore keeps triage results in process memory. It backs the
// server when no database-url is configured, and the unit tests.
package memstore

import (
	"context"
	"sync"

	"github.com/linnemanlabs/dispatch/internal/triage"
)

// Store indexes triage results by run ID and by alert fingerprint.
// Everything is lost on restart; dedup then starts from a clean slate.
type Store struct {
	mu      sync.RWMutex
	results map[string]*triage.Result
	seen    map[string]string // alert fingerprint -> latest run ID
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		results: make(map[string]*triage.Result),
		seen:    make(map[string]string),
	}
}

// Get returns a copy of the result for a run ID, so callers can mutate
// their view freely while the run goroutine updates the stored one.
func (s *Store) Get(_ context.Context, id string) (*triage.Result, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[id]
	if !ok {
		return nil, false, nil
	}
	cp := *r
	return &cp, true, nil
}

// GetByFingerprint returns a copy of the run last stored for an alert
// fingerprint. Submit uses this for dedup.
func (s *Store) GetByFingerprint(_ context.Context, fp string) (*triage.Result, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.seen[fp]
	if !ok {
		return nil, false, nil
	}
	r := s.results[id]
	cp := *r
	return &cp, true, nil
}

// Put stores a copy of r, indexed by its ID and fingerprint.
func (s *Store) Put(_ context.Context, r *triage.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.results[r.ID] = &cp
	s.seen[r.Fingerprint] = r.ID
	return nil
}
