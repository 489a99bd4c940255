// Package runstore keeps the records of submitted executions so callers can
// poll their status. Records of executions in progress never expire; a
// finished record lives for the configured TTL after it reached its final
// state.
package runstore

import (
	"fmt"
	"sync"
	"time"

	c "github.com/patrickmn/go-cache"
	"github.com/specialistvlad/defigrid/internal/flowerr"
	"github.com/specialistvlad/defigrid/internal/result"
)

// Status is the lifecycle state of an execution.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// IsFinal reports whether the execution has ended.
func (s Status) IsFinal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusCancelled
}

// Record describes one execution.
type Record struct {
	ID          string           `json:"execution_id"`
	WorkflowID  string           `json:"workflow_id"`
	Status      Status           `json:"status"`
	SubmittedAt time.Time        `json:"submitted_at"`
	StartedAt   time.Time        `json:"started_at,omitzero"`
	FinishedAt  time.Time        `json:"finished_at,omitzero"`
	Error       string           `json:"error,omitempty"`
	Result      *result.Workflow `json:"result,omitempty"`
}

// Store is an expiring in-memory record store.
type Store struct {
	mu    sync.Mutex
	cache *c.Cache
	ttl   time.Duration
}

// New creates a store whose finished records live for ttl.
func New(ttl time.Duration) *Store {
	return &Store{
		cache: c.New(ttl, ttl/2+time.Second),
		ttl:   ttl,
	}
}

// Create stores a new record. The id must not be in use.
func (s *Store) Create(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.cache.Add(rec.ID, rec, s.expiry(rec.Status)); err != nil {
		return fmt.Errorf("execution %s: %w", rec.ID, err)
	}
	return nil
}

// Get returns the record of id.
func (s *Store) Get(id string) (Record, error) {
	v, found := s.cache.Get(id)
	if !found {
		return Record{}, fmt.Errorf("execution %s: %w", id, flowerr.ErrNotFound)
	}
	return v.(Record), nil
}

// Update applies fn to the record of id. The TTL starts when fn moves the
// record into a final state. Records in a final state are not modified
// again and report false.
func (s *Store) Update(id string, fn func(*Record)) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, found := s.cache.Get(id)
	if !found {
		return false, fmt.Errorf("execution %s: %w", id, flowerr.ErrNotFound)
	}
	rec := v.(Record)
	if rec.Status.IsFinal() {
		return false, nil
	}
	fn(&rec)
	s.cache.Set(id, rec, s.expiry(rec.Status))
	return true, nil
}

func (s *Store) expiry(st Status) time.Duration {
	if st.IsFinal() {
		return s.ttl
	}
	return c.NoExpiration
}

// Count returns the number of unexpired records.
func (s *Store) Count() int {
	return s.cache.ItemCount()
}
