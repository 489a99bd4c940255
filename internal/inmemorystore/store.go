package inmemorystore

import (
	"context"
	"sync"

	"github.com/specialistvlad/defigrid/internal/node"
	"github.com/specialistvlad/defigrid/internal/nodestore"
)

// Store is an in-memory implementation of nodestore.Store.
//
// The store maintains three independent sync.Maps:
//   - states: node ID -> node.Status
//   - outputs: node ID -> map[string]any
//   - errors: node ID -> error
type Store struct {
	states  sync.Map
	outputs sync.Map
	errors  sync.Map
}

// New creates a new, empty in-memory node state store.
func New() nodestore.Store {
	return &Store{}
}

// SetStatus updates the execution status of a specific node.
func (s *Store) SetStatus(ctx context.Context, id string, status node.Status) error {
	s.states.Store(id, status)
	return nil
}

// CompareAndSwapStatus atomically moves a node between two statuses.
func (s *Store) CompareAndSwapStatus(ctx context.Context, id string, old, new node.Status) (bool, error) {
	s.states.LoadOrStore(id, node.StatusPending)
	return s.states.CompareAndSwap(id, old, new), nil
}

// GetStatus retrieves the execution status of a specific node.
// If a status has not been set, it returns StatusPending.
func (s *Store) GetStatus(ctx context.Context, id string) (node.Status, error) {
	status, ok := s.states.Load(id)
	if !ok {
		return node.StatusPending, nil
	}
	return status.(node.Status), nil
}

// SetOutput records the successful output of a node.
func (s *Store) SetOutput(ctx context.Context, id string, output map[string]any) error {
	s.outputs.Store(id, output)
	return nil
}

// GetOutput retrieves the recorded output of a completed node.
func (s *Store) GetOutput(ctx context.Context, id string) (map[string]any, bool, error) {
	output, ok := s.outputs.Load(id)
	if !ok {
		return nil, false, nil
	}
	return output.(map[string]any), true, nil
}

// SetError records the failure error of a node.
func (s *Store) SetError(ctx context.Context, id string, nodeErr error) error {
	s.errors.Store(id, nodeErr)
	return nil
}

// GetError retrieves the recorded error of a failed node.
func (s *Store) GetError(ctx context.Context, id string) (error, error) {
	err, ok := s.errors.Load(id)
	if !ok {
		return nil, nil // If not found, there is no error.
	}
	return err.(error), nil
}
