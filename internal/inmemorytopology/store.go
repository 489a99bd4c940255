package inmemorytopology

import (
	"context"
	"fmt"
	"sync"

	"github.com/specialistvlad/defigrid/internal/flowerr"
	"github.com/specialistvlad/defigrid/internal/node"
	"github.com/specialistvlad/defigrid/internal/topologystore"
)

type Store struct {
	mu         sync.RWMutex
	order      []string
	nodes      map[string]*node.Node
	deps       map[string][]string // Key: node ID, Value: dependency IDs in edge order
	dependents map[string][]string // Key: node ID, Value: dependent IDs in edge order
}

func New() topologystore.Store {
	return &Store{
		nodes:      make(map[string]*node.Node),
		deps:       make(map[string][]string),
		dependents: make(map[string][]string),
	}
}

func (s *Store) AddNode(ctx context.Context, n *node.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.nodes[n.ID]; exists {
		return fmt.Errorf("node %q: %w", n.ID, flowerr.ErrDuplicateNode)
	}
	s.nodes[n.ID] = n
	s.order = append(s.order, n.ID)
	return nil
}

func (s *Store) AddDependency(ctx context.Context, from, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.nodes[to]; !exists {
		return fmt.Errorf("node %q not found in topology: %w", to, flowerr.ErrDanglingDependency)
	}
	if _, exists := s.nodes[from]; !exists {
		return fmt.Errorf("node %q depends on %q: %w", to, from, flowerr.ErrDanglingDependency)
	}

	for _, existing := range s.deps[to] {
		if existing == from {
			// Repeated edges collapse into one.
			return nil
		}
	}
	s.deps[to] = append(s.deps[to], from)
	s.dependents[from] = append(s.dependents[from], to)
	return nil
}

func (s *Store) GetNode(ctx context.Context, id string) (*node.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[id]
	return n, ok
}

func (s *Store) AllNodes(ctx context.Context) []*node.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nodes := make([]*node.Node, 0, len(s.order))
	for _, id := range s.order {
		nodes = append(nodes, s.nodes[id])
	}
	return nodes
}

func (s *Store) DependenciesOf(ctx context.Context, id string) ([]string, error) {
	return s.edges(id, s.deps)
}

func (s *Store) DependentsOf(ctx context.Context, id string) ([]string, error) {
	return s.edges(id, s.dependents)
}

func (s *Store) edges(id string, index map[string][]string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.nodes[id]; !exists {
		return nil, fmt.Errorf("node %q: %w", id, flowerr.ErrNotFound)
	}
	out := make([]string, len(index[id]))
	copy(out, index[id])
	return out, nil
}
