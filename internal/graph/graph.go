package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/defigrid/internal/ctxlog"
	"github.com/specialistvlad/defigrid/internal/node"
	"github.com/specialistvlad/defigrid/internal/nodestore"
	"github.com/specialistvlad/defigrid/internal/topologystore"
)

// ErrInvalidTransition is returned when a status change would violate the
// node state machine.
var ErrInvalidTransition = errors.New("invalid node status transition")

// Manager provides a high-level, thread-safe interface to the execution graph
// by composing and orchestrating lower-level storage backends.
type Manager struct {
	topology topologystore.Store
	state    nodestore.Store
}

// New creates a new graph manager over the given stores.
func New(ts topologystore.Store, ns nodestore.Store) *Manager {
	return &Manager{topology: ts, state: ns}
}

func (m *Manager) Node(ctx context.Context, id string) (*node.Node, bool) {
	return m.topology.GetNode(ctx, id)
}

func (m *Manager) AllNodes(ctx context.Context) []*node.Node {
	return m.topology.AllNodes(ctx)
}

func (m *Manager) DependenciesOf(ctx context.Context, id string) ([]*node.Node, error) {
	ids, err := m.topology.DependenciesOf(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.resolve(ctx, ids)
}

func (m *Manager) DependentsOf(ctx context.Context, id string) ([]*node.Node, error) {
	ids, err := m.topology.DependentsOf(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.resolve(ctx, ids)
}

func (m *Manager) resolve(ctx context.Context, ids []string) ([]*node.Node, error) {
	nodes := make([]*node.Node, 0, len(ids))
	for _, id := range ids {
		n, ok := m.topology.GetNode(ctx, id)
		if !ok {
			return nil, fmt.Errorf("internal inconsistency: edge to unknown node %q", id)
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func (m *Manager) NodeStatus(ctx context.Context, id string) (node.Status, bool) {
	if _, ok := m.topology.GetNode(ctx, id); !ok {
		return node.StatusPending, false
	}
	status, err := m.state.GetStatus(ctx, id)
	if err != nil {
		return node.StatusPending, false
	}
	return status, true
}

func (m *Manager) Output(ctx context.Context, id string) (map[string]any, bool) {
	out, ok, err := m.state.GetOutput(ctx, id)
	if err != nil {
		return nil, false
	}
	return out, ok
}

func (m *Manager) Err(ctx context.Context, id string) error {
	nodeErr, err := m.state.GetError(ctx, id)
	if err != nil {
		return err
	}
	return nodeErr
}

func (m *Manager) MarkValidating(ctx context.Context, id string) error {
	return m.transition(ctx, id, node.StatusValidating)
}

func (m *Manager) MarkExecuting(ctx context.Context, id string) error {
	return m.transition(ctx, id, node.StatusExecuting)
}

func (m *Manager) MarkSucceeded(ctx context.Context, id string, output map[string]any) error {
	if err := m.state.SetOutput(ctx, id, output); err != nil {
		return err
	}
	return m.transition(ctx, id, node.StatusSucceeded)
}

func (m *Manager) MarkFailed(ctx context.Context, id string, nodeErr error) error {
	if err := m.state.SetError(ctx, id, nodeErr); err != nil {
		return err
	}
	return m.transition(ctx, id, node.StatusFailed)
}

func (m *Manager) MarkRejected(ctx context.Context, id string, nodeErr error) error {
	if err := m.state.SetError(ctx, id, nodeErr); err != nil {
		return err
	}
	return m.transition(ctx, id, node.StatusRejected)
}

func (m *Manager) MarkSkipped(ctx context.Context, id string, cause error) error {
	if err := m.state.SetError(ctx, id, cause); err != nil {
		return err
	}
	return m.transition(ctx, id, node.StatusSkipped)
}

func (m *Manager) transition(ctx context.Context, id string, to node.Status) error {
	if _, ok := m.topology.GetNode(ctx, id); !ok {
		return fmt.Errorf("node %q not in graph", id)
	}
	from, err := m.state.GetStatus(ctx, id)
	if err != nil {
		return err
	}
	if !node.CanTransition(from, to) {
		return fmt.Errorf("node %q: %s -> %s: %w", id, from, to, ErrInvalidTransition)
	}
	swapped, err := m.state.CompareAndSwapStatus(ctx, id, from, to)
	if err != nil {
		return err
	}
	if !swapped {
		return fmt.Errorf("node %q: concurrent change while moving %s -> %s: %w", id, from, to, ErrInvalidTransition)
	}
	ctxlog.FromContext(ctx).Debug("Node status changed.", "node_id", id, "from", from.String(), "to", to.String())
	return nil
}
