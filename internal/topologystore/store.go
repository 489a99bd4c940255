// Package topologystore defines the interface for storing and retrieving the
// static structure of a workflow's dependency graph.
//
// # Why Topology Store Exists
//
// The topology store isolates the immutable DAG structure (nodes and their
// dependency edges) from the mutable execution state managed by nodestore.
// The scheduler reads structure on every round while node goroutines write
// state continuously; keeping the two apart lets structure reads use a
// read lock that state writes never contend on.
//
// # Lifecycle and Usage
//
// The topology store is:
//  1. Created once per execution session.
//  2. Populated while the graph is built (nodes, then dependency edges).
//  3. Read-only during execution.
//  4. Discarded when the session closes.
package topologystore

import (
	"context"

	"github.com/specialistvlad/defigrid/internal/node"
)

// Store manages the static topology of a workflow DAG.
//
// Implementations MUST be safe for concurrent use.
type Store interface {
	// AddNode registers a node. Adding a node whose id already exists
	// returns an error wrapping flowerr.ErrDuplicateNode.
	AddNode(ctx context.Context, n *node.Node) error

	// AddDependency records that `to` depends on `from`. Both nodes must
	// already exist; a missing endpoint returns an error wrapping
	// flowerr.ErrDanglingDependency.
	AddDependency(ctx context.Context, from, to string) error

	// GetNode retrieves a single node by id.
	GetNode(ctx context.Context, id string) (*node.Node, bool)

	// AllNodes returns every node in insertion order.
	AllNodes(ctx context.Context) []*node.Node

	// DependenciesOf returns the ids `id` depends on, in the order the
	// edges were added.
	DependenciesOf(ctx context.Context, id string) ([]string, error)

	// DependentsOf returns the ids that depend directly on `id`, in the order
	// the edges were added.
	DependentsOf(ctx context.Context, id string) ([]string, error)
}
