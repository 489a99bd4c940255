// Package nodestore defines the interface for storing and retrieving the
// dynamic, mutable execution state of nodes during a workflow run.
//
// # Why Node Store Exists
//
// The node store isolates mutable execution state (status, outputs, errors)
// from the immutable DAG structure managed by topologystore. Node goroutines
// write their own state as they progress, the scheduler reads statuses
// between rounds and the builder reads outputs of finished dependencies.
//
// # State Transitions
//
// Nodes follow this lifecycle:
//
//	Pending → Validating → Executing → Succeeded | Failed
//	                    ↘ Rejected | Failed
//	Pending → Skipped
//
// The store itself does not enforce the state machine beyond offering a
// compare-and-swap primitive; graph.Manager uses it to apply the rules.
package nodestore

import (
	"context"

	"github.com/specialistvlad/defigrid/internal/node"
)

// Store manages the mutable execution state of nodes.
//
// Implementations MUST be safe for concurrent reads and writes.
type Store interface {
	// SetStatus unconditionally records the status of a node.
	SetStatus(ctx context.Context, id string, status node.Status) error

	// CompareAndSwapStatus moves a node from `old` to `new` only if its
	// current status is `old`. A node with no recorded status is Pending.
	CompareAndSwapStatus(ctx context.Context, id string, old, new node.Status) (bool, error)

	// GetStatus returns the node's status, StatusPending if none was set.
	GetStatus(ctx context.Context, id string) (node.Status, error)

	// SetOutput records the outputs of a succeeded node.
	SetOutput(ctx context.Context, id string, output map[string]any) error

	// GetOutput returns the recorded outputs and whether any were recorded.
	GetOutput(ctx context.Context, id string) (map[string]any, bool, error)

	// SetError records why a node did not succeed.
	SetError(ctx context.Context, id string, nodeErr error) error

	// GetError returns the recorded error, nil if none.
	GetError(ctx context.Context, id string) (error, error)
}
