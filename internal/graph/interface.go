package graph

import (
	"context"

	"github.com/specialistvlad/defigrid/internal/node"
)

// Graph is a unified interface for interacting with the execution DAG of a
// single workflow run, combining static topology queries with dynamic state
// updates.
//
// Implementations MUST be thread-safe, as node goroutines update the graph
// while the scheduler and builder query it.
type Graph interface {
	// Node retrieves a node by id.
	Node(ctx context.Context, id string) (*node.Node, bool)

	// AllNodes returns every node in declaration order.
	AllNodes(ctx context.Context) []*node.Node

	// DependenciesOf returns the nodes `id` directly depends on, in
	// declaration order.
	DependenciesOf(ctx context.Context, id string) ([]*node.Node, error)

	// DependentsOf returns the nodes that directly depend on `id`.
	DependentsOf(ctx context.Context, id string) ([]*node.Node, error)

	// NodeStatus returns the current status of a node and whether the node
	// exists.
	NodeStatus(ctx context.Context, id string) (node.Status, bool)

	// Output returns the outputs recorded by a succeeded node.
	Output(ctx context.Context, id string) (map[string]any, bool)

	// Err returns the error recorded for a node that did not succeed.
	Err(ctx context.Context, id string) error

	// MarkValidating transitions Pending → Validating.
	MarkValidating(ctx context.Context, id string) error

	// MarkExecuting transitions Validating → Executing.
	MarkExecuting(ctx context.Context, id string) error

	// MarkSucceeded records outputs and transitions Executing → Succeeded.
	// Outputs are stored before the status flips, so a reader that sees
	// Succeeded always sees the outputs.
	MarkSucceeded(ctx context.Context, id string, output map[string]any) error

	// MarkFailed records the error and transitions Validating or
	// Executing → Failed.
	MarkFailed(ctx context.Context, id string, nodeErr error) error

	// MarkRejected records the validation error and transitions
	// Validating → Rejected.
	MarkRejected(ctx context.Context, id string, nodeErr error) error

	// MarkSkipped records the cause and transitions Pending → Skipped.
	MarkSkipped(ctx context.Context, id string, cause error) error
}
