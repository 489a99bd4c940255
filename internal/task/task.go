// Package task defines the unit of work the executor dispatches.
package task

import (
	"github.com/specialistvlad/defigrid/internal/handlers"
	"github.com/specialistvlad/defigrid/internal/node"
)

// Task is a node that is fully prepared for execution: its handler is
// resolved and its inputs are merged and free of output references.
type Task struct {
	Node    *node.Node
	Handler *handlers.Handler

	// Inputs is owned by the task. No other node holds a reference into it.
	Inputs handlers.Inputs
}
