// Package node defines the vertex of an execution graph and its lifecycle
// states.
package node

import (
	"github.com/specialistvlad/defigrid/internal/model"
	"github.com/specialistvlad/defigrid/internal/nodetype"
)

// Node is a single vertex in the execution graph: one declared operation
// together with its parsed executor type. A Node is immutable after the
// graph is built; execution state lives in the node store.
type Node struct {
	// ID is the unique node id from the workflow document.
	ID string
	// Type is the parsed executor type.
	Type nodetype.Type
	// Decl is the original declaration, kept for its inputs and dependency order.
	Decl model.NodeDeclaration
}

// New creates a node from a declaration and its parsed type.
func New(decl model.NodeDeclaration, typ nodetype.Type) *Node {
	return &Node{
		ID:   decl.ID,
		Type: typ,
		Decl: decl,
	}
}

// Status represents the execution state of a node in the graph.
type Status int32

const (
	// StatusPending indicates the node is waiting for its dependencies.
	StatusPending Status = iota
	// StatusValidating indicates the node's inputs are being validated.
	StatusValidating
	// StatusExecuting indicates the node passed validation and is running.
	StatusExecuting
	// StatusSucceeded is terminal and carries outputs.
	StatusSucceeded
	// StatusFailed is terminal and carries an execution error.
	StatusFailed
	// StatusRejected is terminal and carries a validation error.
	StatusRejected
	// StatusSkipped is terminal: a dependency did not succeed.
	StatusSkipped
)

var statusNames = [...]string{
	StatusPending:    "pending",
	StatusValidating: "validating",
	StatusExecuting:  "executing",
	StatusSucceeded:  "succeeded",
	StatusFailed:     "failed",
	StatusRejected:   "rejected",
	StatusSkipped:    "skipped",
}

func (s Status) String() string {
	if int(s) >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "invalid"
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusRejected, StatusSkipped:
		return true
	}
	return false
}

// allowed lists the legal transitions of the per-node state machine.
var allowed = map[Status][]Status{
	StatusPending:    {StatusValidating, StatusSkipped},
	StatusValidating: {StatusExecuting, StatusRejected, StatusFailed},
	StatusExecuting:  {StatusSucceeded, StatusFailed},
}

// CanTransition reports whether from -> to is a legal transition.
func CanTransition(from, to Status) bool {
	for _, s := range allowed[from] {
		if s == to {
			return true
		}
	}
	return false
}
