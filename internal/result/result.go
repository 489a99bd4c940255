package result

import (
	"time"

	"github.com/specialistvlad/defigrid/internal/node"
)

// Node is the outcome of one node invocation. It is produced exactly once
// and never modified afterwards.
type Node struct {
	NodeID        string         `json:"node_id"`
	Type          string         `json:"type"`
	Status        string         `json:"status"`
	Success       bool           `json:"success"`
	Outputs       map[string]any `json:"outputs,omitempty"`
	Error         string         `json:"error,omitempty"`
	Logs          []string       `json:"logs"`
	ExecutionTime time.Duration  `json:"execution_time"`

	err error
}

// Err returns the structured error behind a failed result, nil on success.
func (n Node) Err() error { return n.err }

// Succeeded builds a successful result.
func Succeeded(outputs map[string]any, logs []string) Node {
	if outputs == nil {
		outputs = map[string]any{}
	}
	return Node{
		Status:  node.StatusSucceeded.String(),
		Success: true,
		Outputs: outputs,
		Logs:    logs,
	}
}

// Failed builds a failed result from err.
func Failed(err error, logs []string) Node {
	return Node{
		Status:  node.StatusFailed.String(),
		Success: false,
		Error:   err.Error(),
		Logs:    logs,
		err:     err,
	}
}

// Rejected builds the result of a node whose validation did not pass.
func Rejected(err error, logs []string) Node {
	n := Failed(err, logs)
	n.Status = node.StatusRejected.String()
	return n
}

// Workflow is the outcome of a whole run.
type Workflow struct {
	ExecutionID   string          `json:"execution_id"`
	WorkflowID    string          `json:"workflow_id"`
	Success       bool            `json:"success"`
	Nodes         map[string]Node `json:"nodes"`
	Skipped       []string        `json:"skipped,omitempty"`
	Error         string          `json:"error,omitempty"`
	Logs          []string        `json:"logs"`
	ExecutionTime time.Duration   `json:"execution_time"`
}

// Failures returns the ids of nodes that failed or were rejected.
func (w *Workflow) Failures() []string {
	var ids []string
	for id, n := range w.Nodes {
		if !n.Success {
			ids = append(ids, id)
		}
	}
	return ids
}
