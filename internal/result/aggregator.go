package result

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Aggregator collects node results as they complete. Node goroutines call
// Record concurrently; the executor calls Skip between rounds.
type Aggregator struct {
	mu          sync.Mutex
	executionID string
	workflowID  string
	start       time.Time
	nodes       map[string]Node
	skipped     []string
	logs        []string
	fatal       error
}

// NewAggregator starts aggregating a run that began at start.
func NewAggregator(executionID, workflowID string, start time.Time) *Aggregator {
	return &Aggregator{
		executionID: executionID,
		workflowID:  workflowID,
		start:       start,
		nodes:       make(map[string]Node),
	}
}

// Record stores the terminal result of a node. A second result for the same
// node is ignored and reported as false.
func (a *Aggregator) Record(r Node) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.nodes[r.NodeID]; exists {
		return false
	}
	a.nodes[r.NodeID] = r
	if r.Success {
		a.logs = append(a.logs, fmt.Sprintf("node %s (%s) succeeded in %s", r.NodeID, r.Type, r.ExecutionTime))
	} else {
		a.logs = append(a.logs, fmt.Sprintf("node %s (%s) %s: %s", r.NodeID, r.Type, r.Status, r.Error))
	}
	return true
}

// Skip records a node that was never dispatched because `cause`, one of its
// dependencies, did not succeed.
func (a *Aggregator) Skip(nodeID, cause string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.skipped = append(a.skipped, nodeID)
	a.logs = append(a.logs, fmt.Sprintf("node %s skipped: dependency %s did not succeed", nodeID, cause))
}

// Abort records a run-level failure, such as cancellation, that is not
// attributable to a single node.
func (a *Aggregator) Abort(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.fatal == nil {
		a.fatal = err
		a.logs = append(a.logs, fmt.Sprintf("run aborted: %v", err))
	}
}

// Snapshot renders the aggregated state. It can be called while the run is
// still in progress; the returned value shares nothing with the aggregator.
func (a *Aggregator) Snapshot(now time.Time) *Workflow {
	a.mu.Lock()
	defer a.mu.Unlock()

	w := &Workflow{
		ExecutionID:   a.executionID,
		WorkflowID:    a.workflowID,
		Success:       a.fatal == nil,
		Nodes:         make(map[string]Node, len(a.nodes)),
		Skipped:       append([]string(nil), a.skipped...),
		Logs:          append([]string(nil), a.logs...),
		ExecutionTime: now.Sub(a.start),
	}
	for id, n := range a.nodes {
		w.Nodes[id] = n
		if !n.Success {
			w.Success = false
		}
	}
	sort.Strings(w.Skipped)
	if a.fatal != nil {
		w.Error = a.fatal.Error()
	} else if failures := w.Failures(); len(failures) > 0 {
		sort.Strings(failures)
		w.Error = fmt.Sprintf("%d node(s) did not succeed: %v", len(failures), failures)
	}
	return w
}
