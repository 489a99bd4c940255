// Package executor defines the interface for the DAG execution engine.
package executor

import "context"

// Executor is responsible for orchestrating the end-to-end execution of a DAG.
// It manages concurrency, interacts with the scheduler, and dispatches tasks.
// Execute returns an error only when the run as a whole could not complete,
// such as on cancellation. Node failures are reported through results.
type Executor interface {
	Execute(ctx context.Context) error
}
