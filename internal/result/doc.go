// Package result holds the per-node and per-workflow execution results and
// the aggregator that assembles them while a run is in flight.
//
// Failure propagation: a node that failed or was rejected makes all of its
// transitive dependents Skipped. Skipped nodes are listed in
// Workflow.Skipped and never appear in Workflow.Nodes. A workflow succeeds
// iff no node failed or was rejected.
package result
