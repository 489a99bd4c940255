// Package graph provides a unified facade for managing the execution graph,
// combining static topology (DAG structure) and dynamic state (execution status).
//
// # Why Graph Package Exists
//
// Instead of requiring the scheduler, builder and executor to coordinate two
// separate stores, the Graph interface offers one API that reads structure
// from the topology store and reads or writes state through the node store.
// It is also the single place where the per-node state machine is enforced.
//
// # Architecture: The Facade Pattern
//
//	┌─────────────────────────────────────┐
//	│           Graph Facade              │
//	│  (scheduler, builder and executor   │
//	│   query and update through it)      │
//	└──────────┬────────────┬─────────────┘
//	           │            │
//	           ▼            ▼
//	  ┌────────────┐  ┌────────────┐
//	  │  Topology  │  │    Node    │
//	  │   Store    │  │   Store    │
//	  │ (Structure)│  │  (Status)  │
//	  └────────────┘  └────────────┘
//
// # Lifecycle
//
//  1. Build validates a WorkflowDefinition and populates the topology store.
//     Every structural problem is collected into one flowerr.WorkflowError.
//  2. During execution the scheduler reads statuses, the builder reads
//     dependency outputs and node goroutines record their own transitions.
//  3. The graph is discarded with its session.
//
// # Thread-Safety
//
// All Graph methods are thread-safe. Transitions use the node store's
// compare-and-swap so two writers can never both move a node out of the
// same state.
package graph
