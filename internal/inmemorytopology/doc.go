// Package inmemorytopology provides an ephemeral, thread-safe, in-memory
// implementation of the topologystore.Store interface.
//
// # Concurrency Model
//
// The topology is write-once-read-many: it is populated while the graph is
// built and only read afterwards. A single sync.RWMutex is therefore enough;
// the scheduler's frequent reads take the read lock and never block each
// other.
package inmemorytopology
