// Package inmemorystore provides an ephemeral, thread-safe, in-memory
// implementation of the nodestore.Store interface.
//
// # Concurrency Model
//
// Unlike inmemorytopology, which uses an RWMutex, this store uses sync.Map:
// the key space (all node ids) is fixed once the graph is built while values
// change constantly, and each node's goroutine only ever writes its own keys.
// That is the access pattern sync.Map is optimized for.
//
// State lives for the duration of one session and is never persisted.
package inmemorystore
