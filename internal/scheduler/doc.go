// Package scheduler decides what runs next.
//
// The executor works in rounds. Between rounds it asks the scheduler for the
// next Round: every Pending node whose dependencies all succeeded is Ready,
// and every Pending node with a dependency that failed, was rejected or was
// itself skipped is marked Skipped in the graph and reported. The scheduler
// is the only writer of those decisions, so it needs no locking of its own.
package scheduler
