// Package handlers defines the contract every node executor implements and
// the wrapper that routes a call to the template or live variant of a node
// type.
//
// A Variant validates, executes and prices one mode of one node type. A
// Handler pairs the two variants of a type and is what the registry stores.
// The Handler also owns the boundary behavior shared by all executors:
// timing, panic recovery, and turning errors into failed results with their
// log trail.
package handlers
