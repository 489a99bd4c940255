// Package builder turns a ready graph node into a task.Task.
//
// Inputs are assembled from three layers, lowest precedence first:
//
//  1. the workflow variables,
//  2. the outputs of the node's direct dependencies, in declaration order,
//  3. the node's own declared inputs.
//
// Before the last layer is applied, its string values are scanned for output
// references of the form {$.<dependency id>.<path>}. A value that is exactly
// one reference is replaced by the referenced value, whatever its type.
// References embedded in longer strings are interpolated. Paths use JSONPath
// syntax relative to the dependency output, so {$.quote.routes[0].dex} is
// valid.
//
// Every layer is deep-copied before merging. A task never shares a map or a
// slice with another node's output or with the workflow declaration.
package builder
