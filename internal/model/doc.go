// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package model provides the format-agnostic Go representation of a workflow
// document. Workflows reach the engine as JSON from the authoring service or
// as HCL files on disk; both end up as a WorkflowDefinition.
//
// # Core Concepts
//
//   - WorkflowDefinition: the root document. An id, a name, optional default
//     variables and an ordered list of node declarations.
//
//   - NodeDeclaration: one operation in the workflow. It names the executor
//     type as a wire string, carries the node's declared inputs and lists the
//     ids of the nodes it depends on.
//
//   - FSInfo: links a definition loaded from disk back to its source file so
//     errors can point at it.
//
// The model is deliberately passive. It is not validated here: structural
// rules (unique ids, known types, no cycles, no dangling references) are the
// graph builder's job, which reports all of them at once.
package model
