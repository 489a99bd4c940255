// Package flowerr defines the error taxonomy shared by the engine, the node
// executors and the ingress layers.
//
// # Categories
//
//   - ValidationError: bad or missing node input, found before execution.
//   - ExecutionError: a node failed inside Execute.
//   - ChainError: a failure attributable to a chain or RPC provider. It
//     carries the chain id and, when known, a transaction hash and block.
//   - ApprovalTimeoutError: the signing deadline passed.
//   - SigningError: the external signer reported a failure.
//   - WorkflowError: the workflow was rejected before any node ran.
//
// Node-scoped errors never escape the executor. They are folded into a
// failed node result and the failure propagation rules take over.
package flowerr
