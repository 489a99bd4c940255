// Package api exposes the engine over HTTP.
//
// Routes live under /api/v1. Executions are submitted asynchronously by
// default; ?wait=true runs them inside the request. External signers deliver
// signatures and signer-side errors to the node that is waiting for them.
package api
