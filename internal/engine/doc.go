// Package engine is the ingress of the application. It accepts workflow
// definitions, runs them synchronously or in the background, and routes
// externally delivered signatures to the run that is waiting for them.
//
// Every run gets its own session: fresh stores, a fresh execution context
// and an in-process signing channel. When the engine is configured with a
// shared signer transport, the run's channel fans out to it as well.
package engine
