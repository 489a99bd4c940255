// Package chainrpc is a minimal Ethereum JSON-RPC client used by the live
// node executors. Reads that fail transiently are retried with exponential
// backoff; transaction broadcasts are never retried.
package chainrpc
