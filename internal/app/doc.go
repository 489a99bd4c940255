// Package app wires a defigrid process together: it turns a Config into a
// logger, the external DEX and chain clients, an optional signer bridge, a
// frozen node registry and the engine, and exposes the run, validate and
// serve lifecycles used by the CLI.
package app
