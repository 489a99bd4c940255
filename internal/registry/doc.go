// Package registry maps node types to their handlers.
//
// The registry is populated once at startup by the compiled-in modules and
// then frozen. After Freeze it is read only and safe for concurrent lookups
// from every run.
package registry
