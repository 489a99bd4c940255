// Package testutil holds helpers shared by package tests: log capture,
// logger-carrying contexts and a configurable mock module.
package testutil
