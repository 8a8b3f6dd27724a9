// Package state implements the per-test-session key/value store. Values are
// arbitrary nested structures addressed by dotted paths; namespaces are keyed
// by test ID and fully isolated from one another, which is the core
// parallel-test-safety guarantee of the engine.
package state
