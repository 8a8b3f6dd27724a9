// Package app bootstraps the scenario engine for embedding in a test
// harness: it loads configuration, initializes logging, fills the registry
// from the scenario path, and optionally watches that path for changes.
package app
