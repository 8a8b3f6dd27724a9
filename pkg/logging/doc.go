// Package logging provides the structured logging facade used across
// scenarist. It wraps log/slog with a named-subsystem convention so that
// diagnostics from the matching engine, the registry, and the scenario
// watcher can be filtered independently of the caller's own logging.
//
// Callers log through package-level helpers:
//
//	logging.Info("Engine", "selected mock %d for test %s", idx, testID)
//	logging.Error("Registry", err, "failed to load %s", path)
//
// Init configures the minimum level and output writer once at startup.
// SetHandler allows embedders to route engine diagnostics into their own
// slog handler, which is also how tests capture log output.
package logging
