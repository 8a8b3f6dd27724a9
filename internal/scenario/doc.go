// Package scenario defines the declarative data model for mock scenarios: a
// scenario is a named, ordered list of mock rules, each pairing request match
// criteria with exactly one response outcome (static, sequence, or
// state-conditional).
//
// Definitions are JSON-shaped documents; all types carry JSON tags and load
// from both YAML and JSON files through sigs.k8s.io/yaml. Validate performs
// the structural checks that must fail at registration time rather than in
// the request hot path: the one-outcome invariant, non-empty match criteria,
// well-formed capture sources, and known repeat modes.
//
// This package holds no matching logic. Pattern compilation and rule
// evaluation live in internal/match; storage and lookup in internal/registry.
package scenario
