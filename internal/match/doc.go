// Package match implements the rule-matching engine: URL pattern
// compilation, match criteria evaluation, and specificity scoring.
//
// Everything string-shaped in a rule (URL patterns, capture sources, match
// regexes) is compiled exactly once, when a scenario is registered. The
// evaluation path is pure: Evaluate takes a request snapshot and the
// session's current state and returns a match result without side effects,
// which is what makes the selector's two-tier search cheap to run over every
// rule of a scenario.
package match
