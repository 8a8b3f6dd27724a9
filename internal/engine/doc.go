// Package engine is the response selector: given a test session and an
// intercepted request it searches the session's active scenario and the
// default scenario for the best-matching mock rule, resolves that rule's
// outcome (static, sequenced, or state-conditional), renders template
// placeholders, and applies any declared state mutations.
//
// All per-session work is serialized on a session lock, so parallel requests
// from the same test observe captures, sequence cursors, and afterResponse
// writes in a consistent order while unrelated sessions proceed
// independently. Every selection is traced in a bounded recorder for
// post-hoc debugging.
package engine
