// Package sequence tracks per-test progress through ordered response
// sequences. Each (test ID, rule instance) pair owns a cursor with a position
// and an exhaustion flag; repeat modes decide what happens when the responses
// run out.
package sequence
