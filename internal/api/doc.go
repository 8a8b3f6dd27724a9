// Package api defines the boundary contracts between the scenarist core and
// its collaborators: the request snapshot handed in by a network-interception
// layer, the resolved response handed back, the active-scenario binding, and
// the typed errors shared by every component.
//
// These types deliberately live in their own package so that the leaf
// components (matching, state, sequences) and the orchestrating engine can
// share them without import cycles. Nothing in this package has behavior
// beyond formatting and error classification.
package api
