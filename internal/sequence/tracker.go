package sequence

import (
	"sync"

	"scenarist/internal/scenario"
)

// MockKey identifies one rule instance within its owning scenario. Using the
// rule's declaration position keeps the key stable even when two scenarios
// contain structurally identical rules.
type MockKey struct {
	ScenarioID string
	RuleIndex  int
}

// Cursor is the sequence progress for one (test, mock) pair.
type Cursor struct {
	// Position counts how many responses have been served.
	Position int

	// Exhausted is set once a repeat-none sequence has served its final
	// response. Exhausted sequences no longer match.
	Exhausted bool
}

// Tracker records sequence cursors per test session. Sessions are isolated:
// each carries its own lock, so concurrent tests never serialize on one
// another's cursors.
type Tracker struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

type session struct {
	mu      sync.Mutex
	cursors map[MockKey]*Cursor
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{sessions: make(map[string]*session)}
}

func (t *Tracker) session(testID string, create bool) *session {
	t.mu.RLock()
	s := t.sessions[testID]
	t.mu.RUnlock()
	if s != nil || !create {
		return s
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if s = t.sessions[testID]; s == nil {
		s = &session{cursors: make(map[MockKey]*Cursor)}
		t.sessions[testID] = s
	}
	return s
}

// Position returns the current cursor for the pair, zero-valued when the
// sequence has never been served.
func (t *Tracker) Position(testID string, key MockKey) Cursor {
	s := t.session(testID, false)
	if s == nil {
		return Cursor{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c := s.cursors[key]; c != nil {
		return *c
	}
	return Cursor{}
}

// Advance moves the cursor forward by one served response. For repeat-none
// sequences the cursor flips to exhausted once the final index has been read.
// Repeat-last and repeat-cycle sequences advance without bound.
func (t *Tracker) Advance(testID string, key MockKey, mode scenario.RepeatMode, length int) {
	s := t.session(testID, true)
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.cursors[key]
	if c == nil {
		c = &Cursor{}
		s.cursors[key] = c
	}
	if mode == scenario.RepeatNone && c.Position >= length-1 {
		c.Exhausted = true
	}
	c.Position++
}

// Clear drops all cursors for a test session.
func (t *Tracker) Clear(testID string) {
	t.mu.Lock()
	delete(t.sessions, testID)
	t.mu.Unlock()
}

// ResponseIndex computes which response a sequence serves at the given cursor
// position. For repeat-none the caller guarantees position is in range, since
// exhausted cursors are excluded from candidacy before resolution.
func ResponseIndex(position int, mode scenario.RepeatMode, length int) int {
	switch mode {
	case scenario.RepeatCycle:
		return position % length
	case scenario.RepeatNone:
		return position
	default: // RepeatLast
		if position >= length {
			return length - 1
		}
		return position
	}
}
