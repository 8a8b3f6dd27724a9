package state

import "sync"

// Store is the per-test-ID state store. Each test session gets a fully
// isolated namespace of nested values addressed by dotted paths; nothing
// written under one test ID is ever visible under another. Namespaces are
// created lazily on first write and live until Clear or process exit.
type Store struct {
	mu     sync.RWMutex
	spaces map[string]*namespace
}

// namespace carries its own lock so that sessions never contend with each
// other once the namespace exists.
type namespace struct {
	mu   sync.RWMutex
	data map[string]interface{}
}

// NewStore creates an empty state store.
func NewStore() *Store {
	return &Store{spaces: make(map[string]*namespace)}
}

func (s *Store) space(testID string, create bool) *namespace {
	s.mu.RLock()
	ns := s.spaces[testID]
	s.mu.RUnlock()
	if ns != nil || !create {
		return ns
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ns = s.spaces[testID]; ns == nil {
		ns = &namespace{data: make(map[string]interface{})}
		s.spaces[testID] = ns
	}
	return ns
}

// Get resolves a dotted path in the test's namespace. The second return is
// false when the test has no namespace or the path does not resolve.
func (s *Store) Get(testID, path string) (interface{}, bool) {
	ns := s.space(testID, false)
	if ns == nil {
		return nil, false
	}
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	return Lookup(ns.data, path)
}

// Set writes value at the dotted path, creating the namespace and any
// intermediate objects as needed.
func (s *Store) Set(testID, path string, value interface{}) {
	ns := s.space(testID, true)
	ns.mu.Lock()
	defer ns.mu.Unlock()
	Set(ns.data, path, value)
}

// AppendArray appends value to the array at the dotted path, creating the
// array if absent.
func (s *Store) AppendArray(testID, path string, value interface{}) {
	ns := s.space(testID, true)
	ns.mu.Lock()
	defer ns.mu.Unlock()
	Append(ns.data, path, value)
}

// Snapshot returns a deep copy of the test's full namespace for debug
// introspection. Returns an empty map for unknown test IDs.
func (s *Store) Snapshot(testID string) map[string]interface{} {
	ns := s.space(testID, false)
	if ns == nil {
		return map[string]interface{}{}
	}
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	return deepCopy(ns.data).(map[string]interface{})
}

// Clear drops the test's namespace entirely.
func (s *Store) Clear(testID string) {
	s.mu.Lock()
	delete(s.spaces, testID)
	s.mu.Unlock()
}

// WithLock runs fn while holding the test's namespace write lock, giving the
// selection pipeline read-modify-write atomicity for a single session without
// serializing unrelated sessions.
func (s *Store) WithLock(testID string, fn func(data map[string]interface{})) {
	ns := s.space(testID, true)
	ns.mu.Lock()
	defer ns.mu.Unlock()
	fn(ns.data)
}
