package engine

import (
	"sync"

	"scenarist/internal/api"
	"scenarist/internal/config"
	"scenarist/internal/registry"
	"scenarist/internal/scenario"
	"scenarist/internal/sequence"
	"scenarist/internal/state"
	"scenarist/pkg/logging"
)

const subsystem = "Engine"

// Engine composes the scenario registry, the per-test state store, the
// sequence tracker, and the selection recorder into the response selector.
// One Engine serves every concurrent test session of a run.
type Engine struct {
	registry  *registry.Registry
	cfg       config.Config
	states    *state.Store
	sequences *sequence.Tracker
	recorder  *Recorder

	mu       sync.RWMutex
	bindings map[string]api.ActiveScenario

	// sessionMu guards sessions; each per-test mutex serializes that
	// session's full selection pipeline so captures, cursor advances, and
	// afterResponse writes from parallel calls never interleave.
	sessionMu sync.Mutex
	sessions  map[string]*sync.Mutex
}

// New creates an engine over a registry that already holds the default
// scenario. Registering the default up front is required: without it there
// is no fallback tier and every unswitched session would dead-end.
func New(reg *registry.Registry, cfg config.Config) (*Engine, error) {
	if err := reg.EnsureDefault(); err != nil {
		return nil, err
	}
	return &Engine{
		registry:  reg,
		cfg:       cfg,
		states:    state.NewStore(),
		sequences: sequence.NewTracker(),
		recorder:  NewRecorder(DefaultRecorderCapacity),
		bindings:  make(map[string]api.ActiveScenario),
		sessions:  make(map[string]*sync.Mutex),
	}, nil
}

func (e *Engine) sessionLock(testID string) *sync.Mutex {
	e.sessionMu.Lock()
	defer e.sessionMu.Unlock()
	mu := e.sessions[testID]
	if mu == nil {
		mu = &sync.Mutex{}
		e.sessions[testID] = mu
	}
	return mu
}

// SwitchScenario binds a test session to a scenario, atomically replacing
// any previous binding. Captured state and sequence cursors survive the
// switch. An unknown scenario ID fails with NotFoundError and leaves the
// existing binding and all state untouched.
func (e *Engine) SwitchScenario(testID, scenarioID, variant string) error {
	if testID == "" {
		testID = api.DefaultTestID
	}
	if _, ok := e.registry.Get(scenarioID); !ok {
		return api.NewNotFoundError("scenario", scenarioID)
	}

	e.mu.Lock()
	e.bindings[testID] = api.ActiveScenario{ScenarioID: scenarioID, Variant: variant}
	e.mu.Unlock()

	logging.Debug(subsystem, "Test %s switched to scenario %s", testID, scenarioID)
	return nil
}

// ClearScenario removes a session's binding, returning it to the default
// tier. State and sequence cursors are kept; use ResetSession to drop
// everything.
func (e *Engine) ClearScenario(testID string) {
	if testID == "" {
		testID = api.DefaultTestID
	}
	e.mu.Lock()
	delete(e.bindings, testID)
	e.mu.Unlock()
}

// ResetSession drops a session's binding, captured state, and sequence
// cursors. Test teardown calls this so a reused test ID starts clean.
func (e *Engine) ResetSession(testID string) {
	if testID == "" {
		testID = api.DefaultTestID
	}
	e.mu.Lock()
	delete(e.bindings, testID)
	e.mu.Unlock()
	e.states.Clear(testID)
	e.sequences.Clear(testID)
}

// ActiveScenario returns a session's current binding. The second return is
// false for unbound sessions, which select from the default tier only.
func (e *Engine) ActiveScenario(testID string) (api.ActiveScenario, bool) {
	if testID == "" {
		testID = api.DefaultTestID
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	binding, ok := e.bindings[testID]
	return binding, ok
}

// ListScenarios returns every registered scenario definition in
// registration order.
func (e *Engine) ListScenarios() []*scenario.Definition {
	return e.registry.List()
}

// StateSnapshot returns a deep copy of a session's captured state for debug
// introspection.
func (e *Engine) StateSnapshot(testID string) map[string]interface{} {
	if testID == "" {
		testID = api.DefaultTestID
	}
	return e.states.Snapshot(testID)
}

// Selections returns the retained selection records for a test session,
// oldest first.
func (e *Engine) Selections(testID string) []Record {
	return e.recorder.Selections(testID)
}
