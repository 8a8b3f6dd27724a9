package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scenarist/internal/api"
	"scenarist/internal/config"
	"scenarist/internal/registry"
	"scenarist/internal/scenario"
)

func newTestEngine(t *testing.T, cfg config.Config, defs ...*scenario.Definition) *Engine {
	t.Helper()
	reg := registry.New()
	for _, def := range defs {
		require.NoError(t, reg.Register(def))
	}
	eng, err := New(reg, cfg)
	require.NoError(t, err)
	return eng
}

func staticRule(method, url string, status int, body interface{}) scenario.MockRule {
	return scenario.MockRule{
		Method:   method,
		URL:      url,
		Response: &scenario.StaticResponse{Status: status, Body: body},
	}
}

func getRequest(url string) *api.RequestSnapshot {
	return &api.RequestSnapshot{Method: "GET", URL: url}
}

func postRequest(url string, body interface{}) *api.RequestSnapshot {
	return &api.RequestSnapshot{Method: "POST", URL: url, Body: body}
}

func bodyMap(t *testing.T, sel *api.Selection) map[string]interface{} {
	t.Helper()
	require.NotNil(t, sel.Response)
	m, ok := sel.Response.Body.(map[string]interface{})
	require.True(t, ok, "response body is not an object: %#v", sel.Response.Body)
	return m
}

func defaultScenario(mocks ...scenario.MockRule) *scenario.Definition {
	return &scenario.Definition{ID: api.DefaultScenarioID, Name: "Default", Mocks: mocks}
}

func TestSelectResponseDefaultTier(t *testing.T) {
	eng := newTestEngine(t, config.Config{},
		defaultScenario(staticRule("GET", "/api/users", 200, map[string]interface{}{"users": []interface{}{}})))

	sel, err := eng.SelectResponse("t1", getRequest("/api/users"))
	require.NoError(t, err)
	assert.Equal(t, api.DispositionMocked, sel.Disposition)
	assert.Equal(t, 200, sel.Response.Status)
	assert.Equal(t, api.DefaultScenarioID, sel.ScenarioID)
	assert.Equal(t, 0, sel.RuleIndex)
	assert.NotEmpty(t, sel.TraceID)
}

func TestSelectResponseActiveTierWinsOverDefault(t *testing.T) {
	eng := newTestEngine(t, config.Config{},
		defaultScenario(staticRule("GET", "/api/users", 200, map[string]interface{}{"from": "default"})),
		&scenario.Definition{
			ID:    "outage",
			Mocks: []scenario.MockRule{staticRule("GET", "/api/users", 503, map[string]interface{}{"from": "outage"})},
		})

	require.NoError(t, eng.SwitchScenario("t1", "outage", ""))

	sel, err := eng.SelectResponse("t1", getRequest("/api/users"))
	require.NoError(t, err)
	assert.Equal(t, 503, sel.Response.Status)
	assert.Equal(t, "outage", sel.ScenarioID)

	// An unswitched session keeps getting the default tier.
	sel, err = eng.SelectResponse("t2", getRequest("/api/users"))
	require.NoError(t, err)
	assert.Equal(t, 200, sel.Response.Status)
	assert.Equal(t, api.DefaultScenarioID, sel.ScenarioID)
}

func TestSelectResponseFallsThroughToDefault(t *testing.T) {
	eng := newTestEngine(t, config.Config{},
		defaultScenario(staticRule("GET", "/api/orders", 200, map[string]interface{}{"orders": "all"})),
		&scenario.Definition{
			ID:    "users-only",
			Mocks: []scenario.MockRule{staticRule("GET", "/api/users", 200, nil)},
		})

	require.NoError(t, eng.SwitchScenario("t1", "users-only", ""))

	sel, err := eng.SelectResponse("t1", getRequest("/api/orders"))
	require.NoError(t, err)
	assert.Equal(t, api.DispositionMocked, sel.Disposition)
	assert.Equal(t, api.DefaultScenarioID, sel.ScenarioID)
}

func TestSelectResponseSpecificityOrdering(t *testing.T) {
	generic := staticRule("GET", "/api/items", 200, map[string]interface{}{"which": "generic"})
	narrow := staticRule("GET", "/api/items", 200, map[string]interface{}{"which": "narrow"})
	narrow.Match = &scenario.MatchCriteria{
		Query: map[string]scenario.StringMatcher{"page": {Equals: "2"}},
	}

	// The more specific rule wins even when declared first.
	eng := newTestEngine(t, config.Config{}, defaultScenario(narrow, generic))

	req := getRequest("/api/items?page=2")
	req.Query = map[string]string{"page": "2"}
	sel, err := eng.SelectResponse("t1", req)
	require.NoError(t, err)
	assert.Equal(t, "narrow", bodyMap(t, sel)["which"])

	sel, err = eng.SelectResponse("t1", getRequest("/api/items"))
	require.NoError(t, err)
	assert.Equal(t, "generic", bodyMap(t, sel)["which"])
}

func TestSelectResponseTieBreakPrefersLaterRule(t *testing.T) {
	first := staticRule("GET", "/api/items", 200, map[string]interface{}{"which": "first"})
	second := staticRule("GET", "/api/items", 200, map[string]interface{}{"which": "second"})
	eng := newTestEngine(t, config.Config{}, defaultScenario(first, second))

	sel, err := eng.SelectResponse("t1", getRequest("/api/items"))
	require.NoError(t, err)
	assert.Equal(t, "second", bodyMap(t, sel)["which"])
}

func TestSelectResponseSequenceRepeatLast(t *testing.T) {
	eng := newTestEngine(t, config.Config{}, defaultScenario(scenario.MockRule{
		Method: "GET",
		URL:    "/api/status",
		Sequence: &scenario.SequenceResponse{
			Responses: []scenario.StaticResponse{
				{Status: 200, Body: map[string]interface{}{"step": 1}},
				{Status: 200, Body: map[string]interface{}{"step": 2}},
				{Status: 200, Body: map[string]interface{}{"step": 3}},
			},
		},
	}))

	var steps []interface{}
	for i := 0; i < 4; i++ {
		sel, err := eng.SelectResponse("t1", getRequest("/api/status"))
		require.NoError(t, err)
		steps = append(steps, bodyMap(t, sel)["step"])
	}
	assert.Equal(t, []interface{}{1, 2, 3, 3}, steps)
}

func TestSelectResponseSequenceCycle(t *testing.T) {
	eng := newTestEngine(t, config.Config{}, defaultScenario(scenario.MockRule{
		Method: "GET",
		URL:    "/api/flip",
		Sequence: &scenario.SequenceResponse{
			Repeat: scenario.RepeatCycle,
			Responses: []scenario.StaticResponse{
				{Status: 200, Body: map[string]interface{}{"side": "heads"}},
				{Status: 200, Body: map[string]interface{}{"side": "tails"}},
			},
		},
	}))

	var sides []interface{}
	for i := 0; i < 3; i++ {
		sel, err := eng.SelectResponse("t1", getRequest("/api/flip"))
		require.NoError(t, err)
		sides = append(sides, bodyMap(t, sel)["side"])
	}
	assert.Equal(t, []interface{}{"heads", "tails", "heads"}, sides)
}

func TestSelectResponseSequencePerTestIsolation(t *testing.T) {
	eng := newTestEngine(t, config.Config{}, defaultScenario(scenario.MockRule{
		Method: "GET",
		URL:    "/api/status",
		Sequence: &scenario.SequenceResponse{
			Responses: []scenario.StaticResponse{
				{Status: 200, Body: map[string]interface{}{"step": 1}},
				{Status: 200, Body: map[string]interface{}{"step": 2}},
			},
		},
	}))

	sel, err := eng.SelectResponse("t1", getRequest("/api/status"))
	require.NoError(t, err)
	assert.Equal(t, 1, bodyMap(t, sel)["step"])
	sel, err = eng.SelectResponse("t1", getRequest("/api/status"))
	require.NoError(t, err)
	assert.Equal(t, 2, bodyMap(t, sel)["step"])

	// The other test starts from the beginning.
	sel, err = eng.SelectResponse("t2", getRequest("/api/status"))
	require.NoError(t, err)
	assert.Equal(t, 1, bodyMap(t, sel)["step"])
}

func TestSelectResponseExhaustedSequenceYieldsToFallback(t *testing.T) {
	seqRule := scenario.MockRule{
		Method: "GET",
		URL:    "/api/token",
		Match: &scenario.MatchCriteria{
			Headers: map[string]scenario.StringMatcher{"x-fresh": {Equals: "yes"}},
		},
		Sequence: &scenario.SequenceResponse{
			Repeat: scenario.RepeatNone,
			Responses: []scenario.StaticResponse{
				{Status: 201, Body: map[string]interface{}{"token": "one-shot"}},
			},
		},
	}
	fallback := staticRule("GET", "/api/token", 200, map[string]interface{}{"token": "evergreen"})
	eng := newTestEngine(t, config.Config{}, defaultScenario(fallback, seqRule))

	req := getRequest("/api/token")
	req.Headers = map[string]string{"X-Fresh": "yes"}

	sel, err := eng.SelectResponse("t1", req)
	require.NoError(t, err)
	assert.Equal(t, "one-shot", bodyMap(t, sel)["token"])

	// Once exhausted the sequence stops matching and the plain rule wins.
	sel, err = eng.SelectResponse("t1", req)
	require.NoError(t, err)
	assert.Equal(t, "evergreen", bodyMap(t, sel)["token"])
}

func TestSelectResponseSequenceExhaustedBehaviors(t *testing.T) {
	def := func() *scenario.Definition {
		return defaultScenario(scenario.MockRule{
			Method: "GET",
			URL:    "/api/once",
			Sequence: &scenario.SequenceResponse{
				Repeat: scenario.RepeatNone,
				Responses: []scenario.StaticResponse{
					{Status: 200, Body: map[string]interface{}{"n": 1}},
				},
			},
		})
	}

	t.Run("throw", func(t *testing.T) {
		cfg := config.Config{ErrorBehaviors: config.ErrorBehaviors{OnSequenceExhausted: config.BehaviorThrow}}
		eng := newTestEngine(t, cfg, def())

		_, err := eng.SelectResponse("t1", getRequest("/api/once"))
		require.NoError(t, err)

		_, err = eng.SelectResponse("t1", getRequest("/api/once"))
		require.Error(t, err)
		assert.True(t, api.IsSequenceExhausted(err))
	})

	t.Run("default falls back to passthrough", func(t *testing.T) {
		eng := newTestEngine(t, config.Config{}, def())

		_, err := eng.SelectResponse("t1", getRequest("/api/once"))
		require.NoError(t, err)

		sel, err := eng.SelectResponse("t1", getRequest("/api/once"))
		require.NoError(t, err)
		assert.Equal(t, api.DispositionPassthrough, sel.Disposition)
		assert.Nil(t, sel.Response)
	})
}

func TestSelectResponseExhaustedTierDoesNotFallThrough(t *testing.T) {
	// The active tier matches (exhausted), so the default tier must not be
	// consulted even though it could serve the request.
	active := &scenario.Definition{
		ID: "limited",
		Mocks: []scenario.MockRule{{
			Method: "GET",
			URL:    "/api/quota",
			Sequence: &scenario.SequenceResponse{
				Repeat:    scenario.RepeatNone,
				Responses: []scenario.StaticResponse{{Status: 200, Body: map[string]interface{}{"left": 0}}},
			},
		}},
	}
	cfg := config.Config{ErrorBehaviors: config.ErrorBehaviors{OnSequenceExhausted: config.BehaviorThrow}}
	eng := newTestEngine(t, cfg,
		defaultScenario(staticRule("GET", "/api/quota", 200, map[string]interface{}{"left": 100})),
		active)

	require.NoError(t, eng.SwitchScenario("t1", "limited", ""))

	_, err := eng.SelectResponse("t1", getRequest("/api/quota"))
	require.NoError(t, err)

	_, err = eng.SelectResponse("t1", getRequest("/api/quota"))
	require.Error(t, err)
	assert.True(t, api.IsSequenceExhausted(err))
}

func TestSelectResponseCaptureThenInjectSameCycle(t *testing.T) {
	eng := newTestEngine(t, config.Config{}, defaultScenario(scenario.MockRule{
		Method:       "POST",
		URL:          "/api/login",
		CaptureState: map[string]string{"userName": "body.user.name"},
		Response: &scenario.StaticResponse{
			Status: 200,
			Body:   map[string]interface{}{"greeting": "hello {{state.userName}}"},
		},
	}))

	sel, err := eng.SelectResponse("t1", postRequest("/api/login", map[string]interface{}{
		"user": map[string]interface{}{"name": "ada"},
	}))
	require.NoError(t, err)
	assert.Equal(t, "hello ada", bodyMap(t, sel)["greeting"])

	snapshot := eng.StateSnapshot("t1")
	assert.Equal(t, "ada", snapshot["userName"])
}

func TestSelectResponseCaptureAppend(t *testing.T) {
	eng := newTestEngine(t, config.Config{}, defaultScenario(scenario.MockRule{
		Method:       "POST",
		URL:          "/api/cart",
		CaptureState: map[string]string{"cartItems[]": "body.sku"},
		Response: &scenario.StaticResponse{
			Status: 200,
			Body:   map[string]interface{}{"count": "{{state.cartItems.length}}"},
		},
	}))

	sel, err := eng.SelectResponse("t1", postRequest("/api/cart", map[string]interface{}{"sku": "a-1"}))
	require.NoError(t, err)
	assert.Equal(t, "1", bodyMap(t, sel)["count"])

	sel, err = eng.SelectResponse("t1", postRequest("/api/cart", map[string]interface{}{"sku": "b-2"}))
	require.NoError(t, err)
	assert.Equal(t, "2", bodyMap(t, sel)["count"])

	snapshot := eng.StateSnapshot("t1")
	assert.Equal(t, []interface{}{"a-1", "b-2"}, snapshot["cartItems"])
}

func TestSelectResponseStateConditional(t *testing.T) {
	eng := newTestEngine(t, config.Config{}, defaultScenario(
		scenario.MockRule{
			Method:       "POST",
			URL:          "/api/profile",
			CaptureState: map[string]string{"tier": "body.tier"},
			Response:     &scenario.StaticResponse{Status: 204},
		},
		scenario.MockRule{
			Method: "GET",
			URL:    "/api/price",
			StateResponse: &scenario.StateConditionalResponse{
				Default: scenario.StaticResponse{Status: 200, Body: map[string]interface{}{"price": 1000}},
				Conditions: []scenario.StateCondition{{
					When: map[string]interface{}{"tier": "premium"},
					Then: scenario.StaticResponse{Status: 200, Body: map[string]interface{}{"price": 8000}},
				}},
			},
		},
	))

	// Before any capture the default branch serves.
	sel, err := eng.SelectResponse("t1", getRequest("/api/price"))
	require.NoError(t, err)
	assert.Equal(t, 1000, bodyMap(t, sel)["price"])

	_, err = eng.SelectResponse("t1", postRequest("/api/profile", map[string]interface{}{"tier": "premium"}))
	require.NoError(t, err)

	sel, err = eng.SelectResponse("t1", getRequest("/api/price"))
	require.NoError(t, err)
	assert.Equal(t, 8000, bodyMap(t, sel)["price"])

	// Another test never sees t1's tier.
	sel, err = eng.SelectResponse("t2", getRequest("/api/price"))
	require.NoError(t, err)
	assert.Equal(t, 1000, bodyMap(t, sel)["price"])
}

func TestSelectResponseAfterResponseMutatesState(t *testing.T) {
	eng := newTestEngine(t, config.Config{}, defaultScenario(scenario.MockRule{
		Method:   "POST",
		URL:      "/api/checkout",
		Response: &scenario.StaticResponse{Status: 200},
		AfterResponse: &scenario.AfterResponse{
			SetState: map[string]interface{}{"orderPlaced": true, "orderId": "{{body.id}}"},
		},
	}))

	_, err := eng.SelectResponse("t1", postRequest("/api/checkout", map[string]interface{}{"id": "ord-7"}))
	require.NoError(t, err)

	snapshot := eng.StateSnapshot("t1")
	assert.Equal(t, true, snapshot["orderPlaced"])
	assert.Equal(t, "ord-7", snapshot["orderId"])
}

func TestSelectResponseConditionAfterResponseOverride(t *testing.T) {
	rule := scenario.MockRule{
		Method: "GET",
		URL:    "/api/step",
		StateResponse: &scenario.StateConditionalResponse{
			Default: scenario.StaticResponse{Status: 200, Body: map[string]interface{}{"phase": "start"}},
			Conditions: []scenario.StateCondition{
				{
					When:             map[string]interface{}{"phase": "done"},
					Then:             scenario.StaticResponse{Status: 200, Body: map[string]interface{}{"phase": "done"}},
					AfterResponseSet: true, // explicit null: suppress the rule-level mutation
				},
				{
					When:             map[string]interface{}{"phase": "running"},
					Then:             scenario.StaticResponse{Status: 200, Body: map[string]interface{}{"phase": "running"}},
					AfterResponseSet: true,
					AfterResponse: &scenario.AfterResponse{
						SetState: map[string]interface{}{"phase": "done"},
					},
				},
			},
		},
		AfterResponse: &scenario.AfterResponse{
			SetState: map[string]interface{}{"phase": "running"},
		},
	}
	eng := newTestEngine(t, config.Config{}, defaultScenario(rule))

	// Default branch: rule-level afterResponse advances phase to running.
	sel, err := eng.SelectResponse("t1", getRequest("/api/step"))
	require.NoError(t, err)
	assert.Equal(t, "start", bodyMap(t, sel)["phase"])

	// Running branch: condition afterResponse replaces the rule-level one.
	sel, err = eng.SelectResponse("t1", getRequest("/api/step"))
	require.NoError(t, err)
	assert.Equal(t, "running", bodyMap(t, sel)["phase"])

	// Done branch: explicit null keeps phase at done forever.
	for i := 0; i < 2; i++ {
		sel, err = eng.SelectResponse("t1", getRequest("/api/step"))
		require.NoError(t, err)
		assert.Equal(t, "done", bodyMap(t, sel)["phase"])
	}
}

func TestSelectResponseUnresolvedPlaceholderLeftIntact(t *testing.T) {
	eng := newTestEngine(t, config.Config{}, defaultScenario(scenario.MockRule{
		Method: "GET",
		URL:    "/api/whoami",
		Response: &scenario.StaticResponse{
			Status: 200,
			Body:   map[string]interface{}{"name": "{{state.missing.name}}"},
		},
	}))

	sel, err := eng.SelectResponse("t1", getRequest("/api/whoami"))
	require.NoError(t, err)
	assert.Equal(t, "{{state.missing.name}}", bodyMap(t, sel)["name"])
}

func TestSelectResponsePathParams(t *testing.T) {
	eng := newTestEngine(t, config.Config{}, defaultScenario(scenario.MockRule{
		Method: "GET",
		URL:    "/api/users/:id",
		Response: &scenario.StaticResponse{
			Status: 200,
			Body:   map[string]interface{}{"id": "{{params.id}}"},
		},
	}))

	sel, err := eng.SelectResponse("t1", getRequest("/api/users/42"))
	require.NoError(t, err)
	assert.Equal(t, "42", bodyMap(t, sel)["id"])
}

func TestSelectResponseNoMockFoundBehaviors(t *testing.T) {
	def := defaultScenario(staticRule("GET", "/api/known", 200, nil))

	t.Run("default passthrough", func(t *testing.T) {
		eng := newTestEngine(t, config.Config{}, def)
		sel, err := eng.SelectResponse("t1", getRequest("/api/unknown"))
		require.NoError(t, err)
		assert.Equal(t, api.DispositionPassthrough, sel.Disposition)
		assert.Nil(t, sel.Response)
		assert.Equal(t, -1, sel.RuleIndex)
	})

	t.Run("strict mode", func(t *testing.T) {
		eng := newTestEngine(t, config.Config{StrictMode: true}, def)
		sel, err := eng.SelectResponse("t1", getRequest("/api/unknown"))
		require.NoError(t, err)
		assert.Equal(t, api.DispositionNotImplemented, sel.Disposition)
	})

	t.Run("throw", func(t *testing.T) {
		cfg := config.Config{ErrorBehaviors: config.ErrorBehaviors{OnNoMockFound: config.BehaviorThrow}}
		eng := newTestEngine(t, cfg, def)
		_, err := eng.SelectResponse("t1", getRequest("/api/unknown"))
		require.Error(t, err)
		assert.True(t, api.IsNoMockFound(err))
	})
}

func TestSelectResponseMissingTestID(t *testing.T) {
	def := defaultScenario(scenario.MockRule{
		Method:       "POST",
		URL:          "/api/visit",
		CaptureState: map[string]string{"visits[]": "body.page"},
		Response:     &scenario.StaticResponse{Status: 200},
	})

	t.Run("default shares the anonymous session", func(t *testing.T) {
		eng := newTestEngine(t, config.Config{}, def)
		_, err := eng.SelectResponse("", postRequest("/api/visit", map[string]interface{}{"page": "home"}))
		require.NoError(t, err)
		snapshot := eng.StateSnapshot(api.DefaultTestID)
		assert.Equal(t, []interface{}{"home"}, snapshot["visits"])
	})

	t.Run("throw", func(t *testing.T) {
		cfg := config.Config{ErrorBehaviors: config.ErrorBehaviors{OnMissingTestID: config.BehaviorThrow}}
		eng := newTestEngine(t, cfg, def)
		_, err := eng.SelectResponse("", postRequest("/api/visit", map[string]interface{}{"page": "home"}))
		require.Error(t, err)
		assert.True(t, api.IsMissingTestID(err))
	})
}

func TestSwitchScenarioUnknownLeavesEverything(t *testing.T) {
	eng := newTestEngine(t, config.Config{},
		defaultScenario(scenario.MockRule{
			Method:       "POST",
			URL:          "/api/login",
			CaptureState: map[string]string{"user": "body.user"},
			Response:     &scenario.StaticResponse{Status: 200},
		}),
		&scenario.Definition{ID: "alt", Mocks: []scenario.MockRule{staticRule("GET", "/x", 200, nil)}})

	require.NoError(t, eng.SwitchScenario("t1", "alt", "v2"))
	_, err := eng.SelectResponse("t1", postRequest("/api/login", map[string]interface{}{"user": "ada"}))
	require.NoError(t, err)

	err = eng.SwitchScenario("t1", "no-such-scenario", "")
	require.Error(t, err)
	assert.True(t, api.IsNotFound(err))

	binding, ok := eng.ActiveScenario("t1")
	require.True(t, ok)
	assert.Equal(t, "alt", binding.ScenarioID)
	assert.Equal(t, "v2", binding.Variant)
	assert.Equal(t, "ada", eng.StateSnapshot("t1")["user"])
}

func TestSwitchScenarioKeepsStateAndCursors(t *testing.T) {
	eng := newTestEngine(t, config.Config{},
		defaultScenario(scenario.MockRule{
			Method: "GET",
			URL:    "/api/seq",
			Sequence: &scenario.SequenceResponse{
				Responses: []scenario.StaticResponse{
					{Status: 200, Body: map[string]interface{}{"step": 1}},
					{Status: 200, Body: map[string]interface{}{"step": 2}},
				},
			},
		}),
		&scenario.Definition{ID: "alt", Mocks: []scenario.MockRule{staticRule("GET", "/x", 200, nil)}})

	sel, err := eng.SelectResponse("t1", getRequest("/api/seq"))
	require.NoError(t, err)
	assert.Equal(t, 1, bodyMap(t, sel)["step"])

	require.NoError(t, eng.SwitchScenario("t1", "alt", ""))

	// The default-tier sequence cursor survived the switch.
	sel, err = eng.SelectResponse("t1", getRequest("/api/seq"))
	require.NoError(t, err)
	assert.Equal(t, 2, bodyMap(t, sel)["step"])
}

func TestClearScenarioAndResetSession(t *testing.T) {
	eng := newTestEngine(t, config.Config{},
		defaultScenario(staticRule("GET", "/x", 200, nil)),
		&scenario.Definition{ID: "alt", Mocks: []scenario.MockRule{staticRule("GET", "/x", 200, nil)}})

	require.NoError(t, eng.SwitchScenario("t1", "alt", ""))
	eng.ClearScenario("t1")
	_, ok := eng.ActiveScenario("t1")
	assert.False(t, ok)

	require.NoError(t, eng.SwitchScenario("t1", "alt", ""))
	eng.states.Set("t1", "left", "over")
	eng.ResetSession("t1")
	_, ok = eng.ActiveScenario("t1")
	assert.False(t, ok)
	assert.Empty(t, eng.StateSnapshot("t1"))
}

func TestStateIsolationAcrossTests(t *testing.T) {
	eng := newTestEngine(t, config.Config{}, defaultScenario(scenario.MockRule{
		Method:       "POST",
		URL:          "/api/login",
		CaptureState: map[string]string{"user": "body.user"},
		Response:     &scenario.StaticResponse{Status: 200, Body: map[string]interface{}{"hi": "{{state.user}}"}},
	}))

	_, err := eng.SelectResponse("t1", postRequest("/api/login", map[string]interface{}{"user": "ada"}))
	require.NoError(t, err)
	_, err = eng.SelectResponse("t2", postRequest("/api/login", map[string]interface{}{"user": "grace"}))
	require.NoError(t, err)

	assert.Equal(t, "ada", eng.StateSnapshot("t1")["user"])
	assert.Equal(t, "grace", eng.StateSnapshot("t2")["user"])
}

func TestSelectResponseRecordsSelections(t *testing.T) {
	cfg := config.Config{ErrorBehaviors: config.ErrorBehaviors{OnNoMockFound: config.BehaviorThrow}}
	eng := newTestEngine(t, cfg, defaultScenario(staticRule("GET", "/api/ok", 200, nil)))

	sel, err := eng.SelectResponse("t1", getRequest("/api/ok"))
	require.NoError(t, err)
	_, err = eng.SelectResponse("t1", getRequest("/api/missing"))
	require.Error(t, err)
	_, err = eng.SelectResponse("t2", getRequest("/api/ok"))
	require.NoError(t, err)

	records := eng.Selections("t1")
	require.Len(t, records, 2)
	assert.Equal(t, sel.TraceID, records[0].TraceID)
	assert.Equal(t, api.DispositionMocked, records[0].Disposition)
	assert.Equal(t, "GET", records[1].Method)
	assert.Equal(t, "/api/missing", records[1].URL)
	assert.Contains(t, records[1].Err, "no mock found")
}
