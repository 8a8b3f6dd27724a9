package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"scenarist/internal/api"
	"scenarist/internal/config"
	"scenarist/internal/match"
	"scenarist/internal/scenario"
	"scenarist/internal/sequence"
	"scenarist/internal/state"
	"scenarist/internal/template"
	"scenarist/pkg/logging"
)

// candidate is one rule that matched the request during tier search.
type candidate struct {
	rule   *match.CompiledRule
	result match.Result
}

// tierResult summarizes searching one scenario tier.
type tierResult struct {
	// winner is the highest-specificity match, later declaration winning
	// ties. Nil when no live candidate exists.
	winner *candidate

	// matched reports whether any rule matched at all, exhausted
	// sequences included. A tier with matches never falls through to the
	// next tier, even when every match is exhausted.
	matched bool

	// exhausted is the last exhausted-sequence rule seen, for the
	// sequence-exhausted diagnostic.
	exhausted *match.CompiledRule

	// nearMiss is a rule whose method and URL pattern matched but whose
	// criteria failed, for the no-mock-found diagnostic.
	nearMiss *match.CompiledRule
}

// SelectResponse picks the response for one intercepted request. The search
// runs over the session's active scenario first and falls through to the
// default scenario only when the active tier produced no match at all.
// Within a tier the most specific matching rule wins, with ties broken in
// favor of the later declaration. Selection, capture, sequence advancement,
// and afterResponse mutations are atomic per test session.
func (e *Engine) SelectResponse(testID string, req *api.RequestSnapshot) (sel *api.Selection, err error) {
	traceID := uuid.New().String()

	defer func() {
		if r := recover(); r != nil {
			herr := api.NewHandlerError(testID, fmt.Errorf("panic: %v", r))
			logging.Error(subsystem, herr, "Selection failed for %s %s", req.Method, req.URL)
			e.record(traceID, testID, req, nil, herr)
			sel, err = nil, herr
		}
	}()

	testID, err = e.resolveTestID(testID, req)
	if err != nil {
		e.record(traceID, testID, req, nil, err)
		return nil, err
	}

	mu := e.sessionLock(testID)
	mu.Lock()
	defer mu.Unlock()

	stateData := e.states.Snapshot(testID)

	binding, bound := e.ActiveScenario(testID)
	var tiers []*match.CompiledScenario
	if bound && binding.ScenarioID != api.DefaultScenarioID {
		if cs, ok := e.registry.Get(binding.ScenarioID); ok {
			tiers = append(tiers, cs)
		} else {
			// Binding predates a reload that removed the scenario.
			logging.Warn(subsystem, "Test %s is bound to unknown scenario %s, using default tier", testID, binding.ScenarioID)
		}
	}
	if cs, ok := e.registry.Get(api.DefaultScenarioID); ok {
		tiers = append(tiers, cs)
	}

	var firstMiss *match.CompiledRule
	for _, cs := range tiers {
		tr := e.searchTier(cs, testID, req, stateData)
		if tr.winner != nil {
			sel, err := e.resolve(traceID, testID, req, tr.winner)
			e.record(traceID, testID, req, sel, err)
			return sel, err
		}
		if tr.matched {
			sel, err := e.sequenceExhausted(traceID, testID, req, tr.exhausted)
			e.record(traceID, testID, req, sel, err)
			return sel, err
		}
		if firstMiss == nil {
			firstMiss = tr.nearMiss
		}
	}

	sel, err = e.noMockFound(traceID, testID, req, firstMiss)
	e.record(traceID, testID, req, sel, err)
	return sel, err
}

// resolveTestID applies the missing-test-ID policy. The tolerant outcome is
// the shared default session.
func (e *Engine) resolveTestID(testID string, req *api.RequestSnapshot) (string, error) {
	if testID != "" {
		return testID, nil
	}
	switch e.cfg.ErrorBehaviors.OnMissingTestID {
	case config.BehaviorThrow:
		return "", &api.MissingTestIDError{Method: req.Method, URL: req.URL}
	case config.BehaviorWarn:
		logging.Warn(subsystem, "Request %s %s carries no test ID, using the %q session", req.Method, req.URL, api.DefaultTestID)
	}
	return api.DefaultTestID, nil
}

// searchTier evaluates every rule of one scenario in declaration order.
// Exhausted repeat-none sequences are excluded from candidacy but still
// count as matches, so they block fallthrough to the next tier.
func (e *Engine) searchTier(cs *match.CompiledScenario, testID string, req *api.RequestSnapshot, stateData map[string]interface{}) tierResult {
	var tr tierResult
	for _, rule := range cs.Rules {
		res := rule.Evaluate(req, stateData)
		if !res.Matched {
			if res.PatternMatched && tr.nearMiss == nil {
				tr.nearMiss = rule
			}
			continue
		}
		tr.matched = true
		if e.isExhausted(testID, rule) {
			tr.exhausted = rule
			continue
		}
		// >= keeps the later declaration on equal specificity.
		if tr.winner == nil || res.Specificity >= tr.winner.result.Specificity {
			tr.winner = &candidate{rule: rule, result: res}
		}
	}
	return tr
}

func (e *Engine) isExhausted(testID string, rule *match.CompiledRule) bool {
	seq := rule.Rule.Sequence
	if seq == nil || seq.Repeat != scenario.RepeatNone {
		return false
	}
	scenarioID, index := rule.SequenceKey()
	cursor := e.sequences.Position(testID, sequence.MockKey{ScenarioID: scenarioID, RuleIndex: index})
	return cursor.Exhausted
}

// resolve runs the winning rule through the response pipeline: capture state
// from the request, pick the outcome response, render templates against the
// post-capture state, then apply afterResponse mutations.
func (e *Engine) resolve(traceID, testID string, req *api.RequestSnapshot, won *candidate) (*api.Selection, error) {
	e.applyCaptures(testID, req, won.rule)

	resp, after, err := e.pickResponse(testID, won.rule)
	if err != nil {
		return nil, err
	}

	ctx := &template.Context{
		State:   e.states.Snapshot(testID),
		Body:    req.Body,
		Params:  won.result.Params,
		Query:   req.Query,
		Headers: req.Headers,
	}
	body := template.Render(resp.Body, ctx)

	if after != nil {
		e.applyAfterResponse(testID, after, ctx)
	}

	headers := make(map[string]string, len(resp.Headers))
	for k, v := range resp.Headers {
		headers[k] = v
	}

	logging.Debug(subsystem, "Test %s matched scenario %s mock %d for %s %s", testID, won.rule.ScenarioID, won.rule.Index, req.Method, req.URL)
	return &api.Selection{
		TraceID:     traceID,
		Disposition: api.DispositionMocked,
		Response: &api.ResolvedResponse{
			Status:  resp.Status,
			Headers: headers,
			Body:    body,
			Delay:   resp.DelayDuration(),
		},
		ScenarioID: won.rule.ScenarioID,
		RuleIndex:  won.rule.Index,
	}, nil
}

// applyCaptures writes each declared capture into session state. Sources
// that do not resolve on this request are skipped, leaving any previous
// value in place.
func (e *Engine) applyCaptures(testID string, req *api.RequestSnapshot, rule *match.CompiledRule) {
	for _, spec := range rule.Captures {
		value, ok := captureValue(req, spec.Source)
		if !ok {
			continue
		}
		if spec.Append {
			e.states.AppendArray(testID, spec.Key, value)
		} else {
			e.states.Set(testID, spec.Key, value)
		}
	}
}

func captureValue(req *api.RequestSnapshot, src scenario.SourceRef) (interface{}, bool) {
	switch src.Kind {
	case scenario.SourceBody:
		if req.Body == nil {
			return nil, false
		}
		return state.Lookup(req.Body, src.Path)
	case scenario.SourceHeaders:
		v, ok := req.Header(src.Path)
		return v, ok
	case scenario.SourceQuery:
		v, ok := req.Query[src.Path]
		return v, ok
	default:
		return nil, false
	}
}

// pickResponse selects the concrete response for the rule's outcome and
// returns the effective afterResponse. For state-conditional outcomes a
// condition that declares its own afterResponse key replaces the rule-level
// one entirely, including an explicit null that suppresses it.
func (e *Engine) pickResponse(testID string, rule *match.CompiledRule) (*scenario.StaticResponse, *scenario.AfterResponse, error) {
	after := rule.Rule.AfterResponse

	switch rule.Rule.OutcomeKind() {
	case scenario.OutcomeStatic:
		return rule.Rule.Response, after, nil

	case scenario.OutcomeSequence:
		seq := rule.Rule.Sequence
		scenarioID, index := rule.SequenceKey()
		key := sequence.MockKey{ScenarioID: scenarioID, RuleIndex: index}
		cursor := e.sequences.Position(testID, key)
		idx := sequence.ResponseIndex(cursor.Position, seq.Repeat, len(seq.Responses))
		e.sequences.Advance(testID, key, seq.Repeat, len(seq.Responses))
		return &seq.Responses[idx], after, nil

	case scenario.OutcomeStateConditional:
		sr := rule.Rule.StateResponse
		stateData := e.states.Snapshot(testID)
		for i := range sr.Conditions {
			cond := &sr.Conditions[i]
			if !match.MatchesState(cond.When, stateData) {
				continue
			}
			if cond.AfterResponseSet {
				after = cond.AfterResponse
			}
			return &cond.Then, after, nil
		}
		return &sr.Default, after, nil

	default:
		herr := api.NewHandlerError(testID, fmt.Errorf("mock %d of scenario %s declares no outcome", rule.Index, rule.ScenarioID))
		logging.Error(subsystem, herr, "Mock outcome resolution failed")
		return nil, nil, herr
	}
}

// applyAfterResponse writes each setState entry independently. String values
// are rendered against the same template context as the response body, so a
// mutation can derive from the request or current state. Keys replace
// whatever was stored; nested objects are not merged.
func (e *Engine) applyAfterResponse(testID string, after *scenario.AfterResponse, ctx *template.Context) {
	for key, value := range after.SetState {
		e.states.Set(testID, key, template.Render(value, ctx))
	}
}

// sequenceExhausted applies the configured behavior when every match in the
// winning tier is an exhausted repeat-none sequence.
func (e *Engine) sequenceExhausted(traceID, testID string, req *api.RequestSnapshot, rule *match.CompiledRule) (*api.Selection, error) {
	switch e.cfg.ErrorBehaviors.OnSequenceExhausted {
	case config.BehaviorThrow:
		return nil, &api.SequenceExhaustedError{TestID: testID, ScenarioID: rule.ScenarioID, RuleIndex: rule.Index}
	case config.BehaviorWarn:
		logging.Warn(subsystem, "Sequence exhausted for test %s: scenario %s mock %d no longer matches %s %s", testID, rule.ScenarioID, rule.Index, req.Method, req.URL)
	}
	return e.fallbackSelection(traceID), nil
}

// noMockFound applies the configured behavior when neither tier matched.
func (e *Engine) noMockFound(traceID, testID string, req *api.RequestSnapshot, nearMiss *match.CompiledRule) (*api.Selection, error) {
	switch e.cfg.ErrorBehaviors.OnNoMockFound {
	case config.BehaviorThrow:
		nmErr := &api.NoMockFoundError{TestID: testID, Method: req.Method, URL: req.URL}
		if binding, ok := e.ActiveScenario(testID); ok {
			nmErr.ScenarioID = binding.ScenarioID
		}
		return nil, nmErr
	case config.BehaviorWarn:
		if nearMiss != nil {
			logging.Warn(subsystem, "No mock found for %s %s (test %s); closest rule is scenario %s mock %d, whose criteria did not match", req.Method, req.URL, testID, nearMiss.ScenarioID, nearMiss.Index)
		} else {
			logging.Warn(subsystem, "No mock found for %s %s (test %s)", req.Method, req.URL, testID)
		}
	}
	return e.fallbackSelection(traceID), nil
}

// fallbackSelection is the unmatched-request outcome: passthrough to the
// real network, or an explicit not-implemented signal in strict mode.
func (e *Engine) fallbackSelection(traceID string) *api.Selection {
	disposition := api.DispositionPassthrough
	if e.cfg.StrictMode {
		disposition = api.DispositionNotImplemented
	}
	return &api.Selection{TraceID: traceID, Disposition: disposition, RuleIndex: -1}
}

func (e *Engine) record(traceID, testID string, req *api.RequestSnapshot, sel *api.Selection, err error) {
	rec := Record{
		TraceID:   traceID,
		TestID:    testID,
		Timestamp: time.Now(),
		Method:    req.Method,
		URL:       req.URL,
		RuleIndex: -1,
	}
	if sel != nil {
		rec.Disposition = sel.Disposition
		rec.ScenarioID = sel.ScenarioID
		rec.RuleIndex = sel.RuleIndex
	}
	if err != nil {
		rec.Err = err.Error()
	}
	e.recorder.Add(rec)
}
