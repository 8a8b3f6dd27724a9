package match

import (
	"fmt"
	"regexp"

	"scenarist/internal/api"
	"scenarist/internal/scenario"
)

// compiledMatcher pairs a declared string matcher with its compiled regex,
// when the strategy needs one.
type compiledMatcher struct {
	matcher scenario.StringMatcher
	re      *regexp.Regexp
}

// CompiledRule is a mock rule with everything the hot path needs parsed up
// front: the URL pattern, capture sources, and criteria regexes.
type CompiledRule struct {
	// Rule is the declared rule.
	Rule *scenario.MockRule

	// ScenarioID and Index identify this rule instance; together they form
	// the stable sequence-cursor key.
	ScenarioID string
	Index      int

	// Pattern is the compiled URL pattern.
	Pattern *URLPattern

	// Captures are the parsed captureState entries.
	Captures []scenario.CaptureSpec

	headerMatchers map[string]compiledMatcher
	queryMatchers  map[string]compiledMatcher
	urlMatcher     *compiledMatcher
}

// SequenceKey returns the cursor key for this rule instance.
func (r *CompiledRule) SequenceKey() (string, int) {
	return r.ScenarioID, r.Index
}

// CompiledScenario is a scenario whose rules have all been compiled.
type CompiledScenario struct {
	Definition *scenario.Definition
	Rules      []*CompiledRule
}

// Compile validates and compiles every rule of a definition. Callers run
// scenario.Validate first; Compile adds the checks that need pattern and
// regex compilation, reporting failures as validation errors.
func Compile(def *scenario.Definition) (*CompiledScenario, error) {
	compiled := &CompiledScenario{
		Definition: def,
		Rules:      make([]*CompiledRule, 0, len(def.Mocks)),
	}
	for i := range def.Mocks {
		rule, err := compileRule(def.ID, i, &def.Mocks[i])
		if err != nil {
			return nil, err
		}
		compiled.Rules = append(compiled.Rules, rule)
	}
	return compiled, nil
}

func compileRule(scenarioID string, index int, rule *scenario.MockRule) (*CompiledRule, error) {
	pattern, err := CompilePattern(rule.URL)
	if err != nil {
		return nil, api.NewValidationError(scenarioID, fmt.Sprintf("mocks[%d].url", index), err.Error())
	}

	captures, err := scenario.ParseCaptures(rule.CaptureState)
	if err != nil {
		return nil, api.NewValidationError(scenarioID, fmt.Sprintf("mocks[%d].captureState", index), err.Error())
	}

	compiled := &CompiledRule{
		Rule:       rule,
		ScenarioID: scenarioID,
		Index:      index,
		Pattern:    pattern,
		Captures:   captures,
	}

	if rule.Match != nil {
		compiled.headerMatchers, err = compileMatchers(scenarioID, index, "headers", rule.Match.Headers)
		if err != nil {
			return nil, err
		}
		compiled.queryMatchers, err = compileMatchers(scenarioID, index, "query", rule.Match.Query)
		if err != nil {
			return nil, err
		}
		if rule.Match.URL != nil {
			cm, err := compileMatcher(*rule.Match.URL)
			if err != nil {
				return nil, api.NewValidationError(scenarioID, fmt.Sprintf("mocks[%d].match.url", index), err.Error())
			}
			compiled.urlMatcher = &cm
		}
	}
	return compiled, nil
}

func compileMatchers(scenarioID string, index int, field string, matchers map[string]scenario.StringMatcher) (map[string]compiledMatcher, error) {
	if len(matchers) == 0 {
		return nil, nil
	}
	out := make(map[string]compiledMatcher, len(matchers))
	for name, m := range matchers {
		cm, err := compileMatcher(m)
		if err != nil {
			return nil, api.NewValidationError(scenarioID,
				fmt.Sprintf("mocks[%d].match.%s.%s", index, field, name), err.Error())
		}
		out[name] = cm
	}
	return out, nil
}

func compileMatcher(m scenario.StringMatcher) (compiledMatcher, error) {
	cm := compiledMatcher{matcher: m}
	if m.Strategy() == "regex" {
		re, err := regexp.Compile(m.Regex)
		if err != nil {
			return compiledMatcher{}, fmt.Errorf("invalid regex %q: %w", m.Regex, err)
		}
		cm.re = re
	}
	return cm, nil
}
