package match

import (
	"fmt"
	"reflect"
	"strings"

	"scenarist/internal/api"
	"scenarist/internal/state"
)

// Result is the outcome of evaluating one rule against a request.
type Result struct {
	// Matched reports whether every declared criterion held.
	Matched bool

	// PatternMatched reports whether method and URL pattern matched, even
	// when criteria later failed. Used for near-miss diagnostics.
	PatternMatched bool

	// Specificity counts the distinct criteria fields the rule declared
	// and matched, plus a bonus for a non-trivial url strategy. Only the
	// ordering it induces is contractual: more declared criteria always
	// outscore fewer.
	Specificity int

	// Params carries named parameters extracted from the URL pattern.
	Params map[string]string
}

// Evaluate is the pure matching function: it tests a compiled rule against a
// request snapshot and the session's current state, with no side effects.
func (r *CompiledRule) Evaluate(req *api.RequestSnapshot, stateData map[string]interface{}) Result {
	if r.Rule.Method != req.Method {
		return Result{}
	}
	params, ok := r.Pattern.Match(req.URL)
	if !ok {
		return Result{}
	}

	criteria := r.Rule.Match
	if criteria == nil {
		return Result{Matched: true, PatternMatched: true, Params: params}
	}

	nearMiss := Result{PatternMatched: true}
	if !r.matchBody(criteria.Body, req.Body) {
		return nearMiss
	}
	if !r.matchHeaders(req) {
		return nearMiss
	}
	if !r.matchQuery(req) {
		return nearMiss
	}
	if r.urlMatcher != nil && !r.urlMatcher.matches(req.URL) {
		return nearMiss
	}
	if !MatchesState(criteria.State, stateData) {
		return nearMiss
	}

	specificity := criteria.FieldCount()
	if r.urlMatcher != nil && r.urlMatcher.matcher.Strategy() != "equals" {
		specificity++
	}
	return Result{Matched: true, PatternMatched: true, Specificity: specificity, Params: params}
}

// matchBody checks each declared body key, addressed as a dotted path into
// the request body, for loose equality. A missing request body fails any
// declared body criteria.
func (r *CompiledRule) matchBody(expected map[string]interface{}, body interface{}) bool {
	if len(expected) == 0 {
		return true
	}
	if body == nil {
		return false
	}
	for path, want := range expected {
		got, ok := state.Lookup(body, path)
		if !ok || !valuesEqual(want, got) {
			return false
		}
	}
	return true
}

func (r *CompiledRule) matchHeaders(req *api.RequestSnapshot) bool {
	for name, cm := range r.headerMatchers {
		value, ok := req.Header(name)
		if !ok || !cm.matches(value) {
			return false
		}
	}
	return true
}

func (r *CompiledRule) matchQuery(req *api.RequestSnapshot) bool {
	for name, cm := range r.queryMatchers {
		value, ok := req.Query[name]
		if !ok || !cm.matches(value) {
			return false
		}
	}
	return true
}

// MatchesState checks each declared state key, addressed as a dotted path
// into the session's state, for loose equality. The selector reuses it to
// evaluate state-conditional response conditions.
func MatchesState(expected map[string]interface{}, stateData map[string]interface{}) bool {
	for path, want := range expected {
		got, ok := state.Lookup(stateData, path)
		if !ok || !valuesEqual(want, got) {
			return false
		}
	}
	return true
}

func (cm *compiledMatcher) matches(value string) bool {
	switch cm.matcher.Strategy() {
	case "contains":
		return strings.Contains(value, cm.matcher.Contains)
	case "startsWith":
		return strings.HasPrefix(value, cm.matcher.StartsWith)
	case "endsWith":
		return strings.HasSuffix(value, cm.matcher.EndsWith)
	case "regex":
		return cm.re.MatchString(value)
	default:
		return value == cm.matcher.Equals
	}
}

// valuesEqual compares a declared criteria value with a request value,
// tolerating the numeric type differences JSON decoding introduces.
func valuesEqual(expected, actual interface{}) bool {
	if reflect.DeepEqual(expected, actual) {
		return true
	}
	return fmt.Sprintf("%v", expected) == fmt.Sprintf("%v", actual)
}
