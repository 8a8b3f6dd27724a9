package scenario

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Definition is a complete, named backend behavior set: an ordered list of
// mock rules evaluated in declaration order. Definitions are immutable once
// registered.
type Definition struct {
	// ID uniquely identifies the scenario. The scenario with ID "default"
	// acts as the fallback tier during selection.
	ID string `json:"id"`

	// Name is a human-readable display name.
	Name string `json:"name"`

	// Description optionally documents what backend behavior this
	// scenario represents.
	Description string `json:"description,omitempty"`

	// Mocks is the ordered rule list. Order matters: equal-specificity
	// ties are broken in favor of the later rule.
	Mocks []MockRule `json:"mocks"`
}

// MockRule is a single request-matching and response-producing declaration.
type MockRule struct {
	// Method is the HTTP method this rule responds to, matched
	// case-sensitively.
	Method string `json:"method"`

	// URL is the URL pattern: a pathname ("/api/users"), an absolute URL
	// ("https://api.example.com/users"), a regex wrapped in slashes
	// ("/\/api\/users\/\d+/"), or a templated path with named segments
	// ("/api/users/:id").
	URL string `json:"url"`

	// Match holds optional additional criteria. Every declared field must
	// be satisfied for the rule to match.
	Match *MatchCriteria `json:"match,omitempty"`

	// Exactly one of Response, Sequence, StateResponse must be set.
	Response      *StaticResponse           `json:"response,omitempty"`
	Sequence      *SequenceResponse         `json:"sequence,omitempty"`
	StateResponse *StateConditionalResponse `json:"stateResponse,omitempty"`

	// CaptureState maps a state key (or "key[]" for array append) to a
	// request source expression like "body.user.name" or
	// "headers.x-session-id".
	CaptureState map[string]string `json:"captureState,omitempty"`

	// AfterResponse optionally mutates state after the response has been
	// resolved and rendered.
	AfterResponse *AfterResponse `json:"afterResponse,omitempty"`
}

// OutcomeKind discriminates the three mutually exclusive response outcomes.
type OutcomeKind int

const (
	OutcomeInvalid OutcomeKind = iota
	OutcomeStatic
	OutcomeSequence
	OutcomeStateConditional
)

// OutcomeKind returns which outcome the rule declares, or OutcomeInvalid when
// zero or more than one is set.
func (r *MockRule) OutcomeKind() OutcomeKind {
	count := 0
	kind := OutcomeInvalid
	if r.Response != nil {
		count++
		kind = OutcomeStatic
	}
	if r.Sequence != nil {
		count++
		kind = OutcomeSequence
	}
	if r.StateResponse != nil {
		count++
		kind = OutcomeStateConditional
	}
	if count != 1 {
		return OutcomeInvalid
	}
	return kind
}

// MatchCriteria narrows a rule beyond method and URL pattern. A nil criteria
// matches any request the pattern matches; a declared field must be satisfied
// in full (every key present and matching).
type MatchCriteria struct {
	// Body is a partial-equality match against the request body.
	Body map[string]interface{} `json:"body,omitempty"`

	// Headers matches request headers; names are case-insensitive.
	Headers map[string]StringMatcher `json:"headers,omitempty"`

	// Query matches query parameters; names are exact.
	Query map[string]StringMatcher `json:"query,omitempty"`

	// URL applies a string strategy to the full request URL on top of the
	// rule's base pattern.
	URL *StringMatcher `json:"url,omitempty"`

	// State is a partial-equality match against the test session's
	// captured state; keys are dotted paths.
	State map[string]interface{} `json:"state,omitempty"`
}

// FieldCount returns how many criteria fields the rule declares with at least
// one entry. This is the base of the specificity score.
func (c *MatchCriteria) FieldCount() int {
	if c == nil {
		return 0
	}
	n := 0
	if len(c.Body) > 0 {
		n++
	}
	if len(c.Headers) > 0 {
		n++
	}
	if len(c.Query) > 0 {
		n++
	}
	if c.URL != nil {
		n++
	}
	if len(c.State) > 0 {
		n++
	}
	return n
}

// StringMatcher matches a string value either by plain equality (declared as
// a bare scalar) or by one strategy of a {contains|startsWith|endsWith|
// equals|regex: value} object.
type StringMatcher struct {
	Equals     string `json:"equals,omitempty"`
	Contains   string `json:"contains,omitempty"`
	StartsWith string `json:"startsWith,omitempty"`
	EndsWith   string `json:"endsWith,omitempty"`
	Regex      string `json:"regex,omitempty"`

	// declared tracks which strategy the author wrote, since a bare
	// scalar and {equals: ...} both populate Equals.
	declared string
}

// Strategy returns the declared strategy name: one of "equals", "contains",
// "startsWith", "endsWith", "regex". Bare scalars report "equals". Matchers
// built in code rather than decoded report whichever field is populated.
func (m *StringMatcher) Strategy() string {
	if m.declared != "" {
		return m.declared
	}
	switch {
	case m.Contains != "":
		return "contains"
	case m.StartsWith != "":
		return "startsWith"
	case m.EndsWith != "":
		return "endsWith"
	case m.Regex != "":
		return "regex"
	default:
		return "equals"
	}
}

// UnmarshalJSON accepts either a bare scalar (equality match) or a
// single-strategy object.
func (m *StringMatcher) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var obj map[string]interface{}
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return err
		}
		if len(obj) != 1 {
			return fmt.Errorf("string matcher must declare exactly one strategy, got %d", len(obj))
		}
		for strategy, raw := range obj {
			value := scalarString(raw)
			switch strategy {
			case "equals":
				m.Equals = value
			case "contains":
				m.Contains = value
			case "startsWith":
				m.StartsWith = value
			case "endsWith":
				m.EndsWith = value
			case "regex":
				m.Regex = value
			default:
				return fmt.Errorf("unknown string match strategy %q", strategy)
			}
			m.declared = strategy
		}
		return nil
	}

	var scalar interface{}
	if err := json.Unmarshal(trimmed, &scalar); err != nil {
		return err
	}
	m.Equals = scalarString(scalar)
	m.declared = "equals"
	return nil
}

// MarshalJSON renders the matcher back as the single-strategy object form.
func (m StringMatcher) MarshalJSON() ([]byte, error) {
	strategy := m.Strategy()
	var value string
	switch strategy {
	case "equals":
		value = m.Equals
	case "contains":
		value = m.Contains
	case "startsWith":
		value = m.StartsWith
	case "endsWith":
		value = m.EndsWith
	case "regex":
		value = m.Regex
	}
	return json.Marshal(map[string]string{strategy: value})
}

func scalarString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		if s == float64(int64(s)) {
			return fmt.Sprintf("%d", int64(s))
		}
		return fmt.Sprintf("%v", s)
	case bool:
		return fmt.Sprintf("%t", s)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", s)
	}
}

// RepeatMode controls what a sequence serves once its responses run out.
type RepeatMode string

const (
	// RepeatLast keeps returning the final response indefinitely.
	RepeatLast RepeatMode = "last"
	// RepeatCycle wraps back to the first response.
	RepeatCycle RepeatMode = "cycle"
	// RepeatNone stops matching once the last response has been served.
	RepeatNone RepeatMode = "none"
)

// StaticResponse is one canned response.
type StaticResponse struct {
	// Status is the HTTP status code; 0 is normalized to 200 at
	// validation time.
	Status int `json:"status,omitempty"`

	// Headers are response headers to attach.
	Headers map[string]string `json:"headers,omitempty"`

	// Body is the response body. String values anywhere in the body may
	// carry {{namespace.path}} template placeholders.
	Body interface{} `json:"body,omitempty"`

	// Delay is advisory latency metadata (e.g. "250ms") interpreted by
	// the interception layer, never by the engine.
	Delay string `json:"delay,omitempty"`
}

// DelayDuration parses the advisory delay, returning 0 for empty or
// malformed values.
func (r *StaticResponse) DelayDuration() time.Duration {
	if r.Delay == "" {
		return 0
	}
	d, err := time.ParseDuration(r.Delay)
	if err != nil {
		return 0
	}
	return d
}

// SequenceResponse serves an ordered list of responses across successive
// matching requests for the same test session.
type SequenceResponse struct {
	Responses []StaticResponse `json:"responses"`

	// Repeat defaults to RepeatLast when omitted.
	Repeat RepeatMode `json:"repeat,omitempty"`
}

// StateConditionalResponse picks a response by evaluating conditions against
// the test session's captured state, in declaration order, falling back to
// Default when none match.
type StateConditionalResponse struct {
	Default    StaticResponse   `json:"default"`
	Conditions []StateCondition `json:"conditions"`
}

// StateCondition pairs a partial-state match with the response to serve when
// it holds. A condition may carry its own afterResponse; when the key is
// present (even explicitly null) it overrides the rule-level afterResponse
// entirely.
type StateCondition struct {
	// When maps dotted state paths to expected values. All entries must
	// equal current state for the condition to hold.
	When map[string]interface{} `json:"when"`

	// Then is the response served when the condition holds.
	Then StaticResponse `json:"then"`

	// AfterResponse replaces the rule-level afterResponse when
	// AfterResponseSet is true. Nil with AfterResponseSet means the
	// author wrote an explicit null to suppress the rule-level mutation.
	AfterResponse    *AfterResponse `json:"-"`
	AfterResponseSet bool           `json:"-"`
}

// UnmarshalJSON distinguishes an absent afterResponse key from an explicit
// null, which suppresses the rule-level afterResponse.
func (c *StateCondition) UnmarshalJSON(data []byte) error {
	type alias struct {
		When          map[string]interface{} `json:"when"`
		Then          StaticResponse         `json:"then"`
		AfterResponse json.RawMessage        `json:"afterResponse"`
	}
	var aux alias
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	c.When = aux.When
	c.Then = aux.Then
	if aux.AfterResponse != nil {
		c.AfterResponseSet = true
		if string(aux.AfterResponse) != "null" {
			var ar AfterResponse
			if err := json.Unmarshal(aux.AfterResponse, &ar); err != nil {
				return err
			}
			c.AfterResponse = &ar
		}
	}
	return nil
}

// MarshalJSON preserves the present-but-null afterResponse form.
func (c StateCondition) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{
		"when": c.When,
		"then": c.Then,
	}
	if c.AfterResponseSet {
		if c.AfterResponse != nil {
			out["afterResponse"] = c.AfterResponse
		} else {
			out["afterResponse"] = nil
		}
	}
	return json.Marshal(out)
}

// AfterResponse mutates session state after a response has been resolved.
// Each key is written independently; values replace whatever was stored, with
// no deep merge of nested objects.
type AfterResponse struct {
	SetState map[string]interface{} `json:"setState"`
}
