package api

import (
	"strings"
	"time"
)

// DefaultTestID is the conventional test ID used when a caller cannot supply
// one and the configured behavior tolerates that. Every anonymous request
// shares this session, so parallel tests that rely on isolation must send a
// real test ID.
const DefaultTestID = "default"

// DefaultScenarioID names the scenario that acts as the fallback tier during
// candidate search. A registry is not usable until a scenario with this ID
// has been registered.
const DefaultScenarioID = "default"

// RequestSnapshot is the ephemeral description of one intercepted request.
// It is built by the interception layer from the raw outbound call and never
// persisted by the engine.
type RequestSnapshot struct {
	// Method is the HTTP method, matched case-sensitively.
	Method string

	// URL is the full request URL, including scheme and host when known.
	URL string

	// Headers holds the request headers. Lookup by the engine is
	// case-insensitive; the snapshot may carry any casing.
	Headers map[string]string

	// Query holds the decoded query parameters. Names are matched exactly.
	Query map[string]string

	// Body is the decoded request body, typically a map[string]interface{}
	// for JSON payloads. May be nil.
	Body interface{}
}

// Header returns the value of the named header using case-insensitive lookup.
func (r *RequestSnapshot) Header(name string) (string, bool) {
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// ResolvedResponse is the fully rendered response the backend-under-test
// should receive for a request.
type ResolvedResponse struct {
	// Status is the HTTP status code to return.
	Status int

	// Headers are response headers to attach, if any.
	Headers map[string]string

	// Body is the rendered response body with all resolvable template
	// placeholders substituted.
	Body interface{}

	// Delay is advisory latency metadata for the interception layer.
	// The engine itself never sleeps.
	Delay time.Duration
}

// Disposition describes what the interception layer should do with a request
// after selection.
type Disposition string

const (
	// DispositionMocked means a mock rule matched and Response is set.
	DispositionMocked Disposition = "mocked"

	// DispositionPassthrough means no mock applies and the request should
	// reach the real network. Returned in non-strict mode.
	DispositionPassthrough Disposition = "passthrough"

	// DispositionNotImplemented means no mock applies and strict mode is
	// on: the interception layer should fail the request loudly instead
	// of letting it through.
	DispositionNotImplemented Disposition = "not-implemented"
)

// Selection is the outcome of one SelectResponse call.
type Selection struct {
	// TraceID uniquely identifies this selection for correlation with the
	// engine's selection recorder.
	TraceID string

	// Disposition tells the caller how to treat the request.
	Disposition Disposition

	// Response is set only when Disposition is DispositionMocked.
	Response *ResolvedResponse

	// ScenarioID is the scenario that supplied the winning rule, empty
	// when nothing matched.
	ScenarioID string

	// RuleIndex is the position of the winning rule within its scenario's
	// mock list, -1 when nothing matched.
	RuleIndex int
}

// ActiveScenario is the binding of a test session to a scenario.
type ActiveScenario struct {
	ScenarioID string
	Variant    string
}
