// Package template renders {{namespace.path}} placeholders in response
// bodies. The grammar is deliberately minimal: five namespaces (state, body,
// params, query, headers), dotted paths, and a single ".length" accessor for
// array values. Placeholders whose path does not resolve are left
// byte-for-byte unchanged, which keeps broken templates visible in test
// output instead of silently vanishing.
package template

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"scenarist/internal/state"
)

// Context carries the values placeholders resolve against: the session state
// as captured so far, the original request, and the URL parameters the
// matching engine extracted.
type Context struct {
	State   map[string]interface{}
	Body    interface{}
	Params  map[string]string
	Query   map[string]string
	Headers map[string]string
}

// placeholderPattern matches {{ namespace.path }} with optional inner
// whitespace. The path may itself contain dots.
var placeholderPattern = regexp.MustCompile(`\{\{\s*(state|body|params|query|headers)\.([A-Za-z0-9_.\-]+)\s*\}\}`)

// Render recursively walks a response body, substituting placeholders in
// every string value. Maps and slices are rebuilt so the declared scenario
// is never mutated; non-string leaves pass through unmodified.
func Render(value interface{}, ctx *Context) interface{} {
	switch v := value.(type) {
	case string:
		return renderString(v, ctx)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, val := range v {
			out[key] = Render(val, ctx)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, val := range v {
			out[i] = Render(val, ctx)
		}
		return out
	default:
		return value
	}
}

func renderString(s string, ctx *Context) string {
	return placeholderPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := placeholderPattern.FindStringSubmatch(match)
		resolved, ok := ctx.resolve(groups[1], groups[2])
		if !ok {
			// Unresolvable placeholders stay exactly as written.
			return match
		}
		return stringify(resolved)
	})
}

func (ctx *Context) resolve(namespace, path string) (interface{}, bool) {
	if trimmed, ok := strings.CutSuffix(path, ".length"); ok {
		if value, found := ctx.lookup(namespace, trimmed); found {
			if arr, isArray := value.([]interface{}); isArray {
				return len(arr), true
			}
		}
		// Fall through: ".length" may be a literal map key.
	}
	return ctx.lookup(namespace, path)
}

func (ctx *Context) lookup(namespace, path string) (interface{}, bool) {
	switch namespace {
	case "state":
		if ctx.State == nil {
			return nil, false
		}
		return state.Lookup(ctx.State, path)
	case "body":
		if ctx.Body == nil {
			return nil, false
		}
		return state.Lookup(ctx.Body, path)
	case "params":
		v, ok := ctx.Params[path]
		return v, ok
	case "query":
		v, ok := ctx.Query[path]
		return v, ok
	case "headers":
		for name, v := range ctx.Headers {
			if strings.EqualFold(name, path) {
				return v, true
			}
		}
		return nil, false
	default:
		return nil, false
	}
}

// stringify converts a resolved value into its placeholder replacement.
// Integral floats render without a decimal point since JSON decoding turns
// every number into float64; everything non-scalar renders as compact JSON.
func stringify(v interface{}) string {
	switch value := v.(type) {
	case string:
		return value
	case float64:
		if value == float64(int64(value)) {
			return fmt.Sprintf("%d", int64(value))
		}
		return fmt.Sprintf("%v", value)
	case int:
		return fmt.Sprintf("%d", value)
	case bool:
		return fmt.Sprintf("%t", value)
	default:
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprintf("%v", value)
		}
		return string(data)
	}
}
