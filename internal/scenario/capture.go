package scenario

import (
	"fmt"
	"strings"
)

// SourceKind identifies which part of a request a capture reads from.
type SourceKind int

const (
	SourceBody SourceKind = iota
	SourceHeaders
	SourceQuery
)

func (k SourceKind) String() string {
	switch k {
	case SourceBody:
		return "body"
	case SourceHeaders:
		return "headers"
	case SourceQuery:
		return "query"
	default:
		return "unknown"
	}
}

// SourceRef is a parsed capture source expression: a request section plus a
// path within it. Parsed once at registration so the hot path never touches
// the string form again.
type SourceRef struct {
	Kind SourceKind
	Path string
}

// ParseSourceRef parses expressions like "body.user.name",
// "headers.x-session-id", and "query.page".
func ParseSourceRef(expr string) (SourceRef, error) {
	section, path, found := strings.Cut(expr, ".")
	if !found || path == "" {
		return SourceRef{}, fmt.Errorf("capture source %q must be <section>.<path>", expr)
	}
	switch section {
	case "body":
		return SourceRef{Kind: SourceBody, Path: path}, nil
	case "headers":
		return SourceRef{Kind: SourceHeaders, Path: path}, nil
	case "query":
		return SourceRef{Kind: SourceQuery, Path: path}, nil
	default:
		return SourceRef{}, fmt.Errorf("capture source %q: unknown section %q", expr, section)
	}
}

// CaptureSpec is one parsed captureState entry.
type CaptureSpec struct {
	// Key is the state key to write, without any "[]" suffix.
	Key string

	// Append marks "key[]" entries: the captured value is appended to an
	// array at Key, creating the array if absent.
	Append bool

	// Source locates the value in the request.
	Source SourceRef
}

// ParseCaptureSpec parses one captureState entry. The key form "name[]"
// selects array-append semantics.
func ParseCaptureSpec(key, expr string) (CaptureSpec, error) {
	spec := CaptureSpec{Key: key}
	if trimmed, ok := strings.CutSuffix(key, "[]"); ok {
		spec.Key = trimmed
		spec.Append = true
	}
	if spec.Key == "" {
		return CaptureSpec{}, fmt.Errorf("capture key %q is empty", key)
	}
	src, err := ParseSourceRef(expr)
	if err != nil {
		return CaptureSpec{}, err
	}
	spec.Source = src
	return spec, nil
}

// ParseCaptures parses a rule's full captureState map, preserving no
// particular order (captures are independent writes).
func ParseCaptures(captureState map[string]string) ([]CaptureSpec, error) {
	if len(captureState) == 0 {
		return nil, nil
	}
	specs := make([]CaptureSpec, 0, len(captureState))
	for key, expr := range captureState {
		spec, err := ParseCaptureSpec(key, expr)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}
