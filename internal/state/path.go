package state

import (
	"strconv"
	"strings"
)

// Lookup resolves a dotted path against an arbitrary decoded value. Numeric
// segments index into arrays. The second return is false when any segment is
// missing or the value at a segment cannot be descended into.
//
// This resolver is shared by state reads, capture sources, and template
// placeholder rendering so that all three agree on path semantics.
func Lookup(root interface{}, path string) (interface{}, bool) {
	if path == "" {
		return root, true
	}
	current := root
	for _, segment := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]interface{}:
			next, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = next
		case []interface{}:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

// Set writes value at the dotted path inside root, creating intermediate
// objects as needed. Non-object intermediate values are replaced by objects;
// the last writer wins.
func Set(root map[string]interface{}, path string, value interface{}) {
	segments := strings.Split(path, ".")
	current := root
	for _, segment := range segments[:len(segments)-1] {
		next, ok := current[segment].(map[string]interface{})
		if !ok {
			next = make(map[string]interface{})
			current[segment] = next
		}
		current = next
	}
	current[segments[len(segments)-1]] = value
}

// Append appends value to the array at the dotted path inside root, creating
// the array (and intermediate objects) if absent. A non-array value already
// stored at the path is replaced by a one-element array before the append.
func Append(root map[string]interface{}, path string, value interface{}) {
	existing, ok := Lookup(root, path)
	if !ok {
		Set(root, path, []interface{}{value})
		return
	}
	arr, ok := existing.([]interface{})
	if !ok {
		Set(root, path, []interface{}{value})
		return
	}
	Set(root, path, append(arr, value))
}

// deepCopy clones a decoded value tree. Snapshot hands copies to callers so
// that debug reads never alias live state.
func deepCopy(v interface{}) interface{} {
	switch node := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(node))
		for k, val := range node {
			out[k] = deepCopy(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(node))
		for i, val := range node {
			out[i] = deepCopy(val)
		}
		return out
	default:
		return v
	}
}
