package match

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// PatternKind discriminates the three URL pattern styles.
type PatternKind int

const (
	// PatternPath is a pathname-only pattern, matched against the request
	// path regardless of hostname. Covers plain literals and templated
	// paths with named segments.
	PatternPath PatternKind = iota

	// PatternAbsolute is a full URL pattern: scheme and host must match
	// exactly, the path part may still carry template segments.
	PatternAbsolute

	// PatternRegex is a regular expression, declared with a "regex:"
	// prefix and matched against the full request URL.
	PatternRegex
)

const regexPrefix = "regex:"

// URLPattern is a compiled URL pattern. Compilation happens once at scenario
// registration; matching is regex execution plus (for absolute patterns) a
// scheme/host comparison.
type URLPattern struct {
	raw    string
	kind   PatternKind
	re     *regexp.Regexp
	scheme string
	host   string
}

// CompilePattern parses and compiles a URL pattern declaration.
func CompilePattern(raw string) (*URLPattern, error) {
	if raw == "" {
		return nil, fmt.Errorf("empty url pattern")
	}

	if expr, ok := strings.CutPrefix(raw, regexPrefix); ok {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("url pattern %q: %w", raw, err)
		}
		return &URLPattern{raw: raw, kind: PatternRegex, re: re}, nil
	}

	if u, err := url.Parse(raw); err == nil && u.Scheme != "" && u.Host != "" {
		re, err := compileTemplate(u.Path)
		if err != nil {
			return nil, fmt.Errorf("url pattern %q: %w", raw, err)
		}
		return &URLPattern{raw: raw, kind: PatternAbsolute, re: re, scheme: u.Scheme, host: u.Host}, nil
	}

	re, err := compileTemplate(raw)
	if err != nil {
		return nil, fmt.Errorf("url pattern %q: %w", raw, err)
	}
	return &URLPattern{raw: raw, kind: PatternPath, re: re}, nil
}

// Kind returns the pattern style.
func (p *URLPattern) Kind() PatternKind { return p.kind }

// String returns the original declaration.
func (p *URLPattern) String() string { return p.raw }

// Match tests the pattern against a full request URL and extracts named
// parameters. Path patterns compare against the request's path only; regex
// patterns against the whole URL string; absolute patterns require exact
// scheme and host on top of the path match.
func (p *URLPattern) Match(rawURL string) (map[string]string, bool) {
	switch p.kind {
	case PatternRegex:
		return namedGroups(p.re, rawURL)
	case PatternAbsolute:
		u, err := url.Parse(rawURL)
		if err != nil || u.Scheme != p.scheme || u.Host != p.host {
			return nil, false
		}
		return namedGroups(p.re, pathOf(u))
	default:
		return namedGroups(p.re, requestPath(rawURL))
	}
}

// requestPath extracts the path component from a URL that may or may not
// carry a scheme and host.
func requestPath(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil && u.Scheme != "" && u.Host != "" {
		return pathOf(u)
	}
	path := rawURL
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	return path
}

func pathOf(u *url.URL) string {
	if u.Path == "" {
		return "/"
	}
	return u.Path
}

func namedGroups(re *regexp.Regexp, s string) (map[string]string, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return nil, false
	}
	var params map[string]string
	for i, name := range re.SubexpNames() {
		if i == 0 || name == "" || m[i] == "" {
			continue
		}
		if params == nil {
			params = make(map[string]string)
		}
		params[name] = m[i]
	}
	return params, true
}

// compileTemplate turns a templated path into an anchored regexp. Supported
// segment forms: ":name", optional ":name?", repeating ":name+", and custom
// ":name(\d+)". Everything else is literal. A trailing slash on the request
// is tolerated.
func compileTemplate(tpl string) (*regexp.Regexp, error) {
	if tpl == "" || tpl == "/" {
		return regexp.Compile(`^/?$`)
	}

	var b strings.Builder
	b.WriteString("^")
	for _, segment := range strings.Split(strings.TrimPrefix(tpl, "/"), "/") {
		if !strings.HasPrefix(segment, ":") {
			b.WriteString("/")
			b.WriteString(regexp.QuoteMeta(segment))
			continue
		}
		name, body, modifier, err := parseParamSegment(segment)
		if err != nil {
			return nil, err
		}
		group := fmt.Sprintf("(?P<%s>%s)", name, body)
		switch modifier {
		case "?":
			fmt.Fprintf(&b, "(?:/%s)?", group)
		case "+":
			fmt.Fprintf(&b, "/(?P<%s>(?:%s)(?:/(?:%s))*)", name, body, body)
		default:
			b.WriteString("/")
			b.WriteString(group)
		}
	}
	b.WriteString("/?$")
	return regexp.Compile(b.String())
}

var paramNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*`)

// parseParamSegment splits ":id(\d+)?" into name "id", body `\d+`, modifier
// "?". The body defaults to one non-slash run.
func parseParamSegment(segment string) (name, body, modifier string, err error) {
	rest := segment[1:]
	name = paramNameRe.FindString(rest)
	if name == "" {
		return "", "", "", fmt.Errorf("invalid path parameter %q", segment)
	}
	rest = rest[len(name):]

	body = `[^/]+`
	if strings.HasPrefix(rest, "(") {
		depth := 0
		end := -1
		for i, r := range rest {
			switch r {
			case '(':
				depth++
			case ')':
				depth--
				if depth == 0 {
					end = i
				}
			}
			if end >= 0 {
				break
			}
		}
		if end < 0 {
			return "", "", "", fmt.Errorf("unbalanced parentheses in path parameter %q", segment)
		}
		body = rest[1:end]
		if _, err := regexp.Compile(body); err != nil {
			return "", "", "", fmt.Errorf("invalid regex in path parameter %q: %w", segment, err)
		}
		rest = rest[end+1:]
	}

	switch rest {
	case "":
	case "?", "+":
		modifier = rest
	default:
		return "", "", "", fmt.Errorf("invalid path parameter %q", segment)
	}
	return name, body, modifier, nil
}
