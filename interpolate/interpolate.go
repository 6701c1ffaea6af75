// Package interpolate implements Conductor's `${path.to.value}` templating
// (spec §4.1). It is pure and never fails: missing paths resolve to nil
// (exact match) or leave the literal token in place (partial match), by
// design — step inputs are best-effort templates.
package interpolate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// exactToken matches a string that is nothing but a single ${...} token.
var exactToken = regexp.MustCompile(`^\$\{([^}]*)\}$`)

// anyToken matches every ${...} occurrence within a larger string.
var anyToken = regexp.MustCompile(`\$\{([^}]*)\}`)

// Value interpolates template against ctx, recursing through maps and
// slices. Scalars that aren't strings pass through unchanged; strings are
// matched against the exact-token and partial-token forms described in
// spec §4.1.
func Value(template interface{}, ctx map[string]interface{}) interface{} {
	switch t := template.(type) {
	case string:
		return interpolateString(t, ctx)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, v := range t {
			out[k] = Value(v, ctx)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, v := range t {
			out[i] = Value(v, ctx)
		}
		return out
	default:
		return template
	}
}

func interpolateString(s string, ctx map[string]interface{}) interface{} {
	if m := exactToken.FindStringSubmatch(s); m != nil {
		expr := m[1]
		if strings.TrimSpace(expr) == "" {
			return nil
		}
		v, _ := resolvePath(expr, ctx)
		return v
	}

	if !anyToken.MatchString(s) {
		return s
	}

	return anyToken.ReplaceAllStringFunc(s, func(tok string) string {
		expr := tok[2 : len(tok)-1] // strip "${" and "}"
		if strings.TrimSpace(expr) == "" {
			return ""
		}
		v, ok := resolvePath(expr, ctx)
		if !ok || v == nil {
			return tok
		}
		return stringify(v)
	})
}

// resolvePath walks a dot-separated, whitespace-trimmed path against ctx.
// Numeric segments index into slices. Only own map keys are consulted (no
// method/field reflection — ctx is always built from JSON-like data). The
// bool return reports whether the path resolved to a present value; a
// present nil value also reports true.
func resolvePath(path string, ctx map[string]interface{}) (interface{}, bool) {
	segments := strings.Split(path, ".")
	var current interface{} = ctx

	for _, raw := range segments {
		seg := strings.TrimSpace(raw)
		if seg == "" {
			return nil, false
		}

		switch node := current.(type) {
		case map[string]interface{}:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			current = v
		case []interface{}:
			idx, err := strconv.Atoi(seg)
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

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}
