package builder

import (
	"fmt"
	"regexp"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/oliveagle/jsonpath"
)

// refPattern matches {$.<id>} and {$.<id>.<path>} / {$.<id>[0]...}.
var refPattern = regexp.MustCompile(`\{\$\.([A-Za-z0-9_\-]+)([.\[][^{}]*)?\}`)

func resolveMap(in map[string]any, outputs map[string]map[string]any) (map[string]any, error) {
	for k, v := range in {
		r, err := resolveValue(v, outputs)
		if err != nil {
			return nil, fmt.Errorf("input %q: %w", k, err)
		}
		in[k] = r
	}
	return in, nil
}

func resolveValue(v any, outputs map[string]map[string]any) (any, error) {
	switch t := v.(type) {
	case string:
		return resolveString(t, outputs)
	case map[string]any:
		return resolveMap(t, outputs)
	case []any:
		for i, e := range t {
			r, err := resolveValue(e, outputs)
			if err != nil {
				return nil, err
			}
			t[i] = r
		}
		return t, nil
	}
	return v, nil
}

func resolveString(s string, outputs map[string]map[string]any) (any, error) {
	loc := refPattern.FindStringSubmatchIndex(s)
	if loc == nil {
		return s, nil
	}
	if loc[0] == 0 && loc[1] == len(s) {
		m := refPattern.FindStringSubmatch(s)
		return lookup(m[1], m[2], outputs)
	}

	var firstErr error
	out := refPattern.ReplaceAllStringFunc(s, func(ref string) string {
		m := refPattern.FindStringSubmatch(ref)
		v, err := lookup(m[1], m[2], outputs)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return ref
		}
		return stringify(v)
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

func lookup(id, path string, outputs map[string]map[string]any) (any, error) {
	out, ok := outputs[id]
	if !ok {
		return nil, fmt.Errorf("%s is not a direct dependency: %w", id, ErrUnresolvedReference)
	}
	if path == "" {
		return deepCopyValue(out), nil
	}
	v, err := jsonpath.JsonPathLookup(out, "$"+path)
	if err != nil {
		return nil, fmt.Errorf("%s%s: %v: %w", id, path, err, ErrUnresolvedReference)
	}
	return deepCopyValue(v), nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
