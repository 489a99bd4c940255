package builder

// deepCopyMap copies the JSON-shaped containers of m. Leaf values are
// immutable scalars and are shared.
func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepCopyValue(e)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	case []map[string]any:
		out := make([]map[string]any, len(t))
		for i, e := range t {
			out[i] = deepCopyMap(e)
		}
		return out
	}
	return v
}

// DeepCopy returns an independent copy of m. The executor uses it to freeze
// node outputs.
func DeepCopy(m map[string]any) map[string]any {
	return deepCopyMap(m)
}
