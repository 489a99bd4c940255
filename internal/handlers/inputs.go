package handlers

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// Inputs is the merged input mapping handed to an executor.
type Inputs map[string]any

// IsTemplate reports whether the inputs ask for template mode, either with
// template_creation_mode set or with mode equal to "template".
func (in Inputs) IsTemplate() bool {
	switch v := in["template_creation_mode"].(type) {
	case bool:
		if v {
			return true
		}
	case string:
		if strings.EqualFold(v, "true") {
			return true
		}
	}
	mode, _ := in["mode"].(string)
	return strings.EqualFold(mode, "template")
}

// Has reports whether key is present with a non-nil value.
func (in Inputs) Has(key string) bool {
	v, ok := in[key]
	return ok && v != nil
}

// String returns the value of key as a string. Numbers are formatted; other
// types report false.
func (in Inputs) String(key string) (string, bool) {
	switch v := in[key].(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case int, int64, float64:
		return fmt.Sprint(v), true
	}
	return "", false
}

// StringOr returns the string value of key or def.
func (in Inputs) StringOr(key, def string) string {
	if s, ok := in.String(key); ok && s != "" {
		return s
	}
	return def
}

// Float returns key as a finite float64. Numeric strings are parsed; NaN
// and infinities are rejected.
func (in Inputs) Float(key string) (float64, bool) {
	f, ok := in.float(key)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func (in Inputs) float(key string) (float64, bool) {
	switch v := in[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

// Int returns key as an int64. Floats must be whole numbers.
func (in Inputs) Int(key string) (int64, bool) {
	switch v := in[key].(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case uint64:
		return int64(v), true
	case float64:
		if v != float64(int64(v)) {
			return 0, false
		}
		return int64(v), true
	case json.Number:
		i, err := v.Int64()
		return i, err == nil
	case string:
		s := strings.TrimSpace(v)
		if strings.HasPrefix(s, "0x") {
			i, err := strconv.ParseInt(s[2:], 16, 64)
			return i, err == nil
		}
		i, err := strconv.ParseInt(s, 10, 64)
		return i, err == nil
	}
	return 0, false
}

// Bool returns key as a bool. "true" and "false" strings are accepted.
func (in Inputs) Bool(key string) (bool, bool) {
	switch v := in[key].(type) {
	case bool:
		return v, true
	case string:
		b, err := strconv.ParseBool(v)
		return b, err == nil
	}
	return false, false
}

// Map returns key as a nested mapping.
func (in Inputs) Map(key string) (map[string]any, bool) {
	m, ok := in[key].(map[string]any)
	return m, ok
}

// Strings returns key as a list of strings. A list with a non-string
// element reports false.
func (in Inputs) Strings(key string) ([]string, bool) {
	switch v := in[key].(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}
