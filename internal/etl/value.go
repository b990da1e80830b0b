package etl

import "strconv"

// Lookup walks path through nested JSON objects (map[string]any).
// A missing key, a non-object along the way or a JSON null all count as absent.
func Lookup(obj any, path ...string) (any, bool) {
	current := obj
	for _, part := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	if current == nil {
		return nil, false
	}
	return current, true
}

// GetPath returns the value at path, or def when it is absent.
func GetPath(obj any, path []string, def any) any {
	if v, ok := Lookup(obj, path...); ok {
		return v
	}
	return def
}

// GetString reads a scalar at path as text. Objects and arrays yield def.
func GetString(obj any, def string, path ...string) string {
	v, ok := Lookup(obj, path...)
	if !ok {
		return def
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return def
	}
}
