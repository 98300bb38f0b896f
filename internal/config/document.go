package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Document is a loaded desired-state configuration. It is immutable after
// loading: every lookup is pure and the same path always yields the same value.
type Document struct {
	path     string
	root     map[string]any
	settings Settings
}

// Path returns the file the document was loaded from.
func (d *Document) Path() string {
	if d == nil {
		return ""
	}
	return d.path
}

// Settings returns the validated settings block with defaults applied.
func (d *Document) Settings() Settings {
	if d == nil {
		return Settings{}.withDefaults()
	}
	return d.settings
}

// Get returns the value at a dotted path, or def when the value or any ancestor
// is missing, or the value is null.
func (d *Document) Get(path string, def any) any {
	v, ok := d.lookup(path)
	if !ok || v == nil {
		return def
	}
	return v
}

// Has reports whether a non-null value exists at path.
func (d *Document) Has(path string) bool {
	v, ok := d.lookup(path)
	return ok && v != nil
}

// GetList returns the ordered sequence at path, or an empty slice when absent
// or not a sequence. A scalar is treated as a one-element list.
func (d *Document) GetList(path string) []any {
	v, ok := d.lookup(path)
	if !ok || v == nil {
		return []any{}
	}
	switch typed := v.(type) {
	case []any:
		out := make([]any, len(typed))
		copy(out, typed)
		return out
	case []map[string]any:
		out := make([]any, len(typed))
		for i := range typed {
			out[i] = typed[i]
		}
		return out
	case map[string]any:
		return []any{}
	default:
		return []any{typed}
	}
}

// GetStringList returns the string elements of the list at path, skipping
// blanks and anything that is not a scalar.
func (d *Document) GetStringList(path string) []string {
	raw := d.GetList(path)
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		s, ok := scalarString(v)
		if !ok || strings.TrimSpace(s) == "" {
			continue
		}
		out = append(out, strings.TrimSpace(s))
	}
	return out
}

// GetString returns the scalar at path rendered as a string, or def.
func (d *Document) GetString(path, def string) string {
	v, ok := d.lookup(path)
	if !ok || v == nil {
		return def
	}
	s, ok := scalarString(v)
	if !ok {
		return def
	}
	return s
}

// GetBool returns the boolean at path, or def when absent or not boolean-like.
func (d *Document) GetBool(path string, def bool) bool {
	v, ok := d.lookup(path)
	if !ok || v == nil {
		return def
	}
	if b, ok := asBool(v); ok {
		return b
	}
	return def
}

// GetMap returns the mapping at path, or nil when absent or not a mapping.
func (d *Document) GetMap(path string) map[string]any {
	v, ok := d.lookup(path)
	if !ok {
		return nil
	}
	m, _ := v.(map[string]any)
	return m
}

// IsEnabled resolves an include flag. A flag may be a boolean, a boolean-like
// string, or a mapping with an "enabled" key. Anything else, including an
// absent flag, falls back to the explicit defaults table.
func (d *Document) IsEnabled(path string) bool {
	v, ok := d.lookup(path)
	if ok && v != nil {
		if b, ok := asBool(v); ok {
			return b
		}
		if m, isMap := v.(map[string]any); isMap {
			if raw, has := m["enabled"]; has && raw != nil {
				if b, ok := asBool(raw); ok {
					return b
				}
			}
		}
	}
	return DefaultEnabled(path)
}

func (d *Document) lookup(path string) (any, bool) {
	if d == nil || d.root == nil {
		return nil, false
	}
	segments := splitPath(path)
	if len(segments) == 0 {
		return nil, false
	}

	var current any = d.root
	for _, seg := range segments {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		next, exists := m[seg]
		if !exists {
			return nil, false
		}
		current = next
	}
	return current, true
}

func splitPath(path string) []string {
	raw := strings.Split(strings.TrimSpace(path), ".")
	out := make([]string, 0, len(raw))
	for _, seg := range raw {
		if seg = strings.TrimSpace(seg); seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

func scalarString(v any) (string, bool) {
	switch typed := v.(type) {
	case string:
		return typed, true
	case bool:
		return strconv.FormatBool(typed), true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", typed), true
	case float32:
		return strconv.FormatFloat(float64(typed), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64), true
	default:
		return "", false
	}
}

func asBool(v any) (bool, bool) {
	switch typed := v.(type) {
	case bool:
		return typed, true
	case string:
		switch strings.ToLower(strings.TrimSpace(typed)) {
		case "true", "yes", "on", "enabled":
			return true, true
		case "false", "no", "off", "disabled", "none", "":
			return false, true
		}
	}
	return false, false
}

// normalize converts decoder-specific container types into map[string]any and
// []any so lookups behave the same for every document format.
func normalize(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, val := range typed {
			out[k] = normalize(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(typed))
		for k, val := range typed {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, val := range typed {
			out[i] = normalize(val)
		}
		return out
	case []map[string]any:
		out := make([]any, len(typed))
		for i, val := range typed {
			out[i] = normalize(val)
		}
		return out
	default:
		return v
	}
}
