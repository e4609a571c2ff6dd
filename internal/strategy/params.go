package strategy

import (
	"fmt"
	"sort"
)

// Params holds the named numeric and boolean options of a rule or filter
type Params map[string]any

// Clone returns a shallow copy; values are scalars
func (p Params) Clone() Params {
	if p == nil {
		return Params{}
	}
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Merge returns a copy of p with the entries of override applied on top
func (p Params) Merge(override Params) Params {
	out := p.Clone()
	for k, v := range override {
		out[k] = v
	}
	return out
}

// Float reads a numeric option, returning def when absent
func (p Params) Float(key string, def float64) float64 {
	v, ok := p[key]
	if !ok {
		return def
	}
	f, ok := toFloat(v)
	if !ok {
		panic(fmt.Sprintf("param %q: expected number, got %T", key, v))
	}
	return f
}

// Int reads an integer option, returning def when absent
func (p Params) Int(key string, def int) int {
	v, ok := p[key]
	if !ok {
		return def
	}
	f, ok := toFloat(v)
	if !ok || f != float64(int(f)) {
		panic(fmt.Sprintf("param %q: expected integer, got %v", key, v))
	}
	return int(f)
}

// Bool reads a boolean option, returning def when absent
func (p Params) Bool(key string, def bool) bool {
	v, ok := p[key]
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		panic(fmt.Sprintf("param %q: expected bool, got %T", key, v))
	}
	return b
}

// String reads a string option, returning def when absent
func (p Params) String(key string, def string) string {
	v, ok := p[key]
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		panic(fmt.Sprintf("param %q: expected string, got %T", key, v))
	}
	return s
}

// Keys returns the option names in sorted order
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (p Params) validate() error {
	for _, k := range p.Keys() {
		switch p[k].(type) {
		case bool, string, int, int32, int64, uint, uint32, uint64, float32, float64:
		default:
			return fmt.Errorf("param %q: unsupported type %T", k, p[k])
		}
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
