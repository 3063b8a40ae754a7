// FilePath: internal/decode/decode.go

// Package decode reads loosely-typed store documents field by field,
// substituting a default for anything missing or malformed. Every
// substitution is recorded so callers can log or test the fallback path
// instead of it happening silently.
package decode

import "encoding/json"

// Decoder walks one decoded JSON object and tracks defaulted fields.
type Decoder struct {
	obj       map[string]any
	defaulted []string
}

// NewDecoder parses raw JSON into a decoder. A payload that is not a
// JSON object yields ok=false; per-record callers drop such entries.
func NewDecoder(raw []byte) (*Decoder, bool) {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, false
	}
	return &Decoder{obj: obj}, true
}

// Defaulted lists the fields that were absent or malformed and replaced
// by their default, in the order they were read.
func (d *Decoder) Defaulted() []string {
	return d.defaulted
}

func (d *Decoder) fallback(key string) {
	d.defaulted = append(d.defaulted, key)
}

// Float reads a numeric field, defaulting when absent or not a number.
func (d *Decoder) Float(key string, def float64) float64 {
	v, ok := d.obj[key]
	if !ok {
		d.fallback(key)
		return def
	}
	f, ok := v.(float64)
	if !ok {
		d.fallback(key)
		return def
	}
	return f
}

// Int reads an integer field. JSON numbers arrive as float64; the value
// is truncated toward zero like the firmware's own integer fields.
func (d *Decoder) Int(key string, def int) int {
	v, ok := d.obj[key]
	if !ok {
		d.fallback(key)
		return def
	}
	f, ok := v.(float64)
	if !ok {
		d.fallback(key)
		return def
	}
	return int(f)
}

// Int64 reads a wide integer field (epoch millis, uptime counters).
func (d *Decoder) Int64(key string, def int64) int64 {
	v, ok := d.obj[key]
	if !ok {
		d.fallback(key)
		return def
	}
	f, ok := v.(float64)
	if !ok {
		d.fallback(key)
		return def
	}
	return int64(f)
}

// Bool reads a boolean field, defaulting when absent or not a bool.
func (d *Decoder) Bool(key string, def bool) bool {
	v, ok := d.obj[key]
	if !ok {
		d.fallback(key)
		return def
	}
	b, ok := v.(bool)
	if !ok {
		d.fallback(key)
		return def
	}
	return b
}

// String reads a string field, defaulting when absent or not a string.
func (d *Decoder) String(key string, def string) string {
	v, ok := d.obj[key]
	if !ok {
		d.fallback(key)
		return def
	}
	s, ok := v.(string)
	if !ok {
		d.fallback(key)
		return def
	}
	return s
}

// Object reads a nested object field. A missing or malformed nested
// object is recorded on the parent and an empty child is returned, so
// every field read from it falls back to its default. Fold the child's
// own substitutions back with Merge.
func (d *Decoder) Object(key string) *Decoder {
	if v, ok := d.obj[key]; ok {
		if child, ok := v.(map[string]any); ok {
			return &Decoder{obj: child}
		}
	}
	d.fallback(key)
	return &Decoder{obj: map[string]any{}}
}

// Merge folds a child decoder's defaulted fields into the parent under
// the given prefix.
func (d *Decoder) Merge(prefix string, child *Decoder) {
	for _, f := range child.defaulted {
		d.defaulted = append(d.defaulted, prefix+"."+f)
	}
}
