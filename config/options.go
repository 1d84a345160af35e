// Package config implements the per-component tagged option maps spec.md
// §6 describes: an in-process map any library caller can populate (not
// just a cmd/ binary reading environment variables), optionally loaded
// from YAML for the CLI tools. The typed accessors follow the same
// "assert, fall back on mismatch" style doismellburning-samoyed's
// deviceid.go uses when unmarshaling its tocalls.yaml into a bare
// map[string]interface{}, generalized into reusable helpers instead of
// one-off type assertions at every call site.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Options is a per-component option map, keyed by option name.
type Options map[string]any

// Load reads a YAML document from path and decodes it into a tree of
// nested Options, one per top-level key (e.g. a "mxf:" section and a
// "pipeline:" section in the same file).
func Load(path string) (map[string]Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML document's top-level sections into Options.
func Parse(data []byte) (map[string]Options, error) {
	var raw map[string]map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("config: parsing YAML: %w", err)
	}
	out := make(map[string]Options, len(raw))
	for section, values := range raw {
		out[section] = Options(values)
	}
	return out, nil
}

// Bool returns the bool value of key, or (false, false) if key is absent
// or not a bool.
func (o Options) Bool(key string) (bool, bool) {
	v, ok := o[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// Int returns the int value of key. YAML numeric scalars decode as int
// when they fit, so this also accepts an int64 or float64 that carries
// no fractional part.
func (o Options) Int(key string) (int, bool) {
	v, ok := o[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// String returns the string value of key.
func (o Options) String(key string) (string, bool) {
	v, ok := o[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Duration parses the string value of key with time.ParseDuration.
func (o Options) Duration(key string) (time.Duration, bool) {
	s, ok := o.String(key)
	if !ok {
		return 0, false
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, false
	}
	return d, true
}

// BoolOr returns Bool(key) or fallback if key is absent or malformed.
func (o Options) BoolOr(key string, fallback bool) bool {
	v, ok := o.Bool(key)
	if !ok {
		return fallback
	}
	return v
}

// IntOr returns Int(key) or fallback if key is absent or malformed.
func (o Options) IntOr(key string, fallback int) int {
	v, ok := o.Int(key)
	if !ok {
		return fallback
	}
	return v
}

// StringOr returns String(key) or fallback if key is absent or malformed.
func (o Options) StringOr(key string, fallback string) string {
	v, ok := o.String(key)
	if !ok {
		return fallback
	}
	return v
}

// EnvOr returns the environment variable named key, or fallback if unset
// or empty, mirroring zsiec-prism/cmd/prism/main.go's envOr helper.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
