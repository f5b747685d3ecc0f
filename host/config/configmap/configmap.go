// Package configmap is the key/value view of a server profile which
// configstruct reads options from.
package configmap

import (
	"sort"
	"strings"
)

// Getter looks up one setting. ok is false if the source doesn't
// have it, in which case the next source or the default is used.
type Getter interface {
	Get(key string) (value string, ok bool)
}

// GetterFunc adapts a function to a Getter
type GetterFunc func(key string) (value string, ok bool)

// Get calls f
func (f GetterFunc) Get(key string) (string, bool) {
	return f(key)
}

// Layers is a stack of Getters. The earliest one with the key wins so
// put overrides, such as the environment, first.
type Layers []Getter

// Get implements Getter
func (ls Layers) Get(key string) (string, bool) {
	for _, g := range ls {
		if g == nil {
			continue
		}
		if value, ok := g.Get(key); ok {
			return value, true
		}
	}
	return "", false
}

// Simple is a Getter backed by a map, mostly for tests
type Simple map[string]string

// Get implements Getter
func (s Simple) Get(key string) (string, bool) {
	value, ok := s[key]
	return value, ok
}

// String renders s as key='value' pairs in key order, quoting ' as ''
func (s Simple) String() string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "='" + strings.ReplaceAll(s[k], "'", "''") + "'"
	}
	return strings.Join(parts, ",")
}
