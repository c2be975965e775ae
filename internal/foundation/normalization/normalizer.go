// Package normalization maps loosely typed user input onto enum values.
package normalization

import (
	"fmt"
	"slices"
	"strings"
)

// Normalizer resolves trimmed, case-insensitive names to values of T.
type Normalizer[T comparable] struct {
	name   string
	values map[string]T
	keys   []string
}

// New builds a normalizer for the enum called name. Several keys may map to
// the same value; the empty key, when present, supplies the default.
func New[T comparable](name string, values map[string]T) *Normalizer[T] {
	n := &Normalizer[T]{name: name, values: make(map[string]T, len(values))}
	for k, v := range values {
		k = clean(k)
		n.values[k] = v
		if k != "" {
			n.keys = append(n.keys, k)
		}
	}
	slices.Sort(n.keys)
	return n
}

// Parse returns the value for raw or an error listing the accepted names.
func (n *Normalizer[T]) Parse(raw string) (T, error) {
	if v, ok := n.values[clean(raw)]; ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q, valid options: %v", n.name, raw, n.keys)
}

// Keys returns the accepted non-empty names in sorted order.
func (n *Normalizer[T]) Keys() []string {
	return slices.Clone(n.keys)
}

func clean(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
