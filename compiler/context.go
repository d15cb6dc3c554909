package compiler

import (
	"maps"
	"slices"
)

// NamingContext supplies the values a host makes available to templates: an
// identifier of the host's path and a set of named assigns.
type NamingContext interface {
	PathIdentifier() string
	AssignNames() []string
	Assign(name string) (any, bool)
}

// MapContext is a [NamingContext] backed by a map.
type MapContext struct {
	Path    string
	Assigns map[string]any
}

// PathIdentifier returns c.Path.
func (c MapContext) PathIdentifier() string { return c.Path }

// AssignNames returns the assign names in sorted order.
func (c MapContext) AssignNames() []string {
	return slices.Sorted(maps.Keys(c.Assigns))
}

// Assign returns the named assign.
func (c MapContext) Assign(name string) (any, bool) {
	v, ok := c.Assigns[name]

	return v, ok
}
