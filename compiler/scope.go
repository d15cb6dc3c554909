package compiler

import (
	"maps"
	"slices"
)

// Scope is one level of the bindings visible to directive evaluation.
// Lookups read through to enclosing scopes; writes stay local.
type Scope struct {
	vars   map[string]any
	parent *Scope
	depth  int
}

// NewScope returns a root scope holding a copy of vars.
func NewScope(vars map[string]any) *Scope {
	s := &Scope{vars: make(map[string]any, len(vars))}
	maps.Copy(s.vars, vars)

	return s
}

// Child returns a new scope nested in s.
func (s *Scope) Child() *Scope {
	return &Scope{
		vars:   make(map[string]any),
		parent: s,
		depth:  s.depth + 1,
	}
}

// Parent returns the enclosing scope, or nil for a root scope.
func (s *Scope) Parent() *Scope { return s.parent }

// Depth returns the number of scopes enclosing s.
func (s *Scope) Depth() int { return s.depth }

// Lookup returns the value bound to name in s or the nearest enclosing scope
// that binds it.
func (s *Scope) Lookup(name string) (any, bool) {
	for f := s; f != nil; f = f.parent {
		if v, ok := f.vars[name]; ok {
			return v, true
		}
	}

	return nil, false
}

// Has reports whether s binds name locally.
func (s *Scope) Has(name string) bool {
	_, ok := s.vars[name]

	return ok
}

// Set binds name to v in s, shadowing any binding of an enclosing scope.
func (s *Scope) Set(name string, v any) {
	s.vars[name] = v
}

// Names returns the names visible from s in sorted order.
func (s *Scope) Names() []string {
	return slices.Sorted(maps.Keys(s.Flatten()))
}

// Flatten returns every binding visible from s. Inner bindings shadow outer
// ones with the same name.
func (s *Scope) Flatten() map[string]any {
	var chain []*Scope
	for f := s; f != nil; f = f.parent {
		chain = append(chain, f)
	}

	out := make(map[string]any)

	for _, f := range slices.Backward(chain) {
		maps.Copy(out, f.vars)
	}

	return out
}
