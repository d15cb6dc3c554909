package template

import (
	"fmt"
	"slices"
)

// Spec describes how the value of one output key is produced from the object
// being rendered. The set of implementations is closed: [FieldRef],
// [Association] and [Deferred].
type Spec interface {
	isSpec()
}

// FieldRef reads the named field from the rendered object.
type FieldRef struct {
	Field string
}

// Association renders Nested against the object found at Source.
type Association struct {
	Source DataSource
	Nested *CompiledTemplate
}

// Deferred holds a computation that is invoked with the rendered object only
// at render time.
type Deferred struct {
	Computation *Computation
}

func (FieldRef) isSpec()    {}
func (Association) isSpec() {}
func (Deferred) isSpec()    {}

// DataSource identifies what an [Association] traverses: either a field of
// the rendered object, or a value captured when the template was compiled.
type DataSource struct {
	field    string
	value    any
	captured bool
}

// FieldSource returns a DataSource reading the named field.
func FieldSource(name string) DataSource {
	return DataSource{field: name}
}

// ValueSource returns a DataSource holding v itself.
func ValueSource(v any) DataSource {
	return DataSource{value: v, captured: true}
}

// Field returns the field name and true if s reads a field.
func (s DataSource) Field() (string, bool) {
	return s.field, !s.captured
}

// Value returns the captured value and true if s holds a captured value.
func (s DataSource) Value() (any, bool) {
	return s.value, s.captured
}

// IsCaptured reports whether s holds a value rather than a field name.
func (s DataSource) IsCaptured() bool { return s.captured }

// String describes the source for display.
func (s DataSource) String() string {
	if !s.captured {
		return s.field
	}

	if s.value == nil {
		return "<nil>"
	}

	return fmt.Sprintf("<%T>", s.value)
}

// Equal reports whether s and o name the same field or hold the same value.
// Captured values are compared with == when comparable, and otherwise are
// never equal.
func (s DataSource) Equal(o DataSource) bool {
	if s.captured != o.captured {
		return false
	}

	if !s.captured {
		return s.field == o.field
	}

	return sameValue(s.value, o.value)
}

func sameValue(a, b any) (equal bool) {
	defer func() {
		// Comparing interfaces holding uncomparable dynamic types panics.
		if recover() != nil {
			equal = false
		}
	}()

	return a == b
}

// Computation is a deferred function of the rendered object. It is created by
// the compiler and invoked by the renderer; compiling a template never
// invokes it.
type Computation struct {
	source string
	params []string
	fn     func(obj any) (any, error)
}

// NewComputation returns a Computation described by source and params that
// evaluates fn when invoked.
func NewComputation(
	source string,
	params []string,
	fn func(obj any) (any, error),
) *Computation {
	return &Computation{
		source: source,
		params: slices.Clone(params),
		fn:     fn,
	}
}

// Invoke evaluates the computation against obj.
func (c *Computation) Invoke(obj any) (any, error) {
	if c == nil || c.fn == nil {
		return nil, nil
	}

	return c.fn(obj)
}

// Source returns the code the computation evaluates.
func (c *Computation) Source() string { return c.source }

// Params returns the names bound to the rendered object on invocation.
func (c *Computation) Params() []string { return slices.Clone(c.params) }
