package template

import (
	"iter"
	"slices"
)

// CompiledTemplate is the immutable result of compiling template source:
// an ordered mapping from output key to [Spec], plus an optional root data
// source. The zero value and nil are empty templates.
type CompiledTemplate struct {
	keys  []string
	specs map[string]Spec

	data       *DataSource
	collection bool
}

// Empty returns a template with no keys.
func Empty() *CompiledTemplate { return &CompiledTemplate{} }

// Len returns the number of keys.
func (t *CompiledTemplate) Len() int {
	if t == nil {
		return 0
	}

	return len(t.keys)
}

// Keys returns the output keys in order.
func (t *CompiledTemplate) Keys() []string {
	if t == nil {
		return nil
	}

	return slices.Clone(t.keys)
}

// Get returns the spec of key.
func (t *CompiledTemplate) Get(key string) (Spec, bool) {
	if t == nil {
		return nil, false
	}

	spec, ok := t.specs[key]

	return spec, ok
}

// Has reports whether key is present.
func (t *CompiledTemplate) Has(key string) bool {
	_, ok := t.Get(key)

	return ok
}

// All returns an iterator over keys and specs in order.
func (t *CompiledTemplate) All() iter.Seq2[string, Spec] {
	return func(yield func(string, Spec) bool) {
		if t == nil {
			return
		}

		for _, key := range t.keys {
			if !yield(key, t.specs[key]) {
				return
			}
		}
	}
}

// Data returns the root data source declared by the template, if any.
func (t *CompiledTemplate) Data() (DataSource, bool) {
	if t == nil || t.data == nil {
		return DataSource{}, false
	}

	return *t.data, true
}

// IsCollection reports whether the root data source was declared as a
// collection, each element of which is rendered with the template.
func (t *CompiledTemplate) IsCollection() bool {
	return t != nil && t.collection
}

// Equal reports whether a and b have the same keys in the same order with
// equal specs. Nested templates compare recursively, and deferred
// computations compare by identity.
func Equal(a, b *CompiledTemplate) bool {
	if a.Len() != b.Len() || a.IsCollection() != b.IsCollection() {
		return false
	}

	ad, aok := a.Data()
	bd, bok := b.Data()

	if aok != bok || (aok && !ad.Equal(bd)) {
		return false
	}

	if a.Len() == 0 {
		return true
	}

	for i, key := range a.keys {
		if b.keys[i] != key || !EqualSpec(a.specs[key], b.specs[key]) {
			return false
		}
	}

	return true
}

// EqualSpec reports whether a and b are equal specs.
func EqualSpec(a, b Spec) bool {
	switch av := a.(type) {
	case FieldRef:
		bv, ok := b.(FieldRef)

		return ok && av.Field == bv.Field

	case Association:
		bv, ok := b.(Association)

		return ok && av.Source.Equal(bv.Source) && Equal(av.Nested, bv.Nested)

	case Deferred:
		bv, ok := b.(Deferred)

		return ok && av.Computation == bv.Computation

	default:
		return a == nil && b == nil
	}
}

// Builder accumulates keys for a CompiledTemplate. Setting a key that already
// exists replaces its spec without moving it.
type Builder struct {
	tpl   *CompiledTemplate
	built bool
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		tpl: &CompiledTemplate{specs: make(map[string]Spec)},
	}
}

// Set assigns spec to key. The first Set of a key fixes its position.
func (b *Builder) Set(key string, spec Spec) {
	b.mustOpen()

	if _, ok := b.tpl.specs[key]; !ok {
		b.tpl.keys = append(b.tpl.keys, key)
	}

	b.tpl.specs[key] = spec
}

// SetData declares the root data source.
func (b *Builder) SetData(src DataSource, collection bool) {
	b.mustOpen()

	b.tpl.data = &src
	b.tpl.collection = collection
}

// HasData reports whether SetData was called.
func (b *Builder) HasData() bool {
	return b.tpl.data != nil
}

// Len returns the number of keys set so far.
func (b *Builder) Len() int { return b.tpl.Len() }

// Build returns the finished template. The Builder must not be used after.
func (b *Builder) Build() *CompiledTemplate {
	b.mustOpen()

	b.built = true

	return b.tpl
}

func (b *Builder) mustOpen() {
	if b.built {
		panic("template: Builder used after Build")
	}
}
