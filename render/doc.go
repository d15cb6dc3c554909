// Package render applies compiled templates to Go values.
//
// [Render] walks a [template.CompiledTemplate] in key order. Field
// references read a field of the rendered object (see [Field]), associations
// render their nested template against the associated value, and deferred
// computations are invoked with the rendered object. Slices render element
// by element.
//
// The result is built from [yaml.MapSlice] values so the key order survives
// [Encode] to JSON or YAML.
package render
