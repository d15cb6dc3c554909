// Package template defines [CompiledTemplate], the immutable product of
// compiling template source, and the [Spec] variants describing how each
// output key is produced at render time.
//
// A CompiledTemplate is an ordered mapping. Keys keep the position of their
// first declaration; a later declaration of the same key replaces only its
// spec.
package template
