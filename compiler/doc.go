// Package compiler compiles template source into immutable
// [template.CompiledTemplate] values.
//
// A [Compiler] is bound to a [NamingContext] that supplies a path identifier
// and named assigns. The assigns become bindings, addressable in source as
// @name, unless explicit bindings are given with [WithBindings]. The path
// identifier is always bound as [PathBinding].
//
// # Directives
//
// Source is a sequence of directive calls evaluated in order. Each call sets
// one or more keys of the template being built. The first directive to set a
// key fixes its position and the last one fixes its value.
//
//	attribute :id                    id        -> field id
//	attribute :name => :full_name    full_name -> field name
//	attributes :a, :b => :c          a -> field a, c -> field b
//	child :address { ... }           address   -> nested template of field address
//	child @user => :author { ... }   author    -> nested template of the bound value
//	node :initials { |u| u.name[0:1] }
//	                                 initials  -> computed when rendering
//	object @user                     root object of the template
//	collection :users                root collection, rendered per element
//
// Nested blocks are compiled eagerly in a [Scope] that reads through to its
// parent. Node bodies are expr-lang expressions. They are compiled, but never
// evaluated, during compilation. When the renderer invokes one, names are
// resolved in this order:
//
//  1. the block parameter, bound to the rendered object
//  2. keys of the rendered object, when it is a map[string]any
//  3. the rendered object itself, as [ObjectName]
//  4. bindings visible from the scope of the node, as they are at that moment
//  5. the helpers of [Builtins]
//
// Unbound names evaluate to nil.
//
// # Errors
//
// Compilation stops at the first error, which satisfies errors.Is against
// one of [lang.ErrSyntax], [lang.ErrUnknownDirective] or
// [lang.ErrMalformedArguments].
package compiler
