package compiler

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/ardnew/rablc/lang"
	"github.com/ardnew/rablc/template"
)

// BlockRule states whether a directive takes a block.
type BlockRule int

const (
	BlockForbidden BlockRule = iota // no block
	BlockRequired                   // block required
)

// Unlimited is the MaxArgs of a directive accepting any number of arguments.
const Unlimited = -1

// Directive describes a recognized directive: the shape of its arguments and
// how it updates the template being compiled.
type Directive struct {
	Name    string
	Usage   string
	Summary string

	MinArgs int
	MaxArgs int
	Block   BlockRule

	// Nested reports whether the block body is itself template source.
	// Otherwise the body is kept as a deferred expression.
	Nested bool

	// RootOnly directives may appear only at the top level, at most once.
	RootOnly bool

	apply func(*state, *lang.Call) error
}

//nolint:gochecknoglobals
var directives = map[string]*Directive{}

func register(d *Directive) {
	directives[d.Name] = d
}

func init() {
	register(&Directive{
		Name:    "attribute",
		Usage:   "attribute :field [=> :key]",
		Summary: "expose a field of the object",
		MinArgs: 1,
		MaxArgs: 1,
		apply:   applyAttributes,
	})
	register(&Directive{
		Name:    "attributes",
		Usage:   "attributes :field [=> :key], ...",
		Summary: "expose several fields of the object",
		MinArgs: 1,
		MaxArgs: Unlimited,
		apply:   applyAttributes,
	})
	register(&Directive{
		Name:    "child",
		Usage:   "child (:field | @binding) [=> :key] { ... }",
		Summary: "nest a template for an associated object",
		MinArgs: 1,
		MaxArgs: 1,
		Block:   BlockRequired,
		Nested:  true,
		apply:   applyChild,
	})
	register(&Directive{
		Name:    "node",
		Usage:   "node :key { [|obj|] expression }",
		Summary: "compute a value when rendering",
		MinArgs: 1,
		MaxArgs: 1,
		Block:   BlockRequired,
		apply:   applyNode,
	})
	register(&Directive{
		Name:     "object",
		Usage:    "object (:field | @binding)",
		Summary:  "set the object the template renders",
		MinArgs:  1,
		MaxArgs:  1,
		RootOnly: true,
		apply:    applyData(false),
	})
	register(&Directive{
		Name:     "collection",
		Usage:    "collection (:field | @binding)",
		Summary:  "set the collection the template renders for each element",
		MinArgs:  1,
		MaxArgs:  1,
		RootOnly: true,
		apply:    applyData(true),
	})
}

// Directives returns the names of all recognized directives in sorted order.
func Directives() []string {
	return slices.Sorted(maps.Keys(directives))
}

// LookupDirective returns the directive with the given name.
func LookupDirective(name string) (Directive, bool) {
	d, ok := directives[name]
	if !ok {
		return Directive{}, false
	}

	return *d, true
}

// NestedBlock reports whether the block of call contains template source
// rather than a deferred expression.
func NestedBlock(call *lang.Call) bool {
	d, ok := directives[call.Name]

	return ok && d.Nested
}

// check validates the shape of call against d.
func (d *Directive) check(st *state, call *lang.Call) error {
	n := len(call.Args)

	switch {
	case n < d.MinArgs:
		return malformed(call, call.Pos, "expected at least %d argument(s), got %d",
			d.MinArgs, n)

	case d.MaxArgs != Unlimited && n > d.MaxArgs:
		return malformed(call, call.Args[d.MaxArgs].Value.Pos,
			"expected at most %d argument(s), got %d", d.MaxArgs, n)

	case d.Block == BlockRequired && call.Block == nil:
		return malformed(call, call.Pos, "requires a block")

	case d.Block == BlockForbidden && call.Block != nil:
		return malformed(call, call.Block.Pos, "does not take a block")
	}

	if d.RootOnly {
		if st.scope.Depth() > 0 {
			return malformed(call, call.Pos, "not allowed in a nested block")
		}

		if st.builder.HasData() {
			return malformed(call, call.Pos, "template data already set")
		}
	}

	return nil
}

// applyAttributes maps each argument's key to a field reference.
func applyAttributes(st *state, call *lang.Call) error {
	for _, arg := range call.Args {
		field, err := fieldName(call, arg.Value)
		if err != nil {
			return err
		}

		key, err := aliasName(call, arg, field)
		if err != nil {
			return err
		}

		st.set(call, key, template.FieldRef{Field: field})
	}

	return nil
}

// applyChild compiles the block in a nested scope and maps the key to an
// association with the compiled result.
func applyChild(st *state, call *lang.Call) error {
	arg := call.Args[0]

	var (
		src template.DataSource
		key string
	)

	switch op := arg.Value; {
	case op.IsName():
		field, err := fieldName(call, op)
		if err != nil {
			return err
		}

		src, key = template.FieldSource(field), field

	case op.Kind == lang.KindBinding:
		v, ok := st.scope.Lookup(op.Text)
		if !ok {
			return malformed(call, op.Pos, "unbound %s", op)
		}

		src, key = template.ValueSource(v), op.Text

	default:
		if arg.Alias == nil {
			return malformed(call, op.Pos, "literal %s requires an alias", op)
		}

		src = template.ValueSource(op.Literal())
	}

	key, err := aliasName(call, arg, key)
	if err != nil {
		return err
	}

	if len(call.Block.Params) > 0 {
		return malformed(call, call.Block.Pos, "block takes no parameters")
	}

	nested, err := st.compiler.compileBlock(st.ctx, call.Block, st.scope.Child())
	if err != nil {
		return err
	}

	st.set(call, key, template.Association{Source: src, Nested: nested})

	return nil
}

// applyNode maps the key to a deferred computation of the block body.
func applyNode(st *state, call *lang.Call) error {
	arg := call.Args[0]

	key, err := fieldName(call, arg.Value)
	if err != nil {
		return err
	}

	if arg.Alias != nil {
		return malformed(call, arg.Alias.Pos, "unexpected alias")
	}

	if len(call.Block.Params) > 1 {
		return malformed(call, call.Block.Pos,
			"block takes at most one parameter, got %d", len(call.Block.Params))
	}

	comp, err := st.compiler.compileDeferred(call.Block, st.scope)
	if err != nil {
		return err
	}

	st.set(call, key, template.Deferred{Computation: comp})

	return nil
}

// applyData returns the handler of object (collection false) and collection
// (collection true), which set the data source of the template itself.
func applyData(collection bool) func(*state, *lang.Call) error {
	return func(st *state, call *lang.Call) error {
		arg := call.Args[0]

		if arg.Alias != nil {
			return malformed(call, arg.Alias.Pos, "unexpected alias")
		}

		var src template.DataSource

		switch op := arg.Value; {
		case op.IsName():
			field, err := fieldName(call, op)
			if err != nil {
				return err
			}

			src = template.FieldSource(field)

		case op.Kind == lang.KindBinding:
			v, ok := st.scope.Lookup(op.Text)
			if !ok {
				return malformed(call, op.Pos, "unbound %s", op)
			}

			src = template.ValueSource(v)

		default:
			return malformed(call, op.Pos, "expected a field or binding, got %s", op)
		}

		st.builder.SetData(src, collection)

		return nil
	}
}

// fieldName returns the name held by op.
func fieldName(call *lang.Call, op lang.Operand) (string, error) {
	if !op.IsName() {
		return "", malformed(call, op.Pos, "expected a name, got %s", op)
	}

	if op.Text == "" {
		return "", malformed(call, op.Pos, "empty name")
	}

	return op.Text, nil
}

// aliasName returns the alias of arg, or def if arg has none.
func aliasName(call *lang.Call, arg lang.Arg, def string) (string, error) {
	if arg.Alias == nil {
		return def, nil
	}

	return fieldName(call, *arg.Alias)
}

func malformed(
	call *lang.Call,
	pos lang.Position,
	format string,
	args ...any,
) *lang.Error {
	return lang.ErrMalformedArguments.
		Wrap(fmt.Errorf("%s at %s: %s", call.Name, pos, fmt.Sprintf(format, args...))).
		With(slog.String("directive", call.Name)).
		WithPosition(pos)
}
