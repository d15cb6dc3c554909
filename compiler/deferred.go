package compiler

import (
	"log/slog"
	"maps"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/ardnew/rablc/lang"
	"github.com/ardnew/rablc/template"
)

// ObjectName is the name bound to the rendered object in deferred node
// bodies.
const ObjectName = "object"

// deferred is a node body compiled with expr-lang, evaluated against an
// environment assembled at invocation time.
type deferred struct {
	program  *vm.Program
	params   []string
	scope    *Scope
	builtins bool
}

// compileDeferred compiles the body of block for later evaluation in scope.
// Only the expression is compiled; nothing in it is evaluated.
func (c *Compiler) compileDeferred(
	block *lang.Block,
	scope *Scope,
) (*template.Computation, error) {
	source := block.TrimmedBody()

	d := &deferred{
		params:   block.Params,
		scope:    scope,
		builtins: c.builtins,
	}

	// expr-lang cannot compile an empty expression.
	if source == "" {
		return template.NewComputation(source, block.Params, d.eval), nil
	}

	program, err := expr.Compile(source,
		expr.Env(d.exemplar()),
		expr.AllowUndefinedVariables(),
		expr.Optimize(false),
	)
	if err != nil {
		return nil, lang.ErrSyntax.Wrap(err).
			With(slog.String("source", source)).
			WithPosition(block.Pos)
	}

	d.program = program

	return template.NewComputation(source, block.Params, d.eval), nil
}

// exemplar returns the environment used to type-check the body. It holds
// only the builtins not shadowed by a binding, the object name, or a
// parameter. Every other identifier is left undeclared so that it
// type-checks as unknown and resolves when the computation is invoked.
func (d *deferred) exemplar() map[string]any {
	if !d.builtins {
		return map[string]any{}
	}

	env := makeBuiltins()

	for _, name := range d.scope.Names() {
		delete(env, name)
	}

	delete(env, ObjectName)

	for _, p := range d.params {
		delete(env, p)
	}

	return env
}

// env returns the evaluation environment for obj. Later layers shadow
// earlier ones: builtins, the scope chain as of now, the rendered object,
// the keys of obj when it is a map, and finally the block parameters.
func (d *deferred) env(obj any) map[string]any {
	env := map[string]any{}
	if d.builtins {
		env = makeBuiltins()
	}

	maps.Copy(env, d.scope.Flatten())

	env[ObjectName] = obj

	if m, ok := obj.(map[string]any); ok {
		maps.Copy(env, m)
	}

	for _, p := range d.params {
		env[p] = obj
	}

	return env
}

func (d *deferred) eval(obj any) (any, error) {
	if d.program == nil {
		return nil, nil
	}

	return expr.Run(d.program, d.env(obj))
}
