package compiler

import (
	"context"
	"fmt"
	"log/slog"
	"maps"

	"github.com/ardnew/rablc/lang"
	"github.com/ardnew/rablc/log"
	"github.com/ardnew/rablc/template"
)

// PathBinding is the reserved name under which the path identifier of the
// naming context is bound.
const PathBinding = "virtual_path"

// DefaultMaxDepth is the default limit on nested child blocks.
const DefaultMaxDepth = 100

// Compiler compiles template source into [template.CompiledTemplate] values
// using the bindings imported from a [NamingContext].
//
// A Compiler is not safe for concurrent use.
type Compiler struct {
	root     *Scope
	path     string
	explicit map[string]any
	logger   log.Logger
	maxDepth int
	builtins bool
}

// Option configures a [Compiler].
type Option func(*Compiler)

// WithBindings adds explicit bindings. When any are given, assigns of the
// naming context are not imported.
func WithBindings(bindings map[string]any) Option {
	return func(c *Compiler) {
		if c.explicit == nil {
			c.explicit = make(map[string]any, len(bindings))
		}

		maps.Copy(c.explicit, bindings)
	}
}

// WithLogger sets the logger used for compile tracing.
func WithLogger(logger log.Logger) Option {
	return func(c *Compiler) { c.logger = logger }
}

// WithMaxDepth sets the limit on nested child blocks.
func WithMaxDepth(depth int) Option {
	return func(c *Compiler) { c.maxDepth = depth }
}

// WithBuiltins controls whether deferred node bodies can use the helpers
// returned by [Builtins].
func WithBuiltins(enable bool) Option {
	return func(c *Compiler) { c.builtins = enable }
}

// New returns a Compiler bound to nc.
//
// Explicit bindings given with [WithBindings] take the place of the assigns
// of nc: the assigns are imported, each under its own name, only when there
// are no explicit bindings. The path identifier of nc is always bound to
// [PathBinding]. A nil nc is treated as a context with no assigns and an
// empty path identifier.
func New(nc NamingContext, opts ...Option) *Compiler {
	c := &Compiler{
		maxDepth: DefaultMaxDepth,
		builtins: true,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.root = NewScope(c.explicit)

	if nc != nil {
		if len(c.explicit) == 0 {
			c.importAssigns(nc)
		}

		c.path = nc.PathIdentifier()
	}

	c.root.Set(PathBinding, c.path)
	c.explicit = nil

	return c
}

func (c *Compiler) importAssigns(nc NamingContext) {
	for _, name := range nc.AssignNames() {
		if v, ok := nc.Assign(name); ok {
			c.root.Set(name, v)
		}
	}
}

// PathIdentifier returns the path identifier of the naming context.
func (c *Compiler) PathIdentifier() string { return c.path }

// Binding returns the value bound to name.
func (c *Compiler) Binding(name string) (any, bool) {
	return c.root.Lookup(name)
}

// BindingNames returns the bound names in sorted order.
func (c *Compiler) BindingNames() []string {
	return c.root.Names()
}

// Bind binds name to v. Deferred computations of templates already compiled
// observe the new value when next invoked. [PathBinding] cannot be rebound.
func (c *Compiler) Bind(name string, v any) {
	if name == PathBinding {
		return
	}

	c.root.Set(name, v)
}

// Compile parses and compiles source. The empty source yields an empty
// template. On error no template is returned.
func (c *Compiler) Compile(
	ctx context.Context,
	source string,
) (*template.CompiledTemplate, error) {
	c.logger.TraceContext(ctx, "compile start",
		slog.Int("source_length", len(source)))

	prog, err := lang.ParseString(ctx, source, lang.WithLogger(c.logger))
	if err != nil {
		return nil, err
	}

	return c.CompileProgram(ctx, prog)
}

// CompileProgram compiles an already parsed program.
func (c *Compiler) CompileProgram(
	ctx context.Context,
	prog *lang.Program,
) (*template.CompiledTemplate, error) {
	tpl, err := c.compileProgram(ctx, prog, c.root)
	if err != nil {
		return nil, err
	}

	c.logger.TraceContext(ctx, "compile complete",
		slog.Int("key_count", tpl.Len()))

	return tpl, nil
}

// state is the directive evaluation state of one scope.
type state struct {
	ctx      context.Context
	compiler *Compiler
	scope    *Scope
	builder  *template.Builder
}

func (st *state) set(call *lang.Call, key string, spec template.Spec) {
	st.compiler.logger.TraceContext(st.ctx, "directive",
		slog.String("name", call.Name),
		slog.String("key", key),
		slog.String("position", call.Pos.String()),
		slog.Int("depth", st.scope.Depth()))

	st.builder.Set(key, spec)
}

func (c *Compiler) compileProgram(
	ctx context.Context,
	prog *lang.Program,
	scope *Scope,
) (*template.CompiledTemplate, error) {
	st := &state{
		ctx:      ctx,
		compiler: c,
		scope:    scope,
		builder:  template.NewBuilder(),
	}

	for call := range prog.All() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		d, ok := directives[call.Name]
		if !ok {
			return nil, lang.ErrUnknownDirective.
				Wrap(fmt.Errorf("%q at %s", call.Name, call.Pos)).
				With(slog.String("name", call.Name)).
				WithPosition(call.Pos)
		}

		if err := d.check(st, call); err != nil {
			return nil, err
		}

		if err := d.apply(st, call); err != nil {
			return nil, err
		}
	}

	return st.builder.Build(), nil
}

// compileBlock compiles the body of block as a nested template in scope.
func (c *Compiler) compileBlock(
	ctx context.Context,
	block *lang.Block,
	scope *Scope,
) (*template.CompiledTemplate, error) {
	if scope.Depth() > c.maxDepth {
		return nil, lang.ErrMalformedArguments.
			Wrap(fmt.Errorf("block at %s nested deeper than %d", block.Pos, c.maxDepth)).
			WithPosition(block.Pos)
	}

	prog, err := lang.ParseBlock(ctx, block, lang.WithLogger(c.logger))
	if err != nil {
		return nil, err
	}

	return c.compileProgram(ctx, prog, scope)
}
