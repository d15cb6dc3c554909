package cmd

import (
	"context"
	"log/slog"
	"maps"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/rablc/compiler"
	"github.com/ardnew/rablc/lang"
	"github.com/ardnew/rablc/log"
	"github.com/ardnew/rablc/template"
)

// Naming holds the flags describing the naming context a template compiles
// in.
type Naming struct {
	Assigns    []string          `help:"YAML or JSON mapping of assigns (repeatable, later files win)." placeholder:"FILE"       short:"a" type:"existingfile"`
	Bind       map[string]string `help:"Explicit binding with a YAML value; any binding replaces all assigns." placeholder:"NAME=VALUE" short:"b"`
	Path       string            `help:"Virtual path of the template."                                  placeholder:"PATH"`
	MaxDepth   int               `default:"${maxDepth}" help:"Maximum nesting depth of child blocks."`
	NoBuiltins bool              `help:"Hide builtin helpers from node expressions."`
}

// bindings decodes the values of n.Bind.
func (n *Naming) bindings(ctx context.Context) (map[string]any, error) {
	bindings := make(map[string]any, len(n.Bind))

	for name, text := range n.Bind {
		var v any

		if err := yaml.UnmarshalContext(ctx, []byte(text), &v); err != nil {
			return nil, ErrBinding.Wrap(err).With(slog.String("name", name))
		}

		bindings[name] = v
	}

	return bindings, nil
}

// compiler returns a Compiler for the naming context described by n.
func (n *Naming) compiler(ctx context.Context) (*compiler.Compiler, error) {
	assigns := make(map[string]any)

	for _, file := range n.Assigns {
		m, err := loadMapping(ctx, file)
		if err != nil {
			return nil, err
		}

		maps.Copy(assigns, m)
	}

	opts := []compiler.Option{
		compiler.WithLogger(log.Default().Component("compiler")),
		compiler.WithBuiltins(!n.NoBuiltins),
	}

	if n.MaxDepth > 0 {
		opts = append(opts, compiler.WithMaxDepth(n.MaxDepth))
	}

	if len(n.Bind) > 0 {
		bindings, err := n.bindings(ctx)
		if err != nil {
			return nil, err
		}

		opts = append(opts, compiler.WithBindings(bindings))
	}

	log.DebugContext(ctx, "naming context",
		slog.String("path", n.Path),
		slog.Int("assign_count", len(assigns)),
		slog.Int("binding_count", len(n.Bind)),
	)

	return compiler.New(compiler.MapContext{Path: n.Path, Assigns: assigns}, opts...), nil
}

// compile reads the template in src and compiles it.
func (n *Naming) compile(
	ctx context.Context,
	src string,
) (*template.CompiledTemplate, error) {
	data, err := readSource(ctx, src)
	if err != nil {
		return nil, err
	}

	c, err := n.compiler(ctx)
	if err != nil {
		return nil, err
	}

	tpl, err := c.Compile(ctx, string(data))
	if err != nil {
		return nil, lang.WrapError(err).With(slog.String("file", src))
	}

	return tpl, nil
}
