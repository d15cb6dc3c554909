package cmd

import (
	"context"

	"github.com/ardnew/rablc/render"
)

// Compile compiles a template and prints a description of the result.
type Compile struct {
	Naming Naming `embed:""`

	Format string `default:"yaml" enum:"yaml,json" help:"Output format (${enum})."                           short:"f"`
	Indent int    `default:"2"                      help:"Indent width; 0 writes flow YAML or compact JSON." short:"i"`

	Source string `arg:"" default:"-" help:"Template file or '-' for stdin." name:"template"`
}

// Run executes the compile command.
func (c *Compile) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	format, err := render.ParseFormat(c.Format)
	if err != nil {
		return err
	}

	tpl, err := c.Naming.compile(ctx, c.Source)
	if err != nil {
		return err
	}

	out := streamsFrom(ctx).Out

	if format == render.FormatJSON {
		err = tpl.FormatJSON(ctx, out, c.Indent)
	} else {
		err = tpl.FormatYAML(ctx, out, c.Indent)
	}

	if err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	return nil
}
