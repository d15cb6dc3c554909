package cmd

import (
	"context"
	"log/slog"

	"github.com/ardnew/rablc/log"
	"github.com/ardnew/rablc/render"
)

// Render compiles a template and renders it against an object.
type Render struct {
	Naming Naming `embed:""`

	Data       string `help:"YAML or JSON document to render, or '-' for stdin." placeholder:"FILE" short:"d"`
	Format     string `default:"json" enum:"json,yaml" help:"Output format (${enum})."                           short:"f"`
	Indent     int    `default:"0"                     help:"Indent width; 0 writes compact JSON or flow YAML." short:"i"`
	MissingNil bool   `help:"Render missing fields as null instead of failing."`

	Source string `arg:"" default:"-" help:"Template file or '-' for stdin." name:"template"`
}

// Run executes the render command.
func (r *Render) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	if r.Data == stdinSource && r.Source == stdinSource {
		return ErrStdin.With(slog.String("flags", "--data, template"))
	}

	format, err := render.ParseFormat(r.Format)
	if err != nil {
		return err
	}

	tpl, err := r.Naming.compile(ctx, r.Source)
	if err != nil {
		return err
	}

	var obj any

	if r.Data != "" {
		if obj, err = loadData(ctx, r.Data); err != nil {
			return err
		}
	}

	v, err := render.Render(ctx, tpl, obj,
		render.WithLogger(log.Default().Component("render")),
		render.WithMissingAsNil(r.MissingNil),
	)
	if err != nil {
		return err
	}

	if err := render.Encode(ctx, streamsFrom(ctx).Out, v, format, r.Indent); err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	return nil
}
