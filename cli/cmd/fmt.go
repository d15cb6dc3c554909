package cmd

import (
	"bytes"
	"context"
	"log/slog"
	"os"

	"github.com/ardnew/rablc/compiler"
	"github.com/ardnew/rablc/lang"
	"github.com/ardnew/rablc/log"
)

// Fmt rewrites a template in canonical form.
type Fmt struct {
	Indent int  `default:"2" help:"Indent width; 0 writes each program on one line." short:"i"`
	Write  bool `help:"Write the result to the template file instead of stdout." short:"w"`

	Source string `arg:"" default:"-" help:"Template file or '-' for stdin." name:"template"`
}

// Run executes the fmt command.
func (f *Fmt) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	data, err := readSource(ctx, f.Source)
	if err != nil {
		return err
	}

	prog, err := lang.ParseString(ctx, string(data), lang.WithLogger(log.Default().Component("fmt")))
	if err != nil {
		return lang.WrapError(err).With(slog.String("file", f.Source))
	}

	var buf bytes.Buffer

	formatter := lang.Formatter{Indent: f.Indent, Nested: compiler.NestedBlock}
	if err := formatter.Format(ctx, &buf, prog); err != nil {
		return lang.WrapError(err).With(slog.String("file", f.Source))
	}

	if f.Write && f.Source != stdinSource {
		return f.rewrite(buf.Bytes())
	}

	if _, err := streamsFrom(ctx).Out.Write(buf.Bytes()); err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	return nil
}

// rewrite replaces the content of the source file, keeping its mode.
func (f *Fmt) rewrite(data []byte) error {
	info, err := os.Stat(f.Source)
	if err != nil {
		return ErrWriteOutput.Wrap(err).With(slog.String("file", f.Source))
	}

	if err := os.WriteFile(f.Source, data, info.Mode().Perm()); err != nil {
		return ErrWriteOutput.Wrap(err).With(slog.String("file", f.Source))
	}

	return nil
}
