package cmd

import (
	"context"

	"github.com/ardnew/rablc/cli/cmd/repl"
	"github.com/ardnew/rablc/log"
	"github.com/ardnew/rablc/pkg"
)

// Repl starts an interactive session that builds a template one statement
// at a time.
type Repl struct {
	Naming Naming `embed:""`

	Source string `arg:"" help:"Template file loaded into the session." name:"template" optional:"" type:"existingfile"`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	c, err := r.Naming.compiler(ctx)
	if err != nil {
		return err
	}

	var source string

	if r.Source != "" {
		data, err := readSource(ctx, r.Source)
		if err != nil {
			return err
		}

		source = string(data)
	}

	return repl.Run(ctx, c, source,
		varFrom(ctx, CacheIdentifier, pkg.CacheDir()), log.Default().Component("repl"))
}
