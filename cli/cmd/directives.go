package cmd

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/ardnew/rablc/compiler"
)

// Directives lists the template directives or the builtin helpers available
// to node expressions.
type Directives struct {
	Builtins bool `help:"List builtin helpers of node expressions instead." short:"b"`
}

// Run executes the directives command.
func (d *Directives) Run(ctx context.Context) error {
	tw := tabwriter.NewWriter(streamsFrom(ctx).Out, 0, 4, 2, ' ', 0)

	if d.Builtins {
		for _, name := range compiler.BuiltinNames() {
			fmt.Fprintf(tw, "%s\t%s\n", name,
				strings.Join(compiler.BuiltinLookup(name), ", "))
		}
	} else {
		for _, name := range compiler.Directives() {
			dir, _ := compiler.LookupDirective(name)
			fmt.Fprintf(tw, "%s\t%s\t%s\n", dir.Name, dir.Usage, dir.Summary)
		}
	}

	if err := tw.Flush(); err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	return nil
}
