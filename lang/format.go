package lang

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Formatter writes a Program in canonical template syntax.
type Formatter struct {
	// Indent is the number of spaces per nesting level. Zero writes every
	// program on a single line, separating calls with "; ".
	Indent int

	// Nested reports whether the block of call holds a nested program that
	// should be parsed and formatted recursively. Blocks that are not nested
	// are written verbatim (after removing common indentation). A nil Nested
	// treats every block as verbatim.
	Nested func(call *Call) bool
}

// Format writes prog in canonical template syntax, treating no block as
// nested. See [Formatter] for control over nested blocks.
func Format(ctx context.Context, w io.Writer, prog *Program, indent int) error {
	return Formatter{Indent: indent}.Format(ctx, w, prog)
}

// Format writes prog in canonical template syntax to w.
func (f Formatter) Format(ctx context.Context, w io.Writer, prog *Program) error {
	var sb strings.Builder

	if err := f.formatProgram(ctx, &sb, prog, 0); err != nil {
		return err
	}

	if prog.Len() > 0 {
		sb.WriteString("\n")
	}

	_, err := io.WriteString(w, sb.String())

	return err
}

func (f Formatter) formatProgram(
	ctx context.Context,
	sb *strings.Builder,
	prog *Program,
	depth int,
) error {
	for i, call := range prog.Calls {
		if i > 0 {
			if f.Indent > 0 {
				sb.WriteString("\n")
			} else {
				sb.WriteString("; ")
			}
		}

		sb.WriteString(f.pad(depth))

		if err := f.formatCall(ctx, sb, call, depth); err != nil {
			return err
		}
	}

	return nil
}

func (f Formatter) formatCall(
	ctx context.Context,
	sb *strings.Builder,
	call *Call,
	depth int,
) error {
	sb.WriteString(call.Name)

	for i, arg := range call.Args {
		if i == 0 {
			sb.WriteString(" ")
		} else {
			sb.WriteString(", ")
		}

		sb.WriteString(arg.Value.String())

		if arg.Alias != nil {
			sb.WriteString(" => ")
			sb.WriteString(arg.Alias.String())
		}
	}

	if call.Block == nil {
		return nil
	}

	sb.WriteString(" {")

	if len(call.Block.Params) > 0 {
		fmt.Fprintf(sb, " |%s|", strings.Join(call.Block.Params, ", "))
	}

	if f.Nested != nil && f.Nested(call) {
		nested, err := ParseBlock(ctx, call.Block)
		if err != nil {
			return err
		}

		if nested.Len() == 0 {
			sb.WriteString(" }")

			return nil
		}

		if f.Indent == 0 {
			sb.WriteString(" ")

			if err := f.formatProgram(ctx, sb, nested, depth+1); err != nil {
				return err
			}

			sb.WriteString(" }")

			return nil
		}

		sb.WriteString("\n")

		if err := f.formatProgram(ctx, sb, nested, depth+1); err != nil {
			return err
		}

		sb.WriteString("\n")
		sb.WriteString(f.pad(depth))
		sb.WriteString("}")

		return nil
	}

	lines := dedent(call.Block.Body)

	switch {
	case len(lines) == 0:
		sb.WriteString(" }")

	case len(lines) == 1 || f.Indent == 0:
		sb.WriteString(" ")
		sb.WriteString(strings.Join(lines, " "))
		sb.WriteString(" }")

	default:
		for _, line := range lines {
			sb.WriteString("\n")

			if line != "" {
				sb.WriteString(f.pad(depth + 1))
				sb.WriteString(line)
			}
		}

		sb.WriteString("\n")
		sb.WriteString(f.pad(depth))
		sb.WriteString("}")
	}

	return nil
}

func (f Formatter) pad(depth int) string {
	return strings.Repeat(" ", depth*f.Indent)
}

// dedent splits body into lines, drops leading and trailing blank lines, and
// removes the indentation common to all non-blank lines.
func dedent(body string) []string {
	lines := strings.Split(body, "\n")

	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}

	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}

	common := -1

	for i, line := range lines {
		line = strings.TrimRight(line, " \t\r")
		lines[i] = line

		if line == "" {
			continue
		}

		n := len(line) - len(strings.TrimLeft(line, " \t"))
		if common < 0 || n < common {
			common = n
		}
	}

	for i, line := range lines {
		if len(line) >= common && common > 0 {
			lines[i] = line[common:]
		}
	}

	return lines
}
