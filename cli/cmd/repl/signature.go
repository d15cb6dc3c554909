package repl

import (
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/rablc/compiler"
)

// exprSignatures lists the parameters of common expr-lang builtin functions.
var exprSignatures = map[string][]string{
	"len":       {"v"},
	"all":       {"array", "predicate"},
	"any":       {"array", "predicate"},
	"one":       {"array", "predicate"},
	"none":      {"array", "predicate"},
	"map":       {"array", "mapper"},
	"filter":    {"array", "predicate"},
	"find":      {"array", "predicate"},
	"count":     {"array", "predicate"},
	"groupBy":   {"array", "mapper"},
	"sortBy":    {"array", "mapper", "order"},
	"sum":       {"array"},
	"mean":      {"array"},
	"min":       {"array"},
	"max":       {"array"},
	"join":      {"array", "separator"},
	"split":     {"string", "separator"},
	"replace":   {"string", "old", "new"},
	"trim":      {"string"},
	"upper":     {"string"},
	"lower":     {"string"},
	"hasPrefix": {"string", "prefix"},
	"hasSuffix": {"string", "suffix"},
	"int":       {"v"},
	"float":     {"v"},
	"string":    {"v"},
	"toJSON":    {"v"},
	"keys":      {"map"},
	"values":    {"map"},
}

var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
)

// functionCall is a call expression enclosing the cursor.
type functionCall struct {
	name     string // qualified function name, e.g. "path.cat"
	argIndex int    // index of the argument under the cursor
	inCall   bool   // whether the cursor is inside an argument list
}

// detectFunctionCall finds the innermost unclosed parenthesis before cursor
// and reports the function it calls and the argument index at the cursor.
func detectFunctionCall(input string, cursor int) functionCall {
	cursor = min(max(cursor, 0), len(input))

	depth, args, open := 0, 0, -1

	for i := cursor; i > 0 && open < 0; {
		r, size := utf8.DecodeLastRuneInString(input[:i])
		i -= size

		switch r {
		case ')', ']':
			depth++
		case '(', '[':
			if depth > 0 {
				depth--
			} else if r == '(' {
				open = i
			} else {
				return functionCall{}
			}
		case ',':
			if depth == 0 {
				args++
			}
		}
	}

	if open < 0 {
		return functionCall{}
	}

	start := open
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if r != '.' && isWordBoundary(r) {
			break
		}

		start -= size
	}

	name := input[start:open]
	if name == "" || strings.HasPrefix(name, ".") {
		return functionCall{}
	}

	return functionCall{name: name, argIndex: args, inCall: true}
}

// functionParams returns the parameter names of the builtin helper or
// expr-lang function called name.
func functionParams(name string) ([]string, bool) {
	if params, ok := exprSignatures[name]; ok {
		return params, true
	}

	var v any = compiler.Builtins()

	for seg := range strings.SplitSeq(name, ".") {
		m, ok := v.(map[string]any)
		if !ok {
			return nil, false
		}

		if v, ok = m[seg]; !ok {
			return nil, false
		}
	}

	t := reflect.TypeOf(v)
	if t == nil || t.Kind() != reflect.Func {
		return nil, false
	}

	params := make([]string, t.NumIn())
	for i := range params {
		pt := t.In(i)
		if t.IsVariadic() && i == len(params)-1 {
			params[i] = "..." + pt.Elem().String()
		} else {
			params[i] = pt.String()
		}
	}

	return params, true
}

// renderSignatureHint renders name(params...) with the parameter at
// argIndex highlighted. The last parameter stays highlighted past the end
// when it is variadic.
func renderSignatureHint(name string, params []string, argIndex int) string {
	var b strings.Builder

	b.WriteString(signatureNameStyle.Render(name))
	b.WriteString(signatureStyle.Render("("))

	last := len(params) - 1

	for i, p := range params {
		if i > 0 {
			b.WriteString(signatureStyle.Render(", "))
		}

		current := i == argIndex ||
			(i == last && argIndex > last && strings.HasPrefix(p, "..."))

		if current {
			b.WriteString(currentParamStyle.Render(p))
		} else {
			b.WriteString(signatureStyle.Render(p))
		}
	}

	b.WriteString(signatureStyle.Render(")"))

	return b.String()
}

// renderUsageHint renders the usage of directive d with its name
// highlighted, followed by its summary.
func renderUsageHint(d compiler.Directive) string {
	rest := strings.TrimPrefix(d.Usage, d.Name)

	return signatureNameStyle.Render(d.Name) +
		signatureStyle.Render(rest) + "  " +
		hintStyle.Render(d.Summary)
}

// hintFor returns the signature or usage hint for the cursor position, or
// "" if there is none.
func (m model) hintFor(input string, cursor int) string {
	if m.mode != modeTemplate {
		return ""
	}

	before := input[:min(max(cursor, 0), len(input))]

	text := before
	if m.session.pending != "" {
		text = m.session.pending + "\n" + before
	}

	loc := locate(text)

	if loc.expr {
		call := detectFunctionCall(input, cursor)
		if !call.inCall {
			return ""
		}

		if params, ok := functionParams(call.name); ok {
			return renderSignatureHint(call.name, params, call.argIndex)
		}

		return ""
	}

	if loc.atHead || strings.HasSuffix(before, loc.head) {
		return ""
	}

	if d, ok := compiler.LookupDirective(loc.head); ok {
		return renderUsageHint(d)
	}

	return ""
}
