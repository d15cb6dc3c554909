package repl

import (
	"maps"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/expr-lang/expr/builtin"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/rablc/compiler"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{
	"bind", "bindings", "clear", "edit", "help", "list", "quit", "render",
	"reset", "show",
}

// exprFunctions are the names of expr-lang's builtin functions.
var exprFunctions = slices.Sorted(maps.Keys(builtin.Index))

// isWordBoundary reports whether r delimits a word for completion purposes:
// whitespace and the punctuation of both directive calls and expressions.
func isWordBoundary(r rune) bool {
	if unicode.IsSpace(r) {
		return true
	}

	switch r {
	case '.', ',', ';', ':', '@', '|',
		'(', ')', '[', ']', '{', '}',
		'+', '-', '*', '/', '%',
		'<', '>', '=', '!', '&', '?',
		'"', '\'', '`':
		return true
	}

	return false
}

// wordBounds returns the word at the cursor position and its byte
// boundaries within input. It returns an empty word when the cursor sits on
// a boundary.
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(max(cursor, 0), len(input))

	for start = cursor; start > 0; {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	for end = cursor; end < len(input); {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// parentPath returns the member-access chain leading up to the word starting
// at wordStart. For "x + path.ba" and the word "ba" it returns "path".
// It returns "" when the word is not preceded by a dot.
func parentPath(input string, wordStart int) string {
	prefix, ok := strings.CutSuffix(input[:wordStart], ".")
	if !ok || prefix == "" {
		return ""
	}

	pos := len(prefix)

	for pos > 0 {
		r, size := utf8.DecodeLastRuneInString(prefix[:pos])
		if r != '.' && isWordBoundary(r) {
			break
		}

		pos -= size
	}

	return prefix[pos:]
}

// location describes where in a template statement the cursor is.
type location struct {
	head   string // first word of the statement holding the cursor
	atHead bool   // the cursor word is the first word of its statement
	expr   bool   // the cursor is inside a deferred expression block
}

// locate scans text, the template source preceding the cursor word, and
// reports the cursor's location. Blocks of nested directives hold
// statements; blocks of other known directives hold expressions.
func locate(text string) location {
	var (
		blocks  []bool // per open block: whether it holds an expression
		start   int    // offset of the current statement
		quote   rune
		escaped bool
	)

	inExpr := func() bool { return len(blocks) > 0 && blocks[len(blocks)-1] }

	for i, r := range text {
		switch {
		case escaped:
			escaped = false

		case quote != 0:
			switch r {
			case '\\':
				escaped = true
			case quote:
				quote = 0
			}

		case r == '"' || r == '\'' || r == '`':
			quote = r

		case r == '{':
			expr := inExpr()
			if !expr {
				d, ok := compiler.LookupDirective(firstWord(text[start:i]))
				expr = ok && !d.Nested
			}

			blocks = append(blocks, expr)
			start = i + 1

		case r == '}':
			if len(blocks) > 0 {
				blocks = blocks[:len(blocks)-1]
			}

			start = i + 1

		case (r == ';' || r == '\n') && !inExpr():
			start = i + 1
		}
	}

	stmt := text[start:]

	return location{
		head:   firstWord(stmt),
		atHead: strings.TrimSpace(stmt) == "",
		expr:   inExpr(),
	}
}

// firstWord returns the leading word of s after any whitespace.
func firstWord(s string) string {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)

	word, _, _ := wordBounds(s, 0)

	return word
}

// templateCandidates returns the completions for the word starting at
// wordStart of input, where pending holds preceding lines of an unfinished
// statement. The second result reports whether every candidate should be
// listed even when the word is empty.
func templateCandidates(
	c *compiler.Compiler,
	pending, input string,
	wordStart int,
) ([]string, bool) {
	before := input[:wordStart]

	if strings.HasSuffix(before, "@") {
		return c.BindingNames(), true
	}

	if strings.HasSuffix(before, ":") {
		return nil, false
	}

	text := before
	if pending != "" {
		text = pending + "\n" + before
	}

	loc := locate(text)

	switch {
	case loc.expr:
		if parent := parentPath(input, wordStart); parent != "" {
			return compiler.BuiltinLookup(parent), true
		}

		names := append([]string{compiler.ObjectName}, c.BindingNames()...)
		names = append(names, compiler.BuiltinNames()...)

		return append(names, exprFunctions...), false

	case loc.atHead:
		return compiler.Directives(), false

	default:
		return nil, false
	}
}

// ctrlCandidates returns the completions for the word starting at wordStart
// of a control command line.
func ctrlCandidates(c *compiler.Compiler, input string, wordStart int) []string {
	fields := strings.Fields(input[:wordStart])

	switch {
	case len(fields) == 0:
		return ctrlCommands
	case len(fields) > 1:
		return nil
	}

	switch fields[0] {
	case "bind":
		return c.BindingNames()
	case "show":
		return []string{"json", "yaml"}
	default:
		return nil
	}
}

// computeMatches calculates the fuzzy match results for the word at the
// cursor, ranked best-first, along with the word boundaries. An empty word
// yields no matches unless its context asks for all candidates (after "@" or
// a member-access dot).
func (m model) computeMatches() (
	matches fuzzy.Matches,
	wordStart, wordEnd int,
) {
	input := m.input.Value()

	word, wordStart, wordEnd := wordBounds(input, m.input.Position())

	var (
		candidates []string
		listAll    bool
	)

	if m.mode == modeCtrl {
		candidates = ctrlCandidates(m.session.compiler, input, wordStart)
	} else {
		candidates, listAll = templateCandidates(
			m.session.compiler, m.session.pending, input, wordStart)
	}

	if len(candidates) == 0 || (word == "" && !listAll) {
		return nil, wordStart, wordEnd
	}

	if word == "" {
		matches = make(fuzzy.Matches, len(candidates))
		for i, c := range candidates {
			matches[i] = fuzzy.Match{Str: c, Index: i}
		}

		return matches, wordStart, wordEnd
	}

	return fuzzy.Find(word, candidates), wordStart, wordEnd
}

// renderCandidateBar builds the single-line completion bar, ellipsized to fit
// within width. Matched characters are highlighted and the selected
// candidate (while tab-cycling) uses the selected style.
func renderCandidateBar(
	matches fuzzy.Matches,
	suggIdx int,
	tabActive bool,
	width int,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	ellipsis := hintStyle.Render("...")
	reserve := lipgloss.Width(sep) + lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range matches {
		rendered := renderCandidate(match, tabActive && i == suggIdx)
		w := lipgloss.Width(rendered)

		if i > 0 {
			w += lipgloss.Width(sep)

			last := i == len(matches)-1
			if used+w > width || (!last && used+w+reserve > width) {
				b.WriteString(sep)
				b.WriteString(ellipsis)

				break
			}

			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += w
	}

	return b.String()
}

// renderCandidate renders one candidate with its matched characters
// highlighted. Functions get a "()" suffix that completion does not insert.
func renderCandidate(match fuzzy.Match, selected bool) string {
	base, highlight := suggestionStyle, matchStyle
	if selected {
		base, highlight = selectedStyle, selectedMatchStyle
	}

	var b strings.Builder

	for i, r := range match.Str {
		if slices.Contains(match.MatchedIndexes, i) {
			b.WriteString(highlight.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}
	}

	if isFunction(match.Str) {
		b.WriteString(base.Render("()"))
	}

	return b.String()
}

// isFunction reports whether name is an expr-lang builtin function.
func isFunction(name string) bool {
	_, ok := builtin.Index[name]

	return ok
}
