package lang

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ardnew/rablc/log"
)

// Option configures parsing.
type Option func(*parser)

// WithLogger sets the logger used for parse tracing.
func WithLogger(logger log.Logger) Option {
	return func(p *parser) { p.logger = logger }
}

// ParseReader parses a Program from an io.Reader.
func ParseReader(
	ctx context.Context,
	r io.Reader,
	opts ...Option,
) (*Program, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, ErrReadInput.Wrap(err)
	}

	return ParseString(ctx, string(data), opts...)
}

// ParseString parses a Program from a string.
// The empty string yields an empty Program.
func ParseString(ctx context.Context, s string, opts ...Option) (*Program, error) {
	p := newParser(s, 0, len(s), Position{Line: 1, Column: 1}, opts...)

	prog, err := p.parseProgram()
	if err != nil {
		return nil, err
	}

	p.logger.TraceContext(ctx, "parse complete",
		slog.Int("call_count", len(prog.Calls)))

	return prog, nil
}

// ParseBlock parses the body of b as a nested Program. Positions reported by
// the result, including those in errors, refer to the original source.
func ParseBlock(ctx context.Context, b *Block, opts ...Option) (*Program, error) {
	if b == nil {
		return &Program{}, nil
	}

	source, start, end := b.source, b.start, b.end
	if source == "" && b.Body != "" {
		// Block constructed by hand rather than by the parser.
		source, start, end = b.Body, 0, len(b.Body)
	}

	p := newParser(source, start, end, b.Pos, opts...)

	prog, err := p.parseProgram()
	if err != nil {
		return nil, err
	}

	p.logger.TraceContext(ctx, "parse block complete",
		slog.String("position", b.Pos.String()),
		slog.Int("call_count", len(prog.Calls)))

	return prog, nil
}

// parser holds the parser state. It reads input[pos:limit].
type parser struct {
	input  []byte
	source string
	pos    int
	limit  int
	line   int
	col    int
	logger log.Logger
}

func newParser(s string, start, end int, at Position, opts ...Option) *parser {
	if at.Line == 0 {
		at.Line, at.Column = 1, 1
	}

	p := &parser{
		input:  []byte(s),
		source: s,
		pos:    start,
		limit:  end,
		line:   at.Line,
		col:    at.Column,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// parseProgram parses: Stmt* EOF.
func (p *parser) parseProgram() (*Program, error) {
	prog := &Program{source: p.source}

	for {
		p.skipBlank()

		if p.eof() {
			break
		}

		if p.peek() == ';' {
			p.advance()

			continue
		}

		call, err := p.parseCall()
		if err != nil {
			return nil, err
		}

		prog.Calls = append(prog.Calls, call)

		// A call ends at ';', a newline, or the end of input.
		p.skipSpace()

		switch {
		case p.eof():
		case p.peek() == ';' || p.peek() == '\n':
			p.advance()
		default:
			return nil, p.errorf(p.position(),
				"unexpected %s after call to %s", p.describe(), call.Name)
		}
	}

	return prog, nil
}

// parseCall parses: Ident ( '(' Args? ')' | Args? ) Block?.
func (p *parser) parseCall() (*Call, error) {
	pos := p.position()

	name, err := p.parseIdentifier()
	if err != nil {
		return nil, err
	}

	call := &Call{Name: name, Pos: pos}

	p.skipSpace()

	if p.peek() == '(' {
		p.advance()
		p.skipBlank()

		if p.peek() != ')' {
			call.Args, err = p.parseArgs(p.skipBlank)
			if err != nil {
				return nil, err
			}
		}

		p.skipBlank()

		if !p.expect(')') {
			return nil, p.errorf(p.position(),
				"expected ')' to close arguments of %s, found %s", name, p.describe())
		}
	} else if p.atOperand() {
		call.Args, err = p.parseArgs(p.skipSpace)
		if err != nil {
			return nil, err
		}
	} else if p.atIdentifier() && !p.atWord("do") {
		return nil, p.errorf(p.position(),
			"unexpected identifier %q in arguments of %s", p.peekWord(), name)
	}

	p.skipSpace()

	switch {
	case p.peek() == '{':
		call.Block, err = p.parseBraceBlock()
	case p.atWord("do"):
		call.Block, err = p.parseDoBlock()
	}

	if err != nil {
		return nil, err
	}

	return call, nil
}

// parseArgs parses: Arg (',' Arg)*. The skip function decides whether
// newlines may separate tokens of a single argument.
func (p *parser) parseArgs(skip func()) ([]Arg, error) {
	var args []Arg

	for {
		arg, err := p.parseArg(skip)
		if err != nil {
			return nil, err
		}

		args = append(args, arg)

		skip()

		if p.peek() != ',' {
			return args, nil
		}

		p.advance()
		p.skipBlank() // a trailing comma continues onto the next line
	}
}

// parseArg parses: Operand ( '=>' Operand )?.
func (p *parser) parseArg(skip func()) (Arg, error) {
	value, err := p.parseOperand()
	if err != nil {
		return Arg{}, err
	}

	skip()

	if p.peekN(2) != "=>" {
		return Arg{Value: value}, nil
	}

	p.advance()
	p.advance()
	p.skipBlank()

	alias, err := p.parseOperand()
	if err != nil {
		return Arg{}, err
	}

	return Arg{Value: value, Alias: &alias}, nil
}

// parseOperand parses a symbol, string, binding, number, or keyword literal.
func (p *parser) parseOperand() (Operand, error) {
	pos := p.position()
	ch := p.peek()

	switch {
	case ch == ':':
		p.advance()

		if q := p.peek(); q == '"' || q == '\'' {
			text, err := p.parseString()
			if err != nil {
				return Operand{}, err
			}

			return Operand{Kind: KindSymbol, Text: text, Pos: pos}, nil
		}

		if !p.atIdentifier() {
			return Operand{}, p.errorf(p.position(),
				"expected symbol name after ':', found %s", p.describe())
		}

		name, err := p.parseIdentifier()
		if err != nil {
			return Operand{}, err
		}

		return Operand{Kind: KindSymbol, Text: name, Pos: pos}, nil

	case ch == '"' || ch == '\'':
		text, err := p.parseString()
		if err != nil {
			return Operand{}, err
		}

		return Operand{Kind: KindString, Text: text, Pos: pos}, nil

	case ch == '@':
		p.advance()

		if !p.atIdentifier() {
			return Operand{}, p.errorf(p.position(),
				"expected binding name after '@', found %s", p.describe())
		}

		name, err := p.parseIdentifier()
		if err != nil {
			return Operand{}, err
		}

		return Operand{Kind: KindBinding, Text: name, Pos: pos}, nil

	case p.atNumber():
		return p.parseNumber()

	case p.atWord("true"), p.atWord("false"):
		word, _ := p.parseIdentifier()

		return Operand{Kind: KindBool, Text: word, Pos: pos}, nil

	case p.atWord("nil"):
		word, _ := p.parseIdentifier()

		return Operand{Kind: KindNil, Text: word, Pos: pos}, nil

	case p.atIdentifier():
		return Operand{}, p.errorf(pos,
			"unexpected identifier %q, expected :symbol, string, or @binding",
			p.peekWord())

	default:
		return Operand{}, p.errorf(pos,
			"expected argument, found %s", p.describe())
	}
}

// parseString parses a double- or single-quoted string literal and returns
// its decoded text. Single-quoted strings only recognize \' and \\.
func (p *parser) parseString() (string, error) {
	pos := p.position()
	quote := p.peek()
	start := p.pos

	if err := p.skipString(quote); err != nil {
		return "", err
	}

	raw := string(p.input[start:p.pos])

	if quote == '"' {
		text, err := strconv.Unquote(raw)
		if err != nil {
			return "", p.errorf(pos, "invalid string literal %s", raw)
		}

		return text, nil
	}

	body := raw[1 : len(raw)-1]

	var sb strings.Builder

	for i := 0; i < len(body); i++ {
		if body[i] == '\\' && i+1 < len(body) &&
			(body[i+1] == '\'' || body[i+1] == '\\') {
			i++
		}

		sb.WriteByte(body[i])
	}

	return sb.String(), nil
}

// parseNumber parses: '-'? Digit+ ( '.' Digit+ )? ( [eE] [+-]? Digit+ )?.
func (p *parser) parseNumber() (Operand, error) {
	pos := p.position()
	start := p.pos

	if p.peek() == '-' || p.peek() == '+' {
		p.advance()
	}

	p.skipDigits()

	if p.peek() == '.' && p.pos+1 < p.limit && isDigit(rune(p.input[p.pos+1])) {
		p.advance()
		p.skipDigits()
	}

	if c := p.peek(); c == 'e' || c == 'E' {
		p.advance()

		if c := p.peek(); c == '+' || c == '-' {
			p.advance()
		}

		if !isDigit(p.peek()) {
			return Operand{}, p.errorf(p.position(), "malformed number exponent")
		}

		p.skipDigits()
	}

	if p.atIdentifier() {
		return Operand{}, p.errorf(p.position(),
			"unexpected %s in number", p.describe())
	}

	return Operand{
		Kind: KindNumber,
		Text: string(p.input[start:p.pos]),
		Pos:  pos,
	}, nil
}

// parseBraceBlock parses: '{' Params? <text> '}'.
func (p *parser) parseBraceBlock() (*Block, error) {
	open := p.position()

	p.advance() // skip '{'

	block, err := p.parseBlockParams(StyleBrace)
	if err != nil {
		return nil, err
	}

	depth := 0

	for !p.eof() {
		switch ch := p.peek(); ch {
		case '"', '\'', '`':
			if err := p.skipString(ch); err != nil {
				return nil, err
			}

			continue

		case '{':
			depth++

		case '}':
			if depth == 0 {
				p.closeBlock(block)
				p.advance() // skip '}'

				return block, nil
			}

			depth--
		}

		p.advance()
	}

	return nil, p.errorf(open, "unterminated block, expected '}'")
}

// parseDoBlock parses: 'do' Params? <text> 'end'. Nested do/end pairs are
// matched by word.
func (p *parser) parseDoBlock() (*Block, error) {
	open := p.position()

	p.parseIdentifier() //nolint:errcheck // caller checked atWord("do")

	block, err := p.parseBlockParams(StyleDo)
	if err != nil {
		return nil, err
	}

	depth := 0

	for !p.eof() {
		ch := p.peek()

		switch {
		case ch == '"' || ch == '\'' || ch == '`':
			if err := p.skipString(ch); err != nil {
				return nil, err
			}

		case p.atWord("do"):
			depth++

			p.parseIdentifier() //nolint:errcheck // at a word

		case p.atWord("end"):
			if depth == 0 {
				p.closeBlock(block)
				p.parseIdentifier() //nolint:errcheck // at a word

				return block, nil
			}

			depth--

			p.parseIdentifier() //nolint:errcheck // at a word

		case p.atIdentifier():
			// Consume whole words so "endpoint" or "undo" never match.
			p.parseIdentifier() //nolint:errcheck // at a word

		default:
			p.advance()
		}
	}

	return nil, p.errorf(open, "unterminated block, expected 'end'")
}

// parseBlockParams parses the optional '|' Ident (',' Ident)* '|' list at the
// start of a block and records where the body begins.
func (p *parser) parseBlockParams(style BlockStyle) (*Block, error) {
	block := &Block{Style: style, source: p.source}

	saved := *p

	p.skipBlank()

	if p.peek() != '|' {
		*p = saved
		block.start = p.pos
		block.Pos = p.position()

		return block, nil
	}

	p.advance() // skip '|'

	for {
		p.skipBlank()

		name, err := p.parseIdentifier()
		if err != nil {
			return nil, err
		}

		block.Params = append(block.Params, name)

		p.skipBlank()

		if p.expect(',') {
			continue
		}

		if p.expect('|') {
			break
		}

		return nil, p.errorf(p.position(),
			"expected ',' or '|' in block parameters, found %s", p.describe())
	}

	block.start = p.pos
	block.Pos = p.position()

	return block, nil
}

func (p *parser) closeBlock(b *Block) {
	b.end = p.pos
	b.Body = string(p.input[b.start:b.end])
}

// parseIdentifier parses an identifier token.
func (p *parser) parseIdentifier() (string, error) {
	start := p.pos

	if !p.atIdentifier() {
		return "", p.errorf(p.position(),
			"expected identifier, found %s", p.describe())
	}

	p.advance()

	for !p.eof() && isIdentifierContinue(p.peek()) {
		p.advance()
	}

	// Predicate and bang suffixes, e.g. :admin?
	if c := p.peek(); (c == '?' || c == '!') && p.peekN(2) != "!=" {
		p.advance()
	}

	return string(p.input[start:p.pos]), nil
}

// Helper methods

func (p *parser) peek() rune {
	if p.eof() {
		return 0
	}

	r, _ := utf8.DecodeRune(p.input[p.pos:p.limit])

	return r
}

func (p *parser) peekN(n int) string {
	if p.pos+n > p.limit {
		return string(p.input[p.pos:p.limit])
	}

	return string(p.input[p.pos : p.pos+n])
}

// peekWord returns the identifier at the current position without consuming.
func (p *parser) peekWord() string {
	end := p.pos

	for end < p.limit {
		r, size := utf8.DecodeRune(p.input[end:p.limit])
		if !isIdentifierContinue(r) {
			break
		}

		end += size
	}

	return string(p.input[p.pos:end])
}

func (p *parser) advance() {
	if p.eof() {
		return
	}

	r, size := utf8.DecodeRune(p.input[p.pos:p.limit])

	p.pos += size
	if r == '\n' {
		p.line++
		p.col = 1
	} else {
		p.col++
	}
}

func (p *parser) expect(ch rune) bool {
	if p.peek() == ch {
		p.advance()

		return true
	}

	return false
}

func (p *parser) eof() bool {
	return p.pos >= p.limit
}

func (p *parser) position() Position {
	return Position{
		Offset: p.pos,
		Line:   p.line,
		Column: p.col,
	}
}

func (p *parser) atIdentifier() bool {
	return !p.eof() && isIdentifierStart(p.peek())
}

// atWord reports whether the identifier at the current position is word,
// and not merely prefixed by it.
func (p *parser) atWord(word string) bool {
	if !p.atIdentifier() || p.peekN(len(word)) != word {
		return false
	}

	// The preceding byte must not continue an identifier either.
	if p.pos > 0 {
		prev, _ := utf8.DecodeLastRune(p.input[:p.pos])
		if isIdentifierContinue(prev) || prev == ':' || prev == '@' ||
			prev == '.' {
			return false
		}
	}

	next := p.pos + len(word)
	if next >= p.limit {
		return true
	}

	r, _ := utf8.DecodeRune(p.input[next:p.limit])

	return !isIdentifierContinue(r) && r != '?' && r != '!'
}

func (p *parser) atNumber() bool {
	ch := p.peek()
	if isDigit(ch) {
		return true
	}

	if ch == '-' || ch == '+' {
		next := p.peekN(2)

		return len(next) == 2 && isDigit(rune(next[1]))
	}

	return false
}

func (p *parser) atOperand() bool {
	switch p.peek() {
	case ':', '"', '\'', '@':
		return true
	}

	return p.atNumber() ||
		p.atWord("true") || p.atWord("false") || p.atWord("nil")
}

func (p *parser) skipDigits() {
	for !p.eof() && isDigit(p.peek()) {
		p.advance()
	}
}

// skipSpace skips horizontal whitespace and a trailing comment, stopping
// before any newline.
func (p *parser) skipSpace() {
	for !p.eof() {
		ch := p.peek()

		switch {
		case ch == '#':
			p.skipComment()
		case ch == '\\' && p.peekN(2) == "\\\n":
			p.advance() // line continuation
			p.advance()
		case ch != '\n' && unicode.IsSpace(ch):
			p.advance()
		default:
			return
		}
	}
}

// skipBlank skips all whitespace, including newlines, and comments.
func (p *parser) skipBlank() {
	for !p.eof() {
		ch := p.peek()

		switch {
		case ch == '#':
			p.skipComment()
		case unicode.IsSpace(ch):
			p.advance()
		default:
			return
		}
	}
}

// skipComment skips to the end of the line, leaving the newline unconsumed.
func (p *parser) skipComment() {
	for !p.eof() && p.peek() != '\n' {
		p.advance()
	}
}

func (p *parser) skipString(quote rune) error {
	pos := p.position()

	p.advance() // skip opening quote

	for !p.eof() {
		ch := p.peek()
		if ch == '\\' && quote != '`' {
			p.advance() // skip backslash

			if !p.eof() {
				p.advance() // skip escaped char
			}

			continue
		}

		if ch == quote {
			p.advance() // skip closing quote

			return nil
		}

		p.advance()
	}

	return p.errorf(pos, "unterminated string")
}

// describe names the token at the current position for error messages.
func (p *parser) describe() string {
	if p.eof() {
		return "end of input"
	}

	switch ch := p.peek(); ch {
	case '\n':
		return "newline"
	default:
		return strconv.QuoteRune(ch)
	}
}

func (p *parser) errorf(pos Position, format string, args ...any) *Error {
	return syntaxError(p.source, pos, fmt.Sprintf(format, args...))
}

// Character classification

func isDigit(r rune) bool { return '0' <= r && r <= '9' }

func isIdentifierStart(r rune) bool {
	return unicode.In(r,
		unicode.L,  // Letter
		unicode.Nl, // Letter, Number
		unicode.Other_ID_Start,
	) || r == '_'
}

func isIdentifierContinue(r rune) bool {
	return unicode.In(r,
		unicode.L,  // Letter
		unicode.Nl, // Letter, Number
		unicode.Other_ID_Start,
		unicode.Mn, // Mark, Nonspacing
		unicode.Mc, // Mark, Spacing Combining
		unicode.Nd, // Number, Decimal Digit
		unicode.Pc, // Punctuation, Connector
		unicode.Other_ID_Continue,
	)
}
