package lang

import (
	"iter"
	"strconv"
	"strings"
)

// Position identifies a location in template source.
type Position struct {
	Offset int
	Line   int
	Column int
}

// String returns the position as "line:column".
func (p Position) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// Program is the instruction list parsed from template source: the directive
// calls in source order.
type Program struct {
	Calls  []*Call
	source string
}

// Source returns the full template source the program was parsed from.
func (p *Program) Source() string { return p.source }

// All returns an iterator over the calls of the program.
func (p *Program) All() iter.Seq[*Call] {
	return func(yield func(*Call) bool) {
		if p == nil {
			return
		}

		for _, c := range p.Calls {
			if !yield(c) {
				return
			}
		}
	}
}

// Len returns the number of calls in the program.
func (p *Program) Len() int {
	if p == nil {
		return 0
	}

	return len(p.Calls)
}

// Call is a single directive invocation: name, arguments and optional block.
type Call struct {
	Name  string
	Args  []Arg
	Block *Block
	Pos   Position
}

// Arg is one argument of a call. A bare argument has a nil Alias; the
// "source => alias" form sets both.
type Arg struct {
	Value Operand
	Alias *Operand
}

// OperandKind indicates the lexical kind of an operand.
type OperandKind int

const (
	// KindSymbol is a symbol literal such as :id.
	KindSymbol OperandKind = iota

	// KindString is a quoted string literal.
	KindString

	// KindBinding is a reference to a compile-time binding such as @user.
	KindBinding

	// KindNumber is a numeric literal.
	KindNumber

	// KindBool is true or false.
	KindBool

	// KindNil is nil.
	KindNil
)

// String returns a string representation of the operand kind.
func (k OperandKind) String() string {
	switch k {
	case KindSymbol:
		return "Symbol"

	case KindString:
		return "String"

	case KindBinding:
		return "Binding"

	case KindNumber:
		return "Number"

	case KindBool:
		return "Bool"

	case KindNil:
		return "Nil"

	default:
		return "Unknown"
	}
}

// Operand is a literal or reference appearing as a call argument.
// Text holds the decoded name or value: the symbol name without its colon,
// the unquoted string, the binding name without its @, or the literal text.
type Operand struct {
	Kind OperandKind
	Text string
	Pos  Position
}

// IsName reports whether the operand names a field or key (symbol or string).
func (o Operand) IsName() bool {
	return o.Kind == KindSymbol || o.Kind == KindString
}

// Literal returns the Go value of a number, bool or nil operand.
// Symbols, strings and bindings return their Text.
func (o Operand) Literal() any {
	switch o.Kind {
	case KindNumber:
		if i, err := strconv.ParseInt(o.Text, 10, 64); err == nil {
			return i
		}

		if f, err := strconv.ParseFloat(o.Text, 64); err == nil {
			return f
		}

		return o.Text

	case KindBool:
		return o.Text == "true"

	case KindNil:
		return nil

	default:
		return o.Text
	}
}

// String returns the operand in source syntax.
func (o Operand) String() string {
	switch o.Kind {
	case KindSymbol:
		if isPlainIdentifier(o.Text) {
			return ":" + o.Text
		}

		return ":" + strconv.Quote(o.Text)

	case KindString:
		return strconv.Quote(o.Text)

	case KindBinding:
		return "@" + o.Text

	default:
		return o.Text
	}
}

// BlockStyle records which delimiters enclosed a block.
type BlockStyle int

const (
	// StyleBrace is a { ... } block.
	StyleBrace BlockStyle = iota

	// StyleDo is a do ... end block.
	StyleDo
)

// Block is the verbatim body attached to a call. The body is kept unparsed so
// the consumer decides whether it is a nested program or deferred code.
type Block struct {
	Style  BlockStyle
	Params []string
	Body   string
	Pos    Position // position of the first byte of Body

	source string
	start  int
	end    int
}

// TrimmedBody returns Body without surrounding whitespace.
func (b *Block) TrimmedBody() string {
	return strings.TrimSpace(b.Body)
}

func isPlainIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		if i == 0 && !isIdentifierStart(r) {
			return false
		}

		if i > 0 && !isIdentifierContinue(r) {
			return false
		}
	}

	return true
}
