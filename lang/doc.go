// Package lang parses the template language into a [Program]: the ordered
// list of directive calls that a compiler interprets.
//
// The parser knows nothing about which directives exist. It accepts any
// identifier as a call name and keeps block bodies unparsed, so the consumer
// decides whether a block is a nested program ([ParseBlock]) or code to be
// evaluated later.
//
// # Grammar
//
// Informal EBNF:
//
//	Program   → Stmt* EOF
//	Stmt      → Call (';' | NEWLINE)*
//	Call      → Ident ( '(' Args? ')' | Args? ) Block?
//	Args      → Arg (',' Arg)*
//	Arg       → Operand ( '=>' Operand )?
//	Operand   → Symbol | String | Binding | Number | 'true' | 'false' | 'nil'
//	Symbol    → ':' ( Ident | String )
//	Binding   → '@' Ident
//	Block     → '{' Params? <text> '}' | 'do' Params? <text> 'end'
//	Params    → '|' Ident (',' Ident)* '|'
//
// A '#' starts a comment that runs to the end of the line. Inside
// parentheses, and after a ',', arguments may continue on the next line.
//
// # Example
//
//	object @user
//	attributes :id, :name => :full_name
//
//	child :address do
//	  attribute :city
//	end
//
//	node(:greeting) { |u| "Hello, " + u.name }
package lang
