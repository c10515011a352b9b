package grammar

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// SpeshLexer tokenizes the textual spesh IR: register references
// (%orig.version), block labels and opcode mnemonics (bare
// identifiers), string and integer literals, and the handful of
// punctuation marks a block/instruction list needs.
var SpeshLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Comment", `//[^\n]*`, nil},
		{"Register", `%[0-9]+\.[0-9]+`, nil},
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_]*`, nil},
		{"Int", `-?[0-9]+`, nil},
		{"String", `"(\\.|[^"\\])*"`, nil},
		{"Punctuation", `[:,]`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})
