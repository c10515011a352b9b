package grammar

import (
	"fmt"
	"os"

	"github.com/alecthomas/participle/v2"
)

// ParseString parses source (named filename for diagnostics) as a
// spesh IR program.
func ParseString(filename, source string) (*Program, error) {
	parser, err := participle.Build[Program](
		participle.Lexer(SpeshLexer),
		participle.Elide("Whitespace", "Comment"),
		participle.UseLookahead(2),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build spesh IR parser: %w", err)
	}

	program, err := parser.ParseString(filename, source)
	if err != nil {
		return nil, err
	}
	return program, nil
}

// ParseFile reads path and parses it as a spesh IR program.
func ParseFile(path string) (*Program, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return ParseString(path, string(source))
}
