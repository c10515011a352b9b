// Package dslparser is the shared front door the CLI, REPL and LSP
// server all call through: parse source text, lower it to a graph,
// and turn any participle syntax error into the same Rust-like
// diagnostic shape the optimizer's own advisory findings use.
package dslparser

import (
	"github.com/alecthomas/participle/v2"

	"spesh/grammar"
	"spesh/internal/errors"
	"spesh/internal/irbuilder"
	"spesh/internal/spesh"
)

// Result is everything a caller needs to report on one source file:
// the built graph (nil if parsing failed outright), and any
// diagnostics gathered along the way.
type Result struct {
	Graph *spesh.Graph
	Diags []errors.DiagError
}

// Parse parses and lowers source into a graph using model as the
// object-model oracle (may be nil). A syntax error is reported as a
// single DiagError in the returned Result with a nil Graph; a lowering
// error (unknown opcode, bad operand shape, undefined label) is
// reported the same way.
func Parse(filename, source string, model spesh.ObjectModel) Result {
	prog, err := grammar.ParseString(filename, source)
	if err != nil {
		return Result{Diags: []errors.DiagError{syntaxDiag(err)}}
	}

	g, diags, err := irbuilder.Build(prog, model)
	if err != nil {
		return Result{Diags: append(diags, errors.NewDiag(errors.ErrorOperandShape, err.Error(), errors.Position{Line: 1, Column: 1}).Build())}
	}

	return Result{Graph: g, Diags: diags}
}

func syntaxDiag(err error) errors.DiagError {
	if pe, ok := err.(participle.Error); ok {
		pos := pe.Position()
		return errors.NewDiag(errors.ErrorSyntax, pe.Message(), errors.Position{Line: pos.Line, Column: pos.Column}).Build()
	}
	return errors.NewDiag(errors.ErrorSyntax, err.Error(), errors.Position{Line: 1, Column: 1}).Build()
}
