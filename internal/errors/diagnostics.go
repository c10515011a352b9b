package errors

import "fmt"

// DiagBuilder provides a fluent interface for creating diagnostics with
// suggestions, mirroring the compiler's own semantic-error builder.
type DiagBuilder struct {
	err DiagError
}

// NewDiag creates a new error-level diagnostic builder.
func NewDiag(code, message string, pos Position) *DiagBuilder {
	return &DiagBuilder{
		err: DiagError{
			Level:    Error,
			Code:     code,
			Message:  message,
			Position: pos,
			Length:   1,
		},
	}
}

// NewDiagWarning creates a new warning-level diagnostic builder.
func NewDiagWarning(code, message string, pos Position) *DiagBuilder {
	return &DiagBuilder{
		err: DiagError{
			Level:    Warning,
			Code:     code,
			Message:  message,
			Position: pos,
			Length:   1,
		},
	}
}

// WithLength sets the length of the diagnostic's source span.
func (b *DiagBuilder) WithLength(length int) *DiagBuilder {
	b.err.Length = length
	return b
}

// WithSuggestion adds a suggestion to the diagnostic.
func (b *DiagBuilder) WithSuggestion(message string) *DiagBuilder {
	b.err.Suggestions = append(b.err.Suggestions, Suggestion{Message: message})
	return b
}

// WithNote adds a note to the diagnostic.
func (b *DiagBuilder) WithNote(note string) *DiagBuilder {
	b.err.Notes = append(b.err.Notes, note)
	return b
}

// WithHelp adds help text to the diagnostic.
func (b *DiagBuilder) WithHelp(help string) *DiagBuilder {
	b.err.HelpText = help
	return b
}

// Build returns the completed diagnostic.
func (b *DiagBuilder) Build() DiagError {
	return b.err
}

// UndefinedRegister reports a read of a register no instruction has
// written yet at the point of the read.
func UndefinedRegister(name string, pos Position) DiagError {
	return NewDiag(ErrorUndefinedRegister, fmt.Sprintf("register '%s' is read before it is written", name), pos).
		WithLength(len(name)).
		WithSuggestion("add an instruction that writes this register before this point").
		WithNote("every register read must be dominated by a write in the spesh IR text").
		Build()
}

// UndefinedBlockLabel reports a branch whose target names no declared block.
func UndefinedBlockLabel(label string, pos Position) DiagError {
	return NewDiag(ErrorUndefinedBlockLabel, fmt.Sprintf("undefined block label '%s'", label), pos).
		WithLength(len(label)).
		WithSuggestion("check the label against the declared bb: blocks in this file").
		Build()
}

// DuplicateBlockLabel reports a block label declared more than once.
func DuplicateBlockLabel(label string, pos Position) DiagError {
	return NewDiag(ErrorDuplicateBlockLabel, fmt.Sprintf("duplicate block label '%s'", label), pos).
		WithLength(len(label)).
		WithSuggestion("rename one of the duplicate blocks").
		Build()
}

// NotSingleAssignment reports a register written by more than one
// instruction outside of an SSA_PHI join.
func NotSingleAssignment(name string, pos Position) DiagError {
	return NewDiag(ErrorNotSingleAssignment, fmt.Sprintf("register '%s' is written more than once", name), pos).
		WithLength(len(name)).
		WithNote("spesh IR is single-assignment outside of phi instructions").
		WithSuggestion("introduce a fresh version for the second write, or join with phi").
		Build()
}

// UnknownOpcode reports a mnemonic the grammar accepted lexically but
// that has no entry in the opcode table.
func UnknownOpcode(name string, pos Position) DiagError {
	return NewDiag(ErrorUnknownOpcode, fmt.Sprintf("unknown opcode '%s'", name), pos).
		WithLength(len(name)).
		Build()
}

// OperandShapeMismatch reports that an instruction's parsed operand
// list does not match its opcode's descriptor.
func OperandShapeMismatch(opcode string, want, got int, pos Position) DiagError {
	return NewDiag(ErrorOperandShape,
		fmt.Sprintf("'%s' expects %d operand(s), found %d", opcode, want, got), pos).
		Build()
}

// PolymorphicCallsite reports a findmeth that stayed a cache-only
// lookup because the object model could not resolve it to a single
// method at analysis time.
func PolymorphicCallsite(name string, pos Position) DiagError {
	return NewDiagWarning(WarningPolymorphicCallsite,
		fmt.Sprintf("method lookup for '%s' left polymorphic", name), pos).
		WithNote("the receiver's type was not known, or the object model could not resolve the method from its cache").
		Build()
}

// IndeterminateTypeCheck reports an istype the oracle could not decide.
func IndeterminateTypeCheck(pos Position) DiagError {
	return NewDiagWarning(WarningIndeterminateTypeCheck,
		"type check left unresolved", pos).
		WithNote("both operands need a known type before the oracle can attempt to decide the check").
		Build()
}

// UnreachableBlockPruned reports a block removed by the dead-block sweep.
func UnreachableBlockPruned(label string, pos Position) DiagError {
	return NewDiagWarning(WarningUnreachableBlockPruned,
		fmt.Sprintf("block '%s' is unreachable and was removed", label), pos).
		Build()
}
