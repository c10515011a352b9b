package errors

// Error codes for the spesh toolchain (the DSL parser and the
// optimizer's own diagnostic output). These codes are used in
// messages and in the LSP's diagnostic payload.
//
// Error code ranges:
// E0001-E0099: DSL parse errors (syntax, unknown opcode, bad operand shape)
// E0100-E0199: DSL validation errors (undefined register/block, duplicate label, repeated write)
// W0800-W0899: Optimizer advisory warnings (not validation failures)

const (
	// E0001: Lexing/syntax errors from the participle grammar
	ErrorSyntax = "E0001"

	// E0002: Unknown opcode mnemonic
	ErrorUnknownOpcode = "E0002"

	// E0003: Wrong operand count or kind for an opcode
	ErrorOperandShape = "E0003"

	// E0100: Reference to an undefined register
	ErrorUndefinedRegister = "E0100"

	// E0101: Reference to an undefined block label
	ErrorUndefinedBlockLabel = "E0101"

	// E0102: Block label declared more than once
	ErrorDuplicateBlockLabel = "E0102"

	// E0103: A register written by more than one instruction outside SSA_PHI
	ErrorNotSingleAssignment = "E0103"

	// W0800: findmeth could not be resolved to a single method at analysis time
	WarningPolymorphicCallsite = "W0800"

	// W0801: istype could not be decided by the type-check oracle
	WarningIndeterminateTypeCheck = "W0801"

	// W0802: a block was pruned as unreachable after conditional folding
	WarningUnreachableBlockPruned = "W0802"
)

// GetErrorDescription returns a human-readable description of the error code
func GetErrorDescription(code string) string {
	switch code {
	case ErrorSyntax:
		return "Source could not be parsed as spesh IR"
	case ErrorUnknownOpcode:
		return "Opcode mnemonic is not recognized"
	case ErrorOperandShape:
		return "Operand count or kind does not match the opcode's descriptor"
	case ErrorUndefinedRegister:
		return "Register is read before any instruction writes it"
	case ErrorUndefinedBlockLabel:
		return "Branch target does not name a declared block"
	case ErrorDuplicateBlockLabel:
		return "Block label is declared more than once"
	case ErrorNotSingleAssignment:
		return "Register is written by more than one instruction"
	case WarningPolymorphicCallsite:
		return "Method lookup could not be resolved to a single target"
	case WarningIndeterminateTypeCheck:
		return "Type check could not be decided without side effects"
	case WarningUnreachableBlockPruned:
		return "Block was removed because it became unreachable"
	default:
		return "Unknown error code"
	}
}

// IsWarning reports whether code names a warning rather than a hard error.
func IsWarning(code string) bool {
	return len(code) > 0 && code[0] == 'W'
}

// GetErrorCategory returns the category of the error based on its code
func GetErrorCategory(code string) string {
	switch {
	case code >= "E0001" && code < "E0100":
		return "Syntax"
	case code >= "E0100" && code < "E0200":
		return "Validation"
	case code[0] == 'W':
		return "Optimizer advisory"
	default:
		return "Unknown"
	}
}
