package spesh

// Package-wide, process-immutable opcode metadata. Mirrors MoarVM's
// MVMOpInfo table: every opcode used by the optimizer has a fixed
// operand shape (kind + read/write direction) and a purity flag,
// looked up once and shared by every graph.

// Opcode identifies an instruction's operation.
type Opcode int

const (
	OpFindmeth Opcode = iota
	OpSpFindmeth
	OpSpGetSpeshSlot
	OpIsType
	OpConstI64
	OpSet
	OpDecont
	OpGoto
	OpIfI
	OpUnlessI
	OpIfS
	OpIfN
	OpIfO
	OpUnlessS
	OpUnlessN
	OpUnlessO
	OpSSAPhi

	// Generic opcodes used by test fixtures and the DSL front end to
	// exercise the dominator walk and DCE without needing every real
	// MoarVM opcode modelled.
	OpAddI
	OpCall
	OpReturn
)

// OperandKind classifies one operand slot of an instruction.
type OperandKind int

const (
	// KindReadReg is a register read: it counts against the source
	// register's Facts.Usages.
	KindReadReg OperandKind = iota
	// KindWriteReg is a register write: it defines a fresh SSA value.
	KindWriteReg
	KindLitI16
	KindLitI64
	KindLitStrIdx
	// KindInsBB is a literal branch target (a *BasicBlock pointer).
	KindInsBB
)

// OpInfo is the per-opcode descriptor consulted by the rewriters and by
// the reverse-pass DCE. It is the Go analogue of MoarVM's MVMOpInfo:
// opcode number, per-operand kind, and a purity flag.
type OpInfo struct {
	Opcode   Opcode
	Name     string
	Operands []OperandKind
	// Pure instructions have no observable effect beyond writing their
	// result register, so they may be deleted once that register is
	// unused.
	Pure bool
}

// OpTable is the global, immutable opcode table. It is a package-level
// map literal, built once when the package is initialized and never
// mutated afterward, mirroring the process-wide opcode
// table named in spec §6.
var OpTable = map[Opcode]*OpInfo{
	OpFindmeth: {
		Opcode: OpFindmeth, Name: "findmeth",
		Operands: []OperandKind{KindWriteReg, KindReadReg, KindLitStrIdx},
		Pure:     false,
	},
	OpSpFindmeth: {
		Opcode: OpSpFindmeth, Name: "sp_findmeth",
		Operands: []OperandKind{KindWriteReg, KindReadReg, KindLitStrIdx, KindLitI16},
		Pure:     false,
	},
	OpSpGetSpeshSlot: {
		Opcode: OpSpGetSpeshSlot, Name: "sp_getspeshslot",
		Operands: []OperandKind{KindWriteReg, KindLitI16},
		Pure:     true,
	},
	OpIsType: {
		Opcode: OpIsType, Name: "istype",
		Operands: []OperandKind{KindWriteReg, KindReadReg, KindReadReg},
		Pure:     true,
	},
	OpConstI64: {
		Opcode: OpConstI64, Name: "const_i64",
		Operands: []OperandKind{KindWriteReg, KindLitI64},
		Pure:     true,
	},
	OpSet: {
		Opcode: OpSet, Name: "set",
		Operands: []OperandKind{KindWriteReg, KindReadReg},
		Pure:     true,
	},
	OpDecont: {
		Opcode: OpDecont, Name: "decont",
		Operands: []OperandKind{KindWriteReg, KindReadReg},
		Pure:     true,
	},
	OpGoto: {
		Opcode: OpGoto, Name: "goto",
		Operands: []OperandKind{KindInsBB},
		Pure:     false,
	},
	OpIfI: {
		Opcode: OpIfI, Name: "if_i",
		Operands: []OperandKind{KindReadReg, KindInsBB},
		Pure:     false,
	},
	OpUnlessI: {
		Opcode: OpUnlessI, Name: "unless_i",
		Operands: []OperandKind{KindReadReg, KindInsBB},
		Pure:     false,
	},
	OpIfS: {Opcode: OpIfS, Name: "if_s", Operands: []OperandKind{KindReadReg, KindInsBB}, Pure: false},
	OpIfN: {Opcode: OpIfN, Name: "if_n", Operands: []OperandKind{KindReadReg, KindInsBB}, Pure: false},
	OpIfO: {Opcode: OpIfO, Name: "if_o", Operands: []OperandKind{KindReadReg, KindInsBB}, Pure: false},
	OpUnlessS: {
		Opcode: OpUnlessS, Name: "unless_s",
		Operands: []OperandKind{KindReadReg, KindInsBB}, Pure: false,
	},
	OpUnlessN: {
		Opcode: OpUnlessN, Name: "unless_n",
		Operands: []OperandKind{KindReadReg, KindInsBB}, Pure: false,
	},
	OpUnlessO: {
		Opcode: OpUnlessO, Name: "unless_o",
		Operands: []OperandKind{KindReadReg, KindInsBB}, Pure: false,
	},
	OpSSAPhi: {
		// Variable-length: operand 0 is the write, 1..n are reads from
		// each predecessor. The reverse-pass DCE treats every operand
		// from index 1 onward as a read regardless of this descriptor
		// (spec §4.7), so the Operands slice here only needs to cover
		// the shape for lookups elsewhere (e.g. the printer).
		Opcode: OpSSAPhi, Name: "phi",
		Operands: []OperandKind{KindWriteReg},
		Pure:     true,
	},
	OpAddI: {
		Opcode: OpAddI, Name: "add_i",
		Operands: []OperandKind{KindWriteReg, KindReadReg, KindReadReg},
		Pure:     true,
	},
	OpCall: {
		Opcode: OpCall, Name: "call",
		Operands: []OperandKind{KindWriteReg, KindReadReg},
		Pure:     false,
	},
	OpReturn: {
		Opcode: OpReturn, Name: "return",
		Operands: nil,
		Pure:     false,
	},
}

// IfUnlessFamily reports whether op is one of the if_*/unless_* branch
// opcodes, and if so whether it is the negated (unless_*) form.
func IfUnlessFamily(op Opcode) (negated bool, ok bool) {
	switch op {
	case OpIfI, OpIfS, OpIfN, OpIfO:
		return false, true
	case OpUnlessI, OpUnlessS, OpUnlessN, OpUnlessO:
		return true, true
	default:
		return false, false
	}
}
