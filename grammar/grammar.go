// Package grammar defines the participle struct grammar for the
// textual spesh IR: a small, order-independent fact-declaration
// section followed by labeled basic blocks of opcode instructions.
// This text format is not itself part of the optimizer's contract; it
// exists so the optimizer, the CLI, the REPL and the LSP server can
// all share one way to read and write a Graph.
package grammar

// Program is a complete spesh IR source file: an analysis-facts
// preamble (the facts an out-of-scope analysis pass would ordinarily
// have already attached to each register) followed by one or more
// basic blocks in textual order.
type Program struct {
	Facts  []*FactDecl `@@*`
	Blocks []*Block    `@@+`
}

// FactDecl attaches one analysis fact to a register ahead of
// optimization, standing in for what a real frontend's escape/type
// analysis would have computed.
type FactDecl struct {
	Reg        string  `"fact" @Register`
	KnownType  *string `(  "knowntype" @Ident`
	KnownValue *int64  ` | "knownvalue" @Int`
	Deconted   bool    ` | @"deconted"`
	TypeObj    bool    ` | @"typeobj" )`
}

// Block is one labeled basic block: a "bbN:" label followed by its
// instructions in textual order, up to the next label or EOF.
type Block struct {
	Label        string         `@Ident ":"`
	Instructions []*Instruction `@@*`
}

// Instruction is one opcode mnemonic and its comma-separated operand
// list. The grammar does not know each opcode's operand shape: that
// validation belongs to the builder, which consults the same OpTable
// the optimizer itself uses. An identifier followed by ":" is the next
// block's label, never an opcode.
type Instruction struct {
	Opcode   string     `@Ident (?! ":")`
	Operands []*Operand `( @@ ( "," @@ )* )?`
}

// Operand is one of a register reference, a block-label reference, a
// string literal, or an integer literal. Which alternative is active
// tells the builder how to interpret it.
type Operand struct {
	Reg   *string `(  @Register`
	Str   *string ` | @String`
	Int   *int64  ` | @Int`
	Label *string ` | @Ident (?! ":") )`
}
