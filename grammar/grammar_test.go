package grammar

import "testing"

func TestParseStringBasicBlock(t *testing.T) {
	src := `fact %1.0 knowntype TypeA

bb0:
  findmeth %2.0, %1.0, "size"
  return`

	prog, err := ParseString("test.spesh", src)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	if len(prog.Facts) != 1 {
		t.Fatalf("facts = %d, want 1", len(prog.Facts))
	}
	if prog.Facts[0].Reg != "%1.0" || prog.Facts[0].KnownType == nil || *prog.Facts[0].KnownType != "TypeA" {
		t.Fatalf("fact = %+v, want %%1.0 knowntype TypeA", prog.Facts[0])
	}

	if len(prog.Blocks) != 1 {
		t.Fatalf("blocks = %d, want 1", len(prog.Blocks))
	}
	bb := prog.Blocks[0]
	if bb.Label != "bb0" {
		t.Fatalf("label = %q, want bb0", bb.Label)
	}
	if len(bb.Instructions) != 2 {
		t.Fatalf("instructions = %d, want 2", len(bb.Instructions))
	}
	if bb.Instructions[0].Opcode != "findmeth" {
		t.Fatalf("opcode = %q, want findmeth", bb.Instructions[0].Opcode)
	}
	if len(bb.Instructions[0].Operands) != 3 {
		t.Fatalf("operands = %d, want 3", len(bb.Instructions[0].Operands))
	}
}

func TestParseStringMultipleBlocksAndBranches(t *testing.T) {
	src := `bb0:
  if_i %1.0, bb2
  goto bb1

bb1:
  return

bb2:
  return`

	prog, err := ParseString("test.spesh", src)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if len(prog.Blocks) != 3 {
		t.Fatalf("blocks = %d, want 3", len(prog.Blocks))
	}
	if prog.Blocks[0].Instructions[0].Operands[1].Label == nil || *prog.Blocks[0].Instructions[0].Operands[1].Label != "bb2" {
		t.Fatalf("if_i target not parsed as a label operand: %+v", prog.Blocks[0].Instructions[0].Operands[1])
	}
}

func TestParseStringRejectsGarbage(t *testing.T) {
	_, err := ParseString("test.spesh", "bb0: @@@ not valid")
	if err == nil {
		t.Fatalf("expected a parse error for malformed source")
	}
}

func TestParseStringAllFactKinds(t *testing.T) {
	src := `fact %1.0 knowntype TypeA
fact %2.0 knownvalue 42
fact %3.0 deconted
fact %4.0 typeobj

bb0:
  return`

	prog, err := ParseString("test.spesh", src)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if len(prog.Facts) != 4 {
		t.Fatalf("facts = %d, want 4", len(prog.Facts))
	}
	if prog.Facts[1].KnownValue == nil || *prog.Facts[1].KnownValue != 42 {
		t.Fatalf("knownvalue fact = %+v", prog.Facts[1])
	}
	if !prog.Facts[2].Deconted {
		t.Fatalf("deconted fact not set: %+v", prog.Facts[2])
	}
	if !prog.Facts[3].TypeObj {
		t.Fatalf("typeobj fact not set: %+v", prog.Facts[3])
	}
}
