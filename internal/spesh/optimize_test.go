package spesh

import "testing"

// TestOptimizeMethodLookupMonomorphic covers a findmeth whose receiver
// has a known type and whose method the object model's cache can
// already resolve: it should specialize straight to a spesh-slot read
// and retire the method-cache lookup instruction entirely.
func TestOptimizeMethodLookupMonomorphic(t *testing.T) {
	typeA := &ObjType{Name: "TypeA"}
	model := newTestModel()
	model.DefineMethod(typeA, "size", Method{Name: "Size"})

	frame := stubFrame{strings: []string{"size"}}

	bb := &BasicBlock{Idx: 0}
	dst := RegOperand(2, 0)
	obj := RegOperand(1, 0)
	ins := &Ins{Info: OpTable[OpFindmeth], Operands: []Operand{dst, obj, StrIdxOperand(0)}}
	bb.AppendIns(ins)
	bb.AppendIns(&Ins{Info: OpTable[OpReturn]})

	g := NewGraph(bb, model, frame)
	g.factsFor(obj).Flags |= FactKnownType
	g.factsFor(obj).Type = typeA
	g.factsFor(obj).Usages = 1

	Optimize(g)

	if ins.Info.Opcode != OpSpGetSpeshSlot {
		t.Fatalf("opcode = %s, want sp_getspeshslot", ins.Info.Name)
	}
	if len(ins.Operands) != 2 {
		t.Fatalf("operands = %v, want [dst, slot]", ins.Operands)
	}
	slot := int(ins.Operands[1].LitI16)
	if g.SpeshSlots[slot] != (Method{Name: "Size"}) {
		t.Fatalf("slot %d = %v, want resolved method", slot, g.SpeshSlots[slot])
	}
	if g.factsFor(obj).Usages != 0 {
		t.Fatalf("obj usages = %d, want 0 after folding away the read", g.factsFor(obj).Usages)
	}
	assertUsageConservation(t, g)
}

// TestOptimizeMethodLookupPolymorphic covers a findmeth whose type is
// unknown (or whose method the oracle cannot resolve): it must fall
// back to the caching opcode with a fresh contiguous two-slot inline
// cache, leaving both slots nil placeholders.
func TestOptimizeMethodLookupPolymorphic(t *testing.T) {
	frame := stubFrame{strings: []string{"size"}}

	bb := &BasicBlock{Idx: 0}
	dst := RegOperand(2, 0)
	obj := RegOperand(1, 0)
	ins := &Ins{Info: OpTable[OpFindmeth], Operands: []Operand{dst, obj, StrIdxOperand(0)}}
	bb.AppendIns(ins)
	bb.AppendIns(&Ins{Info: OpTable[OpReturn]})

	g := NewGraph(bb, newTestModel(), frame)
	g.factsFor(obj).Usages = 1 // type unknown: no FactKnownType set

	Optimize(g)

	if ins.Info.Opcode != OpSpFindmeth {
		t.Fatalf("opcode = %s, want sp_findmeth", ins.Info.Name)
	}
	if len(ins.Operands) != 4 {
		t.Fatalf("operands = %v, want [dst, obj, name_idx, cache_slot]", ins.Operands)
	}
	slot := int(ins.Operands[3].LitI16)
	if slot+1 >= len(g.SpeshSlots) {
		t.Fatalf("cache slot %d leaves no room for its paired slot, table has %d entries", slot, len(g.SpeshSlots))
	}
	if g.SpeshSlots[slot] != nil || g.SpeshSlots[slot+1] != nil {
		t.Fatalf("reserved cache slots %d/%d should be nil placeholders, got %v/%v", slot, slot+1, g.SpeshSlots[slot], g.SpeshSlots[slot+1])
	}
	// The read of obj survives unresolved: sp_findmeth still reads it at runtime.
	if g.factsFor(obj).Usages != 1 {
		t.Fatalf("obj usages = %d, want 1 (still read by sp_findmeth)", g.factsFor(obj).Usages)
	}
	assertUsageConservation(t, g)
}

// TestOptimizeIsTypeFolds covers constant folding of istype when both
// operands have known types the oracle can decide between.
func TestOptimizeIsTypeFolds(t *testing.T) {
	typeA := &ObjType{Name: "TypeA"}
	typeB := &ObjType{Name: "TypeB"}
	model := newTestModel()
	model.DefineSubtype(typeA, typeB, true)

	bb := &BasicBlock{Idx: 0}
	dst := RegOperand(3, 0)
	obj := RegOperand(1, 0)
	typ := RegOperand(2, 0)
	ins := &Ins{Info: OpTable[OpIsType], Operands: []Operand{dst, obj, typ}}
	bb.AppendIns(ins)
	bb.AppendIns(&Ins{Info: OpTable[OpReturn]})

	g := NewGraph(bb, model, nil)
	g.factsFor(obj).Flags |= FactKnownType
	g.factsFor(obj).Type = typeA
	g.factsFor(obj).Usages = 1
	g.factsFor(typ).Flags |= FactKnownType
	g.factsFor(typ).Type = typeB
	g.factsFor(typ).Usages = 1

	Optimize(g)

	if ins.Info.Opcode != OpConstI64 {
		t.Fatalf("opcode = %s, want const_i64", ins.Info.Name)
	}
	if ins.Operands[1].LitI64 != 1 {
		t.Fatalf("folded value = %d, want 1", ins.Operands[1].LitI64)
	}
	dstFacts := g.factsFor(dst)
	if !dstFacts.Has(FactKnownValue) || dstFacts.Value.I64 != 1 {
		t.Fatalf("dst facts not updated to known value 1: %+v", dstFacts)
	}
	assertUsageConservation(t, g)
}

// TestOptimizeDecontRewritesToSet covers the decont-to-set collapse
// once a value is known not to need dereferencing.
func TestOptimizeDecontRewritesToSet(t *testing.T) {
	bb := &BasicBlock{Idx: 0}
	dst := RegOperand(2, 0)
	obj := RegOperand(1, 0)
	ins := &Ins{Info: OpTable[OpDecont], Operands: []Operand{dst, obj}}
	bb.AppendIns(ins)
	bb.AppendIns(&Ins{Info: OpTable[OpReturn]})

	g := NewGraph(bb, nil, nil)
	g.factsFor(obj).Flags |= FactDeconted
	g.factsFor(obj).Usages = 1

	Optimize(g)

	if ins.Info.Opcode != OpSet {
		t.Fatalf("opcode = %s, want set", ins.Info.Name)
	}
	if len(ins.Operands) != 2 || ins.Operands[0] != dst || ins.Operands[1] != obj {
		t.Fatalf("operands rewritten unexpectedly: %v", ins.Operands)
	}
	assertUsageConservation(t, g)
}

// TestOptimizeSetPropagatesFacts covers copy propagation of known-type
// and known-value facts across a set, without disturbing usage counts.
func TestOptimizeSetPropagatesFacts(t *testing.T) {
	typeA := &ObjType{Name: "TypeA"}

	bb := &BasicBlock{Idx: 0}
	dst := RegOperand(2, 0)
	src := RegOperand(1, 0)
	ins := &Ins{Info: OpTable[OpSet], Operands: []Operand{dst, src}}
	bb.AppendIns(ins)
	// dst is read afterwards, so the set stays live through the reverse pass.
	bb.AppendIns(&Ins{Info: OpTable[OpCall], Operands: []Operand{RegOperand(3, 0), dst}})
	bb.AppendIns(&Ins{Info: OpTable[OpReturn]})

	g := NewGraph(bb, nil, nil)
	g.factsFor(src).Flags |= FactKnownType | FactKnownValue
	g.factsFor(src).Type = typeA
	g.factsFor(src).Value.I64 = 7
	g.factsFor(src).Usages = 1
	g.factsFor(dst).Usages = 1

	Optimize(g)

	if ins.Info.Opcode != OpSet {
		t.Fatalf("set should remain set, got %s", ins.Info.Name)
	}
	dstFacts := g.factsFor(dst)
	if !dstFacts.Has(FactKnownType) || dstFacts.Type != typeA {
		t.Fatalf("dst did not inherit known type: %+v", dstFacts)
	}
	if !dstFacts.Has(FactKnownValue) || dstFacts.Value.I64 != 7 {
		t.Fatalf("dst did not inherit known value: %+v", dstFacts)
	}
	if g.factsFor(src).Usages != 1 {
		t.Fatalf("set's own read should survive untouched, usages=%d", g.factsFor(src).Usages)
	}
	assertUsageConservation(t, g)
}

// buildDiamond builds entry -[if_i]-> {taken, fallthrough} where entry's
// LinearNext is fallthrough and its Children are [fallthrough, taken],
// matching what an out-of-scope analysis pass would already have
// computed before handing the graph to this package.
func buildDiamond(flagUsages int) (g *Graph, entry, fallthroughBB, takenBB *BasicBlock, flag Operand) {
	entry = &BasicBlock{Idx: 0}
	fallthroughBB = &BasicBlock{Idx: 1}
	takenBB = &BasicBlock{Idx: 2}
	entry.LinearNext = fallthroughBB
	fallthroughBB.LinearNext = takenBB
	entry.Children = []*BasicBlock{fallthroughBB, takenBB}

	link(entry, takenBB)
	link(entry, fallthroughBB)

	flag = RegOperand(1, 0)
	entry.AppendIns(&Ins{Info: OpTable[OpIfI], Operands: []Operand{flag, BBOperand(takenBB)}})

	fallthroughBB.AppendIns(&Ins{Info: OpTable[OpReturn]})
	takenBB.AppendIns(&Ins{Info: OpTable[OpReturn]})

	g = NewGraph(entry, nil, nil)
	g.NumBBs = 3
	g.factsFor(flag).Usages = flagUsages
	return
}

// TestOptimizeIffyNeverTaken covers if_i folding to "never taken": the
// branch edge is dropped and the instruction deleted, the fall-through
// successor and its LinearNext position survive untouched.
func TestOptimizeIffyNeverTaken(t *testing.T) {
	g, entry, fallthroughBB, takenBB, flag := buildDiamond(1)
	g.factsFor(flag).Flags |= FactKnownValue
	g.factsFor(flag).Value.I64 = 0 // false: if_i never taken

	Optimize(g)

	if entry.FirstIns != nil {
		t.Fatalf("if_i should have been deleted, block still has instructions: %v", entry.Instructions())
	}
	for _, s := range entry.Succ {
		if s == takenBB {
			t.Fatalf("taken-branch successor should have been removed from entry.Succ")
		}
	}
	found := false
	for _, s := range entry.Succ {
		if s == fallthroughBB {
			found = true
		}
	}
	if !found {
		t.Fatalf("fall-through successor should remain in entry.Succ, got %v", entry.Succ)
	}
	if entry.LinearNext != fallthroughBB {
		t.Fatalf("LinearNext should be unaffected by the branch fold")
	}
	assertUsageConservation(t, g)
	assertConnectivity(t, g)
}

// TestOptimizeIffyAlwaysTaken covers unless_i folding to "always taken":
// the instruction becomes an unconditional goto and the fall-through
// edge is removed, leaving the branch target as the sole successor.
func TestOptimizeIffyAlwaysTaken(t *testing.T) {
	entry := &BasicBlock{Idx: 0}
	fallthroughBB := &BasicBlock{Idx: 1}
	takenBB := &BasicBlock{Idx: 2}
	entry.LinearNext = fallthroughBB
	fallthroughBB.LinearNext = takenBB
	entry.Children = []*BasicBlock{fallthroughBB, takenBB}
	link(entry, takenBB)
	link(entry, fallthroughBB)

	flag := RegOperand(1, 0)
	ins := &Ins{Info: OpTable[OpUnlessI], Operands: []Operand{flag, BBOperand(takenBB)}}
	entry.AppendIns(ins)
	fallthroughBB.AppendIns(&Ins{Info: OpTable[OpReturn]})
	takenBB.AppendIns(&Ins{Info: OpTable[OpReturn]})

	g := NewGraph(entry, nil, nil)
	g.NumBBs = 3
	g.factsFor(flag).Usages = 1
	g.factsFor(flag).Flags |= FactKnownValue
	g.factsFor(flag).Value.I64 = 0 // false: unless_i (negated) is always taken

	Optimize(g)

	if ins.Info.Opcode != OpGoto {
		t.Fatalf("opcode = %s, want goto", ins.Info.Name)
	}
	if len(ins.Operands) != 1 || ins.Operands[0].InsBB != takenBB {
		t.Fatalf("goto operand = %v, want [takenBB]", ins.Operands)
	}
	for _, s := range entry.Succ {
		if s == fallthroughBB {
			t.Fatalf("fall-through successor should have been removed, got %v", entry.Succ)
		}
	}
	if g.factsFor(flag).Usages != 0 {
		t.Fatalf("flag usages = %d, want 0 after the always-taken fold", g.factsFor(flag).Usages)
	}
	assertUsageConservation(t, g)
}

// TestOptimizeBBRemovesDeadPureInstruction covers reverse-pass DCE of a
// pure instruction whose result is never read, decrementing its
// operands' usage counts exactly once each.
func TestOptimizeBBRemovesDeadPureInstruction(t *testing.T) {
	bb := &BasicBlock{Idx: 0}
	dead := RegOperand(5, 0)
	lhs := RegOperand(3, 0)
	rhs := RegOperand(4, 0)
	ins := &Ins{Info: OpTable[OpAddI], Operands: []Operand{dead, lhs, rhs}}
	bb.AppendIns(ins)
	bb.AppendIns(&Ins{Info: OpTable[OpReturn]})

	g := NewGraph(bb, nil, nil)
	g.NumBBs = 1
	g.factsFor(lhs).Usages = 1
	g.factsFor(rhs).Usages = 1
	g.factsFor(dead).Usages = 0 // never read: the add is dead

	Optimize(g)

	for cur := bb.FirstIns; cur != nil; cur = cur.Next {
		if cur == ins {
			t.Fatalf("dead add_i should have been removed from the block")
		}
	}
	if g.factsFor(lhs).Usages != 0 {
		t.Fatalf("lhs usages = %d, want 0", g.factsFor(lhs).Usages)
	}
	if g.factsFor(rhs).Usages != 0 {
		t.Fatalf("rhs usages = %d, want 0", g.factsFor(rhs).Usages)
	}
	assertUsageConservation(t, g)
}

// TestOptimizeBBKeepsLivePureInstruction is the control case for the
// previous test: a pure instruction whose result is read must survive.
func TestOptimizeBBKeepsLivePureInstruction(t *testing.T) {
	bb := &BasicBlock{Idx: 0}
	live := RegOperand(5, 0)
	lhs := RegOperand(3, 0)
	rhs := RegOperand(4, 0)
	ins := &Ins{Info: OpTable[OpAddI], Operands: []Operand{live, lhs, rhs}}
	bb.AppendIns(ins)
	bb.AppendIns(&Ins{Info: OpTable[OpCall], Operands: []Operand{RegOperand(6, 0), live}})
	bb.AppendIns(&Ins{Info: OpTable[OpReturn]})

	g := NewGraph(bb, nil, nil)
	g.NumBBs = 1
	g.factsFor(lhs).Usages = 1
	g.factsFor(rhs).Usages = 1
	g.factsFor(live).Usages = 1

	Optimize(g)

	found := false
	for cur := bb.FirstIns; cur != nil; cur = cur.Next {
		if cur == ins {
			found = true
		}
	}
	if !found {
		t.Fatalf("live add_i should have survived")
	}
	assertUsageConservation(t, g)
}

// TestOptimizeEliminatesUnreachableBlock covers the combined scenario
// of a conditional fold that orphans a block, and the subsequent fixed-
// point sweep that splices it out of LinearNext and renumbers the
// survivors densely.
func TestOptimizeEliminatesUnreachableBlock(t *testing.T) {
	bb0 := &BasicBlock{Idx: 0}
	bb1 := &BasicBlock{Idx: 1}
	bb2 := &BasicBlock{Idx: 2}
	bb0.LinearNext = bb1
	bb1.LinearNext = bb2
	bb0.Children = []*BasicBlock{bb1, bb2}

	link(bb0, bb2) // never-taken branch target
	link(bb0, bb1) // fall-through

	flag := RegOperand(1, 0)
	bb0.AppendIns(&Ins{Info: OpTable[OpIfI], Operands: []Operand{flag, BBOperand(bb2)}})
	bb1.AppendIns(&Ins{Info: OpTable[OpReturn]})
	bb2.AppendIns(&Ins{Info: OpTable[OpReturn]})

	g := NewGraph(bb0, nil, nil)
	g.NumBBs = 3
	g.factsFor(flag).Usages = 1
	g.factsFor(flag).Flags |= FactKnownValue
	g.factsFor(flag).Value.I64 = 0 // if_i never taken: bb2 becomes unreachable

	Optimize(g)

	if g.NumBBs != 2 {
		t.Fatalf("NumBBs = %d, want 2 after bb2 is pruned", g.NumBBs)
	}
	for cur := bb0; cur != nil; cur = cur.LinearNext {
		if cur == bb2 {
			t.Fatalf("bb2 should have been spliced out of the LinearNext chain")
		}
	}
	if bb0.Idx != 0 || bb1.Idx != 1 {
		t.Fatalf("surviving blocks not renumbered densely: bb0.Idx=%d bb1.Idx=%d", bb0.Idx, bb1.Idx)
	}
	assertUsageConservation(t, g)
	assertConnectivity(t, g)
}

// TestEliminateDeadFixedPointPeelsChainOfOrphans covers a chain of
// blocks that all lose their only incoming edge at once: one sweep
// only detaches the first layer, so the loop must repeat until no
// block dies in an iteration.
func TestEliminateDeadFixedPointPeelsChainOfOrphans(t *testing.T) {
	entry := &BasicBlock{Idx: 0}
	orphan1 := &BasicBlock{Idx: 1}
	orphan2 := &BasicBlock{Idx: 2}
	orphan3 := &BasicBlock{Idx: 3}
	entry.LinearNext = orphan1
	orphan1.LinearNext = orphan2
	orphan2.LinearNext = orphan3

	// orphan1 -> orphan2 -> orphan3 form a chain reachable only from
	// orphan1, which nothing points to: entry has no successors at all.
	link(orphan1, orphan2)
	link(orphan2, orphan3)

	entry.AppendIns(&Ins{Info: OpTable[OpReturn]})

	g := NewGraph(entry, nil, nil)
	g.NumBBs = 4

	eliminateDead(g)

	if g.NumBBs != 1 {
		t.Fatalf("NumBBs = %d, want 1 (only entry survives)", g.NumBBs)
	}
	if entry.LinearNext != nil {
		t.Fatalf("entry.LinearNext = %v, want nil", entry.LinearNext)
	}
}
