package spesh

// This file is the optimization driver and the five rewriters it
// dispatches to: optimizeMethodLookup, optimizeIsType, optimizeSet,
// optimizeDecont and optimizeIffy (spec §4.2-§4.6), the dominator-tree
// walk with dead-store elimination (spec §4.7), and the unreachable-
// block collector (spec §4.8). Everything here mutates a *Graph in
// place; nothing here allocates a new graph or frees one.

// optimizeMethodLookup specializes a findmeth (dst, obj, name_idx)
// instruction: a known object type lets it resolve the method at
// optimization time via the object model's cache-only lookup; failing
// that it reserves a two-slot inline cache and rewrites to the caching
// opcode (spec §4.2).
func optimizeMethodLookup(g *Graph, ins *Ins) {
	objFacts := g.factsFor(ins.Operands[1])
	resolved := false

	if objFacts.Has(FactKnownType) && g.Model != nil {
		name := g.GetString(ins.Operands[2])
		if meth, ok := g.Model.FindMethodCacheOnly(objFacts.Type, name); ok {
			ss := g.AddSpeshSlot(meth)
			objFacts.Usages--
			ins.Info = OpTable[OpSpGetSpeshSlot]
			ins.Operands = g.newOperands(ins.Operands[0], I16Operand(int16(ss)))
			resolved = true
		}
	}

	if !resolved {
		dst, obj, nameIdx := ins.Operands[0], ins.Operands[1], ins.Operands[2]
		// The pair must be allocated contiguously: the specialized
		// interpreter opcode loads type and method as slot[k] and
		// slot[k+1].
		cacheSlot := g.AddSpeshSlot(nil)
		g.AddSpeshSlot(nil)
		ins.Info = OpTable[OpSpFindmeth]
		ins.Operands = g.newOperands(dst, obj, nameIdx, I16Operand(int16(cacheSlot)))
	}
}

// optimizeIsType folds istype (dst, obj, type) to a constant when both
// operands have a known type and the type-check oracle can decide the
// answer without side effects (spec §4.3).
func optimizeIsType(g *Graph, ins *Ins) {
	objFacts := g.factsFor(ins.Operands[1])
	typeFacts := g.factsFor(ins.Operands[2])

	if !objFacts.Has(FactKnownType) || !typeFacts.Has(FactKnownType) {
		return
	}
	if g.Model == nil {
		return
	}

	result, decidable := g.Model.TryCacheTypeCheck(objFacts.Type, typeFacts.Type)
	if !decidable {
		return
	}

	resultFacts := g.factsFor(ins.Operands[0])
	ins.Info = OpTable[OpConstI64]
	ins.Operands = g.newOperands(ins.Operands[0], I64Operand(int64(result)))
	resultFacts.Flags |= FactKnownValue
	resultFacts.Value.I64 = int64(result)
	objFacts.Usages--
	typeFacts.Usages--
}

// optimizeSet propagates known-type/known-value facts from src to dst
// across a set (dst, src). This only copies analysis information: the
// copy instruction itself and its use count are untouched (spec §4.4).
func optimizeSet(g *Graph, ins *Ins) {
	dstFacts := g.factsFor(ins.Operands[0])
	srcFacts := g.factsFor(ins.Operands[1])

	if srcFacts.Has(FactKnownType) {
		dstFacts.Flags |= FactKnownType
		dstFacts.Type = srcFacts.Type
	}
	if srcFacts.Has(FactKnownValue) {
		dstFacts.Flags |= FactKnownValue
		dstFacts.Value = srcFacts.Value
	}
}

// optimizeDecont turns decont (dst, obj) into set (dst, obj) once obj
// is known not to be a container needing dereference. The operand
// shape is identical between the two opcodes, so only the descriptor
// changes (spec §4.5).
func optimizeDecont(g *Graph, ins *Ins) {
	objFacts := g.factsFor(ins.Operands[1])
	if objFacts.HasAny(FactDeconted | FactTypeObj) {
		ins.Info = OpTable[OpSet]
	}
}

// optimizeIffy folds if_i/unless_i to an unconditional goto or drops
// them entirely once the flag register has a known value. Other
// if_*/unless_* variants are recognized but left untouched, per open
// question (a): a clean early return rather than replicating an
// ambiguous fall-through for truthvalue (spec §4.6, §9).
func optimizeIffy(g *Graph, bb *BasicBlock, ins *Ins) {
	negated, ok := IfUnlessFamily(ins.Info.Opcode)
	if !ok {
		return
	}
	if ins.Info.Opcode != OpIfI && ins.Info.Opcode != OpUnlessI {
		return
	}

	flagFacts := g.factsFor(ins.Operands[0])
	if !flagFacts.Has(FactKnownValue) {
		return
	}

	truth := flagFacts.Value.I64 != 0

	if truth != negated {
		// Always taken: become an unconditional jump, and since there
		// is no longer a conditional, the fall-through successor
		// (linear_next) is no longer reachable from here.
		target := ins.Operands[1]
		flagFacts.Usages--
		ins.Info = OpTable[OpGoto]
		ins.Operands = g.newOperands(target)
		RemoveSuccessor(bb, bb.LinearNext)
	} else {
		// Never taken: drop the branch target edge and the
		// instruction itself.
		target := ins.Operands[1].InsBB
		RemoveSuccessor(bb, target)
		deleteInsAndDecrementReads(g, bb, ins)
	}
}

// optimizeBB visits bb's instructions forward, dispatching each one to
// its rewriter, recurses into dominator-tree children, and then walks
// bb's instructions in reverse, deleting dead SSA_PHIs and dead pure
// instructions (spec §4.7). The forward/recurse/reverse shape matters:
// facts discovered in the forward pass make downstream uses dead, and
// the reverse pass after recursion reclaims those producers with
// correct use counts once every dominated descendant has already run
// its own reverse pass.
func optimizeBB(g *Graph, bb *BasicBlock) {
	ins := bb.FirstIns
	for ins != nil {
		next := ins.Next // optimizeIffy may delete ins below
		switch ins.Info.Opcode {
		case OpFindmeth:
			optimizeMethodLookup(g, ins)
		case OpDecont:
			optimizeDecont(g, ins)
		case OpIsType:
			optimizeIsType(g, ins)
		case OpSet:
			optimizeSet(g, ins)
		case OpIfI, OpUnlessI, OpIfS, OpIfN, OpIfO, OpUnlessS, OpUnlessN, OpUnlessO:
			optimizeIffy(g, bb, ins)
		}
		ins = next
	}

	for _, child := range bb.Children {
		optimizeBB(g, child)
	}

	ins = bb.LastIns
	for ins != nil {
		prev := ins.Prev // ins may be deleted below

		switch {
		case ins.Info.Opcode == OpSSAPhi:
			dstFacts := g.factsFor(ins.Operands[0])
			if dstFacts.Usages == 0 {
				decrementAllOperandsAsReads(g, ins, 1)
				DeleteIns(bb, ins)
			}
		case ins.Info.Pure && ins.IsRegisterWrite(0):
			dstFacts := g.factsFor(ins.Operands[0])
			if dstFacts.Usages == 0 {
				decrementReads(g, ins, 1)
				DeleteIns(bb, ins)
			}
		}

		ins = prev
	}
}

// eliminateDead iterates the reachability sweep of spec §4.8 to a
// fixed point: each pass marks every block reachable from entry (the
// entry itself, plus anyone's successor) and splices any unmarked
// block out of the linear_next chain. A block spliced out in one
// iteration still contributed its successors to `seen` during that
// same iteration, so a chain of orphans is peeled off one layer per
// iteration; repeating until nothing dies guarantees the full
// transitive closure. Blocks are renumbered densely only if any died.
func eliminateDead(g *Graph) {
	origBBs := g.NumBBs

	for {
		seen := make(map[int]bool, g.NumBBs)
		seen[g.Entry.Idx] = true
		for cur := g.Entry; cur != nil; cur = cur.LinearNext {
			for _, s := range cur.Succ {
				seen[s.Idx] = true
			}
		}

		death := false
		cur := g.Entry
		for cur != nil && cur.LinearNext != nil {
			if !seen[cur.LinearNext.Idx] {
				cur.LinearNext = cur.LinearNext.LinearNext
				g.NumBBs--
				death = true
			}
			cur = cur.LinearNext
		}
		if !death {
			break
		}
	}

	if g.NumBBs != origBBs {
		idx := 0
		for cur := g.Entry; cur != nil; cur = cur.LinearNext {
			cur.Idx = idx
			idx++
		}
	}
}

// Optimize is the public entry point (spec §4.9, §6): it runs the
// dominator-tree walk and then the unreachable-block sweep, mutating g
// in place. There is no error channel; oracle failures are silent
// non-optimizations, and there is no profitability threshold or pass
// ordering beyond these two steps.
func Optimize(g *Graph) {
	optimizeBB(g, g.Entry)
	eliminateDead(g)
}
