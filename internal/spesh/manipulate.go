package spesh

// RemoveSuccessor edits bb's successor list and succ's predecessor list
// to drop the edge bb -> succ. It is the graph utility named in spec
// §6; callers that also need to update use counts (e.g. the iffy
// rewriter) do so themselves, since an edge removal touches no
// register operand.
func RemoveSuccessor(bb, succ *BasicBlock) {
	bb.Succ = removeBlock(bb.Succ, succ)
	succ.Pred = removeBlock(succ.Pred, bb)
}

func removeBlock(list []*BasicBlock, target *BasicBlock) []*BasicBlock {
	out := list[:0]
	for _, b := range list {
		if b != target {
			out = append(out, b)
		}
	}
	return out
}

// DeleteIns unlinks ins from bb's intra-block instruction list and
// fixes up FirstIns/LastIns. It does not touch any register's Usages:
// per spec §6, the caller is responsible for decrementing usages for
// any register-read operand ins held, before or after calling this.
func DeleteIns(bb *BasicBlock, ins *Ins) {
	if ins.Prev != nil {
		ins.Prev.Next = ins.Next
	} else {
		bb.FirstIns = ins.Next
	}
	if ins.Next != nil {
		ins.Next.Prev = ins.Prev
	} else {
		bb.LastIns = ins.Prev
	}
	ins.Prev = nil
	ins.Next = nil
}

// deleteInsAndDecrementReads is the higher-level "removal utility"
// spec §4.6 and §4.7 delegate to: it decrements Usages for every
// register-read operand the instruction holds, then unlinks it. This
// is distinct from the raw DeleteIns named in spec §6, which leaves
// usage bookkeeping entirely to the caller.
func deleteInsAndDecrementReads(g *Graph, bb *BasicBlock, ins *Ins) {
	decrementReads(g, ins, 0)
	DeleteIns(bb, ins)
}

// decrementReads decrements Usages for every register-read operand of
// ins starting at operand index from, using the instruction's own
// descriptor to decide which operands are reads.
func decrementReads(g *Graph, ins *Ins, from int) {
	for i := from; i < len(ins.Operands); i++ {
		if ins.IsRegisterRead(i) {
			o := ins.Operands[i]
			g.factsFor(o).Usages--
		}
	}
}

// decrementAllOperandsAsReads decrements Usages for every operand from
// index `from` onward, treating all of them as reads regardless of
// descriptor. This is SSA_PHI's special case (spec §4.7): a phi's
// operands 1..n are always reads of the corresponding predecessor
// value, even though the pseudo-opcode's descriptor only models
// operand 0.
func decrementAllOperandsAsReads(g *Graph, ins *Ins, from int) {
	for i := from; i < len(ins.Operands); i++ {
		o := ins.Operands[i]
		g.factsFor(o).Usages--
	}
}
