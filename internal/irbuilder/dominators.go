package irbuilder

import "spesh/internal/spesh"

// computeDominatorTree populates each reachable block's Children with
// its immediate-dominator-tree children, using the iterative
// Cooper-Harvey-Kennedy algorithm. The optimizer's own package treats
// the dominator tree as something an out-of-scope analysis pass always
// supplies; this is that supplied analysis for graphs built from
// textual IR, not part of the optimizer's own contract.
func computeDominatorTree(entry *spesh.BasicBlock) {
	postorder, index := postorderBlocks(entry)
	if len(postorder) == 0 {
		return
	}

	idom := make([]int, len(postorder))
	for i := range idom {
		idom[i] = -1
	}
	entryIdx := index[entry]
	idom[entryIdx] = entryIdx

	changed := true
	for changed {
		changed = false
		// Process in reverse postorder, skipping entry.
		for i := len(postorder) - 2; i >= 0; i-- {
			bb := postorder[i]
			newIdom := -1
			for _, p := range bb.Pred {
				pi, ok := index[p]
				if !ok || idom[pi] == -1 {
					continue
				}
				if newIdom == -1 {
					newIdom = pi
					continue
				}
				newIdom = intersect(idom, postorder, newIdom, pi)
			}
			if newIdom != -1 && idom[i] != newIdom {
				idom[i] = newIdom
				changed = true
			}
		}
	}

	for _, bb := range postorder {
		bb.Children = nil
	}
	for i, bb := range postorder {
		if i == entryIdx {
			continue
		}
		if idom[i] == -1 {
			continue
		}
		parent := postorder[idom[i]]
		parent.Children = append(parent.Children, bb)
	}
}

// intersect walks two blocks' dominator chains (by postorder index,
// where a higher index means closer to the entry) until they meet.
func intersect(idom []int, postorder []*spesh.BasicBlock, a, b int) int {
	for a != b {
		for a < b {
			a = idom[a]
		}
		for b < a {
			b = idom[b]
		}
	}
	return a
}

// postorderBlocks returns every block reachable from entry via Succ in
// postorder, along with a lookup from block to its position in that
// order (entry always has the highest index).
func postorderBlocks(entry *spesh.BasicBlock) ([]*spesh.BasicBlock, map[*spesh.BasicBlock]int) {
	var order []*spesh.BasicBlock
	visited := make(map[*spesh.BasicBlock]bool)

	var visit func(bb *spesh.BasicBlock)
	visit = func(bb *spesh.BasicBlock) {
		if bb == nil || visited[bb] {
			return
		}
		visited[bb] = true
		for _, s := range bb.Succ {
			visit(s)
		}
		order = append(order, bb)
	}
	visit(entry)

	index := make(map[*spesh.BasicBlock]int, len(order))
	for i, bb := range order {
		index[bb] = i
	}
	return order, index
}
