package spesh

import "testing"

// link records a control-flow edge a -> b on both endpoints, the way
// the out-of-scope analysis pass would have already done before
// handing the graph to this package.
func link(a, b *BasicBlock) {
	a.Succ = append(a.Succ, b)
	b.Pred = append(b.Pred, a)
}

// testModel is a small in-package ObjectModel for these tests:
// internal/oracle imports this package, so an in-package test cannot
// import it back.
type testModel struct {
	methods  map[[2]string]Method
	subtypes map[[2]string]bool
}

func newTestModel() *testModel {
	return &testModel{methods: map[[2]string]Method{}, subtypes: map[[2]string]bool{}}
}

func (m *testModel) DefineMethod(t *ObjType, name string, meth Method) {
	m.methods[[2]string{t.Name, name}] = meth
}

func (m *testModel) DefineSubtype(objType, targetType *ObjType, isSubtype bool) {
	m.subtypes[[2]string{objType.Name, targetType.Name}] = isSubtype
}

func (m *testModel) FindMethodCacheOnly(t *ObjType, name string) (Method, bool) {
	if t == nil {
		return Method{}, false
	}
	meth, ok := m.methods[[2]string{t.Name, name}]
	return meth, ok
}

func (m *testModel) TryCacheTypeCheck(objType, targetType *ObjType) (int, bool) {
	if objType == nil || targetType == nil {
		return 0, false
	}
	isSub, ok := m.subtypes[[2]string{objType.Name, targetType.Name}]
	if !ok {
		return 0, false
	}
	if isSub {
		return 1, true
	}
	return 0, true
}

// countReads walks every block in g's LinearNext chain and tallies how
// many register-read operands refer to each (orig, i), applying the
// same SSA_PHI special case the reverse-pass DCE uses: operands 1..n
// of a phi are reads regardless of descriptor.
func countReads(g *Graph) map[[2]int]int {
	counts := make(map[[2]int]int)
	for bb := g.Entry; bb != nil; bb = bb.LinearNext {
		for ins := bb.FirstIns; ins != nil; ins = ins.Next {
			if ins.Info.Opcode == OpSSAPhi {
				for i := 1; i < len(ins.Operands); i++ {
					o := ins.Operands[i]
					counts[[2]int{o.Orig, o.I}]++
				}
				continue
			}
			for i, o := range ins.Operands {
				if ins.IsRegisterRead(i) {
					counts[[2]int{o.Orig, o.I}]++
				}
			}
		}
	}
	return counts
}

// assertUsageConservation verifies spec §8's use-count conservation
// invariant: every SSA value's recorded Usages equals the number of
// surviving read-register operands referring to it.
func assertUsageConservation(t *testing.T, g *Graph) {
	t.Helper()
	actual := countReads(g)

	seen := make(map[[2]int]bool)
	for orig, row := range g.facts {
		for i, f := range row {
			key := [2]int{orig, i}
			seen[key] = true
			if f.Usages != actual[key] {
				t.Errorf("usage conservation violated for %%%d.%d: facts.Usages=%d, actual reads=%d",
					orig, i, f.Usages, actual[key])
			}
		}
	}
	for key, n := range actual {
		if !seen[key] && n != 0 {
			t.Errorf("register %%%d.%d has %d reads but no facts entry", key[0], key[1], n)
		}
	}
}

// assertConnectivity verifies spec §8's graph-connectivity invariant:
// every block in the LinearNext chain is reachable from entry via
// Succ, NumBBs matches the chain length, and indices are dense and
// match LinearNext order.
func assertConnectivity(t *testing.T, g *Graph) {
	t.Helper()

	reachable := make(map[*BasicBlock]bool)
	var mark func(bb *BasicBlock)
	mark = func(bb *BasicBlock) {
		if bb == nil || reachable[bb] {
			return
		}
		reachable[bb] = true
		for _, s := range bb.Succ {
			mark(s)
		}
	}
	mark(g.Entry)

	count := 0
	idx := 0
	for bb := g.Entry; bb != nil; bb = bb.LinearNext {
		if !reachable[bb] && bb != g.Entry {
			t.Errorf("block bb%d in LinearNext chain is not reachable via Succ", bb.Idx)
		}
		if bb.Idx != idx {
			t.Errorf("block at LinearNext position %d has Idx %d, want dense index", idx, bb.Idx)
		}
		count++
		idx++
	}
	if count != g.NumBBs {
		t.Errorf("NumBBs=%d, but LinearNext chain has %d blocks", g.NumBBs, count)
	}
}
