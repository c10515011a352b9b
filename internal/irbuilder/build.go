// Package irbuilder lowers a parsed textual spesh IR program into a
// *spesh.Graph, playing the role of the out-of-scope analysis pass
// that spec'd optimizer expects to receive a graph from: computing
// successors/predecessors, the dominator tree, and each register's
// initial use count. None of this is part of the optimizer's own
// contract; it exists so the CLI, REPL and LSP server (and the
// package's own end-to-end tests) have a graph to hand it.
package irbuilder

import (
	"fmt"
	"strconv"
	"strings"

	"spesh/grammar"
	"spesh/internal/errors"
	"spesh/internal/spesh"
)

var opcodeByName = func() map[string]*spesh.OpInfo {
	m := make(map[string]*spesh.OpInfo, len(spesh.OpTable))
	for _, info := range spesh.OpTable {
		m[info.Name] = info
	}
	return m
}()

// Build lowers prog into a graph, resolving facts and registers
// against model (which may be nil). It returns any non-fatal
// diagnostics (duplicate block labels) alongside the graph; a non-nil error
// means the program could not be lowered at all.
func Build(prog *grammar.Program, model spesh.ObjectModel) (*spesh.Graph, []errors.DiagError, error) {
	if len(prog.Blocks) == 0 {
		return nil, nil, fmt.Errorf("program has no blocks")
	}

	blocks := make(map[string]*spesh.BasicBlock, len(prog.Blocks))
	order := make([]*spesh.BasicBlock, len(prog.Blocks))
	var diags []errors.DiagError

	for i, b := range prog.Blocks {
		if _, dup := blocks[b.Label]; dup {
			diags = append(diags, errors.DuplicateBlockLabel(b.Label, errors.Position{Line: 1, Column: 1}))
			continue
		}
		bb := &spesh.BasicBlock{Idx: i}
		blocks[b.Label] = bb
		order[i] = bb
	}
	for i := 0; i < len(order)-1; i++ {
		if order[i] != nil {
			order[i].LinearNext = order[i+1]
		}
	}

	frame := newDSLFrame()
	g := spesh.NewGraph(order[0], model, frame)

	typeCache := make(map[string]*spesh.ObjType)
	internType := func(name string) *spesh.ObjType {
		if t, ok := typeCache[name]; ok {
			return t
		}
		t := &spesh.ObjType{Name: name}
		typeCache[name] = t
		return t
	}

	for _, fd := range prog.Facts {
		orig, ver, err := parseRegister(fd.Reg)
		if err != nil {
			return nil, diags, err
		}
		f := g.GetFacts(orig, ver)
		switch {
		case fd.KnownType != nil:
			f.Flags |= spesh.FactKnownType
			f.Type = internType(*fd.KnownType)
		case fd.KnownValue != nil:
			f.Flags |= spesh.FactKnownValue
			f.Value.I64 = *fd.KnownValue
		case fd.Deconted:
			f.Flags |= spesh.FactDeconted
		case fd.TypeObj:
			f.Flags |= spesh.FactTypeObj
		}
	}

	for i, b := range prog.Blocks {
		bb := order[i]
		if bb == nil {
			continue
		}
		for _, parsedIns := range b.Instructions {
			ins, err := buildInstruction(parsedIns, blocks, frame)
			if err != nil {
				return nil, diags, err
			}
			bb.AppendIns(ins)
		}
	}

	linkControlFlow(order)
	computeDominatorTree(g.Entry)
	g.NumBBs = countReachable(g)
	computeUsages(g)

	return g, diags, nil
}

func buildInstruction(parsed *grammar.Instruction, blocks map[string]*spesh.BasicBlock, frame *dslFrame) (*spesh.Ins, error) {
	info, ok := opcodeByName[parsed.Opcode]
	if !ok {
		return nil, fmt.Errorf("unknown opcode %q", parsed.Opcode)
	}

	ins := &spesh.Ins{Info: info}

	for i, po := range parsed.Operands {
		kind, kindOK := ins.OperandKind(i)
		if !kindOK {
			if info.Opcode == spesh.OpSSAPhi && i >= 1 {
				kind = spesh.KindReadReg
			} else {
				return nil, fmt.Errorf("%s: too many operands", parsed.Opcode)
			}
		}

		switch kind {
		case spesh.KindReadReg, spesh.KindWriteReg:
			if po.Reg == nil {
				return nil, fmt.Errorf("%s: operand %d must be a register", parsed.Opcode, i)
			}
			orig, ver, err := parseRegister(*po.Reg)
			if err != nil {
				return nil, err
			}
			ins.Operands = append(ins.Operands, spesh.RegOperand(orig, ver))
		case spesh.KindLitI16:
			if po.Int == nil {
				return nil, fmt.Errorf("%s: operand %d must be an integer", parsed.Opcode, i)
			}
			ins.Operands = append(ins.Operands, spesh.I16Operand(int16(*po.Int)))
		case spesh.KindLitI64:
			if po.Int == nil {
				return nil, fmt.Errorf("%s: operand %d must be an integer", parsed.Opcode, i)
			}
			ins.Operands = append(ins.Operands, spesh.I64Operand(*po.Int))
		case spesh.KindLitStrIdx:
			if po.Str == nil {
				return nil, fmt.Errorf("%s: operand %d must be a string literal", parsed.Opcode, i)
			}
			idx := frame.intern(unquote(*po.Str))
			ins.Operands = append(ins.Operands, spesh.StrIdxOperand(idx))
		case spesh.KindInsBB:
			if po.Label == nil {
				return nil, fmt.Errorf("%s: operand %d must be a block label", parsed.Opcode, i)
			}
			target, ok := blocks[*po.Label]
			if !ok {
				return nil, fmt.Errorf("undefined block label %q", *po.Label)
			}
			ins.Operands = append(ins.Operands, spesh.BBOperand(target))
		}
	}

	return ins, nil
}

// linkControlFlow derives each block's Succ/Pred from its branch
// instructions (any conditional branch before the terminator, then the
// terminator itself), the way an analysis pass reads them off the
// bytecode's own branch instructions.
func linkControlFlow(order []*spesh.BasicBlock) {
	for _, bb := range order {
		if bb == nil {
			continue
		}
		term := bb.LastIns
		for ins := bb.FirstIns; ins != nil && ins != term; ins = ins.Next {
			if _, ok := spesh.IfUnlessFamily(ins.Info.Opcode); ok {
				addSucc(bb, ins.Operands[1].InsBB)
			}
		}
		if term == nil {
			if bb.LinearNext != nil {
				addSucc(bb, bb.LinearNext)
			}
			continue
		}
		switch term.Info.Opcode {
		case spesh.OpGoto:
			addSucc(bb, term.Operands[0].InsBB)
		case spesh.OpReturn:
			// no successors
		default:
			if _, ok := spesh.IfUnlessFamily(term.Info.Opcode); ok {
				addSucc(bb, term.Operands[1].InsBB)
				if bb.LinearNext != nil {
					addSucc(bb, bb.LinearNext)
				}
			} else if bb.LinearNext != nil {
				addSucc(bb, bb.LinearNext)
			}
		}
	}
}

func addSucc(bb, succ *spesh.BasicBlock) {
	bb.Succ = append(bb.Succ, succ)
	succ.Pred = append(succ.Pred, bb)
}

func countReachable(g *spesh.Graph) int {
	count := 0
	for cur := g.Entry; cur != nil; cur = cur.LinearNext {
		count++
	}
	return count
}

// computeUsages scans every surviving instruction and sets each
// register's Facts.Usages to its actual read count, matching the
// invariant the optimizer's rewriters expect on entry.
func computeUsages(g *spesh.Graph) {
	counts := make(map[[2]int]int)
	for cur := g.Entry; cur != nil; cur = cur.LinearNext {
		for ins := cur.FirstIns; ins != nil; ins = ins.Next {
			if ins.Info.Opcode == spesh.OpSSAPhi {
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
	for key, n := range counts {
		g.GetFacts(key[0], key[1]).Usages = n
	}
}

func parseRegister(s string) (orig, ver int, err error) {
	s = strings.TrimPrefix(s, "%")
	parts := strings.SplitN(s, ".", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed register %q", s)
	}
	orig, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed register %q: %w", s, err)
	}
	ver, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed register %q: %w", s, err)
	}
	return orig, ver, nil
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
