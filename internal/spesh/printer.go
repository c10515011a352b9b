package spesh

import (
	"fmt"
	"strings"
)

// Printer pretty-prints a graph for debugging, the CLI, and the REPL.
// It mirrors the teacher's own indent-tracking
// printer shape rather than introducing a templating dependency.
type Printer struct {
	indent int
	output strings.Builder
}

// NewPrinter creates an empty Printer.
func NewPrinter() *Printer {
	return &Printer{}
}

// Print renders g as indented, labeled pseudo-assembly in textual
// block order (LinearNext), which is always a superset-respecting walk
// of what eliminateDead considers "reachable" after the pass runs.
func Print(g *Graph) string {
	p := NewPrinter()
	p.printGraph(g)
	return p.output.String()
}

func (p *Printer) writeLine(format string, args ...interface{}) {
	p.output.WriteString(strings.Repeat("  ", p.indent))
	p.output.WriteString(fmt.Sprintf(format, args...))
	p.output.WriteString("\n")
}

func (p *Printer) printGraph(g *Graph) {
	for cur := g.Entry; cur != nil; cur = cur.LinearNext {
		p.printBlock(cur)
	}
}

func (p *Printer) printBlock(bb *BasicBlock) {
	p.writeLine("bb%d:", bb.Idx)
	p.indent++
	for ins := bb.FirstIns; ins != nil; ins = ins.Next {
		p.writeLine("%s", formatIns(ins))
	}
	p.indent--
}

func formatIns(ins *Ins) string {
	var parts []string
	for i, o := range ins.Operands {
		parts = append(parts, formatOperand(ins, i, o))
	}
	if len(parts) == 0 {
		return ins.Info.Name
	}
	return ins.Info.Name + " " + strings.Join(parts, ", ")
}

func formatOperand(ins *Ins, i int, o Operand) string {
	kind, ok := ins.OperandKind(i)
	if !ok && ins.Info.Opcode == OpSSAPhi && i >= 1 {
		kind = KindReadReg
		ok = true
	}
	if !ok {
		kind = KindInsBB
	}
	switch kind {
	case KindReadReg, KindWriteReg:
		return fmt.Sprintf("%%%d.%d", o.Orig, o.I)
	case KindLitI16:
		return fmt.Sprintf("%d", o.LitI16)
	case KindLitI64:
		return fmt.Sprintf("%d", o.LitI64)
	case KindLitStrIdx:
		return fmt.Sprintf("str#%d", o.LitStrIdx)
	case KindInsBB:
		if o.InsBB == nil {
			return "<nil bb>"
		}
		return fmt.Sprintf("bb%d", o.InsBB.Idx)
	default:
		return "?"
	}
}
