package spesh

import "spesh/internal/arena"

// slotStep is the fixed growth step for the spesh-slot table (spec §4.1).
const slotStep = 8

// CodeFrame supplies string-constant lookup for literal string-index
// operands. Graph construction and the containing frame are out of
// scope for this package; CodeFrame is the narrow seam the optimizer
// needs into that world.
type CodeFrame interface {
	GetString(idx int) string
}

// Graph is a Spesh Graph: it owns every block, the fact table, and the
// spesh-slot side table for one function being specialized (spec §3).
type Graph struct {
	Entry  *BasicBlock
	NumBBs int

	facts map[int]map[int]*Facts

	SpeshSlots      []SlotValue
	allocSpeshSlots int

	Frame CodeFrame
	Model ObjectModel

	arena *arena.Arena
}

// SlotValue is an opaque heap reference pinned into a spesh slot. It
// may be nil (a reserved placeholder, spec §3).
type SlotValue interface{}

// NewGraph creates an empty graph over entry, ready for optimization.
// model and frame may be nil in tests that never exercise the
// rewriters needing them.
func NewGraph(entry *BasicBlock, model ObjectModel, frame CodeFrame) *Graph {
	return &Graph{
		Entry: entry,
		facts: make(map[int]map[int]*Facts),
		Frame: frame,
		Model: model,
		arena: arena.New(0),
	}
}

// GetFacts returns the facts for register (orig, i), creating a
// zero-value entry on first access. Analysis-supplied graphs always
// populate this ahead of time; the lazy creation only matters for
// hand-built test fixtures that don't bother pre-seeding every slot.
func (g *Graph) GetFacts(orig, i int) *Facts {
	row, ok := g.facts[orig]
	if !ok {
		row = make(map[int]*Facts)
		g.facts[orig] = row
	}
	f, ok := row[i]
	if !ok {
		f = &Facts{}
		row[i] = f
	}
	return f
}

// factsFor is the register-operand convenience used throughout the
// optimizer: it looks up the fact entry that an operand's (Orig, I)
// pair addresses.
func (g *Graph) factsFor(o Operand) *Facts {
	return g.GetFacts(o.Orig, o.I)
}

// GetString resolves a literal string-index operand via the owning
// code frame (spec §3's "reference to the containing code frame for
// string-constant lookup").
func (g *Graph) GetString(o Operand) string {
	if g.Frame == nil {
		return ""
	}
	return g.Frame.GetString(o.LitStrIdx)
}

// AddSpeshSlot appends c to the slot table, growing the backing array
// in fixed steps of 8 slots, and returns the pre-increment index. The
// returned index is stable for the rest of the pass; growth never
// invalidates an existing index (spec §4.1).
func (g *Graph) AddSpeshSlot(c SlotValue) int {
	if len(g.SpeshSlots) >= g.allocSpeshSlots {
		g.allocSpeshSlots += slotStep
		grown := make([]SlotValue, len(g.SpeshSlots), g.allocSpeshSlots)
		copy(grown, g.SpeshSlots)
		g.SpeshSlots = grown
	}
	idx := len(g.SpeshSlots)
	g.SpeshSlots = append(g.SpeshSlots, c)
	return idx
}

// Arena exposes the graph's bump allocator for callers that need to
// build new operand storage during a rewrite.
func (g *Graph) Arena() *arena.Arena {
	return g.arena
}

// newOperands builds the replacement operand array for an instruction
// being rewritten in place, allocating the backing storage from the
// graph's arena rather than a bare slice literal (spec §5: "all new
// operand arrays are allocated from the graph's bump arena").
func (g *Graph) newOperands(ops ...Operand) []Operand {
	out := arena.AllocSlice[Operand](g.arena, len(ops))
	copy(out, ops)
	return out
}
