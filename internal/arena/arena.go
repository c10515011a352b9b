// Package arena implements the bump allocator a Spesh graph uses for
// the lifetime of a single optimization pass. It stands in for
// MoarVM's MVM_spesh_alloc: memory handed out by AllocSlice lives as
// long as the Arena does and is never freed individually (spec §3,
// §5).
//
// In Go there is no manual free to model, so Arena's only real job is
// to give the optimizer a single, named allocation point for the new
// operand arrays a rewrite builds — consistent with the teacher's
// habit of routing scratch allocation through one small utility
// rather than calling make ad hoc throughout the rewriters — and to
// panic predictably on exhaustion the one place spec §7 calls out as
// fatal and unrecoverable.
package arena

// Arena is a bump allocator bounded by an optional element-count
// limit. A zero Limit means unbounded, matching Go's own heap.
type Arena struct {
	Limit     int64
	allocated int64
}

// New creates an Arena with the given element-count limit (0 for
// unbounded).
func New(limit int64) *Arena {
	return &Arena{Limit: limit}
}

// AllocSlice reserves a slice of n elements from the arena. It panics
// if the arena's limit would be exceeded: allocator exhaustion is
// fatal and has no local recovery (spec §7).
func AllocSlice[T any](a *Arena, n int) []T {
	if n < 0 {
		panic("arena: negative allocation size")
	}
	if a.Limit > 0 && a.allocated+int64(n) > a.Limit {
		panic("arena: allocation exceeds arena limit")
	}
	a.allocated += int64(n)
	return make([]T, n)
}

// Allocated reports the number of elements handed out so far.
func (a *Arena) Allocated() int64 {
	return a.allocated
}
