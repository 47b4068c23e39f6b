package atlas

import "fmt"

// LayerState is the admission state of a single atlas layer.
//
// The "no new allocations while draining" rule is modeled as an explicit
// state switched on exhaustively, rather than a boolean checked ad hoc.
type LayerState uint8

const (
	// LayerActive accepts new allocations.
	LayerActive LayerState = iota

	// LayerDraining accepts no new allocations. Existing placements remain
	// valid until the migration pass relocates them; once the layer is
	// empty it is cleared and returns to LayerActive.
	LayerDraining
)

// String returns a human-readable name for the state.
func (s LayerState) String() string {
	switch s {
	case LayerActive:
		return "Active"
	case LayerDraining:
		return "Draining"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(s))
	}
}

// Atlas is one texture layer: a space allocator plus the set of logical
// identifiers currently placed in it and the layer's admission state.
//
// The identifier set preserves insertion order so the migration pass drains
// placements in the order they arrived. Membership and order are kept in
// lockstep with the allocator by the owning AtlasSet.
type Atlas struct {
	allocator *Allocator

	// allocated lists live identifiers in insertion order; positions maps
	// each identifier to its slot in allocated for O(1) swap-removal.
	allocated []ID
	positions map[ID]int

	state LayerState
}

// newAtlas creates an empty active layer over an extent x extent square.
func newAtlas(extent uint32) *Atlas {
	return &Atlas{
		allocator: NewAllocator(extent),
		positions: make(map[ID]int),
		state:     LayerActive,
	}
}

// Allocate requests space from the layer. A draining layer refuses
// immediately without consulting the allocator.
func (a *Atlas) Allocate(width, height uint32) (Allocation, bool) {
	switch a.state {
	case LayerDraining:
		return Allocation{}, false
	default:
		return a.allocator.Allocate(width, height)
	}
}

// insertIndex records an identifier as placed in this layer.
func (a *Atlas) insertIndex(id ID) {
	if _, ok := a.positions[id]; ok {
		return
	}
	a.positions[id] = len(a.allocated)
	a.allocated = append(a.allocated, id)
}

// removeIndex removes an identifier from the layer's set without touching
// the allocator. Used during migration, where the whole layer is wiped once
// empty. Swap-removal keeps the operation O(1) at the cost of reordering
// the tail entry.
func (a *Atlas) removeIndex(id ID) {
	pos, ok := a.positions[id]
	if !ok {
		return
	}
	last := len(a.allocated) - 1
	moved := a.allocated[last]
	a.allocated[pos] = moved
	a.allocated = a.allocated[:last]
	delete(a.positions, id)
	if pos != last {
		a.positions[moved] = pos
	}
}

// deallocate removes an identifier and returns its region to the allocator.
func (a *Atlas) deallocate(id ID, alloc Allocation) {
	a.removeIndex(id)
	a.allocator.Deallocate(alloc)
}

// clear resets the layer to a pristine active state: full free extent,
// empty identifier set, deallocation counter at zero.
func (a *Atlas) clear() {
	a.allocator.Clear()
	a.allocated = a.allocated[:0]
	clear(a.positions)
	a.state = LayerActive
}

// startMigration marks the layer as draining. It only blocks new
// admissions; relocation of existing placements is driven by the AtlasSet.
func (a *Atlas) startMigration() {
	a.state = LayerDraining
}

// ids returns a snapshot of the live identifiers in insertion order.
// The migration pass mutates the set while iterating, so it works on a copy.
func (a *Atlas) ids() []ID {
	out := make([]ID, len(a.allocated))
	copy(out, a.allocated)
	return out
}

// Deallocations proxies the allocator's release counter.
func (a *Atlas) Deallocations() int {
	return a.allocator.Deallocations()
}

// Len returns the number of live placements in the layer.
func (a *Atlas) Len() int {
	return len(a.allocated)
}

// State returns the layer's admission state.
func (a *Atlas) State() LayerState {
	return a.state
}

// Utilization returns the fraction of the layer occupied by live
// allocations (0.0 to 1.0).
func (a *Atlas) Utilization() float64 {
	return a.allocator.Utilization()
}
