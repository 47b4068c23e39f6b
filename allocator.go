package atlas

// freeRect is a rectangle of unoccupied space inside an Allocator.
// The free list is kept pairwise non-overlapping: together with the live
// allocations it always tiles the full extent square exactly.
type freeRect struct {
	x, y          uint32
	width, height uint32
}

func (r freeRect) area() uint64 {
	return uint64(r.width) * uint64(r.height)
}

// Allocator packs rectangles into a fixed square extent using a
// best-area-fit guillotine algorithm.
//
// Each successful Allocate consumes one free rectangle and splits the
// remainder into at most two new free rectangles along a single axis
// (the guillotine rule). Deallocate returns the region to the free list
// as-is, without merging it with neighbors: coalescing every release would
// cost a neighbor scan per call, so fragmentation is instead resolved in
// bulk by the owning AtlasSet draining and clearing the whole layer. The
// deallocation counter feeds that policy.
//
// Allocator is not safe for concurrent use; the owning AtlasSet is
// externally serialized (one owner per frame).
type Allocator struct {
	extent        uint32
	free          []freeRect
	deallocations int
	usedArea      uint64
}

// NewAllocator creates an allocator over an extent x extent square with a
// single free rectangle covering the whole area.
func NewAllocator(extent uint32) *Allocator {
	return &Allocator{
		extent: extent,
		free: []freeRect{
			{x: 0, y: 0, width: extent, height: extent},
		},
	}
}

// Extent returns the square dimension the allocator packs into.
func (a *Allocator) Extent() uint32 {
	return a.extent
}

// Allocate finds space for a width x height rectangle.
// Returns false if either dimension is zero, exceeds the extent, or no
// free rectangle is large enough.
//
// Among all free rectangles that fit, the one with the smallest leftover
// area is chosen; ties break on smaller total area, then on lowest (y, x),
// so allocation order is fully deterministic.
func (a *Allocator) Allocate(width, height uint32) (Allocation, bool) {
	if width == 0 || height == 0 || width > a.extent || height > a.extent {
		return Allocation{}, false
	}

	need := uint64(width) * uint64(height)
	best := -1
	var bestLeftover, bestArea uint64

	for i, r := range a.free {
		if r.width < width || r.height < height {
			continue
		}
		area := r.area()
		leftover := area - need
		if best >= 0 {
			if leftover > bestLeftover {
				continue
			}
			if leftover == bestLeftover {
				if area > bestArea {
					continue
				}
				if area == bestArea && !lowerOrigin(r, a.free[best]) {
					continue
				}
			}
		}
		best = i
		bestLeftover = leftover
		bestArea = area
	}

	if best < 0 {
		return Allocation{}, false
	}

	chosen := a.free[best]

	// Swap-remove the consumed rectangle; order of the free list carries
	// no meaning, the fit scan is exhaustive.
	a.free[best] = a.free[len(a.free)-1]
	a.free = a.free[:len(a.free)-1]

	a.split(chosen, width, height)
	a.usedArea += need

	return Allocation{
		LayerExtent: a.extent,
		X:           chosen.x,
		Y:           chosen.y,
		Width:       width,
		Height:      height,
	}, true
}

// split applies the guillotine rule to the remainder of a consumed free
// rectangle after placing a width x height region at its origin.
//
// Two cuts are possible: a horizontal cut at the placed height (short right
// strip, full-width bottom strip) or a vertical cut at the placed width
// (full-height right strip, short bottom strip). The cut producing the more
// balanced remainder, the one minimizing the larger strip's area, is taken;
// on a tie the horizontal cut wins. Zero-area strips are discarded.
func (a *Allocator) split(r freeRect, width, height uint32) {
	rightW := r.width - width
	bottomH := r.height - height

	// Horizontal cut: right strip spans only the placed height.
	hRight := freeRect{x: r.x + width, y: r.y, width: rightW, height: height}
	hBottom := freeRect{x: r.x, y: r.y + height, width: r.width, height: bottomH}

	// Vertical cut: right strip spans the full free height.
	vRight := freeRect{x: r.x + width, y: r.y, width: rightW, height: r.height}
	vBottom := freeRect{x: r.x, y: r.y + height, width: width, height: bottomH}

	hWorst := max(hRight.area(), hBottom.area())
	vWorst := max(vRight.area(), vBottom.area())

	var first, second freeRect
	if hWorst <= vWorst {
		first, second = hRight, hBottom
	} else {
		first, second = vRight, vBottom
	}
	if first.area() > 0 {
		a.free = append(a.free, first)
	}
	if second.area() > 0 {
		a.free = append(a.free, second)
	}
}

// Deallocate returns an allocated region to the free list.
//
// The region is pushed back as a single free rectangle with no
// adjacent-rectangle coalescing; the space is immediately reusable for
// requests no larger than the released region, while fragmentation is left
// for the migration policy to resolve in bulk.
func (a *Allocator) Deallocate(alloc Allocation) {
	a.free = append(a.free, freeRect{
		x:      alloc.X,
		y:      alloc.Y,
		width:  alloc.Width,
		height: alloc.Height,
	})
	a.deallocations++
	a.usedArea -= alloc.Area()
}

// Clear resets the allocator to a single full-extent free rectangle and
// resets the deallocation counter. This is the only reset point for the
// counter; it is used after migration empties a layer.
func (a *Allocator) Clear() {
	a.free = a.free[:0]
	a.free = append(a.free, freeRect{x: 0, y: 0, width: a.extent, height: a.extent})
	a.deallocations = 0
	a.usedArea = 0
}

// Deallocations returns how many regions have been released since creation
// or the last Clear. The owning policy compares it against live occupancy
// to decide when a layer is fragmented enough to drain.
func (a *Allocator) Deallocations() int {
	return a.deallocations
}

// UsedArea returns the total area of live allocations in pixels.
func (a *Allocator) UsedArea() uint64 {
	return a.usedArea
}

// Utilization returns the fraction of the extent square occupied by live
// allocations (0.0 to 1.0).
func (a *Allocator) Utilization() float64 {
	total := uint64(a.extent) * uint64(a.extent)
	if total == 0 {
		return 0
	}
	return float64(a.usedArea) / float64(total)
}

// FreeRectCount returns the number of rectangles on the free list.
// Grows with fragmentation, shrinks only via Allocate consuming entries
// or Clear.
func (a *Allocator) FreeRectCount() int {
	return len(a.free)
}

// CanFit reports whether a width x height request could currently succeed.
// This is a read-only check with the same fit rule as Allocate.
func (a *Allocator) CanFit(width, height uint32) bool {
	if width == 0 || height == 0 || width > a.extent || height > a.extent {
		return false
	}
	for _, r := range a.free {
		if r.width >= width && r.height >= height {
			return true
		}
	}
	return false
}

// lowerOrigin reports whether a's origin precedes b's in (y, x) order.
func lowerOrigin(a, b freeRect) bool {
	if a.y != b.y {
		return a.y < b.y
	}
	return a.x < b.x
}
