package atlas

import "fmt"

// Allocation describes a placed rectangle inside one atlas layer.
//
// An Allocation is immutable once returned by an Allocator. It records both
// the occupied region and the extent of the layer it was carved from, so a
// renderer can derive normalized texture coordinates without a second lookup.
// Callers must pass the Allocation back unchanged to Deallocate; the
// Allocator trusts it to describe exactly the region it handed out.
type Allocation struct {
	// LayerExtent is the width and height of the square layer this
	// allocation belongs to.
	LayerExtent uint32

	// X is the left edge of the allocated region.
	X uint32
	// Y is the top edge of the allocated region.
	Y uint32
	// Width is the region width.
	Width uint32
	// Height is the region height.
	Height uint32
}

// IsValid returns true if the allocation has non-zero dimensions.
func (a Allocation) IsValid() bool {
	return a.Width > 0 && a.Height > 0
}

// Contains returns true if the point (x, y) is inside the allocated region.
func (a Allocation) Contains(x, y uint32) bool {
	return x >= a.X && x < a.X+a.Width && y >= a.Y && y < a.Y+a.Height
}

// Rect returns the region as an (x, y, width, height) tuple.
func (a Allocation) Rect() (x, y, width, height uint32) {
	return a.X, a.Y, a.Width, a.Height
}

// Area returns the region area in pixels.
func (a Allocation) Area() uint64 {
	return uint64(a.Width) * uint64(a.Height)
}

// UV returns the normalized [0, 1] texture coordinates of the region within
// its layer: left, top, right, bottom.
func (a Allocation) UV() (u0, v0, u1, v1 float32) {
	if a.LayerExtent == 0 {
		return 0, 0, 0, 0
	}
	e := float32(a.LayerExtent)
	return float32(a.X) / e,
		float32(a.Y) / e,
		float32(a.X+a.Width) / e,
		float32(a.Y+a.Height) / e
}

// String returns a string representation of the allocation.
func (a Allocation) String() string {
	return fmt.Sprintf("Allocation(%d,%d %dx%d in %d)", a.X, a.Y, a.Width, a.Height, a.LayerExtent)
}
