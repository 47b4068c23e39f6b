package atlas

import "errors"

// Packing errors. All failures are synchronous return values; a failed
// allocation leaves every existing placement valid.
var (
	// ErrAllocationFailed is returned when the requested size exceeds the
	// layer extent: not even a fresh layer could fit it. The caller must
	// fall back to a dedicated texture rather than retry.
	ErrAllocationFailed = errors.New("atlas: requested size cannot fit a layer")

	// ErrCapacityExceeded is returned when every admissible layer is full
	// and the layer limit has been reached. Fatal for the request only;
	// other placements remain valid.
	ErrCapacityExceeded = errors.New("atlas: layer limit reached")

	// ErrNotFound is returned when an identifier has no current placement.
	ErrNotFound = errors.New("atlas: no placement for identifier")

	// ErrDuplicateID is returned when inserting an identifier that already
	// has a live placement. Remove it first to reuse the identifier.
	ErrDuplicateID = errors.New("atlas: identifier already placed")
)
