package atlas

import "fmt"

// ID is a caller-supplied logical identifier for one placed resource.
//
// The set treats it purely as a lookup key: it never generates identifiers,
// never interprets them, and requires explicit removal before an identifier
// can be reused.
type ID uint32

// placement locates one live identifier: which layer holds it and where.
type placement struct {
	layer int
	alloc Allocation
}

// AtlasSet owns an ordered collection of equally sized atlas layers and the
// mapping from logical identifiers to their placements.
//
// New placements go to the first active layer that fits them (first-fit
// across layers; placement within a layer is already best-area-fit). When
// no layer fits, a new one is appended up to Config.MaxLayers. Fragmented
// layers are drained and recycled by Migrate.
//
// An AtlasSet has no internal locking: calls must be externally serialized
// by a single owner, typically one renderer running Migrate between frames.
type AtlasSet struct {
	config     Config
	layers     []*Atlas
	placements map[ID]placement
}

// NewAtlasSet creates an atlas set with the given configuration.
// The set starts with zero layers; the first Allocate creates one.
func NewAtlasSet(config Config) (*AtlasSet, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &AtlasSet{
		config:     config,
		layers:     make([]*Atlas, 0, config.MaxLayers),
		placements: make(map[ID]placement),
	}, nil
}

// Allocate finds space for a width x height resource and returns the index
// of the layer that accepted it together with the placement.
//
// Draining layers are skipped. If no existing layer fits, a new layer is
// appended; ErrCapacityExceeded is returned once MaxLayers is reached, and
// ErrAllocationFailed if the request could not fit even a fresh layer.
// The placement is not recorded until Insert is called with it.
func (s *AtlasSet) Allocate(width, height uint32) (int, Allocation, error) {
	if width == 0 || height == 0 || width > s.config.Extent || height > s.config.Extent {
		return 0, Allocation{}, fmt.Errorf("%w: %dx%d exceeds extent %d",
			ErrAllocationFailed, width, height, s.config.Extent)
	}

	for i, layer := range s.layers {
		if alloc, ok := layer.Allocate(width, height); ok {
			return i, alloc, nil
		}
	}

	if len(s.layers) >= s.config.MaxLayers {
		return 0, Allocation{}, fmt.Errorf("%w: %d layers, none fits %dx%d",
			ErrCapacityExceeded, len(s.layers), width, height)
	}

	layer := newAtlas(s.config.Extent)
	s.layers = append(s.layers, layer)
	slogger().Debug("atlas: added layer",
		"label", s.config.Label,
		"layers", len(s.layers),
		"extent", s.config.Extent)

	alloc, ok := layer.Allocate(width, height)
	if !ok {
		// Size was validated against the extent above; a fresh layer
		// always fits it.
		return 0, Allocation{}, fmt.Errorf("%w: %dx%d", ErrAllocationFailed, width, height)
	}
	return len(s.layers) - 1, alloc, nil
}

// Insert records the identifier -> placement mapping for an allocation
// previously obtained from Allocate.
//
// Inserting an identifier that already has a live placement fails with
// ErrDuplicateID; the identifier must be removed first.
func (s *AtlasSet) Insert(id ID, layer int, alloc Allocation) error {
	if layer < 0 || layer >= len(s.layers) {
		return fmt.Errorf("%w: layer %d out of range", ErrNotFound, layer)
	}
	if _, ok := s.placements[id]; ok {
		return fmt.Errorf("%w: id %d", ErrDuplicateID, id)
	}
	s.placements[id] = placement{layer: layer, alloc: alloc}
	s.layers[layer].insertIndex(id)
	return nil
}

// Discard returns an allocation obtained from Allocate that was never
// recorded with Insert. Callers that fail between the two steps use it to
// hand the region back; an inserted placement is released with Remove
// instead.
func (s *AtlasSet) Discard(layer int, alloc Allocation) error {
	if layer < 0 || layer >= len(s.layers) {
		return fmt.Errorf("%w: layer %d out of range", ErrNotFound, layer)
	}
	s.layers[layer].allocator.Deallocate(alloc)
	return nil
}

// Remove releases the identifier's placement, returning its region to the
// owning layer's allocator. Returns ErrNotFound for an unknown identifier.
func (s *AtlasSet) Remove(id ID) error {
	p, ok := s.placements[id]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	s.layers[p.layer].deallocate(id, p.alloc)
	delete(s.placements, id)
	return nil
}

// Get returns the identifier's current layer index and placement.
// Pure lookup with no mutation; renderers call it every frame.
func (s *AtlasSet) Get(id ID) (int, Allocation, bool) {
	p, ok := s.placements[id]
	if !ok {
		return 0, Allocation{}, false
	}
	return p.layer, p.alloc, true
}

// Contains returns true if the identifier has a live placement.
func (s *AtlasSet) Contains(id ID) bool {
	_, ok := s.placements[id]
	return ok
}

// Len returns the number of live placements across all layers.
func (s *AtlasSet) Len() int {
	return len(s.placements)
}

// LayerCount returns the number of layers currently in the set.
func (s *AtlasSet) LayerCount() int {
	return len(s.layers)
}

// Extent returns the layer dimension shared by all layers.
func (s *AtlasSet) Extent() uint32 {
	return s.config.Extent
}

// Config returns the set configuration.
func (s *AtlasSet) Config() Config {
	return s.config
}

// LayerInfo contains information about a single layer.
type LayerInfo struct {
	Index         int
	State         LayerState
	Live          int
	Deallocations int
	Utilization   float64
}

// LayerInfos returns information about all layers.
func (s *AtlasSet) LayerInfos() []LayerInfo {
	infos := make([]LayerInfo, len(s.layers))
	for i, layer := range s.layers {
		infos[i] = LayerInfo{
			Index:         i,
			State:         layer.State(),
			Live:          layer.Len(),
			Deallocations: layer.Deallocations(),
			Utilization:   layer.Utilization(),
		}
	}
	return infos
}
