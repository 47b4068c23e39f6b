// Package atlas packs many variably sized 2D images into a small number of
// fixed-size square texture layers, so a renderer can batch-draw many
// resources from few GPU texture bindings.
//
// # Overview
//
// The core is a per-layer best-area-fit guillotine packer ([Allocator]), a
// layer wrapper tracking occupancy and drain state ([Atlas]), and a
// collection that assigns placements to layers and recycles fragmented ones
// ([AtlasSet]). Callers identify resources by opaque [ID] values they supply
// themselves and read placements back as [Allocation] records.
//
// # Quick Start
//
//	set, err := atlas.NewAtlasSet(atlas.DefaultConfig())
//	if err != nil {
//	    // invalid config
//	}
//
//	layer, alloc, err := set.Allocate(64, 64)
//	if err != nil {
//	    // too large, or all layers full
//	}
//	_ = set.Insert(42, layer, alloc)
//
//	// Every frame: read placements, then run migration between frames.
//	if layer, alloc, ok := set.Get(42); ok {
//	    u0, v0, u1, v1 := alloc.UV()
//	    _ = layer
//	    _, _, _, _ = u0, v0, u1, v1
//	}
//	set.Migrate()
//
// # Fragmentation and migration
//
// Deallocate never merges adjacent free rectangles, keeping releases O(1).
// Instead, a layer whose deallocation churn exceeds its live occupancy by
// Config.MigrationRatio is drained: it stops admitting new placements while
// Migrate incrementally relocates its contents into other layers, at most
// Config.MigrationBudget moves per pass. Once empty, the layer is reset to a
// single full-extent free rectangle and returns to service.
//
// # Concurrency
//
// An AtlasSet has no internal locking. Calls must be serialized by a single
// owner; the intended discipline is one renderer that runs Migrate between
// frames, never interleaved with rendering reads.
//
// # Subpackages
//
//   - texture: decodes image files and places them into a set
//   - glyph: rasterizes font glyphs into a set
//   - gpu: texture-array backing and bind-group-layout cache over gogpu/wgpu
package atlas
