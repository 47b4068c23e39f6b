package atlas

// MigrationStats summarizes one Migrate pass.
type MigrationStats struct {
	// Marked is the number of layers newly switched to LayerDraining.
	Marked int

	// Moved is the number of placements relocated to another layer.
	Moved int

	// Cleared is the number of drained layers wiped and returned to
	// LayerActive.
	Cleared int

	// Stuck is the number of placements that found no space elsewhere and
	// remain in a draining layer until a later pass.
	Stuck int
}

// Migrate runs one incremental migration pass.
//
// First, every active layer whose deallocation count exceeds
// live*MigrationRatio is marked draining; the last remaining active layer is
// never marked, so the set always admits new work. Then placements are
// relocated out of draining layers, oldest first, up to MigrationBudget
// moves in total: each is re-allocated at the same size in another layer
// (growing the set if needed) and its mapping updated. The draining layer's
// own allocator is left untouched, since the layer is wiped wholesale the
// moment its last placement leaves, which also returns it to LayerActive.
//
// A placement that finds no space stays where it is; its old mapping remains
// valid and it is retried on a later pass. Migrate must not run concurrently
// with rendering reads: run it between frames.
func (s *AtlasSet) Migrate() MigrationStats {
	var stats MigrationStats

	s.markFragmented(&stats)

	budget := s.config.MigrationBudget
	for _, layer := range s.layers {
		if layer.State() != LayerDraining {
			continue
		}

		for _, id := range layer.ids() {
			if budget == 0 {
				break
			}
			p := s.placements[id]

			newLayer, newAlloc, err := s.Allocate(p.alloc.Width, p.alloc.Height)
			if err != nil {
				// No room anywhere this frame; the placement stays put
				// and keeps reporting its old location.
				stats.Stuck++
				continue
			}

			layer.removeIndex(id)
			s.layers[newLayer].insertIndex(id)
			s.placements[id] = placement{layer: newLayer, alloc: newAlloc}
			stats.Moved++
			budget--
		}

		if layer.Len() == 0 {
			layer.clear()
			stats.Cleared++
		}
	}

	if stats != (MigrationStats{}) {
		slogger().Debug("atlas: migration pass",
			"label", s.config.Label,
			"marked", stats.Marked,
			"moved", stats.Moved,
			"cleared", stats.Cleared,
			"stuck", stats.Stuck)
	}
	return stats
}

// markFragmented switches fragmented active layers to LayerDraining.
// At least one active layer is always left unmarked.
func (s *AtlasSet) markFragmented(stats *MigrationStats) {
	active := 0
	for _, layer := range s.layers {
		if layer.State() == LayerActive {
			active++
		}
	}

	for _, layer := range s.layers {
		if active <= 1 {
			return
		}
		if layer.State() != LayerActive {
			continue
		}
		if float64(layer.Deallocations()) > float64(layer.Len())*s.config.MigrationRatio {
			layer.startMigration()
			active--
			stats.Marked++
		}
	}
}
