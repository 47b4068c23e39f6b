package atlas

import "testing"

func TestLayerStateString(t *testing.T) {
	if LayerActive.String() != "Active" {
		t.Errorf("LayerActive.String() = %q", LayerActive.String())
	}
	if LayerDraining.String() != "Draining" {
		t.Errorf("LayerDraining.String() = %q", LayerDraining.String())
	}
	if LayerState(9).String() != "Unknown(9)" {
		t.Errorf("LayerState(9).String() = %q", LayerState(9).String())
	}
}

func TestAtlasAllocateWhileDraining(t *testing.T) {
	a := newAtlas(256)

	if _, ok := a.Allocate(10, 10); !ok {
		t.Fatal("active layer refused allocation")
	}

	a.startMigration()
	if a.State() != LayerDraining {
		t.Fatalf("expected Draining, got %v", a.State())
	}

	// A draining layer refuses without touching the allocator.
	before := a.allocator.FreeRectCount()
	if _, ok := a.Allocate(10, 10); ok {
		t.Error("draining layer accepted an allocation")
	}
	if a.allocator.FreeRectCount() != before {
		t.Error("refused allocation mutated the allocator")
	}
}

func TestAtlasIndexSetOrder(t *testing.T) {
	a := newAtlas(256)

	for _, id := range []ID{5, 9, 2, 7} {
		a.insertIndex(id)
	}
	if a.Len() != 4 {
		t.Fatalf("expected 4 ids, got %d", a.Len())
	}

	got := a.ids()
	want := []ID{5, 9, 2, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("insertion order not preserved: got %v, want %v", got, want)
		}
	}

	// Duplicate insert is a no-op.
	a.insertIndex(9)
	if a.Len() != 4 {
		t.Errorf("duplicate insert changed length to %d", a.Len())
	}

	// Swap-removal of a middle element keeps the set consistent.
	a.removeIndex(9)
	if a.Len() != 3 {
		t.Fatalf("expected 3 ids after removal, got %d", a.Len())
	}
	for _, id := range a.ids() {
		if id == 9 {
			t.Error("removed id still present")
		}
		if pos, ok := a.positions[id]; !ok || a.allocated[pos] != id {
			t.Errorf("position index inconsistent for id %d", id)
		}
	}

	// Removing an absent id is a no-op.
	a.removeIndex(100)
	if a.Len() != 3 {
		t.Errorf("removing absent id changed length to %d", a.Len())
	}
}

func TestAtlasDeallocateReturnsSpace(t *testing.T) {
	a := newAtlas(256)

	alloc, ok := a.Allocate(64, 64)
	if !ok {
		t.Fatal("failed to allocate")
	}
	a.insertIndex(1)

	a.deallocate(1, alloc)
	if a.Len() != 0 {
		t.Errorf("expected empty set, got %d", a.Len())
	}
	if a.Deallocations() != 1 {
		t.Errorf("expected 1 deallocation, got %d", a.Deallocations())
	}
	if a.Utilization() != 0 {
		t.Errorf("expected 0 utilization, got %f", a.Utilization())
	}
}

func TestAtlasClearResetsEverything(t *testing.T) {
	a := newAtlas(256)

	alloc, _ := a.Allocate(64, 64)
	a.insertIndex(1)
	a.deallocate(1, alloc)
	a.insertIndex(2)
	a.startMigration()

	a.clear()

	if a.State() != LayerActive {
		t.Errorf("expected Active after clear, got %v", a.State())
	}
	if a.Len() != 0 {
		t.Errorf("expected empty set after clear, got %d", a.Len())
	}
	if a.Deallocations() != 0 {
		t.Errorf("expected 0 deallocations after clear, got %d", a.Deallocations())
	}
	if _, ok := a.Allocate(256, 256); !ok {
		t.Error("full-extent allocation failed after clear")
	}
}
