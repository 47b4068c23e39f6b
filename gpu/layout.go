package gpu

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// LayoutCache errors.
var (
	ErrEmptyBindings = errors.New("gpu: empty binding list")
	ErrNotAcquired   = errors.New("gpu: layout was not acquired")
)

// BindingKind selects what a binding slot holds.
type BindingKind uint8

const (
	BindingUniformBuffer BindingKind = iota + 1
	BindingStorageBuffer
	BindingReadOnlyStorageBuffer
	BindingTexture2D
	BindingTexture2DArray
	BindingSampler
)

// Binding describes one slot of a bind group layout.
type Binding struct {
	Slot       uint32
	Visibility gputypes.ShaderStage
	Kind       BindingKind
}

type layoutEntry struct {
	layout hal.BindGroupLayout
	refs   int
}

// LayoutCache deduplicates bind group layouts by binding shape. Two
// pipelines asking for the same slots get the same layout object, and the
// layout is destroyed when the last holder releases it.
//
// Safe for concurrent use.
type LayoutCache struct {
	device hal.Device

	mu      sync.Mutex
	entries map[string]*layoutEntry

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewLayoutCache creates a cache over a device.
func NewLayoutCache(device hal.Device) (*LayoutCache, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	return &LayoutCache{
		device:  device,
		entries: make(map[string]*layoutEntry),
	}, nil
}

// Acquire returns the layout for a binding shape, creating it on first
// use. Every Acquire must be paired with a Release of the same bindings.
// The label is used only when the layout is created.
func (c *LayoutCache) Acquire(label string, bindings []Binding) (hal.BindGroupLayout, error) {
	if len(bindings) == 0 {
		return nil, ErrEmptyBindings
	}
	key := layoutKey(bindings)

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.refs++
		c.hits.Add(1)
		return e.layout, nil
	}
	c.misses.Add(1)

	layout, err := c.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   label,
		Entries: layoutEntries(bindings),
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create bind group layout: %w", err)
	}
	c.entries[key] = &layoutEntry{layout: layout, refs: 1}
	return layout, nil
}

// Release drops one reference to the layout for a binding shape and
// destroys it when no holders remain.
func (c *LayoutCache) Release(bindings []Binding) error {
	key := layoutKey(bindings)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return ErrNotAcquired
	}
	e.refs--
	if e.refs == 0 {
		c.device.DestroyBindGroupLayout(e.layout)
		delete(c.entries, key)
	}
	return nil
}

// Len returns the number of live layouts.
func (c *LayoutCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns cumulative hit and miss counts.
func (c *LayoutCache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

// Destroy releases every cached layout regardless of reference counts.
func (c *LayoutCache) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.entries {
		c.device.DestroyBindGroupLayout(e.layout)
		delete(c.entries, key)
	}
}

// AtlasBindings is the binding shape pipelines sampling an atlas array use:
// a uniform buffer, the atlas array texture, and a filtering sampler. The
// texture slot is 2D-array to match the view ArrayTexture creates.
func AtlasBindings(visibility gputypes.ShaderStage) []Binding {
	return []Binding{
		{Slot: 0, Visibility: visibility, Kind: BindingUniformBuffer},
		{Slot: 1, Visibility: gputypes.ShaderStageFragment, Kind: BindingTexture2DArray},
		{Slot: 2, Visibility: gputypes.ShaderStageFragment, Kind: BindingSampler},
	}
}

// layoutKey encodes a binding list into a comparable map key. The label is
// deliberately excluded so differently named but identically shaped layouts
// share one object.
func layoutKey(bindings []Binding) string {
	var b strings.Builder
	for _, e := range bindings {
		b.WriteString(strconv.FormatUint(uint64(e.Slot), 10))
		b.WriteByte(':')
		b.WriteString(strconv.FormatUint(uint64(e.Visibility), 10))
		b.WriteByte(':')
		b.WriteString(strconv.FormatUint(uint64(e.Kind), 10))
		b.WriteByte(';')
	}
	return b.String()
}

func layoutEntries(bindings []Binding) []gputypes.BindGroupLayoutEntry {
	entries := make([]gputypes.BindGroupLayoutEntry, 0, len(bindings))
	for _, b := range bindings {
		entry := gputypes.BindGroupLayoutEntry{
			Binding:    b.Slot,
			Visibility: b.Visibility,
		}
		switch b.Kind {
		case BindingUniformBuffer:
			entry.Buffer = &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}
		case BindingStorageBuffer:
			entry.Buffer = &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}
		case BindingReadOnlyStorageBuffer:
			entry.Buffer = &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}
		case BindingTexture2D:
			entry.Texture = &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeFloat,
				ViewDimension: gputypes.TextureViewDimension2D,
			}
		case BindingTexture2DArray:
			entry.Texture = &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeFloat,
				ViewDimension: gputypes.TextureViewDimension2DArray,
			}
		case BindingSampler:
			entry.Sampler = &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering}
		}
		entries = append(entries, entry)
	}
	return entries
}
