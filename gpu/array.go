// Package gpu backs an atlas set with GPU resources.
//
// ArrayTexture keeps one RGBA8 2D array texture whose layers mirror the
// set's layers and uploads pixel data into allocated regions. LayoutCache
// deduplicates bind group layouts so pipelines sampling the atlas share
// one layout object per binding shape.
package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/atlas"
)

// ArrayTexture errors.
var (
	ErrNilDevice       = errors.New("gpu: nil device")
	ErrLayerOutOfRange = errors.New("gpu: layer out of range")
	ErrSizeMismatch    = errors.New("gpu: pixel data does not match region")
	ErrExtentMismatch  = errors.New("gpu: allocation extent does not match texture")
)

// ArrayTexture is a 2D array texture sized to an atlas set: every array
// layer holds one atlas layer of extent x extent RGBA8 texels.
//
// Growing the layer count recreates the texture, which discards its
// contents, so the owner re-uploads every live placement after Ensure
// reports growth. The glyph source keeps its rasterized masks for exactly
// this; the texture loader retains no pixels, and its caller re-uploads
// from the original images.
type ArrayTexture struct {
	device hal.Device
	queue  hal.Queue
	extent uint32
	layers uint32
	label  string

	tex  hal.Texture
	view hal.TextureView
}

// NewArrayTexture creates the backing store with no layers yet. The first
// Ensure call creates the texture.
func NewArrayTexture(device hal.Device, queue hal.Queue, extent uint32, label string) (*ArrayTexture, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	if extent == 0 {
		return nil, fmt.Errorf("gpu: zero extent")
	}
	return &ArrayTexture{
		device: device,
		queue:  queue,
		extent: extent,
		label:  label,
	}, nil
}

// Extent returns the side length of each layer in texels.
func (t *ArrayTexture) Extent() uint32 { return t.extent }

// Layers returns the current array layer count.
func (t *ArrayTexture) Layers() uint32 { return t.layers }

// View returns the array view over all layers, or nil before the first
// Ensure.
func (t *ArrayTexture) View() hal.TextureView { return t.view }

// Ensure grows the texture to hold at least layers array layers. It
// returns true when the texture was recreated, in which case previous
// contents are gone and callers must re-upload.
func (t *ArrayTexture) Ensure(layers int) (bool, error) {
	if layers <= 0 {
		return false, fmt.Errorf("%w: %d", ErrLayerOutOfRange, layers)
	}
	want := uint32(layers)
	if want <= t.layers {
		return false, nil
	}

	tex, err := t.device.CreateTexture(t.textureDescriptor(want))
	if err != nil {
		return false, fmt.Errorf("gpu: create array texture: %w", err)
	}
	view, err := t.device.CreateTextureView(tex, t.viewDescriptor())
	if err != nil {
		t.device.DestroyTexture(tex)
		return false, fmt.Errorf("gpu: create array texture view: %w", err)
	}

	t.release()
	t.tex = tex
	t.view = view
	t.layers = want
	return true, nil
}

// Upload writes tightly packed RGBA pixels into an allocated region of one
// layer. The signature matches texture.Uploader.
func (t *ArrayTexture) Upload(layer int, alloc atlas.Allocation, rgba []byte) error {
	if layer < 0 || uint32(layer) >= t.layers {
		return fmt.Errorf("%w: %d of %d", ErrLayerOutOfRange, layer, t.layers)
	}
	if alloc.LayerExtent != t.extent {
		return fmt.Errorf("%w: %d vs %d", ErrExtentMismatch, alloc.LayerExtent, t.extent)
	}
	if want := int(alloc.Width) * int(alloc.Height) * 4; len(rgba) != want {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrSizeMismatch, len(rgba), want)
	}

	t.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  t.tex,
			MipLevel: 0,
			Origin:   hal.Origin3D{X: alloc.X, Y: alloc.Y, Z: uint32(layer)},
			Aspect:   gputypes.TextureAspectAll,
		},
		rgba,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  alloc.Width * 4,
			RowsPerImage: alloc.Height,
		},
		&hal.Extent3D{
			Width:              alloc.Width,
			Height:             alloc.Height,
			DepthOrArrayLayers: 1,
		},
	)
	return nil
}

// Destroy releases the texture and view.
func (t *ArrayTexture) Destroy() {
	t.release()
	t.layers = 0
}

func (t *ArrayTexture) textureDescriptor(layers uint32) *hal.TextureDescriptor {
	return &hal.TextureDescriptor{
		Label: t.label,
		Size: hal.Extent3D{
			Width:              t.extent,
			Height:             t.extent,
			DepthOrArrayLayers: layers,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	}
}

// viewDescriptor pins the view to 2D-array explicitly. Left undefined, the
// backend would derive a plain 2D view from the texture dimension even when
// the view spans several array layers, and such a view fails validation.
func (t *ArrayTexture) viewDescriptor() *hal.TextureViewDescriptor {
	return &hal.TextureViewDescriptor{
		Label:     t.label + "_view",
		Dimension: gputypes.TextureViewDimension2DArray,
	}
}

func (t *ArrayTexture) release() {
	if t.view != nil {
		t.device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.tex != nil {
		t.device.DestroyTexture(t.tex)
		t.tex = nil
	}
}
