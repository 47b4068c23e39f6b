// Package texture loads images into an atlas set and hands their pixels to
// a GPU uploader.
//
// It is the image-loading collaborator of the packing core: it owns the
// identifier space of the set it feeds, decodes PNG and JPEG files, converts
// whatever it is given to tightly packed RGBA, and returns lightweight
// Texture handles renderers use to compute UV rectangles and pick the
// texture-array layer to sample.
package texture

import (
	"errors"
	"fmt"
	"image"
	"os"

	// Registered decoders for Loader.Open.
	_ "image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/atlas"
)

// Loader errors.
var (
	// ErrNilImage is returned when a nil image is passed to the loader.
	ErrNilImage = errors.New("texture: image is nil")

	// ErrEmptyImage is returned when an image has no pixels.
	ErrEmptyImage = errors.New("texture: image has zero dimensions")

	// ErrNilTexture is returned when a nil texture handle is passed back
	// to the loader.
	ErrNilTexture = errors.New("texture: texture is nil")
)

// Uploader receives the pixel data of a freshly placed texture.
// Implementations copy the tightly packed RGBA bytes into the region the
// allocation describes on the given texture-array layer; gpu.ArrayTexture
// is the standard implementation.
type Uploader interface {
	Upload(layer int, alloc atlas.Allocation, rgba []byte) error
}

// UploadFunc adapts a function to the Uploader interface.
type UploadFunc func(layer int, alloc atlas.Allocation, rgba []byte) error

// Upload calls f.
func (f UploadFunc) Upload(layer int, alloc atlas.Allocation, rgba []byte) error {
	return f(layer, alloc, rgba)
}

// Texture is a handle to one atlased image.
type Texture struct {
	// ID is the logical identifier the loader registered with the set.
	ID atlas.ID

	// Layer is the texture-array layer holding the image at load time.
	// Migration may move the placement later; renderers that outlive a
	// migration pass should re-resolve via Lookup each frame.
	Layer int

	// Allocation is the placement at load time.
	Allocation atlas.Allocation
}

// Size returns the image dimensions in pixels.
func (t *Texture) Size() (width, height uint32) {
	return t.Allocation.Width, t.Allocation.Height
}

// UV returns the normalized texture coordinates of the image within its
// layer: left, top, right, bottom.
func (t *Texture) UV() (u0, v0, u1, v1 float32) {
	return t.Allocation.UV()
}

// Loader places images into an atlas set.
//
// The loader generates the identifiers it inserts, so it must be the sole
// writer of its set's identifier space. Like the set itself it has no
// internal locking and expects a single owner.
type Loader struct {
	set      *atlas.AtlasSet
	uploader Uploader
	nextID   uint32
}

// NewLoader creates a loader over the given set. The uploader receives
// pixel data after each successful placement; it may be nil, in which case
// the loader only tracks placements (useful for tests and measurement).
func NewLoader(set *atlas.AtlasSet, uploader Uploader) *Loader {
	return &Loader{set: set, uploader: uploader}
}

// Open decodes the PNG or JPEG file at path and places it into the set.
func (l *Loader) Open(path string) (*Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("texture: open %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("texture: decode %s: %w", path, err)
	}
	return l.FromImage(img)
}

// FromImage places an already decoded image into the set and uploads its
// pixels. On upload failure the placement is rolled back, leaving the set
// unchanged.
func (l *Loader) FromImage(img image.Image) (*Texture, error) {
	if img == nil {
		return nil, ErrNilImage
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, ErrEmptyImage
	}

	layer, alloc, err := l.set.Allocate(uint32(w), uint32(h))
	if err != nil {
		return nil, err
	}

	id := atlas.ID(l.nextID)
	l.nextID++
	if err := l.set.Insert(id, layer, alloc); err != nil {
		_ = l.set.Discard(layer, alloc)
		return nil, err
	}

	if l.uploader != nil {
		if err := l.uploader.Upload(layer, alloc, rgbaPixels(img)); err != nil {
			_ = l.set.Remove(id)
			return nil, fmt.Errorf("texture: upload: %w", err)
		}
	}

	return &Texture{ID: id, Layer: layer, Allocation: alloc}, nil
}

// Unload releases the texture's placement.
func (l *Loader) Unload(t *Texture) error {
	if t == nil {
		return ErrNilTexture
	}
	return l.set.Remove(t.ID)
}

// Lookup re-resolves the texture's current placement after migration may
// have moved it. Returns false if the texture has been unloaded.
func (l *Loader) Lookup(t *Texture) (layer int, alloc atlas.Allocation, ok bool) {
	if t == nil {
		return 0, atlas.Allocation{}, false
	}
	return l.set.Get(t.ID)
}

// rgbaPixels returns the image's pixels as tightly packed RGBA bytes,
// 4 bytes per pixel, rows in top-to-bottom order.
func rgbaPixels(img image.Image) []byte {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	// Fast path: an origin-anchored RGBA image with no row padding is
	// already in upload layout.
	if rgba, ok := img.(*image.RGBA); ok &&
		rgba.Rect.Min == (image.Point{}) && rgba.Stride == 4*w {
		return rgba.Pix
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.Draw(dst, dst.Bounds(), img, bounds.Min, xdraw.Src)
	return dst.Pix
}
