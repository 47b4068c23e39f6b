package texture

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/gogpu/atlas"
)

func newTestSet(t *testing.T) *atlas.AtlasSet {
	t.Helper()
	set, err := atlas.NewAtlasSet(atlas.Config{
		Extent:          256,
		MaxLayers:       4,
		MigrationRatio:  2.0,
		MigrationBudget: 16,
	})
	if err != nil {
		t.Fatal(err)
	}
	return set
}

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0, A: 255})
		}
	}
	return img
}

type recordedUpload struct {
	layer int
	alloc atlas.Allocation
	rgba  []byte
}

func TestLoaderFromImage(t *testing.T) {
	set := newTestSet(t)

	var uploads []recordedUpload
	loader := NewLoader(set, UploadFunc(func(layer int, alloc atlas.Allocation, rgba []byte) error {
		uploads = append(uploads, recordedUpload{layer, alloc, rgba})
		return nil
	}))

	tex, err := loader.FromImage(testImage(8, 5))
	if err != nil {
		t.Fatalf("FromImage() = %v", err)
	}

	if w, h := tex.Size(); w != 8 || h != 5 {
		t.Errorf("Size() = %dx%d, want 8x5", w, h)
	}
	if !set.Contains(tex.ID) {
		t.Error("placement not recorded in set")
	}

	if len(uploads) != 1 {
		t.Fatalf("expected 1 upload, got %d", len(uploads))
	}
	up := uploads[0]
	if up.layer != tex.Layer || up.alloc != tex.Allocation {
		t.Error("upload placement does not match returned texture")
	}
	if len(up.rgba) != 8*5*4 {
		t.Fatalf("expected %d pixel bytes, got %d", 8*5*4, len(up.rgba))
	}
	// Pixel (3, 2) carries its coordinates in R and G.
	i := (2*8 + 3) * 4
	if up.rgba[i] != 3 || up.rgba[i+1] != 2 || up.rgba[i+3] != 255 {
		t.Errorf("pixel (3,2) = %v", up.rgba[i:i+4])
	}
}

func TestLoaderGeneratesUniqueIDs(t *testing.T) {
	set := newTestSet(t)
	loader := NewLoader(set, nil)

	a, err := loader.FromImage(testImage(4, 4))
	if err != nil {
		t.Fatal(err)
	}
	b, err := loader.FromImage(testImage(4, 4))
	if err != nil {
		t.Fatal(err)
	}
	if a.ID == b.ID {
		t.Errorf("two loads share id %d", a.ID)
	}
	if set.Len() != 2 {
		t.Errorf("expected 2 placements, got %d", set.Len())
	}
}

func TestLoaderNilAndEmptyImages(t *testing.T) {
	loader := NewLoader(newTestSet(t), nil)

	if _, err := loader.FromImage(nil); !errors.Is(err, ErrNilImage) {
		t.Errorf("expected ErrNilImage, got %v", err)
	}
	if _, err := loader.FromImage(image.NewRGBA(image.Rectangle{})); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("expected ErrEmptyImage, got %v", err)
	}
}

func TestLoaderOversizeImage(t *testing.T) {
	loader := NewLoader(newTestSet(t), nil)

	_, err := loader.FromImage(testImage(300, 10))
	if !errors.Is(err, atlas.ErrAllocationFailed) {
		t.Errorf("expected ErrAllocationFailed, got %v", err)
	}
}

func TestLoaderUploadFailureRollsBack(t *testing.T) {
	set := newTestSet(t)
	wantErr := errors.New("device lost")
	loader := NewLoader(set, UploadFunc(func(int, atlas.Allocation, []byte) error {
		return wantErr
	}))

	_, err := loader.FromImage(testImage(4, 4))
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected upload error, got %v", err)
	}
	if set.Len() != 0 {
		t.Errorf("failed upload left %d placements in the set", set.Len())
	}
}

func TestLoaderUnload(t *testing.T) {
	set := newTestSet(t)
	loader := NewLoader(set, nil)

	tex, err := loader.FromImage(testImage(4, 4))
	if err != nil {
		t.Fatal(err)
	}
	if err := loader.Unload(tex); err != nil {
		t.Fatalf("Unload() = %v", err)
	}
	if set.Contains(tex.ID) {
		t.Error("placement still present after Unload")
	}
	if err := loader.Unload(tex); !errors.Is(err, atlas.ErrNotFound) {
		t.Errorf("double Unload = %v, want ErrNotFound", err)
	}

	if err := loader.Unload(nil); !errors.Is(err, ErrNilTexture) {
		t.Errorf("Unload(nil) = %v, want ErrNilTexture", err)
	}
	if _, _, ok := loader.Lookup(nil); ok {
		t.Error("Lookup(nil) reported a placement")
	}
}

func TestLoaderInsertFailureReturnsSpace(t *testing.T) {
	set := newTestSet(t)
	loader := NewLoader(set, nil)

	// Occupy the loader's first generated identifier from the outside, so
	// FromImage's Insert collides.
	layer, alloc, err := set.Allocate(8, 8)
	if err != nil {
		t.Fatal(err)
	}
	if err := set.Insert(0, layer, alloc); err != nil {
		t.Fatal(err)
	}
	before := set.LayerInfos()[0].Utilization

	if _, err := loader.FromImage(testImage(16, 16)); !errors.Is(err, atlas.ErrDuplicateID) {
		t.Fatalf("FromImage = %v, want ErrDuplicateID", err)
	}

	after := set.LayerInfos()[0].Utilization
	if after != before {
		t.Errorf("utilization %f -> %f: failed insert leaked its allocation", before, after)
	}
	if set.Len() != 1 {
		t.Errorf("Len = %d, want 1", set.Len())
	}
}

func TestLoaderLookupAfterMigration(t *testing.T) {
	set := newTestSet(t)
	loader := NewLoader(set, nil)

	tex, err := loader.FromImage(testImage(16, 16))
	if err != nil {
		t.Fatal(err)
	}

	layer, alloc, ok := loader.Lookup(tex)
	if !ok || layer != tex.Layer || alloc != tex.Allocation {
		t.Error("Lookup disagrees with load-time placement")
	}

	if err := loader.Unload(tex); err != nil {
		t.Fatal(err)
	}
	if _, _, ok := loader.Lookup(tex); ok {
		t.Error("Lookup found an unloaded texture")
	}
}

func TestLoaderOpenPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sprite.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, testImage(10, 12)); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	set := newTestSet(t)
	loader := NewLoader(set, nil)

	tex, err := loader.Open(path)
	if err != nil {
		t.Fatalf("Open() = %v", err)
	}
	if w, h := tex.Size(); w != 10 || h != 12 {
		t.Errorf("Size() = %dx%d, want 10x12", w, h)
	}
}

func TestLoaderOpenMissingFile(t *testing.T) {
	loader := NewLoader(newTestSet(t), nil)
	if _, err := loader.Open(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("Open succeeded on a missing file")
	}
}

func TestTextureUV(t *testing.T) {
	tex := &Texture{Allocation: atlas.Allocation{
		LayerExtent: 256, X: 0, Y: 0, Width: 128, Height: 64,
	}}
	u0, v0, u1, v1 := tex.UV()
	if u0 != 0 || v0 != 0 || u1 != 0.5 || v1 != 0.25 {
		t.Errorf("UV() = (%f,%f,%f,%f)", u0, v0, u1, v1)
	}
}

func TestRGBAPixelsConvertsNonRGBA(t *testing.T) {
	// A grayscale source exercises the conversion path.
	gray := image.NewGray(image.Rect(0, 0, 3, 3))
	gray.SetGray(1, 1, color.Gray{Y: 200})

	pix := rgbaPixels(gray)
	if len(pix) != 3*3*4 {
		t.Fatalf("expected %d bytes, got %d", 3*3*4, len(pix))
	}
	i := (1*3 + 1) * 4
	if pix[i] != 200 || pix[i+1] != 200 || pix[i+2] != 200 || pix[i+3] != 255 {
		t.Errorf("converted pixel = %v", pix[i:i+4])
	}
}

func TestRGBAPixelsOffsetBounds(t *testing.T) {
	// A sub-image anchored away from the origin must still produce
	// origin-relative rows.
	base := testImage(16, 16)
	sub := base.SubImage(image.Rect(4, 4, 8, 8)).(*image.RGBA)

	pix := rgbaPixels(sub)
	if len(pix) != 4*4*4 {
		t.Fatalf("expected %d bytes, got %d", 4*4*4, len(pix))
	}
	// Top-left of the sub-image is base pixel (4,4): R=4, G=4.
	if pix[0] != 4 || pix[1] != 4 {
		t.Errorf("sub-image origin pixel = %v", pix[0:4])
	}
}
