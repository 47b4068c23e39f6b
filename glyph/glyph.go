// Package glyph rasterizes font glyphs into an atlas set.
//
// A Source parses a font once, maps runes to glyph indices through the font
// cmap, renders alpha masks at a requested pixel size, and memoizes the
// resulting atlas placements. Renderers look glyphs up by (rune, ppem) and
// receive the placement plus the metrics needed to position the quad.
package glyph

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	tsfont "github.com/go-text/typesetting/font"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/atlas"
)

// Source errors.
var (
	// ErrMissingGlyph is returned when the font has no glyph for a rune.
	ErrMissingGlyph = errors.New("glyph: no glyph for rune")

	// ErrNotCached is returned when evicting a glyph that was never
	// rasterized.
	ErrNotCached = errors.New("glyph: not cached")
)

// Key identifies one rasterized glyph: a rune at a pixel size.
type Key struct {
	Rune rune
	PPEM uint16
}

// Glyph is one rasterized, atlased glyph.
type Glyph struct {
	// ID is the identifier the source registered with the set.
	// Zero-coverage glyphs (whitespace) have no placement; their
	// Allocation is invalid and ID is meaningless.
	ID atlas.ID

	// GID is the glyph index within the font, from the font cmap.
	GID uint32

	// Layer and Allocation locate the mask at rasterization time.
	// Migration may move the placement; re-resolve through the set's Get
	// when a migration pass has run since.
	Layer      int
	Allocation atlas.Allocation

	// Bounds is the mask rectangle relative to the baseline origin.
	Bounds image.Rectangle

	// Advance is the horizontal cursor advance in pixels.
	Advance float64

	// Mask is the rasterized coverage, one byte per pixel.
	Mask *image.Alpha
}

// RGBA returns the mask as tightly packed white RGBA bytes, alpha carrying
// the coverage, in the layout gpu.ArrayTexture uploads.
func (g *Glyph) RGBA() []byte {
	if g.Mask == nil {
		return nil
	}
	b := g.Mask.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			a := g.Mask.AlphaAt(b.Min.X+x, b.Min.Y+y).A
			i := (y*w + x) * 4
			out[i] = a
			out[i+1] = a
			out[i+2] = a
			out[i+3] = a
		}
	}
	return out
}

// Source rasterizes glyphs from one font into one atlas set.
//
// The font is parsed twice on construction: go-text/typesetting provides
// the cmap and glyph identity (the same parse a shaper would use), while
// x/image's opentype face performs the rasterization. Faces are cached per
// pixel size. A Source owns the identifier space of its set and, like the
// set, expects a single owner.
type Source struct {
	set    *atlas.AtlasSet
	face   *tsfont.Face
	otFont *sfnt.Font

	faces  map[uint16]xfont.Face
	cache  map[Key]*Glyph
	nextID uint32
}

// NewSource parses TTF/OTF font data and creates a glyph source over the
// given set.
func NewSource(ttf []byte, set *atlas.AtlasSet) (*Source, error) {
	face, err := tsfont.ParseTTF(bytes.NewReader(ttf))
	if err != nil {
		return nil, fmt.Errorf("glyph: parse font: %w", err)
	}
	otFont, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("glyph: parse font: %w", err)
	}
	return &Source{
		set:    set,
		face:   face,
		otFont: otFont,
		faces:  make(map[uint16]xfont.Face),
		cache:  make(map[Key]*Glyph),
	}, nil
}

// Get returns the glyph for a rune at the given pixel size, rasterizing and
// atlasing it on first use. Whitespace glyphs are returned with metrics but
// no placement.
func (s *Source) Get(r rune, ppem uint16) (*Glyph, error) {
	key := Key{Rune: r, PPEM: ppem}
	if g, ok := s.cache[key]; ok {
		return g, nil
	}

	gid, ok := s.face.NominalGlyph(r)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingGlyph, r)
	}

	face, err := s.sizedFace(ppem)
	if err != nil {
		return nil, err
	}

	bounds, advance, ok := face.GlyphBounds(r)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingGlyph, r)
	}

	minX := bounds.Min.X.Floor()
	minY := bounds.Min.Y.Floor()
	maxX := bounds.Max.X.Ceil()
	maxY := bounds.Max.Y.Ceil()
	w, h := maxX-minX, maxY-minY

	g := &Glyph{
		GID:     uint32(gid),
		Bounds:  image.Rect(minX, minY, maxX, maxY),
		Advance: fixedToFloat(advance),
	}

	if w > 0 && h > 0 {
		mask := image.NewAlpha(image.Rect(0, 0, w, h))
		drawer := &xfont.Drawer{
			Dst:  mask,
			Src:  image.White,
			Face: face,
			Dot:  fixed.Point26_6{X: -bounds.Min.X, Y: -bounds.Min.Y},
		}
		drawer.DrawString(string(r))

		layer, alloc, err := s.set.Allocate(uint32(w), uint32(h))
		if err != nil {
			return nil, err
		}
		id := atlas.ID(s.nextID)
		s.nextID++
		if err := s.set.Insert(id, layer, alloc); err != nil {
			_ = s.set.Discard(layer, alloc)
			return nil, err
		}

		g.ID = id
		g.Layer = layer
		g.Allocation = alloc
		g.Mask = mask
	}

	s.cache[key] = g
	return g, nil
}

// Evict drops a cached glyph and releases its atlas placement.
func (s *Source) Evict(r rune, ppem uint16) error {
	key := Key{Rune: r, PPEM: ppem}
	g, ok := s.cache[key]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotCached, r)
	}
	if g.Allocation.IsValid() {
		if err := s.set.Remove(g.ID); err != nil {
			return err
		}
	}
	delete(s.cache, key)
	return nil
}

// Len returns the number of cached glyphs, placed or whitespace.
func (s *Source) Len() int {
	return len(s.cache)
}

// sizedFace returns the cached rasterization face for a pixel size.
func (s *Source) sizedFace(ppem uint16) (xfont.Face, error) {
	if face, ok := s.faces[ppem]; ok {
		return face, nil
	}
	face, err := opentype.NewFace(s.otFont, &opentype.FaceOptions{
		Size:    float64(ppem),
		DPI:     72,
		Hinting: xfont.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("glyph: face at %d ppem: %w", ppem, err)
	}
	s.faces[ppem] = face
	return face, nil
}

// fixedToFloat converts a 26.6 fixed-point value to float64 pixels.
func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
