package texture

import (
	"image"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	firstGlyph  = ' '
	lastGlyph   = '~'
	atlasCols   = 16
	missingRune = '?'
)

// Font is a monospace glyph atlas for printable ASCII, rasterized from the
// 7x13 basic font. Glyphs are white; the alpha channel carries coverage.
type Font struct {
	Atlas  *image.RGBA
	glyphW int
	glyphH int
}

// NewFont rasterizes the atlas.
func NewFont() *Font {
	face := basicfont.Face7x13
	gw, gh := face.Advance, face.Height

	count := int(lastGlyph-firstGlyph) + 1
	rows := (count + atlasCols - 1) / atlasCols
	atlas := image.NewRGBA(image.Rect(0, 0, atlasCols*gw, rows*gh))

	d := font.Drawer{Dst: atlas, Src: image.White, Face: face}
	for r := rune(firstGlyph); r <= lastGlyph; r++ {
		i := int(r - firstGlyph)
		x := (i % atlasCols) * gw
		y := (i / atlasCols) * gh
		d.Dot = fixed.P(x, y+face.Ascent)
		d.DrawString(string(r))
	}

	return &Font{Atlas: atlas, glyphW: gw, glyphH: gh}
}

// GlyphSize returns the cell size of one glyph in pixels.
func (f *Font) GlyphSize() (int, int) {
	return f.glyphW, f.glyphH
}

// GlyphUV returns the atlas texture coordinates of r. Runes outside the
// atlas map to '?'.
func (f *Font) GlyphUV(r rune) (u0, v0, u1, v1 float32) {
	if r < firstGlyph || r > lastGlyph {
		r = missingRune
	}
	i := int(r - firstGlyph)
	x := (i % atlasCols) * f.glyphW
	y := (i / atlasCols) * f.glyphH

	w := float32(f.Atlas.Bounds().Dx())
	h := float32(f.Atlas.Bounds().Dy())
	return float32(x) / w, float32(y) / h, float32(x+f.glyphW) / w, float32(y+f.glyphH) / h
}

// MeasureText returns the size of text drawn at scale, honoring newlines.
func (f *Font) MeasureText(text string, scale float32) (float32, float32) {
	if text == "" {
		return 0, 0
	}
	lines := strings.Split(text, "\n")
	widest := 0
	for _, line := range lines {
		widest = max(widest, len([]rune(line)))
	}
	return float32(widest*f.glyphW) * scale, float32(len(lines)*f.glyphH) * scale
}
