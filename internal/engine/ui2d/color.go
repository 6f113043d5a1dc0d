package ui2d

// Color represents an RGBA color with float components (0.0 to 1.0).
type Color struct {
	R, G, B, A float32
}

// HUD palette.
var (
	ColorTransparent = Color{0, 0, 0, 0}
	ColorWhite       = Color{1, 1, 1, 1}
	ColorBlack       = Color{0, 0, 0, 1}

	ColorPanelBg      = Color{0.07, 0.10, 0.09, 0.92}
	ColorPanelBorder  = Color{0.24, 0.34, 0.29, 1}
	ColorButtonNormal = Color{0.12, 0.18, 0.15, 1}
	ColorButtonHover  = Color{0.18, 0.27, 0.22, 1}
	ColorButtonActive = Color{0.09, 0.40, 0.24, 1}
	ColorInputBg      = Color{0.04, 0.06, 0.05, 1}
	ColorText         = Color{0.92, 0.94, 0.92, 1}
	ColorTextDim      = Color{0.55, 0.62, 0.58, 1}
	ColorHighlight    = Color{0.13, 0.77, 0.37, 1}
)

// RGBA creates a color from 8-bit RGBA values (0-255).
func RGBA(r, g, b, a uint8) Color {
	return Color{
		R: float32(r) / 255.0,
		G: float32(g) / 255.0,
		B: float32(b) / 255.0,
		A: float32(a) / 255.0,
	}
}

// FromArray converts the [r, g, b, a] arrays used by map styles.
func FromArray(c [4]float32) Color {
	return Color{c[0], c[1], c[2], c[3]}
}

// WithAlpha returns a copy of the color with a different alpha value.
func (c Color) WithAlpha(a float32) Color {
	return Color{c.R, c.G, c.B, a}
}

// Fade multiplies alpha by f.
func (c Color) Fade(f float32) Color {
	return Color{c.R, c.G, c.B, c.A * f}
}

// Darken returns a darker version of the color.
func (c Color) Darken(factor float32) Color {
	return Color{
		R: c.R * (1 - factor),
		G: c.G * (1 - factor),
		B: c.B * (1 - factor),
		A: c.A,
	}
}

// Lighten returns a lighter version of the color.
func (c Color) Lighten(factor float32) Color {
	return Color{
		R: c.R + (1-c.R)*factor,
		G: c.G + (1-c.G)*factor,
		B: c.B + (1-c.B)*factor,
		A: c.A,
	}
}
