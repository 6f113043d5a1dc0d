package geometry

import (
	gomath "math"
)

// CircleSegments is the default tessellation for circles.
const CircleSegments = 32

func vtx(x, y float32, c [4]float32) Vertex {
	return Vertex{x, y, 0, c[0], c[1], c[2], c[3]}
}

// Circle generates a filled circle as triangles around (cx, cy).
func Circle(cx, cy, radius float32, segments int, color [4]float32) []Vertex {
	if radius <= 0 {
		return nil
	}
	if segments < 3 {
		segments = CircleSegments
	}

	vertices := make([]Vertex, 0, segments*3)
	for i := 0; i < segments; i++ {
		x0, y0 := arc(cx, cy, radius, i, segments)
		x1, y1 := arc(cx, cy, radius, i+1, segments)
		vertices = append(vertices, vtx(cx, cy, color), vtx(x0, y0, color), vtx(x1, y1, color))
	}
	return vertices
}

// Ring generates a circular stroke between inner and outer radius.
func Ring(cx, cy, inner, outer float32, segments int, color [4]float32) []Vertex {
	if outer <= inner || outer <= 0 {
		return nil
	}
	if inner < 0 {
		inner = 0
	}
	if segments < 3 {
		segments = CircleSegments
	}

	vertices := make([]Vertex, 0, segments*6)
	for i := 0; i < segments; i++ {
		ix0, iy0 := arc(cx, cy, inner, i, segments)
		ix1, iy1 := arc(cx, cy, inner, i+1, segments)
		ox0, oy0 := arc(cx, cy, outer, i, segments)
		ox1, oy1 := arc(cx, cy, outer, i+1, segments)

		// Triangle 1
		vertices = append(vertices, vtx(ix0, iy0, color), vtx(ox0, oy0, color), vtx(ox1, oy1, color))
		// Triangle 2
		vertices = append(vertices, vtx(ix0, iy0, color), vtx(ox1, oy1, color), vtx(ix1, iy1, color))
	}
	return vertices
}

func arc(cx, cy, r float32, i, segments int) (float32, float32) {
	a := 2 * gomath.Pi * float64(i) / float64(segments)
	return cx + r*float32(gomath.Cos(a)), cy + r*float32(gomath.Sin(a))
}

// Rect generates a filled rectangle as two triangles.
func Rect(x0, y0, x1, y1 float32, color [4]float32) []Vertex {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	return []Vertex{
		// Triangle 1
		vtx(x0, y0, color), vtx(x1, y0, color), vtx(x1, y1, color),
		// Triangle 2
		vtx(x0, y0, color), vtx(x1, y1, color), vtx(x0, y1, color),
	}
}

// RectOutline generates a border of the given width inside the rectangle.
func RectOutline(x0, y0, x1, y1, width float32, color [4]float32) []Vertex {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	if width <= 0 {
		return nil
	}
	if 2*width >= x1-x0 || 2*width >= y1-y0 {
		return Rect(x0, y0, x1, y1, color)
	}

	var vertices []Vertex
	vertices = append(vertices, Rect(x0, y0, x1, y0+width, color)...)             // top
	vertices = append(vertices, Rect(x0, y1-width, x1, y1, color)...)             // bottom
	vertices = append(vertices, Rect(x0, y0+width, x0+width, y1-width, color)...) // left
	vertices = append(vertices, Rect(x1-width, y0+width, x1, y1-width, color)...) // right
	return vertices
}

// TexturedQuad is a quad laid out as [x, y, u, v] per vertex, two triangles.
func TexturedQuad(x0, y0, x1, y1 float32) []float32 {
	return []float32{
		x0, y0, 0, 0,
		x1, y0, 1, 0,
		x1, y1, 1, 1,
		x0, y0, 0, 0,
		x1, y1, 1, 1,
		x0, y1, 0, 1,
	}
}

// Flatten converts vertices to the interleaved float layout uploaded to GL.
func Flatten(vertices []Vertex) []float32 {
	out := make([]float32, 0, len(vertices)*7)
	for _, v := range vertices {
		out = append(out, v.X, v.Y, v.Z, v.R, v.G, v.B, v.A)
	}
	return out
}
