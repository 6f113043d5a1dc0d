// Package geometry generates vertex data for the map renderer: the ground
// tile grid in the map's local frame and screen-space shapes for markers
// and clusters.
package geometry

import (
	gomath "math"

	"github.com/Faultbox/greenmap/internal/mapview"
)

// Vertex is a colored vertex, laid out as [x, y, z, r, g, b, a].
type Vertex struct {
	X, Y, Z    float32 // Position
	R, G, B, A float32 // Color
}

// VertexStride is the byte size of a Vertex.
const VertexStride = 7 * 4

// GridColor is the default tile grid color.
var GridColor = [4]float32{0.32, 0.36, 0.34, 1}

// TileGrid generates line vertices for the tile boundaries of the current
// integer zoom level, radius tiles around the camera center. Lines outside
// the world are skipped.
func TileGrid(v mapview.View, radius int, color [4]float32) []Vertex {
	if v.WorldSize <= 0 || radius <= 0 {
		return nil
	}

	tiles := gomath.Exp2(gomath.Floor(v.Camera.Zoom))
	spacing := v.WorldSize / tiles

	cx := v.Center.X * v.WorldSize
	cy := v.Center.Y * v.WorldSize
	firstX := gomath.Floor(cx/spacing) - float64(radius)
	firstY := gomath.Floor(cy/spacing) - float64(radius)

	minX := clamp((firstX)*spacing, 0, v.WorldSize) - cx
	maxX := clamp((firstX+float64(2*radius+1))*spacing, 0, v.WorldSize) - cx
	minY := clamp((firstY)*spacing, 0, v.WorldSize) - cy
	maxY := clamp((firstY+float64(2*radius+1))*spacing, 0, v.WorldSize) - cy

	var vertices []Vertex
	line := func(x0, y0, x1, y1 float64) {
		vertices = append(vertices,
			Vertex{float32(x0), float32(y0), 0, color[0], color[1], color[2], color[3]},
			Vertex{float32(x1), float32(y1), 0, color[0], color[1], color[2], color[3]},
		)
	}

	// Vertical lines
	for i := 0; i <= 2*radius+1; i++ {
		wx := (firstX + float64(i)) * spacing
		if wx < 0 || wx > v.WorldSize {
			continue
		}
		line(wx-cx, minY, wx-cx, maxY)
	}

	// Horizontal lines
	for i := 0; i <= 2*radius+1; i++ {
		wy := (firstY + float64(i)) * spacing
		if wy < 0 || wy > v.WorldSize {
			continue
		}
		line(minX, wy-cy, maxX, wy-cy)
	}

	return vertices
}

func clamp(v, lo, hi float64) float64 {
	return gomath.Max(lo, gomath.Min(hi, v))
}
