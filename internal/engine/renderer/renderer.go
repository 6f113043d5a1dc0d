// Package renderer draws a map frame: the ground tile grid, cluster layers,
// custom layers and the marker elements on top.
package renderer

import (
	"fmt"
	"image"
	"time"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/greenmap/internal/engine/geometry"
	"github.com/Faultbox/greenmap/internal/engine/shader"
	"github.com/Faultbox/greenmap/internal/engine/texture"
	"github.com/Faultbox/greenmap/internal/engine/ui2d"
	"github.com/Faultbox/greenmap/internal/logger"
	"github.com/Faultbox/greenmap/internal/mapview"
)

// Options configures a MapRenderer.
type Options struct {
	Width      int
	Height     int
	ShowGrid   bool
	GridRadius int
	// Images supplies marker thumbnails; nil draws placeholders only.
	Images *texture.Library
	Logger *zap.Logger
}

// MapRenderer draws a mapview.Map. Must be created after the GL context.
type MapRenderer struct {
	opts Options
	log  *zap.Logger

	grid    *shader.Program
	gridVAO uint32
	gridVBO uint32

	overlay *ui2d.Renderer
}

// New initializes GL and creates the renderer.
func New(opts Options) (*MapRenderer, error) {
	if opts.Logger == nil {
		opts.Logger = logger.Named("renderer")
	}
	if opts.GridRadius <= 0 {
		opts.GridRadius = 6
	}
	r := &MapRenderer{opts: opts, log: opts.Logger}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	r.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.ClearColor(0.91, 0.94, 0.90, 1.0)
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LEQUAL)

	var err error
	r.grid, err = shader.NewProgram(gridVertexShader, gridFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("failed to create grid shader: %w", err)
	}
	r.createGridBuffers()

	r.overlay, err = ui2d.New(opts.Width, opts.Height)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("failed to create overlay renderer: %w", err)
	}

	gl.Viewport(0, 0, int32(opts.Width), int32(opts.Height))
	return r, nil
}

// Overlay returns the screen-space renderer, also the HUD canvas.
func (r *MapRenderer) Overlay() *ui2d.Renderer {
	return r.overlay
}

// Resize handles window resize. width and height are in screen
// coordinates; the viewport covers the drawable, which is larger on
// high-DPI displays.
func (r *MapRenderer) Resize(width, height, drawableW, drawableH int) {
	r.opts.Width = width
	r.opts.Height = height
	gl.Viewport(0, 0, int32(drawableW), int32(drawableH))
	r.overlay.Resize(width, height)
	r.log.Debug("renderer resized",
		zap.Int("width", width), zap.Int("height", height),
		zap.Int("drawable_width", drawableW), zap.Int("drawable_height", drawableH))
}

// SetShowGrid toggles the ground grid.
func (r *MapRenderer) SetShowGrid(show bool) {
	r.opts.ShowGrid = show
}

// Render draws one frame of m. hud, if set, draws widgets into the overlay
// after the marker elements.
func (r *MapRenderer) Render(m *mapview.Map, hud func()) {
	v := m.View()
	now := m.Now()

	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	if r.opts.ShowGrid {
		r.drawGrid(v)
	}

	r.overlay.Begin()
	r.drawLayers(m)
	r.overlay.End()

	m.RenderCustomLayers()

	r.overlay.Begin()
	r.drawElements(m, v, now)
	if hud != nil {
		hud()
	}
	r.overlay.End()
}

func (r *MapRenderer) drawGrid(v mapview.View) {
	verts := geometry.Flatten(geometry.TileGrid(v, r.opts.GridRadius, geometry.GridColor))
	if len(verts) == 0 {
		return
	}

	r.grid.Use()
	gl.UniformMatrix4fv(r.grid.Uniform("uMVP"), 1, false, v.Matrix.Ptr())
	gl.BindVertexArray(r.gridVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.gridVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(verts)*4, unsafe.Pointer(&verts[0]), gl.STREAM_DRAW)
	gl.DrawArrays(gl.LINES, 0, int32(len(verts)/7))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
}

func (r *MapRenderer) drawLayers(m *mapview.Map) {
	for _, l := range m.Layers() {
		for _, f := range m.RenderedFeatures(l.ID) {
			x, y := float32(f.X), float32(f.Y)
			switch l.Type {
			case mapview.LayerCircle:
				radius := float32(l.Paint.Radius.At(f.PointCount))
				r.overlay.DrawCircle(x, y, radius, ui2d.FromArray(l.Paint.Color.At(f.PointCount)))
				if sw := float32(l.Paint.StrokeWidth); sw > 0 {
					r.overlay.DrawRing(x, y, radius, radius+sw, ui2d.FromArray(l.Paint.StrokeColor))
				}
			case mapview.LayerSymbol:
				label := CountLabel(f.PointCount)
				_, gh := r.overlay.MeasureText("0", 1)
				scale := float32(l.Paint.TextSize) / gh
				w, h := r.overlay.MeasureText(label, scale)
				r.overlay.DrawText(x-w/2, y-h/2, label, scale, ui2d.FromArray(l.Paint.TextColor))
			}
		}
	}
}

func (r *MapRenderer) drawElements(m *mapview.Map, v mapview.View, now time.Time) {
	for _, e := range m.Elements() {
		q, ok := PlaceElement(e, v, now)
		if !ok {
			continue
		}
		border := ui2d.FromArray(e.BorderColor)
		x0, y0 := q.X-q.Size/2, q.Y-q.Size/2
		r.overlay.DrawRect(x0, y0, q.Size, q.Size, border.Fade(q.Opacity))

		inner := q.Size - 2*ElementBorder
		ix, iy := x0+ElementBorder, y0+ElementBorder
		if img, status := r.image(e.Image); status == texture.StatusReady {
			r.overlay.DrawImage(e.Image, img, ix, iy, inner, inner, ui2d.ColorWhite.Fade(q.Opacity))
		} else {
			r.overlay.DrawRect(ix, iy, inner, inner, border.Lighten(0.7).Fade(q.Opacity))
		}

		// Kind badge in the top-right corner.
		r.overlay.DrawCircle(x0+q.Size, y0, q.Size*0.18, border.Darken(0.2).Fade(q.Opacity))
	}
}

func (r *MapRenderer) image(src string) (*image.RGBA, texture.Status) {
	if r.opts.Images == nil || src == "" {
		return nil, texture.StatusMissing
	}
	if r.overlay.HasImage(src) {
		return nil, texture.StatusReady
	}
	r.opts.Images.Request(src)
	return r.opts.Images.Get(src)
}

// Close releases GL resources.
func (r *MapRenderer) Close() {
	r.log.Info("closing renderer")
	if r.overlay != nil {
		r.overlay.Close()
	}
	if r.gridVAO != 0 {
		gl.DeleteVertexArrays(1, &r.gridVAO)
	}
	if r.gridVBO != 0 {
		gl.DeleteBuffers(1, &r.gridVBO)
	}
	if r.grid != nil {
		r.grid.Delete()
	}
}

func (r *MapRenderer) createGridBuffers() {
	gl.GenVertexArrays(1, &r.gridVAO)
	gl.BindVertexArray(r.gridVAO)

	gl.GenBuffers(1, &r.gridVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.gridVBO)

	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, geometry.VertexStride, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 4, gl.FLOAT, false, geometry.VertexStride, 3*4)
	gl.EnableVertexAttribArray(1)

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
}

const gridVertexShader = `
#version 410 core

layout (location = 0) in vec3 aPos;
layout (location = 1) in vec4 aColor;

uniform mat4 uMVP;

out vec4 vColor;

void main() {
	gl_Position = uMVP * vec4(aPos, 1.0);
	vColor = aColor;
}
`

const gridFragmentShader = `
#version 410 core

in vec4 vColor;
out vec4 FragColor;

void main() {
	FragColor = vColor;
}
`
