// Package ui2d draws screen-space content over the map: marker elements,
// cluster symbols and the HUD widgets.
package ui2d

import (
	"fmt"
	"image"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/greenmap/internal/engine/geometry"
	"github.com/Faultbox/greenmap/internal/engine/shader"
	"github.com/Faultbox/greenmap/internal/engine/texture"
	"github.com/Faultbox/greenmap/pkg/math"
)

// Draw modes of the quad shader.
const (
	modeSolid int32 = iota
	modeText
	modeImage
)

// floatsPerVertex is pos(3) + uv(2) + color(4).
const floatsPerVertex = 9

type batch struct {
	mode  int32
	tex   uint32
	first int32
	count int32
}

// Renderer batches screen-space geometry and draws it in submission order.
// It must be created and used on the GL thread.
type Renderer struct {
	screenWidth  int
	screenHeight int

	program *shader.Program
	vao     uint32
	vbo     uint32

	vertices []float32
	batches  []batch

	font     *texture.Font
	fontTex  uint32
	textures map[string]uint32
}

// New creates a renderer for a screen of the given size.
func New(width, height int) (*Renderer, error) {
	program, err := shader.NewProgram(quadVertexShader, quadFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("create quad shader: %w", err)
	}

	r := &Renderer{
		screenWidth:  width,
		screenHeight: height,
		program:      program,
		vertices:     make([]float32, 0, 4096),
		font:         texture.NewFont(),
		textures:     make(map[string]uint32),
	}
	r.fontTex = upload(r.font.Atlas, gl.NEAREST)
	r.createBuffers()
	return r, nil
}

// Resize updates the screen dimensions.
func (r *Renderer) Resize(width, height int) {
	r.screenWidth = width
	r.screenHeight = height
}

// Begin starts a new frame.
func (r *Renderer) Begin() {
	r.vertices = r.vertices[:0]
	r.batches = r.batches[:0]
}

// End draws everything queued since Begin.
func (r *Renderer) End() {
	if len(r.batches) == 0 {
		return
	}
	defer shader.Save().Restore()

	prevBlend := gl.IsEnabled(gl.BLEND)
	prevDepth := gl.IsEnabled(gl.DEPTH_TEST)
	prevCull := gl.IsEnabled(gl.CULL_FACE)

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.CULL_FACE)

	proj := math.Ortho(0, float32(r.screenWidth), float32(r.screenHeight), 0, -1, 1)

	r.program.Use()
	gl.UniformMatrix4fv(shader.MustGetUniform(r.program.ID, "uProjection"), 1, false, proj.Ptr())
	gl.Uniform1i(r.program.Uniform("uTexture"), 0)
	gl.ActiveTexture(gl.TEXTURE0)

	gl.BindVertexArray(r.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(r.vertices)*4, unsafe.Pointer(&r.vertices[0]), gl.STREAM_DRAW)

	mode := r.program.Uniform("uMode")
	for _, b := range r.batches {
		gl.Uniform1i(mode, b.mode)
		gl.BindTexture(gl.TEXTURE_2D, b.tex)
		gl.DrawArrays(gl.TRIANGLES, b.first, b.count)
	}

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	if !prevBlend {
		gl.Disable(gl.BLEND)
	}
	if prevDepth {
		gl.Enable(gl.DEPTH_TEST)
	}
	if prevCull {
		gl.Enable(gl.CULL_FACE)
	}
}

// Close releases renderer resources.
func (r *Renderer) Close() {
	for key, tex := range r.textures {
		gl.DeleteTextures(1, &tex)
		delete(r.textures, key)
	}
	if r.fontTex != 0 {
		gl.DeleteTextures(1, &r.fontTex)
	}
	if r.vao != 0 {
		gl.DeleteVertexArrays(1, &r.vao)
	}
	if r.vbo != 0 {
		gl.DeleteBuffers(1, &r.vbo)
	}
	r.program.Delete()
}

// push appends vertices to the batch for (mode, tex), merging with the
// previous batch when both match.
func (r *Renderer) push(mode int32, tex uint32, verts ...float32) {
	n := int32(len(verts) / floatsPerVertex)
	if n == 0 {
		return
	}
	if last := len(r.batches) - 1; last >= 0 && r.batches[last].mode == mode && r.batches[last].tex == tex {
		r.batches[last].count += n
	} else {
		r.batches = append(r.batches, batch{
			mode:  mode,
			tex:   tex,
			first: int32(len(r.vertices) / floatsPerVertex),
			count: n,
		})
	}
	r.vertices = append(r.vertices, verts...)
}

func (r *Renderer) quad(mode int32, tex uint32, x, y, w, h, u0, v0, u1, v1 float32, c Color) {
	r.push(mode, tex,
		x, y, 0, u0, v0, c.R, c.G, c.B, c.A,
		x+w, y, 0, u1, v0, c.R, c.G, c.B, c.A,
		x+w, y+h, 0, u1, v1, c.R, c.G, c.B, c.A,
		x, y, 0, u0, v0, c.R, c.G, c.B, c.A,
		x+w, y+h, 0, u1, v1, c.R, c.G, c.B, c.A,
		x, y+h, 0, u0, v1, c.R, c.G, c.B, c.A,
	)
}

// DrawRect draws a filled rectangle.
func (r *Renderer) DrawRect(x, y, w, h float32, c Color) {
	r.quad(modeSolid, 0, x, y, w, h, 0, 0, 0, 0, c)
}

// DrawRectOutline draws a rectangle outline.
func (r *Renderer) DrawRectOutline(x, y, w, h, thickness float32, c Color) {
	r.DrawVertices(geometry.RectOutline(x, y, x+w, y+h, thickness, [4]float32{c.R, c.G, c.B, c.A}))
}

// DrawCircle draws a filled circle.
func (r *Renderer) DrawCircle(cx, cy, radius float32, c Color) {
	r.DrawVertices(geometry.Circle(cx, cy, radius, geometry.CircleSegments, [4]float32{c.R, c.G, c.B, c.A}))
}

// DrawRing draws a circular stroke.
func (r *Renderer) DrawRing(cx, cy, inner, outer float32, c Color) {
	r.DrawVertices(geometry.Ring(cx, cy, inner, outer, geometry.CircleSegments, [4]float32{c.R, c.G, c.B, c.A}))
}

// DrawVertices queues solid colored triangles.
func (r *Renderer) DrawVertices(verts []geometry.Vertex) {
	if len(verts) == 0 {
		return
	}
	buf := make([]float32, 0, len(verts)*floatsPerVertex)
	for _, v := range verts {
		buf = append(buf, v.X, v.Y, v.Z, 0, 0, v.R, v.G, v.B, v.A)
	}
	r.push(modeSolid, 0, buf...)
}

// DrawText draws text with its top-left corner at (x, y).
func (r *Renderer) DrawText(x, y float32, text string, scale float32, c Color) {
	gw, gh := r.font.GlyphSize()
	charW := float32(gw) * scale
	charH := float32(gh) * scale

	curX := x
	for _, ch := range text {
		if ch == '\n' {
			curX = x
			y += charH
			continue
		}
		u0, v0, u1, v1 := r.font.GlyphUV(ch)
		r.quad(modeText, r.fontTex, curX, y, charW, charH, u0, v0, u1, v1, c)
		curX += charW
	}
}

// MeasureText returns the width and height of rendered text.
func (r *Renderer) MeasureText(text string, scale float32) (float32, float32) {
	return r.font.MeasureText(text, scale)
}

// DrawImage draws img, uploaded once under key, tinted by c.
func (r *Renderer) DrawImage(key string, img *image.RGBA, x, y, w, h float32, c Color) {
	tex, ok := r.textures[key]
	if !ok {
		tex = upload(img, gl.LINEAR)
		r.textures[key] = tex
	}
	r.quad(modeImage, tex, x, y, w, h, 0, 0, 1, 1, c)
}

// HasImage reports whether key has been uploaded.
func (r *Renderer) HasImage(key string) bool {
	_, ok := r.textures[key]
	return ok
}

func upload(img *image.RGBA, filter int32) uint32 {
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(img.Bounds().Dx()), int32(img.Bounds().Dy()), 0, gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&img.Pix[0]))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return tex
}

func (r *Renderer) createBuffers() {
	gl.GenVertexArrays(1, &r.vao)
	gl.BindVertexArray(r.vao)

	gl.GenBuffers(1, &r.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)

	stride := int32(floatsPerVertex * 4)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 2, gl.FLOAT, false, stride, 3*4)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(2, 4, gl.FLOAT, false, stride, 5*4)
	gl.EnableVertexAttribArray(2)

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

const quadVertexShader = `
#version 410 core

layout (location = 0) in vec3 aPos;
layout (location = 1) in vec2 aTexCoord;
layout (location = 2) in vec4 aColor;

uniform mat4 uProjection;

out vec2 vTexCoord;
out vec4 vColor;

void main() {
	gl_Position = uProjection * vec4(aPos, 1.0);
	vTexCoord = aTexCoord;
	vColor = aColor;
}
`

const quadFragmentShader = `
#version 410 core

uniform sampler2D uTexture;
uniform int uMode;

in vec2 vTexCoord;
in vec4 vColor;
out vec4 FragColor;

void main() {
	if (uMode == 1) {
		float alpha = texture(uTexture, vTexCoord).a;
		FragColor = vec4(vColor.rgb, vColor.a * alpha);
	} else if (uMode == 2) {
		FragColor = texture(uTexture, vTexCoord) * vColor;
	} else {
		FragColor = vColor;
	}
}
`
