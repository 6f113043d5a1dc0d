package formats

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

// GLB format errors.
var (
	ErrInvalidGLBMagic       = errors.New("invalid GLB magic: expected 'glTF'")
	ErrUnsupportedGLBVersion = errors.New("unsupported GLB version")
	ErrTruncatedGLBData      = errors.New("truncated GLB data")
	ErrMissingGLBJSON        = errors.New("GLB has no JSON chunk")
	ErrInvalidGLBAccessor    = errors.New("invalid GLB accessor")
)

const (
	glbHeaderSize    = 12
	glbChunkJSON     = 0x4E4F534A
	glbChunkBIN      = 0x004E4942
	glbVersion       = 2
	glbMaxChunkCount = 64
)

// Accessor component types.
const (
	GLTFByte          = 5120
	GLTFUnsignedByte  = 5121
	GLTFShort         = 5122
	GLTFUnsignedShort = 5123
	GLTFUnsignedInt   = 5125
	GLTFFloat         = 5126
)

// Animation channel target paths.
const (
	GLTFPathTranslation = "translation"
	GLTFPathRotation    = "rotation"
	GLTFPathScale       = "scale"
	GLTFPathWeights     = "weights"
)

// Sampler interpolation modes.
const (
	GLTFLinear      = "LINEAR"
	GLTFStep        = "STEP"
	GLTFCubicSpline = "CUBICSPLINE"
)

// GLTFNode is a node of the scene graph.
type GLTFNode struct {
	Name        string       `json:"name,omitempty"`
	Children    []int        `json:"children,omitempty"`
	Translation *[3]float32  `json:"translation,omitempty"`
	Rotation    *[4]float32  `json:"rotation,omitempty"` // x, y, z, w
	Scale       *[3]float32  `json:"scale,omitempty"`
	Matrix      *[16]float32 `json:"matrix,omitempty"`
	Mesh        *int         `json:"mesh,omitempty"`
	Skin        *int         `json:"skin,omitempty"`
}

// GLTFSkin binds joints to a mesh.
type GLTFSkin struct {
	Name                string `json:"name"`
	Joints              []int  `json:"joints"`
	InverseBindMatrices *int   `json:"inverseBindMatrices"`
	Skeleton            *int   `json:"skeleton"`
}

// GLTFAccessor describes typed data inside a buffer view.
type GLTFAccessor struct {
	BufferView    *int   `json:"bufferView"`
	ByteOffset    int    `json:"byteOffset"`
	ComponentType int    `json:"componentType"`
	Normalized    bool   `json:"normalized"`
	Count         int    `json:"count"`
	Type          string `json:"type"`
}

// GLTFBufferView is a slice of a buffer.
type GLTFBufferView struct {
	Buffer     int `json:"buffer"`
	ByteOffset int `json:"byteOffset"`
	ByteLength int `json:"byteLength"`
	ByteStride int `json:"byteStride"`
}

// GLTFBuffer is a binary buffer. In a GLB, buffer 0 is the BIN chunk.
type GLTFBuffer struct {
	ByteLength int    `json:"byteLength"`
	URI        string `json:"uri"`
}

// GLTFTarget is the node property an animation channel drives.
type GLTFTarget struct {
	Node *int   `json:"node"`
	Path string `json:"path"`
}

// GLTFChannel connects a sampler to a target.
type GLTFChannel struct {
	Sampler int        `json:"sampler"`
	Target  GLTFTarget `json:"target"`
}

// GLTFSampler pairs keyframe times (input) with values (output).
type GLTFSampler struct {
	Input         int    `json:"input"`
	Output        int    `json:"output"`
	Interpolation string `json:"interpolation,omitempty"`
}

// GLTFAnimation is an animation as stored in the JSON chunk.
type GLTFAnimation struct {
	Name     string        `json:"name"`
	Channels []GLTFChannel `json:"channels"`
	Samplers []GLTFSampler `json:"samplers"`
}

// GLTFDocument is the JSON chunk of a GLB file.
type GLTFDocument struct {
	Asset struct {
		Version   string `json:"version"`
		Generator string `json:"generator,omitempty"`
	} `json:"asset"`
	Scene       int              `json:"scene"`
	Nodes       []GLTFNode       `json:"nodes,omitempty"`
	Skins       []GLTFSkin       `json:"skins,omitempty"`
	Accessors   []GLTFAccessor   `json:"accessors,omitempty"`
	BufferViews []GLTFBufferView `json:"bufferViews,omitempty"`
	Buffers     []GLTFBuffer     `json:"buffers,omitempty"`
	Animations  []GLTFAnimation  `json:"animations,omitempty"`
}

// GLB represents a parsed binary glTF 2.0 container.
type GLB struct {
	Version  uint32
	Document GLTFDocument
	BIN      []byte

	parents []int
}

// GLBChannel is one decoded animation channel.
type GLBChannel struct {
	Node          int
	Path          string
	Interpolation string
	Times         []float32
	Values        []float32 // flattened, component count per key depends on Path
}

// GLBAnimation is a decoded animation.
type GLBAnimation struct {
	Name     string
	Duration float32
	Channels []GLBChannel
}

// ParseGLB parses a GLB file from raw bytes.
func ParseGLB(data []byte) (*GLB, error) {
	if len(data) < glbHeaderSize {
		return nil, ErrTruncatedGLBData
	}

	if string(data[0:4]) != "glTF" {
		return nil, ErrInvalidGLBMagic
	}

	r := bytes.NewReader(data[4:glbHeaderSize])
	var version, length uint32
	_ = binary.Read(r, binary.LittleEndian, &version)
	_ = binary.Read(r, binary.LittleEndian, &length)

	if version != glbVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedGLBVersion, version)
	}
	if int(length) > len(data) || length < glbHeaderSize {
		return nil, fmt.Errorf("%w: header length %d, have %d bytes", ErrTruncatedGLBData, length, len(data))
	}

	glb := &GLB{Version: version}
	var jsonChunk []byte
	offset := glbHeaderSize
	for chunk := 0; offset < int(length); chunk++ {
		if chunk >= glbMaxChunkCount {
			return nil, fmt.Errorf("too many GLB chunks")
		}
		if offset+8 > int(length) {
			return nil, fmt.Errorf("%w: chunk %d header", ErrTruncatedGLBData, chunk)
		}
		chunkLen := int(binary.LittleEndian.Uint32(data[offset:]))
		chunkType := binary.LittleEndian.Uint32(data[offset+4:])
		start := offset + 8
		end := start + chunkLen
		if chunkLen < 0 || end > int(length) {
			return nil, fmt.Errorf("%w: chunk %d length %d", ErrTruncatedGLBData, chunk, chunkLen)
		}

		switch chunkType {
		case glbChunkJSON:
			if jsonChunk == nil {
				jsonChunk = data[start:end]
			}
		case glbChunkBIN:
			if glb.BIN == nil {
				glb.BIN = data[start:end]
			}
		}
		// Chunks are 4-byte aligned.
		offset = end + (4-chunkLen%4)%4
	}

	if jsonChunk == nil {
		return nil, ErrMissingGLBJSON
	}
	if err := json.Unmarshal(bytes.TrimRight(jsonChunk, " \x00"), &glb.Document); err != nil {
		return nil, fmt.Errorf("decoding GLB JSON: %w", err)
	}

	glb.parents = make([]int, len(glb.Document.Nodes))
	for i := range glb.parents {
		glb.parents[i] = -1
	}
	for i, n := range glb.Document.Nodes {
		for _, c := range n.Children {
			if c < 0 || c >= len(glb.parents) {
				return nil, fmt.Errorf("node %d: child index %d out of range", i, c)
			}
			glb.parents[c] = i
		}
	}

	return glb, nil
}

// EncodeGLB writes a document and its binary buffer as a GLB container.
func EncodeGLB(doc GLTFDocument, bin []byte) ([]byte, error) {
	if doc.Asset.Version == "" {
		doc.Asset.Version = "2.0"
	}
	js, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding GLB JSON: %w", err)
	}
	for len(js)%4 != 0 {
		js = append(js, ' ')
	}
	padded := append([]byte(nil), bin...)
	for len(padded)%4 != 0 {
		padded = append(padded, 0)
	}

	total := glbHeaderSize + 8 + len(js)
	if len(bin) > 0 {
		total += 8 + len(padded)
	}
	buf := new(bytes.Buffer)
	buf.Grow(total)
	buf.WriteString("glTF")
	_ = binary.Write(buf, binary.LittleEndian, uint32(glbVersion))
	_ = binary.Write(buf, binary.LittleEndian, uint32(total))
	_ = binary.Write(buf, binary.LittleEndian, uint32(len(js)))
	_ = binary.Write(buf, binary.LittleEndian, uint32(glbChunkJSON))
	buf.Write(js)
	if len(bin) > 0 {
		_ = binary.Write(buf, binary.LittleEndian, uint32(len(padded)))
		_ = binary.Write(buf, binary.LittleEndian, uint32(glbChunkBIN))
		buf.Write(padded)
	}
	return buf.Bytes(), nil
}

// ParseGLBFile parses a GLB file from disk.
func ParseGLBFile(path string) (*GLB, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading GLB file: %w", err)
	}
	return ParseGLB(data)
}

// Nodes returns the scene graph nodes.
func (g *GLB) Nodes() []GLTFNode {
	return g.Document.Nodes
}

// Parent returns the parent node index, or -1 for roots.
func (g *GLB) Parent(node int) int {
	if node < 0 || node >= len(g.parents) {
		return -1
	}
	return g.parents[node]
}

// NodeByName returns the index of the first node with the given name.
func (g *GLB) NodeByName(name string) (int, bool) {
	for i, n := range g.Document.Nodes {
		if n.Name == name {
			return i, true
		}
	}
	return -1, false
}

func componentCount(typ string) int {
	switch typ {
	case "SCALAR":
		return 1
	case "VEC2":
		return 2
	case "VEC3":
		return 3
	case "VEC4":
		return 4
	case "MAT2":
		return 4
	case "MAT3":
		return 9
	case "MAT4":
		return 16
	default:
		return 0
	}
}

func componentSize(componentType int) int {
	switch componentType {
	case GLTFByte, GLTFUnsignedByte:
		return 1
	case GLTFShort, GLTFUnsignedShort:
		return 2
	case GLTFUnsignedInt, GLTFFloat:
		return 4
	default:
		return 0
	}
}

// ReadFloats decodes an accessor from the BIN chunk as float32 values.
// Normalized integer components are mapped to [0,1] or [-1,1].
func (g *GLB) ReadFloats(accessor int) ([]float32, error) {
	if accessor < 0 || accessor >= len(g.Document.Accessors) {
		return nil, fmt.Errorf("%w: index %d", ErrInvalidGLBAccessor, accessor)
	}
	acc := g.Document.Accessors[accessor]

	comps := componentCount(acc.Type)
	size := componentSize(acc.ComponentType)
	if comps == 0 || size == 0 {
		return nil, fmt.Errorf("%w: %d has type %s/%d", ErrInvalidGLBAccessor, accessor, acc.Type, acc.ComponentType)
	}
	out := make([]float32, acc.Count*comps)
	if acc.BufferView == nil {
		// Sparse-only or zero-filled accessor.
		return out, nil
	}

	view, err := g.bufferView(*acc.BufferView)
	if err != nil {
		return nil, err
	}
	elemSize := comps * size
	stride := g.Document.BufferViews[*acc.BufferView].ByteStride
	if stride == 0 {
		stride = elemSize
	}
	if acc.Count > 0 && acc.ByteOffset+(acc.Count-1)*stride+elemSize > len(view) {
		return nil, fmt.Errorf("%w: accessor %d exceeds buffer view", ErrTruncatedGLBData, accessor)
	}

	for i := 0; i < acc.Count; i++ {
		base := acc.ByteOffset + i*stride
		for c := 0; c < comps; c++ {
			out[i*comps+c] = readComponent(view[base+c*size:], acc.ComponentType, acc.Normalized)
		}
	}
	return out, nil
}

func (g *GLB) bufferView(index int) ([]byte, error) {
	if index < 0 || index >= len(g.Document.BufferViews) {
		return nil, fmt.Errorf("%w: buffer view %d", ErrInvalidGLBAccessor, index)
	}
	bv := g.Document.BufferViews[index]
	if bv.Buffer != 0 {
		return nil, fmt.Errorf("%w: external buffer %d not supported", ErrInvalidGLBAccessor, bv.Buffer)
	}
	end := bv.ByteOffset + bv.ByteLength
	if bv.ByteOffset < 0 || end > len(g.BIN) {
		return nil, fmt.Errorf("%w: buffer view %d", ErrTruncatedGLBData, index)
	}
	return g.BIN[bv.ByteOffset:end], nil
}

func readComponent(b []byte, componentType int, normalized bool) float32 {
	switch componentType {
	case GLTFFloat:
		return math.Float32frombits(binary.LittleEndian.Uint32(b))
	case GLTFByte:
		v := float32(int8(b[0]))
		if normalized {
			return max(v/127, -1)
		}
		return v
	case GLTFUnsignedByte:
		v := float32(b[0])
		if normalized {
			return v / 255
		}
		return v
	case GLTFShort:
		v := float32(int16(binary.LittleEndian.Uint16(b)))
		if normalized {
			return max(v/32767, -1)
		}
		return v
	case GLTFUnsignedShort:
		v := float32(binary.LittleEndian.Uint16(b))
		if normalized {
			return v / 65535
		}
		return v
	case GLTFUnsignedInt:
		return float32(binary.LittleEndian.Uint32(b))
	}
	return 0
}

// Animations decodes every animation. Morph target (weights) channels are
// skipped.
func (g *GLB) Animations() ([]GLBAnimation, error) {
	out := make([]GLBAnimation, 0, len(g.Document.Animations))
	for i, a := range g.Document.Animations {
		anim, err := g.decodeAnimation(a)
		if err != nil {
			return nil, fmt.Errorf("animation %d (%s): %w", i, a.Name, err)
		}
		out = append(out, anim)
	}
	return out, nil
}

func (g *GLB) decodeAnimation(a GLTFAnimation) (GLBAnimation, error) {
	anim := GLBAnimation{Name: a.Name}
	for ci, ch := range a.Channels {
		if ch.Target.Node == nil || ch.Target.Path == GLTFPathWeights {
			continue
		}
		if ch.Sampler < 0 || ch.Sampler >= len(a.Samplers) {
			return GLBAnimation{}, fmt.Errorf("channel %d: sampler %d out of range", ci, ch.Sampler)
		}
		s := a.Samplers[ch.Sampler]

		times, err := g.ReadFloats(s.Input)
		if err != nil {
			return GLBAnimation{}, fmt.Errorf("channel %d input: %w", ci, err)
		}
		values, err := g.ReadFloats(s.Output)
		if err != nil {
			return GLBAnimation{}, fmt.Errorf("channel %d output: %w", ci, err)
		}

		interp := s.Interpolation
		if interp == "" {
			interp = GLTFLinear
		}
		if interp == GLTFCubicSpline {
			values = cubicSplineValues(values, len(times))
			interp = GLTFLinear
		}

		for _, t := range times {
			if t > anim.Duration {
				anim.Duration = t
			}
		}
		anim.Channels = append(anim.Channels, GLBChannel{
			Node:          *ch.Target.Node,
			Path:          ch.Target.Path,
			Interpolation: interp,
			Times:         times,
			Values:        values,
		})
	}
	return anim, nil
}

// cubicSplineValues keeps the value of each (in-tangent, value, out-tangent)
// triplet so the keys can be sampled linearly.
func cubicSplineValues(values []float32, keys int) []float32 {
	if keys == 0 || len(values)%(keys*3) != 0 {
		return values
	}
	comps := len(values) / (keys * 3)
	out := make([]float32, 0, keys*comps)
	for k := 0; k < keys; k++ {
		base := (k*3 + 1) * comps
		out = append(out, values[base:base+comps]...)
	}
	return out
}
