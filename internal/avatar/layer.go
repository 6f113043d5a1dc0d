package avatar

import (
	"errors"
	"fmt"
	gomath "math"
	"sync"
	"time"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/greenmap/internal/avatar/anim"
	"github.com/Faultbox/greenmap/internal/engine/shader"
	"github.com/Faultbox/greenmap/internal/geo"
	"github.com/Faultbox/greenmap/internal/logger"
	"github.com/Faultbox/greenmap/internal/mapview"
	"github.com/Faultbox/greenmap/pkg/math"
)

// DefaultLayerID is the custom layer id used when none is configured.
const DefaultLayerID = "avatar"

const boneVertexShader = `
#version 410 core

layout (location = 0) in vec3 aPos;

uniform mat4 uMVP;

void main() {
	gl_Position = uMVP * vec4(aPos, 1.0);
}
`

const boneFragmentShader = `
#version 410 core

uniform vec4 uColor;
out vec4 FragColor;

void main() {
	FragColor = uColor;
}
`

// LayerOptions configures a Layer.
type LayerOptions struct {
	ID       string
	Position geo.LngLat
	// ScaleMeters is the size in meters of one model unit.
	ScaleMeters float64
	// RotationDeg turns the model clockwise around its vertical axis.
	RotationDeg float64
	Color       [4]float32
	Logger      *zap.Logger
}

// Layer is the custom map layer that animates and draws the avatar.
type Layer struct {
	id      string
	sm      *StateMachine
	scale   float64
	heading float64
	color   [4]float32
	log     *zap.Logger

	mu       sync.Mutex
	position geo.LngLat
	avatar   *Avatar
	mixer    *anim.Mixer

	// GL objects are created lazily on the render thread.
	program  uint32
	vao      uint32
	vbo      uint32
	uMVP     int32
	uColor   int32
	glReady  bool
	glFailed bool
}

var _ mapview.CustomLayer = (*Layer)(nil)

// NewLayer creates an avatar layer driven by sm.
func NewLayer(sm *StateMachine, opts LayerOptions) *Layer {
	l := &Layer{
		id:       opts.ID,
		sm:       sm,
		scale:    opts.ScaleMeters,
		heading:  opts.RotationDeg,
		color:    opts.Color,
		log:      opts.Logger,
		position: opts.Position,
	}
	if l.id == "" {
		l.id = DefaultLayerID
	}
	if l.scale <= 0 {
		l.scale = 1
	}
	if l.color == ([4]float32{}) {
		l.color = [4]float32{0.2, 0.9, 0.4, 1}
	}
	if l.log == nil {
		l.log = logger.Named("avatar")
	}
	return l
}

// ID implements mapview.CustomLayer.
func (l *Layer) ID() string { return l.id }

// StateMachine returns the driver of this layer's animations.
func (l *Layer) StateMachine() *StateMachine { return l.sm }

// OnAdd implements mapview.CustomLayer.
func (l *Layer) OnAdd(m *mapview.Map) error {
	l.log.Debug("avatar layer added", zap.String("id", l.id), zap.Float64("zoom", m.Zoom()))
	return nil
}

// OnRemove releases GL objects.
func (l *Layer) OnRemove() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.glReady {
		return
	}
	gl.DeleteBuffers(1, &l.vbo)
	gl.DeleteVertexArrays(1, &l.vao)
	gl.DeleteProgram(l.program)
	l.glReady = false
}

// Attach binds a loaded avatar: a mixer is built for its skeleton and the
// clips are registered with the state machine.
func (l *Layer) Attach(av *Avatar) error {
	if av == nil || av.Skeleton == nil {
		return errors.New("avatar has no skeleton")
	}

	mixer := anim.NewMixer(av.Skeleton)
	actions := make(map[string]Action, len(av.Clips))
	for name, clip := range av.Clips {
		actions[name] = mixer.ClipAction(clip)
	}

	l.mu.Lock()
	l.avatar = av
	l.mixer = mixer
	l.mu.Unlock()

	if err := l.sm.RegisterAnimations(actions); err != nil {
		return fmt.Errorf("registering animations: %w", err)
	}
	return nil
}

// SetPosition moves the avatar. Invalid coordinates are rejected.
func (l *Layer) SetPosition(p geo.LngLat) error {
	if err := p.Validate(); err != nil {
		return err
	}
	l.mu.Lock()
	l.position = p
	l.mu.Unlock()
	return nil
}

// Position returns the avatar's geographic position.
func (l *Layer) Position() geo.LngLat {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.position
}

// Update advances the mixer, then the state machine.
func (l *Layer) Update(dt time.Duration) {
	l.mu.Lock()
	if l.mixer != nil {
		l.mixer.Update(dt)
	}
	l.mu.Unlock()

	l.sm.Update(dt)
}

// ModelMatrix places the model in the view's local frame: translated to the
// avatar's position, scaled from meters to world pixels, stood upright (the
// model is Y-up, the map is Z-up) and turned to its heading.
func (l *Layer) ModelMatrix(v mapview.View) math.Mat4 {
	l.mu.Lock()
	pos := l.position
	l.mu.Unlock()

	p := v.Local(geo.FromLngLat(pos, 0))
	s := float32(v.PixelsPerMeter() * l.scale)
	heading := float32(-l.heading * gomath.Pi / 180)

	return math.Translate(p.X, p.Y, p.Z).
		Mul(math.Scale(s, -s, s)).
		Mul(math.RotateX(gomath.Pi / 2)).
		Mul(math.RotateY(heading))
}

// BoneLines returns the current pose as line segments in model space, one
// parent-to-child pair per joint.
func (l *Layer) BoneLines() []float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.mixer == nil {
		return nil
	}
	skel := l.mixer.Skeleton()
	return boneLines(skel, skel.World(l.mixer.Pose()))
}

func boneLines(s *anim.Skeleton, world []math.Mat4) []float32 {
	var out []float32
	for i, j := range s.Joints {
		if j.Parent < 0 || j.Parent >= len(world) {
			continue
		}
		from := world[j.Parent].TransformPoint([3]float32{})
		to := world[i].TransformPoint([3]float32{})
		out = append(out, from[0], from[1], from[2], to[0], to[1], to[2])
	}
	return out
}

// Render draws the posed skeleton. The map's GL program and vertex array
// binding are restored afterwards so the host's next draw is unaffected.
func (l *Layer) Render(v mapview.View) {
	lines := l.BoneLines()
	if len(lines) == 0 {
		return
	}
	if !l.ensureGL() {
		return
	}

	// The host's program and vertex array stay bound after this layer draws.
	defer shader.Save().Restore()

	mvp := v.Matrix.Mul(l.ModelMatrix(v))

	gl.UseProgram(l.program)
	gl.UniformMatrix4fv(l.uMVP, 1, false, mvp.Ptr())
	gl.Uniform4f(l.uColor, l.color[0], l.color[1], l.color[2], l.color[3])

	gl.BindVertexArray(l.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, l.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(lines)*4, unsafe.Pointer(&lines[0]), gl.DYNAMIC_DRAW)
	gl.DrawArrays(gl.LINES, 0, int32(len(lines)/3))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

func (l *Layer) ensureGL() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.glReady || l.glFailed {
		return l.glReady
	}

	program, err := shader.CompileProgram(boneVertexShader, boneFragmentShader)
	if err != nil {
		l.glFailed = true
		l.log.Error("avatar shader failed", zap.Error(err))
		return false
	}
	l.program = program
	l.uMVP = shader.GetUniform(program, "uMVP")
	l.uColor = shader.GetUniform(program, "uColor")

	gl.GenVertexArrays(1, &l.vao)
	gl.BindVertexArray(l.vao)
	gl.GenBuffers(1, &l.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, l.vbo)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 3*4, nil)
	gl.EnableVertexAttribArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)

	l.glReady = true
	return true
}
