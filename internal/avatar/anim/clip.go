// Package anim is a small skeletal animation mixer: clips of keyframed
// joint tracks, actions that play them with looping and weight fades, and a
// mixer that blends running actions into a skeleton pose.
package anim

import (
	"fmt"

	"github.com/Faultbox/greenmap/pkg/formats"
	"github.com/Faultbox/greenmap/pkg/math"
)

// Path is the joint property a track drives.
type Path int

const (
	PathTranslation Path = iota
	PathRotation
	PathScale
)

// Track is a keyframed property of one joint. Values holds 3 components
// per key for translation and scale, 4 (x, y, z, w) for rotation.
type Track struct {
	Joint  string
	Path   Path
	Step   bool
	Times  []float32
	Values []float32
}

func (t *Track) components() int {
	if t.Path == PathRotation {
		return 4
	}
	return 3
}

// keys returns the keyframe pair around time and the blend factor.
func (t *Track) keys(time float32) (prev, next int, f float32) {
	n := len(t.Times)
	if n == 0 {
		return 0, 0, 0
	}
	if time <= t.Times[0] {
		return 0, 0, 0
	}
	if time >= t.Times[n-1] {
		return n - 1, n - 1, 0
	}

	for i := 1; i < n; i++ {
		if t.Times[i] > time {
			prev, next = i-1, i
			break
		}
	}
	if t.Step {
		return prev, prev, 0
	}
	span := t.Times[next] - t.Times[prev]
	if span > 0 {
		f = (time - t.Times[prev]) / span
	}
	return prev, next, f
}

func (t *Track) vec3(key int) math.Vec3 {
	v := t.Values[key*3 : key*3+3]
	return math.Vec3{X: v[0], Y: v[1], Z: v[2]}
}

func (t *Track) quat(key int) math.Quat {
	v := t.Values[key*4 : key*4+4]
	return math.Quat{X: v[0], Y: v[1], Z: v[2], W: v[3]}
}

// SampleVec3 interpolates a translation or scale track.
func (t *Track) SampleVec3(time float32) math.Vec3 {
	prev, next, f := t.keys(time)
	return t.vec3(prev).Lerp(t.vec3(next), f)
}

// SampleQuat interpolates a rotation track.
func (t *Track) SampleQuat(time float32) math.Quat {
	prev, next, f := t.keys(time)
	return t.quat(prev).Slerp(t.quat(next), f)
}

func (t *Track) valid() bool {
	return len(t.Times) > 0 && len(t.Values) >= len(t.Times)*t.components()
}

// Clip is a named set of tracks. Duration is in seconds.
type Clip struct {
	Name     string
	Duration float32
	Tracks   []Track
}

// ClipsFromGLB converts the animations of a GLB into clips. Tracks address
// joints by node name so clips can be shared between files with matching
// skeletons.
func ClipsFromGLB(glb *formats.GLB) ([]*Clip, error) {
	anims, err := glb.Animations()
	if err != nil {
		return nil, err
	}
	nodes := glb.Nodes()

	clips := make([]*Clip, 0, len(anims))
	for _, a := range anims {
		clip := &Clip{Name: a.Name, Duration: a.Duration}
		for _, ch := range a.Channels {
			if ch.Node < 0 || ch.Node >= len(nodes) {
				return nil, fmt.Errorf("clip %s: node %d out of range", a.Name, ch.Node)
			}
			tr := Track{
				Joint:  nodes[ch.Node].Name,
				Step:   ch.Interpolation == formats.GLTFStep,
				Times:  ch.Times,
				Values: ch.Values,
			}
			switch ch.Path {
			case formats.GLTFPathTranslation:
				tr.Path = PathTranslation
			case formats.GLTFPathRotation:
				tr.Path = PathRotation
			case formats.GLTFPathScale:
				tr.Path = PathScale
			default:
				continue
			}
			if !tr.valid() {
				return nil, fmt.Errorf("clip %s: track %s has %d values for %d keys", a.Name, tr.Joint, len(tr.Values), len(tr.Times))
			}
			clip.Tracks = append(clip.Tracks, tr)
		}
		clips = append(clips, clip)
	}
	return clips, nil
}
