package anim

import (
	"time"

	"github.com/Faultbox/greenmap/pkg/math"
)

// LoopMode controls what happens when an action reaches the clip end.
type LoopMode int

const (
	// LoopRepeat wraps around to the start.
	LoopRepeat LoopMode = iota
	// LoopOnce clamps on the last frame and holds it until faded out.
	LoopOnce
)

// Action plays one clip on a mixer.
type Action struct {
	clip  *Clip
	mixer *Mixer

	time     float32
	loop     LoopMode
	running  bool
	finished bool

	weight     float32
	fading     bool
	fadeFrom   float32
	fadeTo     float32
	fadeTime   float32
	fadeLength float32

	bindings []int // track index -> joint index, -1 when unbound
}

// Name returns the clip name.
func (a *Action) Name() string { return a.clip.Name }

// Clip returns the played clip.
func (a *Action) Clip() *Clip { return a.clip }

// Duration returns the clip length.
func (a *Action) Duration() time.Duration {
	return time.Duration(float64(a.clip.Duration) * float64(time.Second))
}

// Time returns the local playback time in seconds.
func (a *Action) Time() float32 { return a.time }

// Play starts the action from its current time.
func (a *Action) Play() { a.running = true }

// Stop halts the action and rewinds it. Fades are cancelled.
func (a *Action) Stop() {
	a.running = false
	a.finished = false
	a.time = 0
	a.fading = false
	a.weight = 1
}

// Reset rewinds the action and restores full weight.
func (a *Action) Reset() {
	a.time = 0
	a.finished = false
	a.fading = false
	a.weight = 1
}

// SetLoop sets the loop mode.
func (a *Action) SetLoop(mode LoopMode) { a.loop = mode }

// Loop returns the loop mode.
func (a *Action) Loop() LoopMode { return a.loop }

// IsRunning reports whether the action is playing.
func (a *Action) IsRunning() bool { return a.running }

// Finished reports whether a LoopOnce action reached the clip end.
func (a *Action) Finished() bool { return a.finished }

// FadeIn ramps the weight from 0 to 1 over d.
func (a *Action) FadeIn(d time.Duration) { a.fade(0, 1, d) }

// FadeOut ramps the weight from its current value to 0 over d, then stops.
func (a *Action) FadeOut(d time.Duration) { a.fade(a.EffectiveWeight(), 0, d) }

func (a *Action) fade(from, to float32, d time.Duration) {
	length := float32(d.Seconds())
	if length <= 0 {
		a.fading = false
		a.weight = to
		if to == 0 {
			a.running = false
		}
		return
	}
	a.fading = true
	a.fadeFrom = from
	a.fadeTo = to
	a.fadeTime = 0
	a.fadeLength = length
	a.weight = from
}

// EffectiveWeight returns the current blend weight, 0 when stopped.
func (a *Action) EffectiveWeight() float32 {
	if !a.running {
		return 0
	}
	return a.weight
}

func (a *Action) advance(dt float32) {
	if !a.running {
		return
	}

	if a.fading {
		a.fadeTime += dt
		f := math.Clamp01(a.fadeTime / a.fadeLength)
		a.weight = a.fadeFrom + (a.fadeTo-a.fadeFrom)*f
		if f >= 1 {
			a.fading = false
			if a.fadeTo == 0 {
				a.running = false
				return
			}
		}
	}

	a.time += dt
	d := a.clip.Duration
	if d <= 0 {
		a.time = 0
		return
	}
	if a.time < d {
		return
	}
	switch a.loop {
	case LoopOnce:
		a.time = d
		a.finished = true
	default:
		for a.time >= d {
			a.time -= d
		}
	}
}

// Mixer advances actions and blends them into a skeleton pose.
type Mixer struct {
	skeleton *Skeleton
	actions  map[*Clip]*Action
	order    []*Action
}

// NewMixer creates a mixer for a skeleton.
func NewMixer(s *Skeleton) *Mixer {
	if s == nil {
		s = NewSkeleton(nil)
	}
	return &Mixer{skeleton: s, actions: make(map[*Clip]*Action)}
}

// Skeleton returns the mixer's skeleton.
func (m *Mixer) Skeleton() *Skeleton { return m.skeleton }

// ClipAction returns the action for a clip, creating it on first use.
func (m *Mixer) ClipAction(c *Clip) *Action {
	if a, ok := m.actions[c]; ok {
		return a
	}
	a := &Action{clip: c, mixer: m, weight: 1, bindings: make([]int, len(c.Tracks))}
	for i, tr := range c.Tracks {
		a.bindings[i] = -1
		if j, ok := m.skeleton.Index(tr.Joint); ok {
			a.bindings[i] = j
		}
	}
	m.actions[c] = a
	m.order = append(m.order, a)
	return a
}

// Actions returns every action created by the mixer.
func (m *Mixer) Actions() []*Action {
	return append([]*Action(nil), m.order...)
}

// Update advances every running action by dt.
func (m *Mixer) Update(dt time.Duration) {
	s := float32(dt.Seconds())
	for _, a := range m.order {
		a.advance(s)
	}
}

type blend struct {
	t, s       math.Vec3
	r          math.Quat
	wt, wr, ws float32
	hasR       bool
}

// Pose blends the running actions over the rest pose. Where the summed
// weight of a property is below 1 the rest value fills the remainder.
func (m *Mixer) Pose() []TRS {
	rest := m.skeleton.RestPose()
	acc := make([]blend, len(rest))

	for _, a := range m.order {
		w := a.EffectiveWeight()
		if w <= 0 {
			continue
		}
		for i := range a.clip.Tracks {
			j := a.bindings[i]
			if j < 0 {
				continue
			}
			tr := &a.clip.Tracks[i]
			b := &acc[j]
			switch tr.Path {
			case PathTranslation:
				b.t = b.t.Add(tr.SampleVec3(a.time).Scale(w))
				b.wt += w
			case PathScale:
				b.s = b.s.Add(tr.SampleVec3(a.time).Scale(w))
				b.ws += w
			case PathRotation:
				q := tr.SampleQuat(a.time)
				if !b.hasR {
					b.r, b.wr, b.hasR = q, w, true
					continue
				}
				b.wr += w
				b.r = b.r.Slerp(q, w/b.wr)
			}
		}
	}

	pose := make([]TRS, len(rest))
	for j, r := range rest {
		b := acc[j]
		p := r
		if b.wt > 0 {
			p.T = mixVec3(b.t, b.wt, r.T)
		}
		if b.ws > 0 {
			p.S = mixVec3(b.s, b.ws, r.S)
		}
		if b.hasR {
			if b.wr < 1 {
				p.R = r.R.Slerp(b.r, b.wr)
			} else {
				p.R = b.r
			}
			p.R = p.R.Normalize()
		}
		pose[j] = p
	}
	return pose
}

// mixVec3 normalizes a weighted sum, topping it up with rest when the
// weight is below 1.
func mixVec3(sum math.Vec3, w float32, rest math.Vec3) math.Vec3 {
	if w >= 1 {
		return sum.Scale(1 / w)
	}
	return sum.Add(rest.Scale(1 - w))
}
