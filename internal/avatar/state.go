// Package avatar drives the user's animated avatar on the map: a state
// machine that alternates a base idle loop with random idle variations and
// an explicit walking state, the asset loader that feeds it, and the custom
// map layer that poses and draws the skeleton every frame.
package avatar

import (
	"errors"
	"math/rand"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/greenmap/internal/avatar/anim"
	"github.com/Faultbox/greenmap/internal/config"
	"github.com/Faultbox/greenmap/internal/logger"
)

// ErrNoAnimations is returned when RegisterAnimations receives nothing to play.
var ErrNoAnimations = errors.New("no animations to register")

// State is the active playback state.
type State string

const (
	StateInitialVariation State = "initial_variation"
	StateBaseIdle         State = "base_idle"
	StateRandomVariation  State = "random_variation"
	StateWalking          State = "walking"
)

// HistorySize is how many recent variations are avoided when picking the
// next one.
const HistorySize = 2

// Action is a playable clip. *anim.Action implements it.
type Action interface {
	Name() string
	Play()
	Stop()
	Reset()
	FadeIn(d time.Duration)
	FadeOut(d time.Duration)
	SetLoop(mode anim.LoopMode)
	IsRunning() bool
	Duration() time.Duration
}

var _ Action = (*anim.Action)(nil)

// Clock returns the current time.
type Clock func() time.Time

// Config holds clip roles and state timings.
type Config struct {
	BaseIdle string
	Walking  string

	InitialVariationDuration time.Duration
	BaseIdleDuration         time.Duration
	VariationMinDuration     time.Duration
	VariationMaxDuration     time.Duration
	CrossfadeDuration        time.Duration
}

// ConfigFrom converts the avatar config section.
func ConfigFrom(c config.AvatarConfig) Config {
	return Config{
		BaseIdle:                 c.BaseIdle,
		Walking:                  c.Walking,
		InitialVariationDuration: c.InitialVariationDuration,
		BaseIdleDuration:         c.BaseIdleDuration,
		VariationMinDuration:     c.VariationMinDuration,
		VariationMaxDuration:     c.VariationMaxDuration,
		CrossfadeDuration:        c.CrossfadeDuration,
	}
}

func (c Config) withDefaults() Config {
	def := ConfigFrom(config.Default().Avatar)
	if c.BaseIdle == "" {
		c.BaseIdle = def.BaseIdle
	}
	if c.Walking == "" {
		c.Walking = def.Walking
	}
	if c.InitialVariationDuration <= 0 {
		c.InitialVariationDuration = def.InitialVariationDuration
	}
	if c.BaseIdleDuration <= 0 {
		c.BaseIdleDuration = def.BaseIdleDuration
	}
	if c.VariationMinDuration <= 0 {
		c.VariationMinDuration = def.VariationMinDuration
	}
	if c.VariationMaxDuration < c.VariationMinDuration {
		c.VariationMaxDuration = c.VariationMinDuration
	}
	if c.CrossfadeDuration < 0 {
		c.CrossfadeDuration = 0
	}
	return c
}

// Options configures a StateMachine.
type Options struct {
	Config Config
	// Clock defaults to a frame clock advanced by Update.
	Clock  Clock
	Rand   *rand.Rand
	Logger *zap.Logger
}

// StateMachine owns avatar playback. Only the active state's timer is
// evaluated on Update.
type StateMachine struct {
	cfg  Config
	rng  *rand.Rand
	log  *zap.Logger
	now  Clock
	tick time.Time // frame clock, used when no Clock is injected

	mu         sync.Mutex
	registered bool
	baseIdle   Action
	walking    Action
	variations []Action

	state      State
	current    Action
	stateStart time.Time
	stateLimit time.Duration // 0 for states without a timeout
	history    []string
}

// NewStateMachine creates an inactive machine. It starts playing once
// RegisterAnimations is called.
func NewStateMachine(opts Options) *StateMachine {
	sm := &StateMachine{
		cfg: opts.Config.withDefaults(),
		rng: opts.Rand,
		log: opts.Logger,
		now: opts.Clock,
	}
	if sm.rng == nil {
		sm.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if sm.log == nil {
		sm.log = logger.Named("avatar")
	}
	if sm.now == nil {
		sm.tick = time.Unix(0, 0)
		sm.now = func() time.Time { return sm.tick }
	}
	return sm
}

// RegisterAnimations classifies the loaded actions into the base idle, the
// walking clip and the variation pool, then enters initial_variation.
// Names other than the configured base idle and walking clips are treated
// as variations.
func (sm *StateMachine) RegisterAnimations(actions map[string]Action) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if len(actions) == 0 {
		return ErrNoAnimations
	}
	if sm.current != nil {
		sm.current.Stop()
		sm.current = nil
	}

	names := make([]string, 0, len(actions))
	for name := range actions {
		names = append(names, name)
	}
	sort.Strings(names)

	sm.baseIdle, sm.walking, sm.variations = nil, nil, nil
	for _, name := range names {
		a := actions[name]
		if a == nil {
			continue
		}
		switch name {
		case sm.cfg.BaseIdle:
			sm.baseIdle = a
		case sm.cfg.Walking:
			sm.walking = a
		default:
			sm.variations = append(sm.variations, a)
		}
	}
	if sm.baseIdle == nil {
		sm.log.Warn("base idle animation missing", zap.String("name", sm.cfg.BaseIdle))
	}
	if sm.walking == nil {
		sm.log.Warn("walking animation missing", zap.String("name", sm.cfg.Walking))
	}

	sm.registered = true
	sm.history = sm.history[:0]
	sm.log.Info("animations registered",
		zap.Int("variations", len(sm.variations)),
		zap.Bool("base_idle", sm.baseIdle != nil),
		zap.Bool("walking", sm.walking != nil))

	sm.enterInitialVariation()
	return nil
}

// Registered reports whether RegisterAnimations has run.
func (sm *StateMachine) Registered() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.registered
}

// Update advances the frame clock and evaluates the active state's timeout.
func (sm *StateMachine) Update(dt time.Duration) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.tick = sm.tick.Add(dt)
	if !sm.registered || sm.stateLimit <= 0 {
		return
	}
	if sm.now().Sub(sm.stateStart) < sm.stateLimit {
		return
	}

	switch sm.state {
	case StateInitialVariation, StateRandomVariation:
		sm.enterBaseIdle()
	case StateBaseIdle:
		sm.enterRandomVariation()
	}
}

// StartWalking switches to the walking loop, pre-empting any idle timer.
func (sm *StateMachine) StartWalking() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.ready("StartWalking") || sm.state == StateWalking {
		return
	}
	if sm.walking == nil {
		sm.log.Warn("cannot walk: no walking animation")
		return
	}
	sm.transition(StateWalking, sm.walking, 0)
}

// StopWalking returns from walking to the base idle loop.
func (sm *StateMachine) StopWalking() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.ready("StopWalking") || sm.state != StateWalking {
		return
	}
	sm.enterBaseIdle()
}

// ReturnToBaseIdle enters base_idle from any state and restarts its timer.
func (sm *StateMachine) ReturnToBaseIdle() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.ready("ReturnToBaseIdle") {
		return
	}
	sm.enterBaseIdle()
}

// CurrentState returns the active state, empty before registration.
func (sm *StateMachine) CurrentState() State {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.state
}

// CurrentAnimationName returns the clip playing in the active state.
func (sm *StateMachine) CurrentAnimationName() string {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.current == nil {
		return ""
	}
	return sm.current.Name()
}

// StateTime returns how long the active state has been running.
func (sm *StateMachine) StateTime() time.Duration {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if !sm.registered {
		return 0
	}
	return sm.now().Sub(sm.stateStart)
}

// IsInIdleState reports whether the avatar is in one of the idle states.
func (sm *StateMachine) IsInIdleState() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	switch sm.state {
	case StateInitialVariation, StateBaseIdle, StateRandomVariation:
		return true
	}
	return false
}

// History returns the most recent variation names, oldest first.
func (sm *StateMachine) History() []string {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return append([]string(nil), sm.history...)
}

func (sm *StateMachine) ready(call string) bool {
	if !sm.registered {
		sm.log.Warn("animation control before registration", zap.String("call", call))
		return false
	}
	return true
}

func (sm *StateMachine) enterInitialVariation() {
	v := sm.pickVariation()
	if v == nil {
		sm.enterBaseIdle()
		return
	}
	sm.transition(StateInitialVariation, v, sm.cfg.InitialVariationDuration)
}

func (sm *StateMachine) enterBaseIdle() {
	sm.transition(StateBaseIdle, sm.baseIdle, sm.cfg.BaseIdleDuration)
}

func (sm *StateMachine) enterRandomVariation() {
	v := sm.pickVariation()
	if v == nil {
		// Nothing to vary with; keep idling.
		sm.enterBaseIdle()
		return
	}
	sm.transition(StateRandomVariation, v, sm.variationDuration())
}

func (sm *StateMachine) variationDuration() time.Duration {
	span := sm.cfg.VariationMaxDuration - sm.cfg.VariationMinDuration
	if span <= 0 {
		return sm.cfg.VariationMinDuration
	}
	return sm.cfg.VariationMinDuration + time.Duration(sm.rng.Int63n(int64(span)+1))
}

// pickVariation chooses a variation outside the recent history, falling
// back to the whole pool when the history covers it.
func (sm *StateMachine) pickVariation() Action {
	if len(sm.variations) == 0 {
		return nil
	}

	candidates := make([]Action, 0, len(sm.variations))
	for _, v := range sm.variations {
		if !sm.inHistory(v.Name()) {
			candidates = append(candidates, v)
		}
	}
	if len(candidates) == 0 {
		candidates = sm.variations
	}

	v := candidates[sm.rng.Intn(len(candidates))]
	sm.history = append(sm.history, v.Name())
	if len(sm.history) > HistorySize {
		sm.history = sm.history[len(sm.history)-HistorySize:]
	}
	return v
}

func (sm *StateMachine) inHistory(name string) bool {
	for _, h := range sm.history {
		if h == name {
			return true
		}
	}
	return false
}

// transition crossfades from the current clip to next and restarts the
// state timer.
func (sm *StateMachine) transition(state State, next Action, limit time.Duration) {
	prev := sm.current
	fade := sm.cfg.CrossfadeDuration

	if prev != nil && prev != next {
		prev.FadeOut(fade)
	}
	if next != nil && (prev != next || !next.IsRunning()) {
		next.Reset()
		next.SetLoop(loopFor(state))
		next.FadeIn(fade)
		next.Play()
	}

	sm.log.Debug("animation state",
		zap.String("from", string(sm.state)),
		zap.String("to", string(state)),
		zap.String("clip", actionName(next)))

	sm.state = state
	sm.current = next
	sm.stateStart = sm.now()
	sm.stateLimit = limit
}

// loopFor returns the loop mode of a state's clip. The initial variation
// plays once and holds its last frame; every other state loops.
func loopFor(state State) anim.LoopMode {
	if state == StateInitialVariation {
		return anim.LoopOnce
	}
	return anim.LoopRepeat
}

func actionName(a Action) string {
	if a == nil {
		return ""
	}
	return a.Name()
}
