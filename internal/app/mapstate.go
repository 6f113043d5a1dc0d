package app

import (
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/greenmap/internal/engine/camera"
	"github.com/Faultbox/greenmap/internal/engine/input"
	"github.com/Faultbox/greenmap/internal/engine/ui2d"
	"github.com/Faultbox/greenmap/internal/mapview"
)

// Hooks are app-level commands the map state triggers from keys.
type Hooks struct {
	ToggleGrid func()
	Screenshot func()
	Quit       func()
}

// MapStateConfig wires the map state to its collaborators.
type MapStateConfig struct {
	Map      *mapview.Map
	Camera   *camera.MapCamera
	Controls *Controls
	HUD      *HUD
	UI       *ui2d.Context
	Hooks    Hooks
	Logger   *zap.Logger
}

// MapState is the interactive map screen.
type MapState struct {
	cfg MapStateConfig
	log *zap.Logger

	// Movement input, -1 to 1.
	moveForward float64
	moveRight   float64
	held        map[sdl.Scancode]bool

	rotating         bool
	lastX, lastY     int
	pressedOnOverlay bool

	fps float64
}

// NewMapState creates the map state.
func NewMapState(cfg MapStateConfig) *MapState {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Controls == nil {
		cfg.Controls = &Controls{Log: log}
	}
	return &MapState{
		cfg:  cfg,
		log:  log,
		held: make(map[sdl.Scancode]bool),
	}
}

// Enter is called when entering this state.
func (s *MapState) Enter() error {
	s.log.Info("entering map state", zap.Float64("zoom", s.cfg.Map.Zoom()))
	return nil
}

// Exit is called when leaving this state.
func (s *MapState) Exit() error {
	s.cfg.Map.Hover(-1, -1)
	return nil
}

// SetFPS records the frame rate shown in the HUD.
func (s *MapState) SetFPS(fps float64) {
	s.fps = fps
}

// Update applies held movement keys to the camera.
func (s *MapState) Update(dt time.Duration) error {
	if s.cfg.Camera != nil {
		s.cfg.Camera.HandleMovement(s.moveForward, s.moveRight, dt)
	}
	return nil
}

// Render draws the HUD.
func (s *MapState) Render() {
	if s.cfg.HUD != nil {
		s.cfg.HUD.Draw(s.fps)
	}
}

func (s *MapState) overlay(x, y int) bool {
	return s.cfg.UI != nil && s.cfg.UI.WantsMouse(float32(x), float32(y))
}

// HandleInput routes pointer events to the map unless the HUD is under
// the pointer, and keys to the controls.
func (s *MapState) HandleInput(ev input.Event) error {
	switch ev.Type {
	case input.EventKeyDown:
		s.keyDown(ev.Key)
	case input.EventKeyUp:
		s.held[ev.Key] = false
		s.updateMovement()

	case input.EventMouseDown:
		if ev.Button == sdl.BUTTON_LEFT {
			s.pressedOnOverlay = s.overlay(ev.MouseX, ev.MouseY)
		}
		if ev.Button == sdl.BUTTON_RIGHT && !s.overlay(ev.MouseX, ev.MouseY) {
			s.rotating = true
			s.lastX, s.lastY = ev.MouseX, ev.MouseY
		}
	case input.EventMouseUp:
		if ev.Button == sdl.BUTTON_RIGHT {
			s.rotating = false
		}

	case input.EventMouseMove:
		if s.rotating && s.cfg.Camera != nil {
			s.cfg.Camera.HandleRotate(float64(ev.MouseX-s.lastX), float64(ev.MouseY-s.lastY))
			s.lastX, s.lastY = ev.MouseX, ev.MouseY
			return nil
		}
		if s.overlay(ev.MouseX, ev.MouseY) {
			s.cfg.Map.Hover(-1, -1)
			return nil
		}
		s.cfg.Map.Hover(float64(ev.MouseX), float64(ev.MouseY))

	case input.EventDrag:
		if !s.pressedOnOverlay && s.cfg.Camera != nil {
			s.cfg.Camera.HandleDrag(float64(ev.DX), float64(ev.DY))
		}

	case input.EventClick:
		if s.pressedOnOverlay || s.overlay(ev.MouseX, ev.MouseY) {
			return nil
		}
		if !s.cfg.Map.Click(float64(ev.MouseX), float64(ev.MouseY)) {
			s.cfg.Controls.ClearSelection()
		}

	case input.EventMouseWheel:
		if !s.overlay(ev.MouseX, ev.MouseY) && s.cfg.Camera != nil {
			s.cfg.Camera.HandleZoom(float64(ev.WheelY), float64(ev.MouseX), float64(ev.MouseY))
		}

	}
	return nil
}

func (s *MapState) keyDown(key sdl.Scancode) {
	s.held[key] = true
	s.updateMovement()

	c := s.cfg.Controls
	switch key {
	case sdl.SCANCODE_W:
		c.ToggleWalking()
	case sdl.SCANCODE_I:
		c.ReturnToIdle()
	case sdl.SCANCODE_C:
		c.ToggleClustering()
	case sdl.SCANCODE_R:
		c.Refresh()
		s.status("Refreshing markers")
	case sdl.SCANCODE_L:
		if s.cfg.HUD != nil {
			s.cfg.HUD.locate()
		}
	case sdl.SCANCODE_N:
		if s.cfg.Camera != nil {
			s.cfg.Camera.ResetNorth()
		}
	case sdl.SCANCODE_G:
		call(s.cfg.Hooks.ToggleGrid)
	case sdl.SCANCODE_P:
		call(s.cfg.Hooks.Screenshot)
	case sdl.SCANCODE_ESCAPE:
		if _, ok := c.Selected(); ok {
			c.ClearSelection()
			return
		}
		call(s.cfg.Hooks.Quit)
	}
}

func (s *MapState) updateMovement() {
	s.moveForward, s.moveRight = 0, 0
	if s.held[sdl.SCANCODE_UP] {
		s.moveForward++
	}
	if s.held[sdl.SCANCODE_DOWN] {
		s.moveForward--
	}
	if s.held[sdl.SCANCODE_RIGHT] {
		s.moveRight++
	}
	if s.held[sdl.SCANCODE_LEFT] {
		s.moveRight--
	}
}

func (s *MapState) status(msg string) {
	if s.cfg.HUD != nil {
		s.cfg.HUD.SetStatus(msg)
	}
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}
