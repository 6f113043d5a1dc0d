// Package input turns SDL2 events into map interactions.
package input

import (
	"github.com/veandco/go-sdl2/sdl"
)

// EventType identifies a processed event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
	EventKeyUp
	EventMouseMove
	EventMouseDown
	EventMouseUp
	EventMouseWheel
	EventClick
	EventDrag
)

// Event represents a processed input event.
type Event struct {
	Type   EventType
	Key    sdl.Scancode
	Width  int
	Height int
	MouseX int
	MouseY int
	Button uint8
	// DX, DY carry the drag delta; WheelY the scroll amount.
	DX, DY int
	WheelY float32
}

// ClickSlop is how far the pointer may travel between press and release
// for the pair to count as a click.
const ClickSlop = 4

// Input handles all input processing.
type Input struct {
	events []Event

	pressed        bool
	dragging       bool
	pressX, pressY int
	lastX, lastY   int
	mouseX, mouseY int
}

// New creates a new input handler.
func New() *Input {
	return &Input{
		events: make([]Event, 0, 16),
	}
}

// Update polls SDL events. Returns true if the app should quit.
func (i *Input) Update() bool {
	i.events = i.events[:0]

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			i.events = append(i.events, Event{Type: EventQuit})
			return true

		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_RESIZED || e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
				i.events = append(i.events, Event{
					Type:   EventWindowResize,
					Width:  int(e.Data1),
					Height: int(e.Data2),
				})
			}

		case *sdl.KeyboardEvent:
			if e.Repeat != 0 {
				continue
			}
			if e.Type == sdl.KEYDOWN {
				i.events = append(i.events, Event{Type: EventKeyDown, Key: e.Keysym.Scancode})
			} else if e.Type == sdl.KEYUP {
				i.events = append(i.events, Event{Type: EventKeyUp, Key: e.Keysym.Scancode})
			}

		case *sdl.MouseMotionEvent:
			i.motion(int(e.X), int(e.Y))

		case *sdl.MouseButtonEvent:
			if e.Type == sdl.MOUSEBUTTONDOWN {
				i.press(int(e.X), int(e.Y), e.Button)
			} else if e.Type == sdl.MOUSEBUTTONUP {
				i.release(int(e.X), int(e.Y), e.Button)
			}

		case *sdl.MouseWheelEvent:
			wheel := float32(e.Y)
			if e.Direction == sdl.MOUSEWHEEL_FLIPPED {
				wheel = -wheel
			}
			i.events = append(i.events, Event{
				Type:   EventMouseWheel,
				MouseX: i.mouseX,
				MouseY: i.mouseY,
				WheelY: wheel,
			})
		}
	}

	return false
}

func (i *Input) motion(x, y int) {
	i.mouseX, i.mouseY = x, y
	i.events = append(i.events, Event{Type: EventMouseMove, MouseX: x, MouseY: y})

	if !i.pressed {
		return
	}
	if !i.dragging && abs(x-i.pressX)+abs(y-i.pressY) > ClickSlop {
		i.dragging = true
	}
	if i.dragging {
		i.events = append(i.events, Event{
			Type:   EventDrag,
			MouseX: x,
			MouseY: y,
			DX:     x - i.lastX,
			DY:     y - i.lastY,
		})
		i.lastX, i.lastY = x, y
	}
}

func (i *Input) press(x, y int, button uint8) {
	i.events = append(i.events, Event{Type: EventMouseDown, MouseX: x, MouseY: y, Button: button})
	if button != sdl.BUTTON_LEFT {
		return
	}
	i.pressed, i.dragging = true, false
	i.pressX, i.pressY = x, y
	i.lastX, i.lastY = x, y
}

func (i *Input) release(x, y int, button uint8) {
	i.events = append(i.events, Event{Type: EventMouseUp, MouseX: x, MouseY: y, Button: button})
	if button != sdl.BUTTON_LEFT || !i.pressed {
		return
	}
	if !i.dragging {
		i.events = append(i.events, Event{Type: EventClick, MouseX: x, MouseY: y, Button: button})
	}
	i.pressed, i.dragging = false, false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Events returns the events from the last Update.
func (i *Input) Events() []Event {
	return i.events
}

// Mouse returns the last known pointer position.
func (i *Input) Mouse() (x, y int) {
	return i.mouseX, i.mouseY
}

// IsKeyPressed checks if a specific key was pressed this frame.
func (i *Input) IsKeyPressed(scancode sdl.Scancode) bool {
	for _, e := range i.events {
		if e.Type == EventKeyDown && e.Key == scancode {
			return true
		}
	}
	return false
}
