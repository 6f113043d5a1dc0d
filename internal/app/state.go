// Package app runs the map client: the frame loop, the loading and map
// states, keyboard controls and the HUD.
package app

import (
	"time"

	"github.com/Faultbox/greenmap/internal/engine/input"
)

// State is one screen of the app.
type State interface {
	// Enter is called when entering this state.
	Enter() error

	// Exit is called when leaving this state.
	Exit() error

	// Update is called every frame.
	Update(dt time.Duration) error

	// Render draws the state's HUD.
	Render()

	// HandleInput processes one input event.
	HandleInput(ev input.Event) error
}

// Manager manages state transitions.
type Manager struct {
	current State
	next    State
}

// NewManager creates a new state manager.
func NewManager() *Manager {
	return &Manager{}
}

// Current returns the current state.
func (m *Manager) Current() State {
	return m.current
}

// Change schedules a state change for the next Update.
func (m *Manager) Change(next State) {
	m.next = next
}

// Update processes state changes and updates the current state.
func (m *Manager) Update(dt time.Duration) error {
	if m.next != nil {
		if m.current != nil {
			if err := m.current.Exit(); err != nil {
				return err
			}
		}
		m.current = m.next
		m.next = nil
		if err := m.current.Enter(); err != nil {
			return err
		}
	}

	if m.current != nil {
		return m.current.Update(dt)
	}
	return nil
}

// Render renders the current state.
func (m *Manager) Render() {
	if m.current != nil {
		m.current.Render()
	}
}

// HandleInput forwards an event to the current state.
func (m *Manager) HandleInput(ev input.Event) error {
	if m.current != nil {
		return m.current.HandleInput(ev)
	}
	return nil
}

// Exit leaves the current state, used on shutdown.
func (m *Manager) Exit() error {
	if m.current == nil {
		return nil
	}
	err := m.current.Exit()
	m.current = nil
	return err
}
