package app

import (
	"errors"
	"testing"
	"time"

	"github.com/Faultbox/greenmap/internal/engine/input"
)

type recordingState struct {
	name     string
	log      *[]string
	enterErr error
}

func (s *recordingState) Enter() error {
	*s.log = append(*s.log, s.name+".enter")
	return s.enterErr
}

func (s *recordingState) Exit() error {
	*s.log = append(*s.log, s.name+".exit")
	return nil
}

func (s *recordingState) Update(time.Duration) error {
	*s.log = append(*s.log, s.name+".update")
	return nil
}

func (s *recordingState) Render() {
	*s.log = append(*s.log, s.name+".render")
}

func (s *recordingState) HandleInput(input.Event) error {
	*s.log = append(*s.log, s.name+".input")
	return nil
}

func equalLog(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("log = %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("log = %v, want %v", got, want)
		}
	}
}

func TestManagerChangeAppliesOnUpdate(t *testing.T) {
	var log []string
	m := NewManager()
	a := &recordingState{name: "a", log: &log}
	b := &recordingState{name: "b", log: &log}

	m.Change(a)
	if m.Current() != nil {
		t.Fatal("change applied before Update")
	}
	if err := m.Update(time.Millisecond); err != nil {
		t.Fatal(err)
	}
	m.Change(b)
	if err := m.Update(time.Millisecond); err != nil {
		t.Fatal(err)
	}
	m.Render()
	if err := m.HandleInput(input.Event{Type: input.EventClick}); err != nil {
		t.Fatal(err)
	}

	equalLog(t, log, []string{"a.enter", "a.update", "a.exit", "b.enter", "b.update", "b.render", "b.input"})
	if m.Current() != b {
		t.Error("current state is not b")
	}
}

func TestManagerEnterError(t *testing.T) {
	var log []string
	boom := errors.New("boom")
	m := NewManager()
	m.Change(&recordingState{name: "a", log: &log, enterErr: boom})

	if err := m.Update(0); !errors.Is(err, boom) {
		t.Fatalf("Update error = %v, want %v", err, boom)
	}
	equalLog(t, log, []string{"a.enter"})
}

func TestManagerEmpty(t *testing.T) {
	m := NewManager()
	if err := m.Update(time.Second); err != nil {
		t.Fatal(err)
	}
	m.Render()
	if err := m.HandleInput(input.Event{}); err != nil {
		t.Fatal(err)
	}
	if err := m.Exit(); err != nil {
		t.Fatal(err)
	}
}

func TestManagerExit(t *testing.T) {
	var log []string
	m := NewManager()
	m.Change(&recordingState{name: "a", log: &log})
	_ = m.Update(0)

	if err := m.Exit(); err != nil {
		t.Fatal(err)
	}
	if m.Current() != nil {
		t.Error("current state kept after Exit")
	}
	equalLog(t, log, []string{"a.enter", "a.update", "a.exit"})
}
