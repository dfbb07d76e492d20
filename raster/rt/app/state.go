package app

import (
	"errors"
	"fmt"
	"sync"
)

var ErrInvalidTransition = errors.New("invalid render loop transition")

type State int

const (
	StateUninitialized State = iota
	StateDeviceReady
	StateBuffersReady
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "Uninitialized"
	case StateDeviceReady:
		return "DeviceReady"
	case StateBuffersReady:
		return "BuffersReady"
	case StateRunning:
		return "Running"
	case StateStopped:
		return "Stopped"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// StateMachine enforces the render loop lifecycle:
// Uninitialized -> DeviceReady -> BuffersReady -> Running -> Stopped.
// Every state may stop; stopping twice is a no-op.
type StateMachine struct {
	mu    sync.Mutex
	state State

	// OnTransition, when set, observes every accepted transition.
	OnTransition func(from, to State)
}

func (m *StateMachine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *StateMachine) Is(s State) bool { return m.State() == s }

func allowed(from, to State) bool {
	if to == StateStopped {
		return true
	}
	return from != StateStopped && to == from+1
}

// Transition moves to the target state or returns ErrInvalidTransition.
func (m *StateMachine) Transition(to State) error {
	m.mu.Lock()
	from := m.state
	if from == StateStopped && to == StateStopped {
		m.mu.Unlock()
		return nil
	}
	if !allowed(from, to) {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	m.state = to
	cb := m.OnTransition
	m.mu.Unlock()

	if cb != nil {
		cb(from, to)
	}
	return nil
}
