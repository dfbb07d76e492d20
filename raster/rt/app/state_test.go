package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateMachineHappyPath(t *testing.T) {
	var seen []string
	var m StateMachine
	m.OnTransition = func(from, to State) { seen = append(seen, from.String()+">"+to.String()) }

	assert.Equal(t, StateUninitialized, m.State())
	for _, s := range []State{StateDeviceReady, StateBuffersReady, StateRunning, StateStopped} {
		require.NoError(t, m.Transition(s))
		assert.True(t, m.Is(s))
	}
	assert.Equal(t, []string{
		"Uninitialized>DeviceReady",
		"DeviceReady>BuffersReady",
		"BuffersReady>Running",
		"Running>Stopped",
	}, seen)

	// Stopping again is silent.
	require.NoError(t, m.Transition(StateStopped))
	assert.Len(t, seen, 4)
}

func TestStateMachineRejectsSkipsAndRestarts(t *testing.T) {
	var m StateMachine
	assert.ErrorIs(t, m.Transition(StateBuffersReady), ErrInvalidTransition)
	assert.ErrorIs(t, m.Transition(StateRunning), ErrInvalidTransition)
	assert.ErrorIs(t, m.Transition(StateUninitialized), ErrInvalidTransition)
	assert.Equal(t, StateUninitialized, m.State())

	require.NoError(t, m.Transition(StateDeviceReady))
	assert.ErrorIs(t, m.Transition(StateDeviceReady), ErrInvalidTransition)
	assert.ErrorIs(t, m.Transition(StateRunning), ErrInvalidTransition)

	require.NoError(t, m.Transition(StateStopped))
	for _, s := range []State{StateUninitialized, StateDeviceReady, StateBuffersReady, StateRunning} {
		assert.ErrorIs(t, m.Transition(s), ErrInvalidTransition, s.String())
	}
}

func TestStateMachineStopFromAnyState(t *testing.T) {
	for _, start := range []State{StateUninitialized, StateDeviceReady, StateBuffersReady, StateRunning} {
		var m StateMachine
		for s := StateDeviceReady; s <= start; s++ {
			require.NoError(t, m.Transition(s))
		}
		require.NoError(t, m.Transition(StateStopped), start.String())
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "BuffersReady", StateBuffersReady.String())
	assert.Equal(t, "State(9)", State(9).String())
}
