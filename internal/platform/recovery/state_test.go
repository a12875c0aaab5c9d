package recovery

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allEvents = []Event{
	EventSucceeded, EventFailed, EventGaveUp, EventReported,
	EventQuarantined, EventPeeked, EventRejected,
}

func TestTransition_HappyPaths(t *testing.T) {
	paths := map[string][]Event{
		"acknowledged first time":  {EventSucceeded},
		"acknowledged after retry": {EventFailed, EventFailed, EventSucceeded},
		"reported and skipped":     {EventFailed, EventGaveUp, EventReported, EventQuarantined, EventRejected},
		"reported and peeked":      {EventGaveUp, EventReported, EventPeeked, EventRejected},
		"reported and logged":      {EventFailed, EventGaveUp, EventReported, EventRejected},
		"manager unreachable":      {EventFailed, EventGaveUp, EventRejected},
	}
	for name, events := range paths {
		t.Run(name, func(t *testing.T) {
			m := NewMachine()
			for _, e := range events {
				require.NoError(t, m.Fire(e))
			}
			assert.True(t, m.State().Terminal())
		})
	}
}

func TestTransition_TerminalStatesAcceptNothing(t *testing.T) {
	for _, s := range []State{StateAcknowledged, StateRejected} {
		for _, e := range allEvents {
			next, err := Transition(s, e)
			assert.Error(t, err, "%s on %s", e, s)
			assert.Equal(t, s, next)
		}
	}
}

func TestTransition_AtMostOneTerminalAction(t *testing.T) {
	for _, s := range []State{StateQuarantined, StatePeeked} {
		for _, e := range allEvents {
			next, err := Transition(s, e)
			if e == EventRejected {
				require.NoError(t, err)
				assert.Equal(t, StateRejected, next)
				continue
			}
			assert.Error(t, err, "%s on %s", e, s)
		}
	}
}

func TestTransition_NoActionBeforeReport(t *testing.T) {
	for _, s := range []State{StateDelivered, StateRetrying, StateExhausted} {
		for _, e := range []Event{EventQuarantined, EventPeeked} {
			_, err := Transition(s, e)
			var terr *InvalidTransitionError
			require.True(t, errors.As(err, &terr))
			assert.Equal(t, s, terr.From)
			assert.Equal(t, e, terr.Event)
		}
	}
}

func TestTransition_ExhaustedNeverRetries(t *testing.T) {
	for _, e := range []Event{EventSucceeded, EventFailed, EventGaveUp} {
		_, err := Transition(StateExhausted, e)
		assert.Error(t, err)
	}
}

func TestMachine_TracksAttemptsAndHistory(t *testing.T) {
	m := NewMachine()
	require.NoError(t, m.Fire(EventFailed))
	require.NoError(t, m.Fire(EventFailed))
	require.NoError(t, m.Fire(EventGaveUp))
	require.NoError(t, m.Fire(EventReported))

	err := m.Fire(EventSucceeded)
	assert.EqualError(t, err, "invalid recovery transition: succeeded on reported")
	assert.Equal(t, StateReported, m.State())

	assert.Equal(t, 3, m.Attempts())
	assert.Equal(t, []State{
		StateDelivered, StateRetrying, StateRetrying, StateExhausted, StateReported,
	}, m.History())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "quarantined", StateQuarantined.String())
	assert.Equal(t, "state(99)", State(99).String())
	assert.Equal(t, "gave_up", EventGaveUp.String())
}
