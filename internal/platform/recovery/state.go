package recovery

import "fmt"

// State is where a message stands in the recovery protocol.
type State int

const (
	StateDelivered State = iota
	StateRetrying
	StateAcknowledged
	StateExhausted
	StateReported
	StateQuarantined
	StatePeeked
	StateRejected
)

var stateNames = map[State]string{
	StateDelivered:    "delivered",
	StateRetrying:     "retrying",
	StateAcknowledged: "acknowledged",
	StateExhausted:    "exhausted",
	StateReported:     "reported",
	StateQuarantined:  "quarantined",
	StatePeeked:       "peeked",
	StateRejected:     "rejected",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateAcknowledged || s == StateRejected
}

// Event drives a transition.
type Event int

const (
	// EventSucceeded: the handler returned without error.
	EventSucceeded Event = iota
	// EventFailed: the handler failed and another attempt is allowed.
	EventFailed
	// EventGaveUp: the handler failed and no attempt remains.
	EventGaveUp
	// EventReported: the exception manager answered the report.
	EventReported
	// EventQuarantined: the message was stored with the manager before skipping.
	EventQuarantined
	// EventPeeked: the raw message was returned to the manager.
	EventPeeked
	// EventRejected: the message was moved to its dead letter topic.
	EventRejected
)

var eventNames = map[Event]string{
	EventSucceeded:   "succeeded",
	EventFailed:      "failed",
	EventGaveUp:      "gave_up",
	EventReported:    "reported",
	EventQuarantined: "quarantined",
	EventPeeked:      "peeked",
	EventRejected:    "rejected",
}

func (e Event) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}
	return fmt.Sprintf("event(%d)", int(e))
}

// InvalidTransitionError reports an event that is not allowed in a state.
type InvalidTransitionError struct {
	From  State
	Event Event
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid recovery transition: %s on %s", e.Event, e.From)
}

type transitionKey struct {
	from  State
	event Event
}

// transitions is the complete protocol. Quarantine and peek are mutually
// exclusive and both lead only to rejection.
var transitions = map[transitionKey]State{
	{StateDelivered, EventSucceeded}: StateAcknowledged,
	{StateDelivered, EventFailed}:    StateRetrying,
	{StateDelivered, EventGaveUp}:    StateExhausted,

	{StateRetrying, EventSucceeded}: StateAcknowledged,
	{StateRetrying, EventFailed}:    StateRetrying,
	{StateRetrying, EventGaveUp}:    StateExhausted,

	{StateExhausted, EventReported}: StateReported,
	// manager unreachable
	{StateExhausted, EventRejected}: StateRejected,

	{StateReported, EventQuarantined}: StateQuarantined,
	{StateReported, EventPeeked}:      StatePeeked,
	{StateReported, EventRejected}:    StateRejected,

	{StateQuarantined, EventRejected}: StateRejected,
	{StatePeeked, EventRejected}:      StateRejected,
}

// Transition returns the state reached from s on e.
func Transition(s State, e Event) (State, error) {
	next, ok := transitions[transitionKey{s, e}]
	if !ok {
		return s, &InvalidTransitionError{From: s, Event: e}
	}
	return next, nil
}

// Machine tracks one message through the protocol.
type Machine struct {
	state    State
	attempts int
	history  []State
}

// NewMachine starts a machine in StateDelivered.
func NewMachine() *Machine {
	return &Machine{state: StateDelivered, history: []State{StateDelivered}}
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Attempts returns the number of handler invocations recorded.
func (m *Machine) Attempts() int { return m.attempts }

// History returns every state visited, in order.
func (m *Machine) History() []State {
	return append([]State(nil), m.history...)
}

// Fire applies e. An invalid event leaves the machine unchanged.
func (m *Machine) Fire(e Event) error {
	next, err := Transition(m.state, e)
	if err != nil {
		return err
	}
	switch e {
	case EventSucceeded, EventFailed, EventGaveUp:
		m.attempts++
	}
	m.state = next
	m.history = append(m.history, next)
	return nil
}
