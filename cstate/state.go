// Package cstate provides the explicit state machine used by the
// credential acquisition flow.
package cstate

import (
	"fmt"
	"slices"
)

type State interface {
	comparable
	fmt.Stringer
}

// Transition defines a valid state transition.
type Transition[S State] struct {
	From S
	To   S
	Name string // Human-readable name for logging.
}

type transitionKey[S State] struct {
	From, To S
}

// TransitionError is returned for a transition that was not declared.
type TransitionError struct {
	From, To string
}

func (e TransitionError) Error() string {
	return fmt.Sprintf("cstate: invalid transition %s -> %s", e.From, e.To)
}

// Machine enforces valid state transitions. It is owned by a single goroutine.
//
// The failure state, when set, is reachable from every non-terminal state.
// Terminal states accept no further transitions.
type Machine[S State] struct {
	current  S
	history  []S
	allowed  map[transitionKey[S]]string
	terminal map[S]bool

	failure    S
	hasFailure bool

	onChange func(from, to S, name string)
}

// Option configures a Machine.
type Option[S State] func(*Machine[S])

// WithFailure makes s reachable from every non-terminal state and marks it terminal.
func WithFailure[S State](s S) Option[S] {
	return func(m *Machine[S]) {
		m.failure = s
		m.hasFailure = true
		m.terminal[s] = true
	}
}

// WithTerminal marks states that end the machine.
func WithTerminal[S State](states ...S) Option[S] {
	return func(m *Machine[S]) {
		for _, s := range states {
			m.terminal[s] = true
		}
	}
}

// WithOnChange registers a callback run after every successful transition.
func WithOnChange[S State](on func(from, to S, name string)) Option[S] {
	return func(m *Machine[S]) {
		m.onChange = on
	}
}

// New creates a state machine starting at the given state.
func New[S State](initial S, transitions []Transition[S], opts ...Option[S]) *Machine[S] {
	m := &Machine[S]{
		current:  initial,
		history:  []S{initial},
		allowed:  make(map[transitionKey[S]]string, len(transitions)),
		terminal: make(map[S]bool),
	}
	for _, t := range transitions {
		m.allowed[transitionKey[S]{From: t.From, To: t.To}] = t.Name
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Machine[S]) look(from, to S) (string, bool) {
	if m.terminal[from] {
		return "", false
	}
	if m.hasFailure && to == m.failure {
		return "fail", true
	}
	name, ok := m.allowed[transitionKey[S]{From: from, To: to}]
	return name, ok
}

// Can reports whether a transition to the target state is valid.
func (m *Machine[S]) Can(to S) bool {
	_, ok := m.look(m.current, to)
	return ok
}

// To moves the machine to a new state.
func (m *Machine[S]) To(to S) error {
	from := m.current
	name, ok := m.look(from, to)
	if !ok {
		return TransitionError{From: from.String(), To: to.String()}
	}
	m.current = to
	m.history = append(m.history, to)
	if m.onChange != nil {
		m.onChange(from, to, name)
	}
	return nil
}

// Fail moves the machine to the failure state. It is a no-op when the
// machine has no failure state or is already terminal.
func (m *Machine[S]) Fail() {
	if !m.hasFailure || m.terminal[m.current] {
		return
	}
	_ = m.To(m.failure)
}

// Current returns the current state.
func (m *Machine[S]) Current() S {
	return m.current
}

// Done reports whether the machine reached a terminal state.
func (m *Machine[S]) Done() bool {
	return m.terminal[m.current]
}

// History returns the states visited so far, starting with the initial state.
// Self transitions used for re-prompting appear once per visit.
func (m *Machine[S]) History() []S {
	return slices.Clone(m.history)
}
