package status

import (
	"fmt"
	"slices"
	"sync"

	"github.com/matheus3301/sms/internal/bus"
)

// State represents a daemon runtime state.
type State string

const (
	Booting   State = "BOOTING"
	Ready     State = "READY"
	Importing State = "IMPORTING"
	Exporting State = "EXPORTING"
	Error     State = "ERROR"
)

var validTransitions = map[State][]State{
	Booting:   {Ready, Error},
	Ready:     {Importing, Exporting, Error},
	Importing: {Ready, Error},
	Exporting: {Ready, Error},
	Error:     {Booting, Ready},
}

// Machine tracks and enforces daemon runtime state transitions.
type Machine struct {
	mu      sync.RWMutex
	current State
	bus     *bus.Bus
}

// NewMachine creates a new state machine starting in Booting state.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{current: Booting, bus: b}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition moves to state to, publishing a StatusChange on success.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !slices.Contains(validTransitions[m.current], to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	from := m.current
	m.current = to
	m.bus.Emit(bus.KindStatusChanged, StatusChange{From: from, To: to})
	return nil
}

// Enter moves from Ready into a busy state and returns a func that moves
// back to Ready. It fails if the daemon is not Ready (another job is running).
func (m *Machine) Enter(busy State) (func(), error) {
	if err := m.Transition(busy); err != nil {
		return nil, err
	}
	return func() { _ = m.Transition(Ready) }, nil
}

// StatusChange is the payload for status change events.
type StatusChange struct {
	From State
	To   State
}
