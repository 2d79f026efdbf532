package routine

import "github.com/pthm-cable/psyche/params"

// maxTransitionsPerTick bounds how many zero-length states one tick may pass
// through: at most one full cycle.
var maxTransitionsPerTick = len(Kinds)

// Machine owns an agent's active routine state.
type Machine struct {
	ctx   Context
	state State
}

// NewMachine creates a machine that has not started yet.
func NewMachine(ctx Context) *Machine {
	return &Machine{ctx: ctx}
}

// Start enters the entry state at time now and applies its parameters.
func (m *Machine) Start(now float64, store *params.Store) error {
	s, err := Enter(Entry, now, nil, m.ctx)
	if err != nil {
		return err
	}
	if err := ModifyParameters(s, store, m.ctx.Clock); err != nil {
		return err
	}
	m.state = s
	return nil
}

// State returns the active state.
func (m *Machine) State() State {
	return m.state
}

// Context returns the timing context.
func (m *Machine) Context() Context {
	return m.ctx
}

// Advance consumes dt and, once the active state's time runs out, moves to
// the next state at time now, re-applying parameters to store. A state of
// zero length is left in the same call. It returns the number of transitions
// taken.
func (m *Machine) Advance(dt, now float64, store *params.Store) (int, error) {
	m.state.PassTime(dt)

	n := 0
	for m.state.Done() && n < maxTransitionsPerTick {
		next, err := Transition(m.state, now, m.ctx)
		if err != nil {
			return n, err
		}
		if err := ModifyParameters(next, store, m.ctx.Clock); err != nil {
			return n, err
		}
		m.state = next
		n++
	}
	return n, nil
}
