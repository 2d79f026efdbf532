package params

import (
	"fmt"

	"github.com/pthm-cable/psyche/evolution"
)

// Live is the agent's current dynamic state as seen by the equations.
type Live struct {
	S, A, U, T, X, E, I float64
	F, B                float64 // friend and bully influence
}

// Inputs holds one typed input record per equation.
type Inputs struct {
	Stress           evolution.StressInput
	Aversion         evolution.AversionInput
	Urge             evolution.UrgeInput
	Thought          evolution.SigmoidInput
	Behavior         evolution.SigmoidInput
	ExternalStrategy evolution.StrategyInput
	InternalStrategy evolution.StrategyInput
}

// Store is an agent's working copy of its coefficients. Routine states reset
// it to the immutable defaults and then override selected coefficients.
type Store struct {
	defaults Set
	current  Set
}

// NewStore returns a store whose defaults, and initial working copy, are d.
func NewStore(d Set) *Store {
	return &Store{defaults: d, current: d}
}

// Reset replaces the working copy with the defaults.
func (s *Store) Reset() {
	s.current = s.defaults
}

// Override sets named coefficients within one group. Other coefficients of
// the group are untouched. On error the store is unchanged.
func (s *Store) Override(g Group, values map[string]float64) error {
	next, err := s.current.Apply(g, values)
	if err != nil {
		return err
	}
	s.current = next
	return nil
}

// Defaults returns the set Reset restores.
func (s *Store) Defaults() Set {
	return s.defaults
}

// Current returns the working copy.
func (s *Store) Current() Set {
	return s.current
}

// Inputs merges the working coefficients with live values into the typed
// record each equation consumes.
func (s *Store) Inputs(live Live) Inputs {
	c := &s.current
	return Inputs{
		Stress: evolution.StressInput{S: live.S, E: live.E, StressParams: c.Stress},
		Aversion: evolution.AversionInput{
			S: live.S, T: live.T, X: live.X, I: live.I,
			F: live.F, B: live.B,
			AversionParams: c.Aversion,
		},
		Urge:             evolution.UrgeInput{A: live.A, UrgeParams: c.Urge},
		Thought:          evolution.SigmoidInput{U: live.U, SigmoidParams: c.Thought},
		Behavior:         evolution.SigmoidInput{U: live.U, SigmoidParams: c.Behavior},
		ExternalStrategy: evolution.StrategyInput{A: live.A, U: live.U, StrategyParams: c.ExternalStrategy},
		InternalStrategy: evolution.StrategyInput{A: live.A, U: live.U, StrategyParams: c.InternalStrategy},
	}
}

// SnapshotFor returns the keyed parameter mapping for one equation, using the
// key names that equation requires.
func (s *Store) SnapshotFor(g Group, live Live) (evolution.Values, error) {
	in := s.Inputs(live)
	switch g {
	case GroupStress:
		return in.Stress.Values(), nil
	case GroupAversion:
		return in.Aversion.Values(), nil
	case GroupUrge:
		return in.Urge.Values(), nil
	case GroupThought:
		return in.Thought.Values(), nil
	case GroupBehavior:
		return in.Behavior.Values(), nil
	case GroupExternalStrategy:
		return in.ExternalStrategy.Values(), nil
	case GroupInternalStrategy:
		return in.InternalStrategy.Values(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownGroup, g)
}
