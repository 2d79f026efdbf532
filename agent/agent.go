// Package agent couples one person's psychological state with their daily
// routine. An Agent owns its coefficient store, social network, routine
// machine and random source; nothing is shared between agents.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pthm-cable/psyche/evolution"
	"github.com/pthm-cable/psyche/params"
	"github.com/pthm-cable/psyche/routine"
	"github.com/pthm-cable/psyche/social"
)

// ErrNonPositiveStep is returned by Update for a tick size that is not
// strictly positive.
var ErrNonPositiveStep = errors.New("tick size must be positive")

// Vars are the seven continuous state variables.
type Vars struct {
	S float64 // stress
	A float64 // aversive internal state
	U float64 // urge to escape
	T float64 // suicidal thought
	X float64 // escape behavior
	E float64 // external strategy
	I float64 // internal strategy
}

// InitialVars is the state every agent starts a run with.
var InitialVars = Vars{S: 0.5, A: 0.39}

// Finite reports whether every variable is a finite number.
func (v Vars) Finite() bool {
	for _, x := range [...]float64{v.S, v.A, v.U, v.T, v.X, v.E, v.I} {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// Agent is one simulated person.
type Agent struct {
	id      int
	profile string

	vars    Vars
	elapsed float64
	steps   int64

	store   *params.Store
	network social.Network
	machine *routine.Machine

	rng   *rand.Rand
	noise distuv.Normal
	event evolution.Event

	transitions int
	events      int
}

// New creates agent id with the given options. The routine starts in its
// entry state at time 0.
func New(id int, opts Options) (*Agent, error) {
	rng := rand.New(rand.NewPCG(opts.Seed, uint64(id)))

	clock := opts.Clock
	commute := opts.Commute.Sample(rng, clock)
	sleep := distuv.Normal{
		Mu:    clock.Hours(opts.Sleep.MeanHours),
		Sigma: clock.Hours(opts.Sleep.SigmaHours),
		Src:   rng,
	}

	a := &Agent{
		id:      id,
		profile: opts.Profile,
		vars:    opts.Initial,
		store:   params.NewStore(opts.Defaults),
		network: opts.Network,
		machine: routine.NewMachine(routine.Context{
			Clock:       clock,
			Commute:     commute,
			SleepLength: func() float64 { return math.Max(0, sleep.Rand()) },
		}),
		rng:   rng,
		noise: distuv.Normal{Mu: 0, Sigma: 1, Src: rng},
		event: opts.Event,
	}
	if err := a.machine.Start(0, a.store); err != nil {
		return nil, fmt.Errorf("agent %d: %w", id, err)
	}
	return a, nil
}

// Update advances the agent by dt: every variable is computed from its
// pre-tick value, then the clock moves and the routine advances. Errors are
// fatal to the tick and leave the variables already advanced.
func (a *Agent) Update(dt float64) error {
	if !(dt > 0) {
		return fmt.Errorf("agent %d: %w: %v", a.id, ErrNonPositiveStep, dt)
	}

	v := a.vars
	in := a.store.Inputs(a.Live())
	t := a.elapsed

	next := Vars{
		S: evolution.Stress(dt, in.Stress, a.noise.Rand()),
		A: evolution.RK4(v.A, t, dt, evolution.Aversion, in.Aversion),
		U: evolution.RK4(v.U, t, dt, evolution.Urge, in.Urge),
		T: evolution.Sigmoid(v.T, t, in.Thought),
		X: evolution.Sigmoid(v.X, t, in.Behavior),
		E: evolution.RK4(v.E, t, dt, evolution.Strategy, in.ExternalStrategy),
		I: evolution.RK4(v.I, t, dt, evolution.Strategy, in.InternalStrategy),
	}
	if a.event.Enabled() {
		if e, ok := evolution.ApplyEvent(next.E, a.event, a.rng.Float64()); ok {
			next.E = evolution.Reflect(e)
			a.events++
		}
	}

	a.vars = next
	a.elapsed += dt
	a.steps++

	n, err := a.machine.Advance(dt, a.elapsed, a.store)
	if err != nil {
		return fmt.Errorf("agent %d: %w", a.id, err)
	}
	if n > 0 {
		a.transitions += n
		if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
			s := a.machine.State()
			slog.Debug("routine transition",
				"agent", a.id,
				"state", s.Kind.String(),
				"time", a.elapsed,
				"length", s.Length,
			)
		}
	}
	return nil
}

// Live returns the values the equations read, including social influence.
func (a *Agent) Live() params.Live {
	v := a.vars
	return params.Live{
		S: v.S, A: v.A, U: v.U, T: v.T, X: v.X, E: v.E, I: v.I,
		F: a.network.FriendInfluence(),
		B: a.network.BullyInfluence(),
	}
}

func (a *Agent) ID() int { return a.id }
func (a *Agent) Profile() string { return a.profile }
func (a *Agent) Vars() Vars { return a.vars }
func (a *Agent) Elapsed() float64 { return a.elapsed }
func (a *Agent) Steps() int64 { return a.steps }
func (a *Agent) State() routine.State { return a.machine.State() }
func (a *Agent) Network() social.Network { return a.network }
func (a *Agent) Store() *params.Store { return a.store }
func (a *Agent) Commute() float64 { return a.machine.Context().Commute }
func (a *Agent) Transitions() int { return a.transitions }
func (a *Agent) Events() int { return a.events }
