package agent

import (
	"errors"
	"math"
	"testing"

	"github.com/pthm-cable/psyche/evolution"
	"github.com/pthm-cable/psyche/social"
)

const minute = 1.0 / 1440

// fixedSchedule removes the randomness from sleep and commute lengths.
func fixedSchedule(opts Options) Options {
	opts.Sleep = SleepDist{MeanHours: 8}
	opts.Commute = CommuteDist{MedianHours: 0.5, MaxHours: 1.5}
	return opts
}

func newAgent(t *testing.T, id int, opts Options) *Agent {
	t.Helper()
	a, err := New(id, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestNew_InitialState(t *testing.T) {
	a := newAgent(t, 1, DefaultOptions())
	if a.Vars() != InitialVars {
		t.Errorf("vars = %+v, want %+v", a.Vars(), InitialVars)
	}
	if a.Vars().S != 0.5 || a.Vars().A != 0.39 {
		t.Errorf("S = %v, A = %v", a.Vars().S, a.Vars().A)
	}
	if got := a.State().Kind.String(); got != "sleep" {
		t.Errorf("state = %s, want sleep", got)
	}
	if a.Elapsed() != 0 || a.Steps() != 0 {
		t.Errorf("elapsed = %v, steps = %d", a.Elapsed(), a.Steps())
	}
	if c := a.Commute(); c <= 0 || c > 1.5/24+1e-12 {
		t.Errorf("commute = %v h, want (0, 1.5]", c*24)
	}
}

func TestUpdate_NonPositiveStep(t *testing.T) {
	for _, dt := range []float64{0, -minute, math.NaN()} {
		a := newAgent(t, 1, DefaultOptions())
		err := a.Update(dt)
		if !errors.Is(err, ErrNonPositiveStep) {
			t.Errorf("Update(%v) = %v, want ErrNonPositiveStep", dt, err)
		}
		if a.Steps() != 0 || a.Elapsed() != 0 {
			t.Errorf("Update(%v) advanced the agent", dt)
		}
	}
}

func TestUpdate_OneDay(t *testing.T) {
	a := newAgent(t, 7, fixedSchedule(DefaultOptions()))

	visited := []string{a.State().Kind.String()}
	for i := range 1440 {
		if err := a.Update(minute); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
		if s := a.State().Kind.String(); s != visited[len(visited)-1] {
			visited = append(visited, s)
		}

		v := a.Vars()
		if !v.Finite() {
			t.Fatalf("tick %d: non-finite vars %+v", i, v)
		}
		for name, x := range map[string]float64{
			"S": v.S, "A": v.A, "U": v.U, "T": v.T, "X": v.X, "E": v.E, "I": v.I,
		} {
			if x < 0 || x > 1 {
				t.Fatalf("tick %d: %s = %v out of [0, 1]", i, name, x)
			}
		}
	}

	want := []string{"sleep", "morning", "commute", "work", "commute", "home", "sleep"}
	if len(visited) != len(want) {
		t.Fatalf("visited %v, want %v", visited, want)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Fatalf("visited %v, want %v", visited, want)
		}
	}
	if a.Transitions() != 6 {
		t.Errorf("transitions = %d, want 6", a.Transitions())
	}
	if math.Abs(a.Elapsed()-1) > 1e-9 {
		t.Errorf("elapsed = %v, want 1", a.Elapsed())
	}
}

func TestUpdate_CommutePinsStressMean(t *testing.T) {
	a := newAgent(t, 3, fixedSchedule(DefaultOptions()))
	base := a.Store().Defaults().Stress.Mean

	for i := range 1440 {
		if err := a.Update(minute); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
		if a.State().Kind.String() == "commute" {
			if got := a.Store().Current().Stress.Mean; got != 1 {
				t.Fatalf("commute stress mean = %v, want 1 (defaults %v)", got, base)
			}
			return
		}
	}
	t.Fatal("agent never commuted")
}

func TestUpdate_RandomScheduleCycles(t *testing.T) {
	a := newAgent(t, 3, DefaultOptions())
	sleeps := 0
	prev := a.State().Kind.String()
	for i := range 3 * 1440 {
		if err := a.Update(minute); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
		s := a.State().Kind.String()
		if s == "sleep" && prev != "sleep" {
			sleeps++
		}
		prev = s
		if !a.Vars().Finite() {
			t.Fatalf("tick %d: non-finite vars", i)
		}
	}
	if sleeps < 2 {
		t.Errorf("fell asleep %d times in three days", sleeps)
	}
}

func TestUpdate_Deterministic(t *testing.T) {
	opts := DefaultOptions()
	opts.Seed = 42
	opts.Network = social.NewNetwork(
		[]social.Link{{Peer: 2, Weight: 0.4}, {Peer: 3, Weight: 0.7}},
		[]social.Link{{Peer: 4, Weight: 0.5}},
		social.DefaultSaturation,
	)

	a := newAgent(t, 1, opts)
	b := newAgent(t, 1, opts)
	for i := range 1440 {
		if err := a.Update(minute); err != nil {
			t.Fatal(err)
		}
		if err := b.Update(minute); err != nil {
			t.Fatal(err)
		}
		if a.Observe() != b.Observe() {
			t.Fatalf("tick %d: trajectories diverged\n%+v\n%+v", i, a.Observe(), b.Observe())
		}
	}

	// Another id draws from another stream.
	c := newAgent(t, 2, opts)
	for range 1440 {
		if err := c.Update(minute); err != nil {
			t.Fatal(err)
		}
	}
	if c.Vars().S == a.Vars().S {
		t.Error("agents with different ids produced the same stress")
	}
}

func TestUpdate_DisabledEventDrawsNothing(t *testing.T) {
	plain := DefaultOptions()
	plain.Seed = 9
	disabled := plain
	disabled.Event = evolution.Event{Probability: 0, Strength: 5, Weight: 1}

	a := newAgent(t, 1, plain)
	b := newAgent(t, 1, disabled)
	for range 600 {
		if err := a.Update(minute); err != nil {
			t.Fatal(err)
		}
		if err := b.Update(minute); err != nil {
			t.Fatal(err)
		}
	}
	if a.Vars() != b.Vars() {
		t.Errorf("disabled event changed the trajectory: %+v vs %+v", a.Vars(), b.Vars())
	}
	if b.Events() != 0 {
		t.Errorf("events = %d, want 0", b.Events())
	}
}

func TestUpdate_EventsFire(t *testing.T) {
	opts := DefaultOptions()
	opts.Event = evolution.Event{Probability: 1, Strength: 0.01, Weight: 1}
	a := newAgent(t, 1, opts)
	for range 100 {
		if err := a.Update(minute); err != nil {
			t.Fatal(err)
		}
	}
	if a.Events() != 100 {
		t.Errorf("events = %d, want 100", a.Events())
	}
	if e := a.Vars().E; e < 0 || e > 1 {
		t.Errorf("E = %v out of [0, 1]", e)
	}
}

func TestObserve(t *testing.T) {
	opts := DefaultOptions()
	opts.Profile = "volatile"
	a := newAgent(t, 12, opts)
	if err := a.Update(minute); err != nil {
		t.Fatal(err)
	}

	o := a.Observe()
	if o.AgentID != 12 || o.Step != 1 || o.Type != "volatile" || o.State != "sleep" {
		t.Errorf("observation = %+v", o)
	}
	if o.Time != minute {
		t.Errorf("time = %v, want %v", o.Time, minute)
	}
	if o.Vars() != a.Vars() {
		t.Errorf("observation vars = %+v, want %+v", o.Vars(), a.Vars())
	}
}

func TestLive_SocialInfluence(t *testing.T) {
	opts := DefaultOptions()
	opts.Network = social.NewNetwork(nil, []social.Link{{Peer: 2, Weight: 0.6}}, 5)
	a := newAgent(t, 1, opts)

	live := a.Live()
	if live.F != 0 {
		t.Errorf("F = %v, want 0 without friends", live.F)
	}
	if want := 0.6 * 1.0 / 6.0; math.Abs(live.B-want) > 1e-12 {
		t.Errorf("B = %v, want %v", live.B, want)
	}
}
