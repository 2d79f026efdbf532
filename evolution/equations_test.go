package evolution

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"
)

func zeroRate(_, _ float64, _ struct{}) float64 { return 0 }

func TestRK4_ZeroRateLeavesValueUnchanged(t *testing.T) {
	for _, prev := range []float64{0, 0.1, 0.39, 0.5, 0.999, 1} {
		for _, dt := range []float64{1.0 / 1440, 0.02, 1} {
			got := RK4(prev, 3.5, dt, zeroRate, struct{}{})
			if got != prev {
				t.Errorf("RK4(%v, dt=%v) with zero rate = %v, want %v", prev, dt, got, prev)
			}
		}
	}
}

func TestRK4_MatchesExponentialDecay(t *testing.T) {
	decay := func(y, _ float64, k float64) float64 { return -k * y }

	y := 0.8
	dt := 0.01
	for i := 0; i < 100; i++ {
		y = RK4(y, float64(i)*dt, dt, decay, 2.0)
	}

	want := 0.8 * math.Exp(-2.0)
	if math.Abs(y-want) > 1e-8 {
		t.Errorf("RK4 decay = %.10f, want %.10f", y, want)
	}
}

func TestRK4_ParametersFrozenAcrossStages(t *testing.T) {
	calls := 0
	f := func(_, _ float64, p *int) float64 {
		calls++
		if *p != 7 {
			t.Errorf("stage %d saw parameter %d, want 7", calls, *p)
		}
		return 0.1
	}
	p := 7
	RK4(0.2, 0, 0.5, f, &p)
	if calls != 4 {
		t.Errorf("expected 4 rate evaluations, got %d", calls)
	}
}

func TestReflect(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"inside", 0.3, 0.3},
		{"zero", 0, 0},
		{"one", 1, 1},
		{"above one", 1.25, 0.75},
		{"two", 2, 0},
		{"negative", -0.4, 0.4},
		{"minus one", -1, 1},
		{"far above", 3.5, 0.5},
		{"far below", -2.25, 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reflect(tt.in)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Reflect(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestReflect_AlwaysInUnitInterval(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 10000; i++ {
		v := (rng.Float64() - 0.5) * 200
		got := Reflect(v)
		if got < 0 || got > 1 {
			t.Fatalf("Reflect(%v) = %v, outside [0, 1]", v, got)
		}
	}
}

func TestRK4_OutputBounded(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	steep := func(_, _ float64, k float64) float64 { return k }
	for i := 0; i < 2000; i++ {
		prev := rng.Float64()
		k := (rng.Float64() - 0.5) * 500
		got := RK4(prev, 0, 1.0/1440, steep, k)
		if got < 0 || got > 1 {
			t.Fatalf("RK4(prev=%v, rate=%v) = %v, outside [0, 1]", prev, k, got)
		}
	}
}

func TestStress_Bounded(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	in := StressInput{
		StressParams: StressParams{Mean: 0.5, Sigma: 0.22, Reversion: 0.5, EWeight: 3},
	}
	for _, dt := range []float64{1.0 / 1440, 0.02, 1} {
		for i := 0; i < 5000; i++ {
			in.S = rng.Float64()
			in.E = rng.Float64()
			got := Stress(dt, in, rng.NormFloat64()*3)
			if got < 0 || got > 1 {
				t.Fatalf("Stress(dt=%v) = %v, outside [0, 1]", dt, got)
			}
		}
	}
}

func TestStress_DeterministicWithoutNoise(t *testing.T) {
	in := StressInput{
		S:            0.5,
		E:            0.2,
		StressParams: StressParams{Mean: 0.2, Sigma: 0.12, Reversion: 1.2, EWeight: 1},
	}
	dt := 0.1

	got := Stress(dt, in, 0)
	want := (0.5 + 1.2*(0.2-0.5)*dt) * math.Exp(-1*0.2*dt)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("Stress = %v, want %v", got, want)
	}
}

func TestStress_ReflectsNegative(t *testing.T) {
	in := StressInput{
		S:            0.01,
		StressParams: StressParams{Mean: 0, Sigma: 1, Reversion: 0},
	}
	// 0.01 + 1*1*(-0.5) = -0.49 -> 0.49
	got := Stress(1, in, -0.5)
	if math.Abs(got-0.49) > 1e-12 {
		t.Errorf("Stress = %v, want 0.49", got)
	}
}

func TestAversion_SignConvention(t *testing.T) {
	base := AversionInput{
		AversionParams: AversionParams{
			SWeight: 1, TWeight: 1, XWeight: 1, IWeight: 1, FWeight: 1, BWeight: 1,
		},
	}

	tests := []struct {
		name string
		mod  func(*AversionInput)
		want float64
	}{
		{"stress raises", func(in *AversionInput) { in.S = 1 }, 1},
		{"thought lowers", func(in *AversionInput) { in.T = 1 }, -1},
		{"behavior lowers", func(in *AversionInput) { in.X = 1 }, -1},
		{"internal lowers", func(in *AversionInput) { in.I = 1 }, -1},
		{"friends lower", func(in *AversionInput) { in.F = 1 }, -1},
		{"bullies raise", func(in *AversionInput) { in.B = 1 }, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.mod(&in)
			if got := Aversion(0, 0, in); got != tt.want {
				t.Errorf("Aversion = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAversion_LogisticTerm(t *testing.T) {
	in := AversionInput{AversionParams: AversionParams{Feedback: 6, CarryingCapacity: 0.2}}
	if got := Aversion(0.2, 0, in); got != 0 {
		t.Errorf("rate at carrying capacity = %v, want 0", got)
	}
	if got := Aversion(0.1, 0, in); got <= 0 {
		t.Errorf("rate below carrying capacity = %v, want > 0", got)
	}
}

func TestUrge(t *testing.T) {
	in := UrgeInput{A: 0.4, UrgeParams: UrgeParams{Feedback: 5, AWeight: 3}}
	got := Urge(0.2, 0, in)
	want := -5*0.2 + 3*0.4
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("Urge = %v, want %v", got, want)
	}
}

func TestStrategy(t *testing.T) {
	in := StrategyInput{
		A: 0.4, U: 0.3,
		StrategyParams: StrategyParams{Feedback: 3, CarryingCapacity: 0.1, AWeight: 0.41, UWeight: 0.6},
	}
	got := Strategy(0.05, 0, in)
	want := 3*0.05*(0.1-0.05) + 0.41*0.4 - 0.6*0.3
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("Strategy = %v, want %v", got, want)
	}
}

func TestSigmoid(t *testing.T) {
	in := SigmoidInput{U: 0.4, SigmoidParams: SigmoidParams{WeightNew: 0.8, Middle: 0.4, Steepness: 100}}

	// At the midpoint the logistic target is exactly 0.5.
	got := Sigmoid(0.1, 0, in)
	want := 0.2*0.1 + 0.8*0.5
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("Sigmoid at midpoint = %v, want %v", got, want)
	}

	// Unreachable midpoint keeps the target near zero.
	in.Middle = 1.1
	if got := Sigmoid(0, 0, in); got > 1e-10 {
		t.Errorf("Sigmoid with unreachable midpoint = %v, want ~0", got)
	}
}

func TestLogistic(t *testing.T) {
	if got := Logistic(0); got != 0.5 {
		t.Errorf("Logistic(0) = %v, want 0.5", got)
	}
	if Logistic(-50) >= Logistic(50) {
		t.Error("Logistic should be increasing")
	}
}

func TestApplyEvent(t *testing.T) {
	e := Event{Probability: 0.1, Strength: 0.5, Weight: 0.4}

	got, fired := ApplyEvent(0.3, e, 0.05)
	if !fired || math.Abs(got-0.5) > 1e-12 {
		t.Errorf("ApplyEvent(u=0.05) = (%v, %v), want (0.5, true)", got, fired)
	}

	got, fired = ApplyEvent(0.3, e, 0.5)
	if fired || got != 0.3 {
		t.Errorf("ApplyEvent(u=0.5) = (%v, %v), want (0.3, false)", got, fired)
	}

	got, fired = ApplyEvent(0.3, Event{}, 0)
	if fired || got != 0.3 {
		t.Errorf("disabled event fired: (%v, %v)", got, fired)
	}
}

func TestDecode_MissingParameter(t *testing.T) {
	in := AversionInput{S: 0.5, F: 0.2, AversionParams: AversionParams{Feedback: 6}}
	v := in.Values()
	delete(v, "B_weight")

	_, err := DecodeAversion(v)
	var missing *MissingParameterError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingParameterError, got %v", err)
	}
	if missing.Key != "B_weight" {
		t.Errorf("missing key = %q, want B_weight", missing.Key)
	}
}

func TestDecode_RoundTrip(t *testing.T) {
	urge := UrgeInput{A: 0.3, UrgeParams: UrgeParams{Feedback: 5, AWeight: 3}}
	got, err := DecodeUrge(urge.Values())
	if err != nil {
		t.Fatalf("DecodeUrge: %v", err)
	}
	if got != urge {
		t.Errorf("DecodeUrge = %+v, want %+v", got, urge)
	}

	strat := StrategyInput{A: 0.3, U: 0.1, StrategyParams: StrategyParams{Feedback: 3, CarryingCapacity: 0.05}}
	gotS, err := DecodeStrategy(strat.Values())
	if err != nil {
		t.Fatalf("DecodeStrategy: %v", err)
	}
	if gotS != strat {
		t.Errorf("DecodeStrategy = %+v, want %+v", gotS, strat)
	}
}

func TestDecode_EmptyValues(t *testing.T) {
	decoders := map[string]func(Values) error{
		"stress":   func(v Values) error { _, err := DecodeStress(v); return err },
		"urge":     func(v Values) error { _, err := DecodeUrge(v); return err },
		"sigmoid":  func(v Values) error { _, err := DecodeSigmoid(v); return err },
		"strategy": func(v Values) error { _, err := DecodeStrategy(v); return err },
	}
	for name, decode := range decoders {
		var missing *MissingParameterError
		if err := decode(Values{}); !errors.As(err, &missing) {
			t.Errorf("%s: expected MissingParameterError, got %v", name, err)
		}
	}
}
